package filter

import (
	"slices"
	"strings"

	"github.com/roach88/siphon/internal/ir"
	"github.com/roach88/siphon/internal/queryir"
)

// Result is the compiled form of a filter expression.
type Result struct {
	// Predicate is nil when the expression has no filter keys.
	Predicate  queryir.Predicate
	Directives queryir.Directives
}

// Compile lowers a validated expression into a predicate tree and
// directives.
//
// Top-level column predicates are AND-ed in column-name order, followed by
// the top-level junction, so the result does not depend on key order.
// Junctions with a single child are hoisted.
//
// Compile expects an expression that passed Validate. Given one that did
// not, it returns an error for the first value or column it cannot resolve;
// model restrictions are not rechecked.
func Compile(expr *Expr, cols ir.Columns) (Result, error) {
	c := &compiler{cols: cols}

	var (
		columns  []ColumnPredicate
		junction *Junction
		res      Result
	)
	for _, n := range expr.Nodes {
		switch node := n.(type) {
		case ColumnPredicate:
			columns = append(columns, node)
		case Junction:
			junction = &node
		case Keyword:
			c.keyword(node, &res.Directives)
		}
	}

	slices.SortStableFunc(columns, func(a, b ColumnPredicate) int {
		return strings.Compare(a.Column, b.Column)
	})

	conjuncts := make([]queryir.Predicate, 0, len(columns)+1)
	for _, cp := range columns {
		p, err := c.column(cp)
		if err != nil {
			return Result{}, err
		}
		conjuncts = append(conjuncts, p)
	}
	if junction != nil {
		p, err := c.junction(*junction)
		if err != nil {
			return Result{}, err
		}
		conjuncts = append(conjuncts, p)
	}

	res.Predicate = queryir.Conjoin(conjuncts...)
	return res, nil
}

type compiler struct {
	cols ir.Columns
}

func (c *compiler) keyword(kw Keyword, d *queryir.Directives) {
	switch kw.Name {
	case KeywordLimit:
		n := kw.Count
		d.Limit = &n
	case KeywordOffset:
		n := kw.Count
		d.Offset = &n
	case KeywordOrderBy:
		d.OrderBy = slices.Clone(kw.OrderBy)
	}
}

func (c *compiler) node(n Node) (queryir.Predicate, error) {
	switch node := n.(type) {
	case ColumnPredicate:
		return c.column(node)
	case Junction:
		return c.junction(node)
	default:
		return nil, formatError("", "unexpected node %T inside a junction", n)
	}
}

func (c *compiler) junction(j Junction) (queryir.Predicate, error) {
	preds := make([]queryir.Predicate, 0, len(j.Children))
	for _, child := range j.Children {
		p, err := c.node(child)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return combine(j.Kind, preds), nil
}

func (c *compiler) column(cp ColumnPredicate) (queryir.Predicate, error) {
	col, ok := c.cols.Get(cp.Column)
	if !ok {
		return nil, newError(KindColumn, cp.Path, cp.Column, "unknown column %q", cp.Column)
	}
	preds, err := c.ops(col, cp.Ops)
	if err != nil {
		return nil, err
	}
	return queryir.Conjoin(preds...), nil
}

func (c *compiler) ops(col ir.Column, ops []OpNode) ([]queryir.Predicate, error) {
	preds := make([]queryir.Predicate, 0, len(ops))
	for _, n := range ops {
		switch op := n.(type) {
		case Operation:
			val, err := coerceOperand(col, op)
			if err != nil {
				return nil, err
			}
			preds = append(preds, queryir.Comparison{Column: col.Name, Op: op.Op, Value: val})
		case OpJunction:
			children, err := c.ops(col, op.Children)
			if err != nil {
				return nil, err
			}
			preds = append(preds, combine(op.Kind, children))
		}
	}
	return preds, nil
}

func combine(kind JunctionKind, preds []queryir.Predicate) queryir.Predicate {
	if kind == JunctionOr {
		return queryir.Disjoin(preds...)
	}
	return queryir.Conjoin(preds...)
}
