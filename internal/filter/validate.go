package filter

import (
	"github.com/roach88/siphon/internal/coerce"
	"github.com/roach88/siphon/internal/ir"
	"github.com/roach88/siphon/internal/restrict"
)

// Validate checks a parsed expression against the queryable's columns and,
// when model is non-nil, against the restriction model. It returns the
// first violation in document order as an *Error.
//
// Validate is pure; a bound restriction model may be shared by concurrent
// callers.
func Validate(expr *Expr, cols ir.Columns, model *restrict.Model) error {
	v := &validator{cols: cols, model: model}
	for _, n := range expr.Nodes {
		if err := v.node(n); err != nil {
			return err
		}
	}
	return nil
}

type validator struct {
	cols  ir.Columns
	model *restrict.Model
}

func (v *validator) node(n Node) error {
	switch node := n.(type) {
	case Keyword:
		return v.keyword(node)
	case Junction:
		for _, child := range node.Children {
			if err := v.node(child); err != nil {
				return err
			}
		}
		return nil
	case ColumnPredicate:
		return v.column(node)
	default:
		return formatError("", "unexpected node %T", n)
	}
}

func (v *validator) keyword(kw Keyword) error {
	switch kw.Name {
	case KeywordLimit:
		if v.model != nil && !v.model.AllowsLimit() {
			return newError(KindColumn, kw.Path, "", "limit is not enabled for this query")
		}
	case KeywordOffset:
		if v.model != nil && !v.model.AllowsOffset() {
			return newError(KindColumn, kw.Path, "", "offset is not enabled for this query")
		}
	case KeywordOrderBy:
		for i, spec := range kw.OrderBy {
			path := indexPath(kw.Path, i)
			if !v.cols.Contains(spec.Column) {
				return newError(KindColumn, path, spec.Column, "unknown column %q", spec.Column)
			}
			if v.model != nil && !v.model.AllowsOrderBy(spec.Column) {
				return newError(KindColumn, path, spec.Column, "ordering by %q is not allowed", spec.Column)
			}
		}
	}
	return nil
}

func (v *validator) column(cp ColumnPredicate) error {
	col, ok := v.cols.Get(cp.Column)
	if !ok {
		return newError(KindColumn, cp.Path, cp.Column, "unknown column %q", cp.Column)
	}
	if v.model != nil && !v.model.AllowsColumn(cp.Column) {
		return newError(KindColumn, cp.Path, cp.Column, "filtering on %q is not allowed", cp.Column)
	}
	return v.ops(col, cp.Ops)
}

func (v *validator) ops(col ir.Column, ops []OpNode) error {
	for _, n := range ops {
		switch op := n.(type) {
		case Operation:
			if v.model != nil && !v.model.AllowsOp(col.Name, op.Op) {
				return newError(KindInvalidOperator, op.Path, col.Name, "operator %q is not allowed on %q", op.Op, col.Name)
			}
			if _, err := coerceOperand(col, op); err != nil {
				return err
			}
		case OpJunction:
			if err := v.ops(col, op.Children); err != nil {
				return err
			}
		}
	}
	return nil
}

// coerceOperand coerces an operation's value to col's type: element-wise
// for in_ and nin, as a scalar otherwise.
func coerceOperand(col ir.Column, op Operation) (ir.Value, error) {
	var (
		val ir.Value
		err error
	)
	if op.Op.TakesList() {
		if _, isObj := op.Value.(Object); isObj {
			return nil, newError(KindInvalidValue, op.Path, col.Name, "%s expects a list, got a mapping", op.Op)
		}
		val, err = coerce.CoerceList(col, op.Value)
	} else {
		val, err = coerce.Coerce(col, op.Value)
	}
	if err != nil {
		return nil, &Error{Kind: KindInvalidValue, Path: op.Path, Column: col.Name, Message: err.Error(), Err: err}
	}
	return val, nil
}
