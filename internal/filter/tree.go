package filter

import (
	"github.com/roach88/siphon/internal/order"
	"github.com/roach88/siphon/internal/queryir"
)

// JunctionKind is "and" or "or".
type JunctionKind string

const (
	JunctionAnd JunctionKind = "and"
	JunctionOr  JunctionKind = "or"
)

// Keyword names.
const (
	KeywordLimit   = "limit"
	KeywordOffset  = "offset"
	KeywordOrderBy = "order_by"
)

func isJunctionKey(k string) bool {
	return k == string(JunctionAnd) || k == string(JunctionOr)
}

func isKeyword(k string) bool {
	return k == KeywordLimit || k == KeywordOffset || k == KeywordOrderBy
}

// Node is a parsed filter node.
//
// This is a sealed interface - only Junction, ColumnPredicate and Keyword
// implement it. Keywords only ever appear in Expr.Nodes, never inside a
// Junction.
type Node interface {
	filterNode()
}

// Junction combines column predicates and further junctions.
type Junction struct {
	Kind     JunctionKind
	Path     string
	Children []Node
}

func (Junction) filterNode() {}

// ColumnPredicate binds operations to one column. Sibling operations are
// AND-ed.
type ColumnPredicate struct {
	Column string
	Path   string
	Ops    []OpNode
}

func (ColumnPredicate) filterNode() {}

// Keyword is a result-shaping directive. Count is set for limit and
// offset, OrderBy for order_by.
type Keyword struct {
	Name    string
	Path    string
	Count   uint64
	OrderBy []order.Spec
}

func (Keyword) filterNode() {}

// OpNode is a node under a column: an Operation or an OpJunction.
//
// This is a sealed interface.
type OpNode interface {
	opNode()
}

// Operation is a single operator clause. Value is the raw literal; it is
// coerced during validation and compilation.
type Operation struct {
	Op    queryir.Op
	Path  string
	Value any
}

func (Operation) opNode() {}

// OpJunction combines operator clauses on the same column.
type OpJunction struct {
	Kind     JunctionKind
	Path     string
	Children []OpNode
}

func (OpJunction) opNode() {}

// Expr is a parsed filter expression: the top-level nodes in document
// order. At most one of them is a Junction.
type Expr struct {
	Nodes []Node
}

// Keyword returns the named keyword node, if present.
func (e *Expr) Keyword(name string) (Keyword, bool) {
	for _, n := range e.Nodes {
		if kw, ok := n.(Keyword); ok && kw.Name == name {
			return kw, true
		}
	}
	return Keyword{}, false
}
