package queryir

import (
	"github.com/roach88/siphon/internal/ir"
	"github.com/roach88/siphon/internal/order"
)

// Op is a comparison operator.
type Op uint8

const (
	OpEq Op = iota + 1
	OpNe
	OpGt
	OpGe
	OpLt
	OpLe
	OpIn
	OpNin
)

var opTokens = [...]string{
	OpEq:  "eq",
	OpNe:  "ne",
	OpGt:  "gt",
	OpGe:  "ge",
	OpLt:  "lt",
	OpLe:  "le",
	OpIn:  "in_",
	OpNin: "nin",
}

var opSymbols = [...]string{
	OpEq:  "=",
	OpNe:  "!=",
	OpGt:  ">",
	OpGe:  ">=",
	OpLt:  "<",
	OpLe:  "<=",
	OpIn:  "IN",
	OpNin: "NOT IN",
}

var tokenOps = map[string]Op{
	"eq":  OpEq,
	"ne":  OpNe,
	"gt":  OpGt,
	"ge":  OpGe,
	"lt":  OpLt,
	"le":  OpLe,
	"in_": OpIn,
	"nin": OpNin,
}

// AllOps lists every operator in declaration order.
func AllOps() []Op {
	return []Op{OpEq, OpNe, OpGt, OpGe, OpLt, OpLe, OpIn, OpNin}
}

// ParseOp maps a DSL token to its operator.
func ParseOp(token string) (Op, bool) {
	op, ok := tokenOps[token]
	return op, ok
}

// IsOpToken reports whether token names an operator.
func IsOpToken(token string) bool {
	_, ok := tokenOps[token]
	return ok
}

// Valid reports whether op is one of the declared operators.
func (op Op) Valid() bool {
	return op >= OpEq && op <= OpNin
}

// String returns the DSL token (eq, in_, ...).
func (op Op) String() string {
	if !op.Valid() {
		return "invalid"
	}
	return opTokens[op]
}

// Symbol returns the SQL-style symbol used for display.
func (op Op) Symbol() string {
	if !op.Valid() {
		return "?"
	}
	return opSymbols[op]
}

// TakesList reports whether the operator's value is a sequence.
func (op Op) TakesList() bool {
	return op == OpIn || op == OpNin
}

// MarshalText implements encoding.TextMarshaler.
func (op Op) MarshalText() ([]byte, error) {
	return []byte(op.String()), nil
}

// Predicate represents a filter condition.
//
// This is a sealed interface - only types in this package implement it.
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Comparison represents a column-operator-literal predicate.
//
// Semantics:
//
//	<column> <op> <value>
//
// For OpIn and OpNin, Value is an ir.List.
type Comparison struct {
	Column string
	Op     Op
	Value  ir.Value
}

func (Comparison) predicateNode() {}

// And represents a conjunction of predicates (all must be true).
// The compiler never emits an And with fewer than two children.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Or represents a disjunction of predicates (any must be true).
// The compiler never emits an Or with fewer than two children.
type Or struct {
	Predicates []Predicate
}

func (Or) predicateNode() {}

// Conjoin combines predicates with AND, hoisting the trivial cases:
// no predicates yields nil, a single predicate is returned unchanged.
func Conjoin(preds ...Predicate) Predicate {
	preds = dropNil(preds)
	switch len(preds) {
	case 0:
		return nil
	case 1:
		return preds[0]
	default:
		return And{Predicates: preds}
	}
}

// Disjoin combines predicates with OR, hoisting like Conjoin.
func Disjoin(preds ...Predicate) Predicate {
	preds = dropNil(preds)
	switch len(preds) {
	case 0:
		return nil
	case 1:
		return preds[0]
	default:
		return Or{Predicates: preds}
	}
}

func dropNil(preds []Predicate) []Predicate {
	out := preds[:0:0]
	for _, p := range preds {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

// Directives carries the result-shaping keywords of a filter expression.
// A nil Limit or Offset means the keyword was absent.
type Directives struct {
	OrderBy []order.Spec
	Limit   *uint64
	Offset  *uint64
}

// IsZero reports whether no directive is set.
func (d Directives) IsZero() bool {
	return len(d.OrderBy) == 0 && d.Limit == nil && d.Offset == nil
}
