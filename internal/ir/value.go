package ir

import (
	"strconv"
	"time"
)

// Value is a sealed interface over coerced filter literals.
// Only Int, Float, String, Bool, Timestamp and List implement it.
type Value interface {
	// Type returns the semantic type of the value. For a List it is the
	// element type.
	Type() SemanticType

	// Native returns the plain Go value handed to database drivers:
	// int64, float64, string, bool, time.Time, or []any for a List.
	Native() any

	irValue() // Sealed - only types in this package implement it
}

// Int is a 64-bit integer literal.
type Int int64

func (Int) irValue()           {}
func (Int) Type() SemanticType { return TypeInt }
func (v Int) Native() any      { return int64(v) }
func (v Int) String() string   { return strconv.FormatInt(int64(v), 10) }

// Float is a float64 literal.
type Float float64

func (Float) irValue()           {}
func (Float) Type() SemanticType { return TypeFloat }
func (v Float) Native() any      { return float64(v) }
func (v Float) String() string   { return strconv.FormatFloat(float64(v), 'g', -1, 64) }

// String is a text literal.
type String string

func (String) irValue()           {}
func (String) Type() SemanticType { return TypeString }
func (v String) Native() any      { return string(v) }

// Bool is a boolean literal.
type Bool bool

func (Bool) irValue()           {}
func (Bool) Type() SemanticType { return TypeBool }
func (v Bool) Native() any      { return bool(v) }

// Timestamp is a point in time. The original offset is preserved.
type Timestamp struct {
	time.Time
}

func (Timestamp) irValue()           {}
func (Timestamp) Type() SemanticType { return TypeTimestamp }
func (v Timestamp) Native() any      { return v.Time }

// String renders the timestamp as RFC 3339 with nanoseconds.
func (v Timestamp) String() string { return v.Time.Format(time.RFC3339Nano) }

// List is an ordered sequence of scalars sharing one semantic type.
type List struct {
	Elem  SemanticType
	Items []Value
}

func (List) irValue()             {}
func (l List) Type() SemanticType { return l.Elem }

// Native returns the items as a []any of native values.
func (l List) Native() any {
	out := make([]any, len(l.Items))
	for i, item := range l.Items {
		out[i] = item.Native()
	}
	return out
}

// Len returns the number of items.
func (l List) Len() int { return len(l.Items) }

// NewTimestamp wraps a time.Time.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// NewList builds a List of the given element type.
func NewList(elem SemanticType, items ...Value) List {
	return List{Elem: elem, Items: items}
}
