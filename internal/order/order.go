// Package order parses the compact order_by mini-syntax.
//
// Three textual shapes are accepted per item, tried in this order:
//
//	asc(age)   desc(age)    function form
//	+age       -age         sign-prefix form
//	age.asc    age.desc     suffix form
//
// A single string is treated as a one-item list. Output preserves input
// order, which is the key priority when the result is applied as a sort.
package order

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Direction is a sort direction.
type Direction int

const (
	Asc Direction = iota
	Desc
)

// String returns "asc" or "desc".
func (d Direction) String() string {
	if d == Desc {
		return "desc"
	}
	return "asc"
}

// SQL returns "ASC" or "DESC".
func (d Direction) SQL() string {
	return strings.ToUpper(d.String())
}

// MarshalText implements encoding.TextMarshaler.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Spec is one sort key.
type Spec struct {
	Column    string    `json:"column"`
	Direction Direction `json:"direction"`
}

// String renders the spec in suffix form.
func (s Spec) String() string {
	return s.Suffix()
}

// Function renders the spec in function form, e.g. desc(age).
func (s Spec) Function() string {
	return fmt.Sprintf("%s(%s)", s.Direction, s.Column)
}

// Sign renders the spec in sign-prefix form, e.g. -age.
func (s Spec) Sign() string {
	if s.Direction == Desc {
		return "-" + s.Column
	}
	return "+" + s.Column
}

// Suffix renders the spec in suffix form, e.g. age.desc.
func (s Spec) Suffix() string {
	return s.Column + "." + s.Direction.String()
}

// AcceptedShapes is quoted in every SyntaxError.
const AcceptedShapes = "asc(<col>) / desc(<col>), +<col> / -<col>, <col>.asc / <col>.desc"

// SyntaxError reports an order_by item that matches none of the shapes.
type SyntaxError struct {
	// Index is the position of the item in the input list.
	Index int

	// Literal is the offending item, formatted with %v when not a string.
	Literal string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid order_by item %q at index %d: expected one of %s", e.Literal, e.Index, AcceptedShapes)
}

const ident = `[\p{L}_][\p{L}\p{N}_]*(?:\.[\p{L}_][\p{L}\p{N}_]*)*`

var (
	functionForm = regexp.MustCompile(`^(asc|desc)\((` + ident + `)\)$`)
	signForm     = regexp.MustCompile(`^([+-])(` + ident + `)$`)
	suffixForm   = regexp.MustCompile(`^(` + ident + `)\.(asc|desc)$`)
)

// Parse parses raw into sort keys. raw may be a string, a []string, or a
// []any whose items are all strings.
func Parse(raw any) ([]Spec, error) {
	var items []any
	switch v := raw.(type) {
	case string:
		items = []any{v}
	case []string:
		items = make([]any, len(v))
		for i, s := range v {
			items[i] = s
		}
	case []any:
		items = v
	default:
		return nil, &SyntaxError{Index: 0, Literal: fmt.Sprintf("%v", raw)}
	}

	specs := make([]Spec, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, &SyntaxError{Index: i, Literal: fmt.Sprintf("%v", item)}
		}
		spec, ok := ParseItem(s)
		if !ok {
			return nil, &SyntaxError{Index: i, Literal: s}
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// ParseItem parses a single item. The first matching shape wins.
func ParseItem(s string) (Spec, bool) {
	s = norm.NFC.String(strings.TrimSpace(s))

	if m := functionForm.FindStringSubmatch(s); m != nil {
		return Spec{Column: m[2], Direction: direction(m[1])}, true
	}
	if m := signForm.FindStringSubmatch(s); m != nil {
		if m[1] == "-" {
			return Spec{Column: m[2], Direction: Desc}, true
		}
		return Spec{Column: m[2], Direction: Asc}, true
	}
	if m := suffixForm.FindStringSubmatch(s); m != nil {
		return Spec{Column: m[1], Direction: direction(m[2])}, true
	}
	return Spec{}, false
}

func direction(word string) Direction {
	if word == "desc" {
		return Desc
	}
	return Asc
}

// Columns returns the column names of specs in order.
func Columns(specs []Spec) []string {
	out := make([]string, len(specs))
	for i, s := range specs {
		out[i] = s.Column
	}
	return out
}
