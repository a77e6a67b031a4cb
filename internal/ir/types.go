package ir

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// SemanticType is the type class of a column, as far as filtering cares.
// Backends map their native types onto these five.
type SemanticType int

const (
	TypeInvalid SemanticType = iota
	TypeInt
	TypeFloat
	TypeString
	TypeBool
	TypeTimestamp
)

var semanticTypeNames = map[SemanticType]string{
	TypeInt:       "int",
	TypeFloat:     "float",
	TypeString:    "string",
	TypeBool:      "bool",
	TypeTimestamp: "timestamp",
}

// String returns the lower-case name used in scenario files and CLI flags.
func (t SemanticType) String() string {
	if name, ok := semanticTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("SemanticType(%d)", int(t))
}

// MarshalText implements encoding.TextMarshaler.
func (t SemanticType) MarshalText() ([]byte, error) {
	if _, ok := semanticTypeNames[t]; !ok {
		return nil, fmt.Errorf("invalid semantic type %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
// yaml.v3 and encoding/json both pick this up.
func (t *SemanticType) UnmarshalText(text []byte) error {
	parsed, err := ParseSemanticType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseSemanticType parses a type name. Common aliases are accepted
// (integer, double, text, boolean, datetime).
func ParseSemanticType(s string) (SemanticType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "int", "integer", "bigint":
		return TypeInt, nil
	case "float", "double", "real", "number":
		return TypeFloat, nil
	case "string", "text", "str", "varchar":
		return TypeString, nil
	case "bool", "boolean":
		return TypeBool, nil
	case "timestamp", "datetime", "time", "date":
		return TypeTimestamp, nil
	default:
		return TypeInvalid, fmt.Errorf("unknown semantic type %q: must be one of int, float, string, bool, timestamp", s)
	}
}

// Column describes one filterable column of a queryable.
type Column struct {
	Name string       `json:"name" yaml:"name"`
	Type SemanticType `json:"type" yaml:"type"`
}

// Columns is the lookup a queryable supplies to the compiler.
//
// Implementations must be safe for concurrent reads.
type Columns interface {
	Get(name string) (Column, bool)
	Contains(name string) bool
}

// Schema is an immutable, ordered Columns implementation.
type Schema struct {
	byName map[string]Column
	order  []string
}

// NewSchema builds a Schema. Later duplicates replace earlier ones but keep
// the original position.
func NewSchema(cols ...Column) *Schema {
	s := &Schema{
		byName: make(map[string]Column, len(cols)),
		order:  make([]string, 0, len(cols)),
	}
	for _, c := range cols {
		c.Name = norm.NFC.String(c.Name)
		if _, seen := s.byName[c.Name]; !seen {
			s.order = append(s.order, c.Name)
		}
		s.byName[c.Name] = c
	}
	return s
}

// SchemaFromMap builds a Schema from name → type pairs, ordered by name.
func SchemaFromMap(m map[string]SemanticType) *Schema {
	cols := make([]Column, 0, len(m))
	for name, typ := range m {
		cols = append(cols, Column{Name: name, Type: typ})
	}
	sortColumns(cols)
	return NewSchema(cols...)
}

// Get returns the column with the given name.
func (s *Schema) Get(name string) (Column, bool) {
	c, ok := s.byName[norm.NFC.String(name)]
	return c, ok
}

// Contains reports whether the schema has a column with the given name.
func (s *Schema) Contains(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// Names returns column names in declaration order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Columns returns the columns in declaration order.
func (s *Schema) Columns() []Column {
	out := make([]Column, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.byName[name])
	}
	return out
}

// Len returns the number of columns.
func (s *Schema) Len() int {
	return len(s.order)
}

func sortColumns(cols []Column) {
	slices.SortFunc(cols, func(a, b Column) int {
		return strings.Compare(a.Name, b.Name)
	})
}
