package restrict

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/siphon/internal/ir"
	"github.com/roach88/siphon/internal/queryir"
)

// Spec is the declarative form of a restriction model, as written in CUE or
// YAML files.
type Spec struct {
	Name string `json:"name" yaml:"-"`

	// Columns maps a column name to its permitted operator tokens. An empty
	// list permits every operator.
	Columns map[string][]string `json:"columns" yaml:"columns"`

	// OrderBy lists the columns that may appear in order_by.
	OrderBy []string `json:"order_by" yaml:"order_by"`

	Limit  bool `json:"limit" yaml:"limit"`
	Offset bool `json:"offset" yaml:"offset"`

	// Source is the file:line of the declaration, when loaded from a file.
	Source string `json:"source,omitempty" yaml:"-"`
}

// Model is an immutable, validated restriction model.
type Model struct {
	name    string
	source  string
	columns map[string]map[queryir.Op]struct{}
	orderBy map[string]struct{}
	limit   bool
	offset  bool
}

// New builds a Model from spec, checking that every operator token belongs
// to the closed operator set. Column existence is checked by ValidateAgainst.
func New(spec Spec) (*Model, error) {
	m := &Model{
		name:    spec.Name,
		source:  spec.Source,
		columns: make(map[string]map[queryir.Op]struct{}, len(spec.Columns)),
		orderBy: make(map[string]struct{}, len(spec.OrderBy)),
		limit:   spec.Limit,
		offset:  spec.Offset,
	}

	var problems []Problem
	for _, col := range sortedKeys(spec.Columns) {
		ops := make(map[queryir.Op]struct{}, len(spec.Columns[col]))
		for i, token := range spec.Columns[col] {
			op, ok := queryir.ParseOp(token)
			if !ok {
				problems = append(problems, Problem{
					Field:   fmt.Sprintf("columns.%s[%d]", col, i),
					Message: fmt.Sprintf("unknown operator %q", token),
				})
				continue
			}
			ops[op] = struct{}{}
		}
		m.columns[norm.NFC.String(col)] = ops
	}
	for _, col := range spec.OrderBy {
		m.orderBy[norm.NFC.String(col)] = struct{}{}
	}

	if len(problems) > 0 {
		return nil, &ModelError{Model: spec.Name, Source: spec.Source, Problems: problems}
	}
	return m, nil
}

// ValidateAgainst checks that every column the model names exists in cols.
// It is called once, when the model is attached to a queryable.
func (m *Model) ValidateAgainst(cols ir.Columns) error {
	var problems []Problem
	for _, col := range m.Columns() {
		if !cols.Contains(col) {
			problems = append(problems, Problem{
				Field:   "columns." + col,
				Message: "unknown column",
			})
		}
	}
	for _, col := range m.OrderByColumns() {
		if !cols.Contains(col) {
			problems = append(problems, Problem{
				Field:   "order_by." + col,
				Message: "unknown column",
			})
		}
	}

	if len(problems) > 0 {
		return &ModelError{Model: m.name, Source: m.source, Problems: problems}
	}
	return nil
}

// Bind builds a Model from spec and validates it against cols. Operator and
// column problems are reported together.
func Bind(spec Spec, cols ir.Columns) (*Model, error) {
	m, err := New(spec)
	if err != nil {
		return nil, err
	}
	if err := m.ValidateAgainst(cols); err != nil {
		return nil, err
	}

	slog.Info("restriction model bound",
		"model", spec.Name,
		"columns", len(m.columns),
		"order_by", len(m.orderBy),
		"limit", m.limit,
		"offset", m.offset)
	return m, nil
}

// Name returns the model's name.
func (m *Model) Name() string { return m.name }

// AllowsColumn reports whether col may be filtered on.
func (m *Model) AllowsColumn(col string) bool {
	_, ok := m.columns[col]
	return ok
}

// AllowsOp reports whether op may be used on col. A column declared with an
// empty operator list accepts every operator.
func (m *Model) AllowsOp(col string, op queryir.Op) bool {
	ops, ok := m.columns[col]
	if !ok {
		return false
	}
	if len(ops) == 0 {
		return true
	}
	_, ok = ops[op]
	return ok
}

// Ops returns the operators permitted on col in declaration order of the
// operator set, or nil when every operator is permitted.
func (m *Model) Ops(col string) []queryir.Op {
	ops := m.columns[col]
	if len(ops) == 0 {
		return nil
	}
	out := make([]queryir.Op, 0, len(ops))
	for _, op := range queryir.AllOps() {
		if _, ok := ops[op]; ok {
			out = append(out, op)
		}
	}
	return out
}

// AllowsOrderBy reports whether col may appear in order_by.
func (m *Model) AllowsOrderBy(col string) bool {
	_, ok := m.orderBy[col]
	return ok
}

// AllowsLimit reports whether the limit keyword is enabled.
func (m *Model) AllowsLimit() bool { return m.limit }

// AllowsOffset reports whether the offset keyword is enabled.
func (m *Model) AllowsOffset() bool { return m.offset }

// Columns returns the filterable column names, sorted.
func (m *Model) Columns() []string {
	return sortedKeys(m.columns)
}

// OrderByColumns returns the orderable column names, sorted.
func (m *Model) OrderByColumns() []string {
	return sortedKeys(m.orderBy)
}

// Spec returns the declarative form of the model with operator lists
// normalized to declaration order.
func (m *Model) Spec() Spec {
	spec := Spec{
		Name:    m.name,
		Columns: make(map[string][]string, len(m.columns)),
		OrderBy: m.OrderByColumns(),
		Limit:   m.limit,
		Offset:  m.offset,
		Source:  m.source,
	}
	for col := range m.columns {
		tokens := []string{}
		for _, op := range m.Ops(col) {
			tokens = append(tokens, op.String())
		}
		spec.Columns[col] = tokens
	}
	return spec
}

// String summarizes the model on one line.
func (m *Model) String() string {
	cols := make([]string, 0, len(m.columns))
	for _, col := range m.Columns() {
		ops := m.Ops(col)
		if ops == nil {
			cols = append(cols, col+"[*]")
			continue
		}
		tokens := make([]string, len(ops))
		for i, op := range ops {
			tokens[i] = op.String()
		}
		cols = append(cols, col+"["+strings.Join(tokens, ",")+"]")
	}
	return fmt.Sprintf("%s: columns=%s order_by=%v limit=%t offset=%t",
		m.name, strings.Join(cols, " "), m.OrderByColumns(), m.limit, m.offset)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
