package filter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/siphon/internal/ir"
	"github.com/roach88/siphon/internal/restrict"
)

func peopleColumns() *ir.Schema {
	return ir.NewSchema(
		ir.Column{Name: "id", Type: ir.TypeInt},
		ir.Column{Name: "name", Type: ir.TypeString},
		ir.Column{Name: "age", Type: ir.TypeInt},
		ir.Column{Name: "city", Type: ir.TypeString},
		ir.Column{Name: "score", Type: ir.TypeFloat},
		ir.Column{Name: "active", Type: ir.TypeBool},
		ir.Column{Name: "created_at", Type: ir.TypeTimestamp},
	)
}

func mustJSON(t *testing.T, src string) Object {
	t.Helper()
	obj, err := DecodeJSON([]byte(src))
	require.NoError(t, err)
	return obj
}

func mustModel(t *testing.T, spec restrict.Spec) *restrict.Model {
	t.Helper()
	m, err := restrict.Bind(spec, peopleColumns())
	require.NoError(t, err)
	return m
}

// check parses and validates src, the way Filter.Check does.
func check(t *testing.T, src string, model *restrict.Model) error {
	t.Helper()
	expr, err := Parse(mustJSON(t, src))
	if err != nil {
		return err
	}
	return Validate(expr, peopleColumns(), model)
}

func mustFilter(t *testing.T, cols ir.Columns, model *restrict.Model, opts ...Option) *Filter {
	t.Helper()
	f, err := New(cols, model, opts...)
	require.NoError(t, err)
	return f
}
