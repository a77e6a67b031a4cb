package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/siphon/internal/ir"
	"github.com/roach88/siphon/internal/order"
	"github.com/roach88/siphon/internal/queryir"
)

func compileJSON(t *testing.T, src string) Result {
	t.Helper()
	expr, err := Parse(mustJSON(t, src))
	require.NoError(t, err)
	require.NoError(t, Validate(expr, peopleColumns(), nil))
	res, err := Compile(expr, peopleColumns())
	require.NoError(t, err)
	return res
}

func TestCompileFormats(t *testing.T) {
	testCases := []struct {
		name string
		src  string
		want string
	}{
		{name: "empty", src: `{}`, want: "TRUE"},
		{name: "single comparison", src: `{"age": {"gt": 18}}`, want: "age > 18"},
		{name: "sibling operators are AND-ed", src: `{"age": {"ge": 18, "le": 65}}`, want: "age >= 18 AND age <= 65"},
		{name: "column junction", src: `{"age": {"or": {"lt": 18, "gt": 65}}}`, want: "age < 18 OR age > 65"},
		{name: "single child junction is hoisted", src: `{"age": {"or": {"lt": 18}}}`, want: "age < 18"},
		{name: "single child top junction is hoisted", src: `{"or": {"name": {"eq": "Bob"}}}`, want: `name = "Bob"`},
		{name: "top junction fans out to columns", src: `{"or": {"age": {"lt": 18}, "name": {"eq": "Bob"}}}`, want: `age < 18 OR name = "Bob"`},
		{name: "junction children keep document order", src: `{"or": {"name": {"eq": "Bob"}, "age": {"lt": 18}}}`, want: `name = "Bob" OR age < 18`},
		{
			name: "nested junction",
			src:  `{"or": {"age": {"lt": 18}, "and": {"city": {"eq": "Oslo"}, "score": {"ge": 1.5}}}}`,
			want: `age < 18 OR (city = "Oslo" AND score >= 1.5)`,
		},
		{
			name: "junction list groups",
			src:  `{"or": [{"age": {"lt": 18}}, {"age": {"gt": 65}, "name": {"eq": "bob"}}]}`,
			want: `age < 18 OR (age > 65 AND name = "bob")`,
		},
		{
			name: "column group nested in top-level conjunction",
			src:  `{"name": {"eq": "Bob"}, "age": {"ge": 18, "le": 65}}`,
			want: `(age >= 18 AND age <= 65) AND name = "Bob"`,
		},
		{name: "list operator", src: `{"age": {"in_": ["1", 2]}}`, want: "age IN (1, 2)"},
		{name: "not in", src: `{"name": {"nin": ["a", "b"]}}`, want: `name NOT IN ("a", "b")`},
		{name: "bool", src: `{"active": {"eq": "1"}}`, want: "active = true"},
		{name: "timestamp", src: `{"created_at": {"lt": "2024-01-02"}}`, want: `created_at < "2024-01-02T00:00:00Z"`},
		{name: "keywords only", src: `{"order_by": "-age", "limit": 10}`, want: "TRUE"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := compileJSON(t, tc.src)
			assert.Equal(t, tc.want, queryir.Format(res.Predicate))
			assert.True(t, queryir.Validate(res.Predicate).Valid)
		})
	}
}

func TestCompileColumnsThenJunction(t *testing.T) {
	res := compileJSON(t, `{"or": [{"city": {"eq": "Oslo"}}, {"city": {"eq": "Bergen"}}], "name": {"ne": "x"}, "age": {"gt": 1}}`)
	assert.Equal(t, `age > 1 AND name != "x" AND (city = "Oslo" OR city = "Bergen")`, queryir.Format(res.Predicate))
}

func TestCompileImplicitAndIsOrderIndependent(t *testing.T) {
	a := compileJSON(t, `{"age": {"gt": 18}, "name": {"eq": "Bob"}}`)
	b := compileJSON(t, `{"name": {"eq": "Bob"}, "age": {"gt": 18}}`)

	want := queryir.And{Predicates: []queryir.Predicate{
		queryir.Comparison{Column: "age", Op: queryir.OpGt, Value: ir.Int(18)},
		queryir.Comparison{Column: "name", Op: queryir.OpEq, Value: ir.String("Bob")},
	}}
	assert.Equal(t, want, a.Predicate)
	assert.Equal(t, want, b.Predicate)
	assert.Equal(t, `age > 18 AND name = "Bob"`, queryir.Format(a.Predicate))
}

func TestCompileDirectives(t *testing.T) {
	res := compileJSON(t, `{"order_by": "-age", "limit": 10, "offset": 5}`)

	assert.Nil(t, res.Predicate)
	require.NotNil(t, res.Directives.Limit)
	require.NotNil(t, res.Directives.Offset)
	assert.Equal(t, uint64(10), *res.Directives.Limit)
	assert.Equal(t, uint64(5), *res.Directives.Offset)
	assert.Equal(t, []order.Spec{{Column: "age", Direction: order.Desc}}, res.Directives.OrderBy)
}

func TestCompileWithoutDirectives(t *testing.T) {
	res := compileJSON(t, `{"age": {"gt": 1}}`)
	assert.True(t, res.Directives.IsZero())
}

func TestCompileCoercedValues(t *testing.T) {
	res := compileJSON(t, `{"created_at": {"ge": "2024-03-01T10:00:00+02:00"}}`)

	cmp, ok := res.Predicate.(queryir.Comparison)
	require.True(t, ok)
	ts, ok := cmp.Value.(ir.Timestamp)
	require.True(t, ok)
	assert.True(t, ts.Equal(time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)))

	res = compileJSON(t, `{"age": {"in_": ["1", 2, 3.0]}}`)
	cmp = res.Predicate.(queryir.Comparison)
	assert.Equal(t, ir.NewList(ir.TypeInt, ir.Int(1), ir.Int(2), ir.Int(3)), cmp.Value)
}

func TestCompileUnvalidatedTreeReturnsError(t *testing.T) {
	expr, err := Parse(mustJSON(t, `{"age": {"eq": "abc"}}`))
	require.NoError(t, err)

	_, err = Compile(expr, peopleColumns())
	assert.True(t, IsInvalidValueError(err))

	expr, err = Parse(mustJSON(t, `{"ssn": {"eq": "1"}}`))
	require.NoError(t, err)

	_, err = Compile(expr, peopleColumns())
	assert.True(t, IsColumnError(err))
}
