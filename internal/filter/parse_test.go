package filter

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/siphon/internal/order"
	"github.com/roach88/siphon/internal/queryir"
)

func TestParseTree(t *testing.T) {
	expr, err := Parse(mustJSON(t, `{
		"age": {"gt": 18, "or": {"lt": 30, "eq": 40}},
		"or": {"name": {"eq": "Bob"}, "and": {"city": {"eq": "Oslo"}, "score": {"ge": 1.5}}},
		"order_by": ["-age", "name.asc"],
		"limit": 10
	}`))
	require.NoError(t, err)
	require.Len(t, expr.Nodes, 4)

	assert.Equal(t, ColumnPredicate{
		Column: "age",
		Path:   "age",
		Ops: []OpNode{
			Operation{Op: queryir.OpGt, Path: "age.gt", Value: json.Number("18")},
			OpJunction{Kind: JunctionOr, Path: "age.or", Children: []OpNode{
				Operation{Op: queryir.OpLt, Path: "age.or.lt", Value: json.Number("30")},
				Operation{Op: queryir.OpEq, Path: "age.or.eq", Value: json.Number("40")},
			}},
		},
	}, expr.Nodes[0])

	or, ok := expr.Nodes[1].(Junction)
	require.True(t, ok)
	assert.Equal(t, JunctionOr, or.Kind)
	require.Len(t, or.Children, 2)
	assert.Equal(t, "or.name", or.Children[0].(ColumnPredicate).Path)
	and := or.Children[1].(Junction)
	assert.Equal(t, JunctionAnd, and.Kind)
	assert.Equal(t, "or.and", and.Path)
	assert.Len(t, and.Children, 2)

	assert.Equal(t, Keyword{
		Name: "order_by",
		Path: "order_by",
		OrderBy: []order.Spec{
			{Column: "age", Direction: order.Desc},
			{Column: "name", Direction: order.Asc},
		},
	}, expr.Nodes[2])

	limit, ok := expr.Keyword(KeywordLimit)
	require.True(t, ok)
	assert.Equal(t, uint64(10), limit.Count)

	_, ok = expr.Keyword(KeywordOffset)
	assert.False(t, ok)
}

func TestParseJunctionList(t *testing.T) {
	expr, err := Parse(mustJSON(t, `{"or": [{"age": {"lt": 18}}, {"age": {"gt": 65}, "name": {"eq": "bob"}}]}`))
	require.NoError(t, err)

	or := expr.Nodes[0].(Junction)
	require.Len(t, or.Children, 2)
	assert.Equal(t, "or[0].age", or.Children[0].(ColumnPredicate).Path)

	group := or.Children[1].(Junction)
	assert.Equal(t, JunctionAnd, group.Kind)
	assert.Equal(t, "or[1]", group.Path)
	assert.Len(t, group.Children, 2)
}

func TestParseOpJunctionList(t *testing.T) {
	expr, err := Parse(mustJSON(t, `{"age": {"or": [{"lt": 18}, {"gt": 65, "ne": 70}]}}`))
	require.NoError(t, err)

	cp := expr.Nodes[0].(ColumnPredicate)
	or := cp.Ops[0].(OpJunction)
	require.Len(t, or.Children, 2)
	assert.Equal(t, "age.or[0].lt", or.Children[0].(Operation).Path)
	assert.Equal(t, OpJunction{Kind: JunctionAnd, Path: "age.or[1]", Children: []OpNode{
		Operation{Op: queryir.OpGt, Path: "age.or[1].gt", Value: json.Number("65")},
		Operation{Op: queryir.OpNe, Path: "age.or[1].ne", Value: json.Number("70")},
	}}, or.Children[1])
}

func TestParseEmpty(t *testing.T) {
	expr, err := Parse(Object{})
	require.NoError(t, err)
	assert.Empty(t, expr.Nodes)
}

func TestParseFormatErrors(t *testing.T) {
	testCases := []struct {
		name string
		src  string
		path string
		msg  string
	}{
		{name: "and with or at top level", src: `{"and": {"age": {"gt": 1}}, "or": {"age": {"lt": 2}}}`, path: "or", msg: "only one junction"},
		{name: "first problem in document order wins", src: `{"or": {}, "and": {}}`, path: "or", msg: "empty or"},
		{name: "two junctions under a column", src: `{"age": {"and": {"gt": 1}, "or": {"lt": 2}}}`, path: "age.or", msg: "only one junction"},
		{name: "two junctions inside a junction", src: `{"or": {"and": {"age": {"gt": 1}}, "or": {"age": {"lt": 2}}}}`, path: "or.or", msg: "only one junction"},
		{name: "operator at top level", src: `{"gt": 5}`, path: "gt", msg: "no bound column"},
		{name: "operator inside top junction", src: `{"or": {"gt": 5}}`, path: "or.gt", msg: "no bound column"},
		{name: "column under column", src: `{"age": {"name": {"eq": "x"}}}`, path: "age.name", msg: `under column "age"`},
		{name: "column under column junction", src: `{"age": {"or": {"name": {"eq": "x"}}}}`, path: "age.or.name", msg: `under column "age"`},
		{name: "keyword inside junction", src: `{"or": {"limit": 5}}`, path: "or.limit", msg: "only allowed at the top level"},
		{name: "keyword under column", src: `{"age": {"order_by": "age"}}`, path: "age.order_by", msg: "only allowed at the top level"},
		{name: "column value not a mapping", src: `{"age": 5}`, path: "age", msg: "expects a mapping"},
		{name: "column without operators", src: `{"age": {}}`, path: "age", msg: "no operators"},
		{name: "empty junction", src: `{"and": {}}`, path: "and", msg: "empty and"},
		{name: "empty junction list", src: `{"and": []}`, path: "and", msg: "empty and"},
		{name: "junction scalar", src: `{"or": "age"}`, path: "or", msg: "expects a mapping or a list"},
		{name: "junction list of scalars", src: `{"or": [1]}`, path: "or[0]", msg: "non-empty mappings"},
		{name: "junction list with empty group", src: `{"age": {"or": [{}]}}`, path: "age.or[0]", msg: "non-empty mappings"},
		{name: "negative limit", src: `{"limit": -1}`, path: "limit", msg: "must not be negative"},
		{name: "negative offset string", src: `{"offset": "-3"}`, path: "offset", msg: "must not be negative"},
		{name: "fractional limit", src: `{"limit": 1.5}`, path: "limit", msg: "non-negative integer"},
		{name: "boolean limit", src: `{"limit": true}`, path: "limit", msg: "non-negative integer"},
		{name: "word limit", src: `{"limit": "ten"}`, path: "limit", msg: "non-negative integer"},
		{name: "limit past int64", src: `{"limit": 18446744073709551615}`, path: "limit", msg: "must not exceed 9223372036854775807"},
		{name: "offset string past int64", src: `{"offset": "9223372036854775808"}`, path: "offset", msg: "must not exceed 9223372036854775807"},
		{name: "offset string past uint64", src: `{"offset": "99999999999999999999"}`, path: "offset", msg: "must not exceed"},
		{name: "huge float limit", src: `{"limit": 1e19}`, path: "limit", msg: "must not exceed"},
		{name: "bad order_by string", src: `{"order_by": "age desc"}`, path: "order_by", msg: "asc(<col>)"},
		{name: "bad order_by item", src: `{"order_by": ["-age", "age"]}`, path: "order_by[1]", msg: `"age"`},
		{name: "order_by mapping", src: `{"order_by": {"age": "desc"}}`, path: "order_by", msg: "string or a list"},
		{name: "order_by number", src: `{"order_by": 5}`, path: "order_by", msg: "asc(<col>)"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(mustJSON(t, tc.src))
			require.Error(t, err)
			assert.True(t, IsFormatError(err), "got %v", err)

			var fe *Error
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tc.path, fe.Path)
			assert.Contains(t, fe.Message, tc.msg)
		})
	}
}

func TestParseSingleJunctionInvariantRegardlessOfContents(t *testing.T) {
	for _, src := range []string{
		`{"and": {"age": {"gt": 1}}, "or": {"age": {"gt": 1}}}`,
		`{"or": [{"name": {"eq": "a"}}], "and": [{"name": {"eq": "b"}}]}`,
		`{"and": {"ssn": {"eq": "x"}}, "or": {"age": {"eq": "not a number"}}}`,
	} {
		_, err := Parse(mustJSON(t, src))
		assert.True(t, IsFormatError(err), src)
	}
}

func TestParseUnknownKeyword(t *testing.T) {
	for _, src := range []string{
		`{"": {"eq": 1}}`,
		`{"age[gt]": 5}`,
		`{"$where": "1=1"}`,
		`{"1st": {"eq": 1}}`,
	} {
		_, err := Parse(mustJSON(t, src))
		assert.True(t, IsUnknownKeywordError(err), "%s: %v", src, err)
	}
}

func TestParseNestedBadKeyIsFormatError(t *testing.T) {
	_, err := Parse(mustJSON(t, `{"or": {"$where": {"eq": 1}}}`))
	assert.True(t, IsFormatError(err))
}

func TestParseDuplicateKeysInHandBuiltObject(t *testing.T) {
	_, err := Parse(Object{
		{Key: "age", Value: Object{{Key: "gt", Value: 1}}},
		{Key: "age", Value: Object{{Key: "lt", Value: 5}}},
	})
	require.Error(t, err)
	assert.True(t, IsFormatError(err))
	assert.Contains(t, err.Error(), "duplicate key")
}

func TestParseLimitForms(t *testing.T) {
	testCases := []struct {
		name string
		raw  any
		want uint64
	}{
		{name: "json number", raw: json.Number("10"), want: 10},
		{name: "int", raw: 3, want: 3},
		{name: "integral float", raw: 4.0, want: 4},
		{name: "digit string", raw: " 25 ", want: 25},
		{name: "zero", raw: "0", want: 0},
		{name: "exponent number", raw: json.Number("1e2"), want: 100},
		{name: "uint64 at int64 max", raw: uint64(math.MaxInt64), want: math.MaxInt64},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			expr, err := Parse(Object{{Key: "limit", Value: tc.raw}})
			require.NoError(t, err)
			kw, _ := expr.Keyword(KeywordLimit)
			assert.Equal(t, tc.want, kw.Count)
		})
	}
}

func TestParseMaxDepth(t *testing.T) {
	_, err := Parse(mustJSON(t, `{"age": {"gt": 1}}`), WithMaxDepth(2))
	require.NoError(t, err)

	_, err = Parse(mustJSON(t, `{"or": {"age": {"gt": 1}}}`), WithMaxDepth(2))
	require.Error(t, err)
	assert.True(t, IsFormatError(err))
	assert.Contains(t, err.Error(), "nesting deeper than 2 levels")
}

func TestParseDefaultMaxDepth(t *testing.T) {
	var inner any = Object{{Key: "age", Value: Object{{Key: "eq", Value: 1}}}}
	for i := 0; i < 100; i++ {
		inner = Object{{Key: "and", Value: inner}}
	}

	_, err := Parse(inner.(Object))
	require.Error(t, err)
	assert.True(t, IsFormatError(err))
	assert.Contains(t, err.Error(), "nesting deeper than 64 levels")

	_, err = Parse(inner.(Object), WithMaxDepth(200))
	assert.NoError(t, err)
}

func TestParseIgnoresNonPositiveMaxDepth(t *testing.T) {
	_, err := Parse(mustJSON(t, `{"or": {"age": {"gt": 1}}}`), WithMaxDepth(0))
	assert.NoError(t, err)
}
