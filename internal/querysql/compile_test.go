package querysql

import (
	"testing"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/siphon/internal/ir"
	"github.com/roach88/siphon/internal/order"
	"github.com/roach88/siphon/internal/queryir"
)

func ptr(n uint64) *uint64 { return &n }

func TestCompile_Predicates(t *testing.T) {
	testCases := []struct {
		name   string
		pred   queryir.Predicate
		sql    string
		params []any
	}{
		{
			name: "no predicate",
			pred: nil,
			sql:  `SELECT * FROM "people"`,
		},
		{
			name:   "comparison",
			pred:   queryir.Comparison{Column: "age", Op: queryir.OpGt, Value: ir.Int(18)},
			sql:    `SELECT * FROM "people" WHERE "age" > ?`,
			params: []any{int64(18)},
		},
		{
			name: "every scalar operator",
			pred: queryir.And{Predicates: []queryir.Predicate{
				queryir.Comparison{Column: "a", Op: queryir.OpEq, Value: ir.Int(1)},
				queryir.Comparison{Column: "b", Op: queryir.OpNe, Value: ir.String("x")},
				queryir.Comparison{Column: "c", Op: queryir.OpGe, Value: ir.Float(1.5)},
				queryir.Comparison{Column: "d", Op: queryir.OpLt, Value: ir.Int(2)},
				queryir.Comparison{Column: "e", Op: queryir.OpLe, Value: ir.Bool(true)},
			}},
			sql:    `SELECT * FROM "people" WHERE ("a" = ? AND "b" <> ? AND "c" >= ? AND "d" < ? AND "e" <= ?)`,
			params: []any{int64(1), "x", 1.5, int64(2), true},
		},
		{
			name: "nested junctions",
			pred: queryir.Or{Predicates: []queryir.Predicate{
				queryir.Comparison{Column: "age", Op: queryir.OpLt, Value: ir.Int(18)},
				queryir.And{Predicates: []queryir.Predicate{
					queryir.Comparison{Column: "age", Op: queryir.OpGt, Value: ir.Int(65)},
					queryir.Comparison{Column: "city", Op: queryir.OpEq, Value: ir.String("Oslo")},
				}},
			}},
			sql:    `SELECT * FROM "people" WHERE ("age" < ? OR ("age" > ? AND "city" = ?))`,
			params: []any{int64(18), int64(65), "Oslo"},
		},
		{
			name:   "in",
			pred:   queryir.Comparison{Column: "age", Op: queryir.OpIn, Value: ir.NewList(ir.TypeInt, ir.Int(1), ir.Int(2), ir.Int(3))},
			sql:    `SELECT * FROM "people" WHERE "age" IN (?,?,?)`,
			params: []any{int64(1), int64(2), int64(3)},
		},
		{
			name:   "not in",
			pred:   queryir.Comparison{Column: "name", Op: queryir.OpNin, Value: ir.NewList(ir.TypeString, ir.String("a"), ir.String("b"))},
			sql:    `SELECT * FROM "people" WHERE "name" NOT IN (?,?)`,
			params: []any{"a", "b"},
		},
		{
			name: "empty in matches nothing",
			pred: queryir.Comparison{Column: "age", Op: queryir.OpIn, Value: ir.NewList(ir.TypeInt)},
			sql:  `SELECT * FROM "people" WHERE (1=0)`,
		},
		{
			name: "empty not in matches everything",
			pred: queryir.Comparison{Column: "age", Op: queryir.OpNin, Value: ir.NewList(ir.TypeInt)},
			sql:  `SELECT * FROM "people" WHERE (1=1)`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sql, params, err := NewSQLCompiler("people").Compile(tc.pred, queryir.Directives{})
			require.NoError(t, err)
			assert.Equal(t, tc.sql, sql)
			if tc.params == nil {
				assert.Empty(t, params)
			} else {
				assert.Equal(t, tc.params, params)
			}
		})
	}
}

func TestCompile_ValuesNeverInterpolated(t *testing.T) {
	pred := queryir.Comparison{Column: "name", Op: queryir.OpEq, Value: ir.String("x' OR '1'='1")}

	sql, params, err := NewSQLCompiler("people").Compile(pred, queryir.Directives{})
	require.NoError(t, err)
	assert.NotContains(t, sql, "OR '1'")
	assert.Equal(t, []any{"x' OR '1'='1"}, params)
}

func TestCompile_Directives(t *testing.T) {
	testCases := []struct {
		name       string
		directives queryir.Directives
		tiebreaker string
		sql        string
	}{
		{
			name: "order, limit, offset",
			directives: queryir.Directives{
				OrderBy: []order.Spec{{Column: "age", Direction: order.Desc}, {Column: "name", Direction: order.Asc}},
				Limit:   ptr(10),
				Offset:  ptr(5),
			},
			sql: `SELECT * FROM "people" ORDER BY "age" DESC, "name" ASC LIMIT 10 OFFSET 5`,
		},
		{
			name:       "limit only",
			directives: queryir.Directives{Limit: ptr(3)},
			sql:        `SELECT * FROM "people" LIMIT 3`,
		},
		{
			name:       "offset without limit",
			directives: queryir.Directives{Offset: ptr(4)},
			sql:        `SELECT * FROM "people" LIMIT -1 OFFSET 4`,
		},
		{
			name:       "tiebreaker appended",
			directives: queryir.Directives{OrderBy: []order.Spec{{Column: "age", Direction: order.Desc}}},
			tiebreaker: "id",
			sql:        `SELECT * FROM "people" ORDER BY "age" DESC, "id" ASC`,
		},
		{
			name:       "tiebreaker already ordered",
			directives: queryir.Directives{OrderBy: []order.Spec{{Column: "id", Direction: order.Desc}}},
			tiebreaker: "id",
			sql:        `SELECT * FROM "people" ORDER BY "id" DESC`,
		},
		{
			name:       "tiebreaker without order_by",
			tiebreaker: "id",
			sql:        `SELECT * FROM "people" ORDER BY "id" ASC`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewSQLCompiler("people")
			c.TieBreaker = tc.tiebreaker

			sql, _, err := c.Compile(nil, tc.directives)
			require.NoError(t, err)
			assert.Equal(t, tc.sql, sql)
		})
	}
}

func TestCompile_DollarPlaceholders(t *testing.T) {
	c := &SQLCompiler{Table: "people", Columns: []string{"id", "name"}, Placeholder: sq.Dollar}
	pred := queryir.And{Predicates: []queryir.Predicate{
		queryir.Comparison{Column: "age", Op: queryir.OpGt, Value: ir.Int(18)},
		queryir.Comparison{Column: "name", Op: queryir.OpIn, Value: ir.NewList(ir.TypeString, ir.String("a"), ir.String("b"))},
	}}

	sql, params, err := c.Compile(pred, queryir.Directives{Limit: ptr(1)})
	require.NoError(t, err)
	assert.Equal(t, `SELECT "id", "name" FROM "people" WHERE ("age" > $1 AND "name" IN ($2,$3)) LIMIT 1`, sql)
	assert.Equal(t, []any{int64(18), "a", "b"}, params)

	where, _, err := c.CompileWhere(pred)
	require.NoError(t, err)
	assert.Equal(t, `("age" > $1 AND "name" IN ($2,$3))`, where)
}

func TestCompile_OffsetOnlyFollowsPlaceholder(t *testing.T) {
	c := &SQLCompiler{Table: "people", Placeholder: sq.Dollar}

	sql, _, err := c.Compile(nil, queryir.Directives{Offset: ptr(4)})
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "people" OFFSET 4`, sql)

	sql, _, err = c.Compile(nil, queryir.Directives{Limit: ptr(2), Offset: ptr(4)})
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "people" LIMIT 2 OFFSET 4`, sql)
}

func TestCompile_Timestamps(t *testing.T) {
	ts := ir.NewTimestamp(time.Date(2024, 3, 1, 10, 0, 0, 0, time.FixedZone("", 2*3600)))
	pred := queryir.Comparison{Column: "created_at", Op: queryir.OpGe, Value: ts}

	_, params, err := NewSQLCompiler("people").Compile(pred, queryir.Directives{})
	require.NoError(t, err)
	assert.Equal(t, []any{ts.Time}, params)

	c := NewSQLCompiler("people")
	c.TimeFormat = time.RFC3339
	_, params, err = c.Compile(pred, queryir.Directives{})
	require.NoError(t, err)
	assert.Equal(t, []any{"2024-03-01T08:00:00Z"}, params)
}

func TestCompile_Errors(t *testing.T) {
	_, _, err := (&SQLCompiler{}).Compile(nil, queryir.Directives{})
	assert.ErrorContains(t, err, "without a table")

	bad := queryir.And{Predicates: []queryir.Predicate{
		queryir.Comparison{Column: "", Op: queryir.OpEq, Value: ir.Int(1)},
	}}
	_, _, err = NewSQLCompiler("people").Compile(bad, queryir.Directives{})
	assert.ErrorContains(t, err, "invalid predicate")

	_, err = NewSQLCompiler("people").Where(queryir.Comparison{Column: "age", Op: queryir.OpIn, Value: ir.Int(1)})
	assert.ErrorContains(t, err, "invalid predicate")
}

func TestCompileWhere_Nil(t *testing.T) {
	sql, params, err := NewSQLCompiler("people").CompileWhere(nil)
	require.NoError(t, err)
	assert.Empty(t, sql)
	assert.Nil(t, params)
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"age"`, QuoteIdent("age"))
	assert.Equal(t, `"people"."age"`, QuoteIdent("people.age"))
	assert.Equal(t, `"we""ird"`, QuoteIdent(`we"ird`))
}
