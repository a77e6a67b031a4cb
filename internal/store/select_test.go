package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/siphon/internal/filter"
	"github.com/roach88/siphon/internal/queryir"
	"github.com/roach88/siphon/internal/querysql"
	"github.com/roach88/siphon/internal/testutil"
)

func TestSelect_FilteredRows(t *testing.T) {
	ctx := context.Background()
	s := openPeople(t)

	tbl, err := s.Table(ctx, "people")
	require.NoError(t, err)

	f, err := filter.New(tbl, nil)
	require.NoError(t, err)
	res, err := f.ApplyJSON([]byte(`{"city": {"eq": "Oslo"}, "order_by": "-age", "limit": 2}`))
	require.NoError(t, err)

	c := tbl.Compiler()
	c.Columns = []string{"id", "name", "age"}

	rs, err := s.Select(ctx, c, res.Predicate, res.Directives)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name", "age"}, rs.Columns)
	assert.Equal(t, [][]any{
		{int64(3), "Cid", int64(70)},
		{int64(6), "Fay", int64(25)},
	}, rs.Rows)
	assert.Equal(t, []any{"Cid", "Fay"}, rs.Column("name"))
	assert.Nil(t, rs.Column("salary"))
}

func TestSelect_TimestampsAsText(t *testing.T) {
	ctx := context.Background()
	s := openPeople(t)

	tbl, err := s.Table(ctx, "people")
	require.NoError(t, err)

	f, err := filter.New(tbl, nil)
	require.NoError(t, err)
	res, err := f.ApplyQuery("created_at[ge]=2024-03-01")
	require.NoError(t, err)

	c := tbl.Compiler()
	c.Columns = []string{"id"}
	c.TimeFormat = testutil.PeopleTimeFormat

	rs, err := s.Select(ctx, c, res.Predicate, res.Directives)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(3), int64(5)}, rs.Column("id"))
}

func TestSelect_NoMatches(t *testing.T) {
	ctx := context.Background()
	s := openPeople(t)

	tbl, err := s.Table(ctx, "people")
	require.NoError(t, err)

	f, err := filter.New(tbl, nil)
	require.NoError(t, err)
	res, err := f.ApplyJSON([]byte(`{"age": {"gt": 200}}`))
	require.NoError(t, err)

	rs, err := s.Select(ctx, tbl.Compiler(), res.Predicate, res.Directives)
	require.NoError(t, err)
	assert.NotNil(t, rs.Rows)
	assert.Empty(t, rs.Rows)
}

func TestSelect_CompileError(t *testing.T) {
	s := openPeople(t)

	_, err := s.Select(context.Background(), querysql.NewSQLCompiler(""), nil, queryir.Directives{})
	assert.ErrorContains(t, err, "without a table")
}
