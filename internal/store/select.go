package store

import (
	"context"
	"fmt"

	"github.com/roach88/siphon/internal/queryir"
	"github.com/roach88/siphon/internal/querysql"
)

// ResultSet holds the rows of a filtered select. Text and blob columns
// come back as string.
type ResultSet struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Select compiles the predicate and directives with c and runs the
// statement. Rows is empty (not nil) when nothing matches.
func (s *Store) Select(ctx context.Context, c *querysql.SQLCompiler, p queryir.Predicate, d queryir.Directives) (*ResultSet, error) {
	query, params, err := c.Compile(p, d)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("select from %q: %w", c.Table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	rs := &ResultSet{Columns: cols, Rows: [][]any{}}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		rs.Rows = append(rs.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return rs, nil
}

// Column returns the values of one column across all rows.
func (rs *ResultSet) Column(name string) []any {
	idx := -1
	for i, c := range rs.Columns {
		if c == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	out := make([]any, len(rs.Rows))
	for i, row := range rs.Rows {
		out[i] = row[idx]
	}
	return out
}
