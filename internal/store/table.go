package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/siphon/internal/ir"
	"github.com/roach88/siphon/internal/querysql"
)

// ErrTableNotFound is returned when a table does not exist.
var ErrTableNotFound = errors.New("table not found")

// Table is a queryable backed by a SQLite table. It implements ir.Columns.
type Table struct {
	*ir.Schema
	Name string
}

// Compiler returns a SQL compiler targeting this table, using the rowid
// alias (if any) as tiebreaker.
func (t *Table) Compiler() *querysql.SQLCompiler {
	c := querysql.NewSQLCompiler(t.Name)
	if t.Contains("id") {
		c.TieBreaker = "id"
	}
	return c
}

// Tables lists user tables, ordered by name.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}
	return tables, nil
}

// Columns reads the column descriptors of a table, in declaration order.
// Returns ErrTableNotFound (wrapped) when the table has no columns.
func (s *Store) Columns(ctx context.Context, table string) (*ir.Schema, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name, type FROM pragma_table_info(?) ORDER BY cid", table)
	if err != nil {
		return nil, fmt.Errorf("table_info %q: %w", table, err)
	}
	defer rows.Close()

	var cols []ir.Column
	for rows.Next() {
		var name, decl string
		if err := rows.Scan(&name, &decl); err != nil {
			return nil, fmt.Errorf("scan column of %q: %w", table, err)
		}
		cols = append(cols, ir.Column{Name: name, Type: TypeForDecl(decl)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns of %q: %w", table, err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrTableNotFound, table)
	}
	return ir.NewSchema(cols...), nil
}

// Table returns the queryable for a table.
func (s *Store) Table(ctx context.Context, name string) (*Table, error) {
	schema, err := s.Columns(ctx, name)
	if err != nil {
		return nil, err
	}
	return &Table{Schema: schema, Name: name}, nil
}

// TypeForDecl maps a declared SQLite column type to a semantic type.
// The checks run in order; the first match wins.
func TypeForDecl(decl string) ir.SemanticType {
	d := strings.ToUpper(strings.TrimSpace(decl))
	switch {
	case strings.HasPrefix(d, "BOOL"):
		return ir.TypeBool
	case strings.Contains(d, "DATE"), strings.Contains(d, "TIME"):
		return ir.TypeTimestamp
	case strings.Contains(d, "INT"):
		return ir.TypeInt
	case strings.Contains(d, "CHAR"), strings.Contains(d, "CLOB"), strings.Contains(d, "TEXT"):
		return ir.TypeString
	case strings.Contains(d, "REAL"), strings.Contains(d, "FLOA"), strings.Contains(d, "DOUB"):
		return ir.TypeFloat
	case strings.HasPrefix(d, "NUMERIC"), strings.HasPrefix(d, "DECIMAL"):
		return ir.TypeFloat
	default:
		// BLOB and untyped columns
		return ir.TypeString
	}
}
