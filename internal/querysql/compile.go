package querysql

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/roach88/siphon/internal/ir"
	"github.com/roach88/siphon/internal/order"
	"github.com/roach88/siphon/internal/queryir"
)

// SQLCompiler lowers compiled filters to parameterized SQL.
//
// CRITICAL: values are always bound as parameters, never interpolated.
// Identifiers are double-quoted.
type SQLCompiler struct {
	// Table is the FROM target. Required by Select and Compile.
	Table string

	// Columns is the SELECT list. Empty selects *.
	Columns []string

	// TieBreaker, when set, is appended as a final ascending sort key
	// unless order_by already names it, so paginated results are stable.
	TieBreaker string

	// Placeholder defaults to sq.Question. It also picks the dialect for
	// an offset without a limit: SQLite's "LIMIT -1 OFFSET n" for
	// sq.Question, plain "OFFSET n" for every other format.
	Placeholder sq.PlaceholderFormat

	// TimeFormat, when set, binds timestamps as UTC strings in this
	// layout instead of time.Time. Use it for databases that store
	// timestamps as text.
	TimeFormat string
}

// NewSQLCompiler returns a compiler for table with ? placeholders.
func NewSQLCompiler(table string) *SQLCompiler {
	return &SQLCompiler{Table: table}
}

// Where lowers a predicate to a squirrel condition. A nil predicate yields
// a nil condition, meaning no WHERE clause.
//
// The predicate is checked with queryir.Validate first, so hand-built
// trees get a descriptive error instead of bad SQL.
func (c *SQLCompiler) Where(p queryir.Predicate) (sq.Sqlizer, error) {
	if p == nil {
		return nil, nil
	}
	if res := queryir.Validate(p); !res.Valid {
		return nil, fmt.Errorf("invalid predicate: %s", strings.Join(res.Problems, "; "))
	}
	return c.lower(p)
}

// Select assembles SELECT ... WHERE ... ORDER BY ... LIMIT ... OFFSET.
// Ordering keys keep their listed order; LIMIT precedes OFFSET.
func (c *SQLCompiler) Select(p queryir.Predicate, d queryir.Directives) (sq.SelectBuilder, error) {
	if c.Table == "" {
		return sq.SelectBuilder{}, fmt.Errorf("cannot compile without a table")
	}

	cols := []string{"*"}
	if len(c.Columns) > 0 {
		cols = make([]string, len(c.Columns))
		for i, col := range c.Columns {
			cols[i] = QuoteIdent(col)
		}
	}

	where, err := c.Where(p)
	if err != nil {
		return sq.SelectBuilder{}, err
	}

	b := sq.Select(cols...).From(QuoteIdent(c.Table)).PlaceholderFormat(c.placeholder())
	if where != nil {
		b = b.Where(where)
	}
	if keys := c.orderKeys(d.OrderBy); len(keys) > 0 {
		b = b.OrderBy(keys...)
	}

	switch {
	case d.Limit != nil:
		b = b.Limit(*d.Limit)
		if d.Offset != nil {
			b = b.Offset(*d.Offset)
		}
	case d.Offset != nil && c.placeholder() == sq.Question:
		// SQLite only accepts OFFSET after a LIMIT; -1 means no limit.
		b = b.Suffix(fmt.Sprintf("LIMIT -1 OFFSET %d", *d.Offset))
	case d.Offset != nil:
		b = b.Offset(*d.Offset)
	}
	return b, nil
}

// Compile renders the full statement. Returns (sql, params, error).
func (c *SQLCompiler) Compile(p queryir.Predicate, d queryir.Directives) (string, []any, error) {
	b, err := c.Select(p, d)
	if err != nil {
		return "", nil, err
	}
	sql, params, err := b.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("render select: %w", err)
	}
	return sql, params, nil
}

// CompileWhere renders only the WHERE condition, without the keyword.
// A nil predicate renders as an empty string.
func (c *SQLCompiler) CompileWhere(p queryir.Predicate) (string, []any, error) {
	where, err := c.Where(p)
	if err != nil || where == nil {
		return "", nil, err
	}
	sql, params, err := where.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("render where: %w", err)
	}
	sql, err = c.placeholder().ReplacePlaceholders(sql)
	if err != nil {
		return "", nil, err
	}
	return sql, params, nil
}

func (c *SQLCompiler) placeholder() sq.PlaceholderFormat {
	if c.Placeholder == nil {
		return sq.Question
	}
	return c.Placeholder
}

func (c *SQLCompiler) orderKeys(specs []order.Spec) []string {
	keys := make([]string, 0, len(specs)+1)
	seenTie := false
	for _, s := range specs {
		keys = append(keys, QuoteIdent(s.Column)+" "+s.Direction.SQL())
		if s.Column == c.TieBreaker {
			seenTie = true
		}
	}
	if c.TieBreaker != "" && !seenTie {
		keys = append(keys, QuoteIdent(c.TieBreaker)+" ASC")
	}
	return keys
}

func (c *SQLCompiler) lower(p queryir.Predicate) (sq.Sqlizer, error) {
	switch pred := p.(type) {
	case queryir.Comparison:
		return c.comparison(pred)
	case queryir.And:
		parts, err := c.lowerAll(pred.Predicates)
		if err != nil {
			return nil, err
		}
		return sq.And(parts), nil
	case queryir.Or:
		parts, err := c.lowerAll(pred.Predicates)
		if err != nil {
			return nil, err
		}
		return sq.Or(parts), nil
	default:
		return nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (c *SQLCompiler) lowerAll(preds []queryir.Predicate) ([]sq.Sqlizer, error) {
	parts := make([]sq.Sqlizer, 0, len(preds))
	for _, p := range preds {
		part, err := c.lower(p)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	return parts, nil
}

// comparison maps each operator to its squirrel condition. in_ and nin
// bind a slice, which squirrel expands to IN (?,?,...); an empty list
// renders as (1=0) or (1=1).
func (c *SQLCompiler) comparison(cmp queryir.Comparison) (sq.Sqlizer, error) {
	col := QuoteIdent(cmp.Column)
	val := c.param(cmp.Value)

	switch cmp.Op {
	case queryir.OpEq, queryir.OpIn:
		return sq.Eq{col: val}, nil
	case queryir.OpNe, queryir.OpNin:
		return sq.NotEq{col: val}, nil
	case queryir.OpGt:
		return sq.Gt{col: val}, nil
	case queryir.OpGe:
		return sq.GtOrEq{col: val}, nil
	case queryir.OpLt:
		return sq.Lt{col: val}, nil
	case queryir.OpLe:
		return sq.LtOrEq{col: val}, nil
	default:
		return nil, fmt.Errorf("unsupported operator %s", cmp.Op)
	}
}

// param converts a value to what the driver receives.
func (c *SQLCompiler) param(v ir.Value) any {
	switch val := v.(type) {
	case ir.List:
		out := make([]any, len(val.Items))
		for i, item := range val.Items {
			out[i] = c.param(item)
		}
		return out
	case ir.Timestamp:
		if c.TimeFormat != "" {
			return val.Time.UTC().Format(c.TimeFormat)
		}
		return val.Time
	default:
		return v.Native()
	}
}

// QuoteIdent double-quotes an identifier. Dotted names are quoted per
// part: people.age becomes "people"."age".
func QuoteIdent(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = `"` + strings.ReplaceAll(p, `"`, `""`) + `"`
	}
	return strings.Join(parts, ".")
}
