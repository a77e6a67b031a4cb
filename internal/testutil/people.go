package testutil

import (
	"database/sql"
	_ "embed"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/siphon/internal/ir"
)

//go:embed people.sql
var peopleSQL string

// PeopleTimeFormat is the layout of people.created_at. Timestamps are stored
// as UTC text, so lexical comparison matches chronological order.
const PeopleTimeFormat = "2006-01-02T15:04:05Z07:00"

// PeopleSQL returns the DDL and rows of the people fixture.
func PeopleSQL() string {
	return peopleSQL
}

// PeopleSchema returns the column descriptors of the people fixture table,
// as store introspection reports them. photo is a BLOB and maps to string.
func PeopleSchema() *ir.Schema {
	return ir.NewSchema(
		ir.Column{Name: "id", Type: ir.TypeInt},
		ir.Column{Name: "name", Type: ir.TypeString},
		ir.Column{Name: "age", Type: ir.TypeInt},
		ir.Column{Name: "city", Type: ir.TypeString},
		ir.Column{Name: "score", Type: ir.TypeFloat},
		ir.Column{Name: "active", Type: ir.TypeBool},
		ir.Column{Name: "created_at", Type: ir.TypeTimestamp},
		ir.Column{Name: "photo", Type: ir.TypeString},
	)
}

// PeopleDBPath creates a SQLite database holding the people fixture in a
// per-test temp dir and returns its path.
func PeopleDBPath(t testing.TB) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "people.db")

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open fixture db: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(peopleSQL); err != nil {
		t.Fatalf("load people fixture: %v", err)
	}
	return path
}

// OpenPeopleDB opens the people fixture. The handle is closed on cleanup.
func OpenPeopleDB(t testing.TB) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", PeopleDBPath(t))
	if err != nil {
		t.Fatalf("open fixture db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// QueryIDs runs query and returns the first column of every row as int64.
func QueryIDs(t testing.TB, db *sql.DB, query string, args ...any) []int64 {
	t.Helper()
	rows, err := db.Query(query, args...)
	if err != nil {
		t.Fatalf("query %q: %v", query, err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			t.Fatalf("scan: %v", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows: %v", err)
	}
	return ids
}
