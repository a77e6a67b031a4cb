// Package store opens SQLite databases and exposes their tables as
// filterable queryables.
//
// A Table pairs a table name with the column descriptors read from
// PRAGMA table_info, so a filter can be checked against the real schema:
//
//	s, err := store.Open("people.db")
//	t, err := s.Table(ctx, "people")
//	f, err := filter.New(t, nil)
//	res, err := f.ApplyJSON(input)
//	rs, err := s.Select(ctx, t.Compiler(), res.Predicate, res.Directives)
//
// # Type Mapping
//
// Declared column types follow SQLite's affinity rules, extended so that
// BOOL and DATE/TIME declarations get their own semantic type:
//
//	BOOL...            → bool
//	...DATE... ...TIME... → timestamp
//	...INT...          → int
//	...CHAR... CLOB TEXT → string
//	REAL FLOA DOUB NUMERIC DECIMAL → float
//	BLOB or no type    → string
//
// # Database Configuration
//
// Writable stores run in WAL mode with synchronous=NORMAL. ReadOnly opens
// with mode=ro and query_only, which is how the CLI reads caller databases.
// Both wait up to 5 seconds on locks and enforce foreign keys.
package store
