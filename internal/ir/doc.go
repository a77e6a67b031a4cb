// Package ir provides the shared vocabulary of the siphon filter compiler:
// column descriptors, semantic types, and the typed values produced by
// coercion.
//
// All other internal packages import ir; ir imports nothing internal. This
// keeps it the foundational layer with no circular dependencies.
//
// COLUMN DESCRIPTORS:
//
// A queryable (a table, a view, anything that can be filtered) exposes its
// columns through the Columns interface. The compiler never looks at the
// queryable beyond this lookup:
//
//	cols := ir.NewSchema(
//	    ir.Column{Name: "age", Type: ir.TypeInt},
//	    ir.Column{Name: "name", Type: ir.TypeString},
//	)
//	col, ok := cols.Get("age")
//
// Column names are NFC normalized on the way in, so visually identical names
// always compare equal.
//
// VALUES:
//
// Value is a sealed interface. Only Int, Float, String, Bool, Timestamp and
// List implement it. A List only ever holds scalars of one semantic type; it
// is produced for the in_ and nin operators.
//
// Values are immutable once constructed and safe to share between
// goroutines.
package ir
