// Package restrict provides restriction models: declarative allow-lists that
// limit which columns, operators and keywords a query endpoint accepts.
//
// A model is declared once per endpoint, usually in a CUE or YAML file:
//
//	restriction: people: {
//	    columns: {
//	        age:  ["gt", "ge", "lt", "le"]
//	        name: ["eq", "in_"]
//	        city: [] // every operator
//	    }
//	    order_by: ["age", "name"]
//	    limit:    true
//	    offset:   true
//	}
//
// and bound to the queryable's columns at startup:
//
//	model, err := restrict.Bind(spec, cols)
//
// Bind fails with a *ModelError when the model names an unknown column or
// operator. That is a configuration bug, never a client error: callers
// should treat it as fatal.
//
// A bound Model is immutable and safe to share between goroutines.
package restrict
