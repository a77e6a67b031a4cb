// Package queryir provides the backend-agnostic predicate representation
// produced by the filter compiler.
//
// QueryIR is the abstraction boundary between the filter DSL and backend
// query engines. Backends lower it into their native form:
//
//	[filter DSL] → [Query IR] → [SQL backend (querysql)]
//	                          → [other backends]
//
// PREDICATES:
//
// Predicate is a sealed interface using the marker method pattern. Only
// Comparison, And and Or implement it, which lets backends switch
// exhaustively:
//
//	switch p := pred.(type) {
//	case queryir.Comparison:
//	    // column <op> value
//	case queryir.And:
//	    // all children
//	case queryir.Or:
//	    // any child
//	}
//
// A nil Predicate means "no filter".
//
// OPERATORS:
//
// Op is a closed set fixed at compile time: eq, ne, gt, ge, lt, le, in_,
// nin. in_ and nin take an ir.List; every other operator takes a scalar.
//
// DIRECTIVES:
//
// Directives carry the result-shaping keywords (order_by, limit, offset).
// Backends apply order_by as a stable multi-key sort in listed order, then
// limit, then offset.
package queryir
