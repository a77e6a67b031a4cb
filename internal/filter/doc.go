// Package filter implements the filter expression language: decoding raw
// input, parsing it into a typed tree, validating the tree against a
// queryable's columns and a restriction model, and compiling it into a
// queryir predicate plus result-shaping directives.
//
// An expression is a mapping. Column keys map to operators, and/or
// junctions group clauses, and three keywords shape the result:
//
//	{
//	    "age":  {"or": {"lt": 18, "gt": 65}},
//	    "name": {"in_": ["ann", "bob"]},
//	    "order_by": ["-age", "name.asc"],
//	    "limit": 10,
//	    "offset": 20
//	}
//
// Sibling keys are AND-ed. A junction value is either a mapping or a list
// of mappings; each list item is one AND group, which is how the same
// column can appear on both sides of an "or":
//
//	{"or": [{"age": {"lt": 18}}, {"age": {"gt": 65}, "name": {"eq": "bob"}}]}
//
// Only one junction key may appear per mapping level. Keywords are only
// accepted at the top level.
//
// PIPELINE:
//
//  1. Decode: DecodeJSON, DecodeYAML, DecodeQuery or FromMap produce an
//     ordered Object. The JSON and YAML decoders stop at twice the maximum
//     depth in nested containers, before Parse ever runs.
//  2. Parse: structure only. Every malformed shape is a KindFormat error.
//  3. Validate: columns exist, the model permits each column, operator and
//     keyword, and every value coerces to its column's type.
//  4. Compile: Comparison/And/Or nodes plus queryir.Directives.
//
// Parse errors win over validation errors. Within each step the first
// problem in document order is reported and nothing is accumulated.
//
// Filter wraps the pipeline for a fixed queryable and model.
package filter
