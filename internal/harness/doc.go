// Package harness runs filter conformance scenarios.
//
// A scenario names a column set (directly, or through a database fixture),
// an optional restriction model, and a list of cases. Each case feeds one
// filter expression through the full pipeline and checks the outcome:
// the error kind on rejection, or the canonical predicate, the rendered SQL
// and its parameters on success. With a fixture, the SQL is also executed
// and the matching row keys are compared.
//
// # Scenario Format
//
//	name: adults_in_oslo
//	description: "Implicit AND across two columns"
//	fixture: people
//	model:
//	  columns:
//	    age: [gt, ge, lt, le]
//	    city: []
//	  order_by: [age]
//	  limit: true
//	cases:
//	  - name: adults
//	    input:
//	      json: '{"age": {"ge": 18}, "city": {"eq": "Oslo"}}'
//	    expect:
//	      predicate: 'age >= 18 AND city = "Oslo"'
//	      params: [18, Oslo]
//	      rows: [3, 6]
//	  - name: salary is hidden
//	    input:
//	      query: "salary[gt]=1"
//	    expect:
//	      error: column
//
// Inputs are given as exactly one of json, yaml or query. Without a
// fixture, columns lists name/type pairs and table names the SQL target.
//
// # Golden Files
//
// RunWithGolden snapshots every case outcome as canonical JSON under
// testdata/golden/{scenario.Name}.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
