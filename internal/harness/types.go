package harness

// ErrorOutcome is a rejected filter.
type ErrorOutcome struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// CaseResult is what the pipeline produced for one case.
type CaseResult struct {
	Name string `json:"name"`

	// Error is set when the filter was rejected; the remaining fields are
	// then empty.
	Error *ErrorOutcome `json:"error,omitempty"`

	Predicate string `json:"predicate,omitempty"`
	SQL       string `json:"sql,omitempty"`
	Params    []any  `json:"params,omitempty"`

	// Rows holds the key column of each matching row. Nil without a fixture.
	Rows []any `json:"rows,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every case matched its expectation.
	Pass bool `json:"pass"`

	// Cases holds one result per scenario case, in order.
	Cases []CaseResult `json:"cases"`

	// Errors contains mismatch messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Cases:  []CaseResult{},
		Errors: []string{},
	}
}

// AddError adds a mismatch message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
