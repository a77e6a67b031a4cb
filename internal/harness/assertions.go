package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/siphon/internal/ir"
)

// AssertionError describes one expectation a case did not meet.
type AssertionError struct {
	Field    string // Expectation that failed: error, message, predicate, sql, params, rows
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Field, e.Expected, e.Actual)
}

// checkCase compares an outcome with its expectation and returns one
// message per mismatch.
func checkCase(exp Expect, cr CaseResult) []string {
	var errs []error

	if exp.Error != "" {
		errs = append(errs, checkRejected(exp, cr)...)
	} else if cr.Error != nil {
		errs = append(errs, &AssertionError{
			Field:    "error",
			Expected: "no error",
			Actual:   fmt.Sprintf("%s error %q", cr.Error.Kind, cr.Error.Message),
		})
	} else {
		errs = append(errs, checkCompiled(exp, cr)...)
	}

	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return msgs
}

func checkRejected(exp Expect, cr CaseResult) []error {
	if cr.Error == nil {
		return []error{&AssertionError{
			Field:    "error",
			Expected: fmt.Sprintf("%s error", exp.Error),
			Actual:   fmt.Sprintf("compiled to %s", cr.Predicate),
		}}
	}

	var errs []error
	if cr.Error.Kind != exp.Error {
		errs = append(errs, &AssertionError{
			Field:    "error",
			Expected: fmt.Sprintf("%s error", exp.Error),
			Actual:   fmt.Sprintf("%s error %q", cr.Error.Kind, cr.Error.Message),
		})
	}
	if exp.Message != "" && !strings.Contains(cr.Error.Message, exp.Message) {
		errs = append(errs, &AssertionError{
			Field:    "message",
			Expected: fmt.Sprintf("message containing %q", exp.Message),
			Actual:   fmt.Sprintf("%q", cr.Error.Message),
		})
	}
	return errs
}

func checkCompiled(exp Expect, cr CaseResult) []error {
	var errs []error

	if exp.Predicate != nil && *exp.Predicate != cr.Predicate {
		errs = append(errs, &AssertionError{Field: "predicate", Expected: *exp.Predicate, Actual: cr.Predicate})
	}
	if exp.SQL != "" && exp.SQL != cr.SQL {
		errs = append(errs, &AssertionError{Field: "sql", Expected: exp.SQL, Actual: cr.SQL})
	}
	if exp.Params != nil {
		if err := compareValues("params", *exp.Params, cr.Params); err != nil {
			errs = append(errs, err)
		}
	}
	if exp.Rows != nil {
		if err := compareValues("rows", *exp.Rows, cr.Rows); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// compareValues compares through canonical JSON, so a YAML int matches an
// int64 parameter and a timestamp matches its RFC 3339 rendering.
func compareValues(field string, expected, actual []any) error {
	if actual == nil {
		actual = []any{}
	}
	want, err := ir.MarshalCanonical(expected)
	if err != nil {
		return fmt.Errorf("%s: expected value: %w", field, err)
	}
	got, err := ir.MarshalCanonical(actual)
	if err != nil {
		return fmt.Errorf("%s: actual value: %w", field, err)
	}
	if string(want) != string(got) {
		return &AssertionError{Field: field, Expected: string(want), Actual: string(got)}
	}
	return nil
}
