package cli

import (
	"errors"

	"github.com/roach88/siphon/internal/filter"
	"github.com/roach88/siphon/internal/restrict"
	"github.com/roach88/siphon/internal/store"
)

// Error codes for CLI responses.
const (
	// Generic errors (E0xx)
	ErrCodeGeneric    = "E001" // Generic/unknown error
	ErrCodeReadFailed = "E002" // Input or file read error
	ErrCodeNotFound   = "E003" // Path not found
	ErrCodeBadFlags   = "E004" // Invalid or conflicting flags
	ErrCodeDatabase   = "E005" // Database open or query error
	ErrCodeNoTable    = "E006" // Table not found

	ErrCodeScenarioFailed = "E101" // One or more scenarios failed

	// Filter errors (E2xx)
	ErrCodeFormat          = "E201" // Malformed expression
	ErrCodeColumn          = "E202" // Unknown or hidden column, disabled keyword
	ErrCodeInvalidOperator = "E203" // Operator not allowed on column
	ErrCodeInvalidValue    = "E204" // Value does not coerce
	ErrCodeUnknownKeyword  = "E205" // Unrecognized top-level key

	// Restriction model errors (E3xx)
	ErrCodeModelInvalid  = "E301" // Model does not fit the columns
	ErrCodeModelLoad     = "E302" // Model file could not be loaded
	ErrCodeModelNotFound = "E303" // Named model missing or ambiguous
)

var filterCodes = map[filter.Kind]string{
	filter.KindFormat:          ErrCodeFormat,
	filter.KindColumn:          ErrCodeColumn,
	filter.KindInvalidOperator: ErrCodeInvalidOperator,
	filter.KindInvalidValue:    ErrCodeInvalidValue,
	filter.KindUnknownKeyword:  ErrCodeUnknownKeyword,
}

// ErrorCode maps an error to its CLI code.
func ErrorCode(err error) string {
	var ce *CodedError
	if errors.As(err, &ce) {
		return ce.Code
	}
	if code, ok := filterCodes[filter.KindOf(err)]; ok {
		return code
	}
	var loadErr *restrict.LoadError
	switch {
	case restrict.IsModelError(err):
		return ErrCodeModelInvalid
	case errors.As(err, &loadErr):
		return ErrCodeModelLoad
	case errors.Is(err, store.ErrTableNotFound):
		return ErrCodeNoTable
	}
	return ErrCodeGeneric
}

// CodedError pins an error to a CLI code when the error type alone does not
// determine it.
type CodedError struct {
	Code string
	Err  error
}

func (e *CodedError) Error() string { return e.Err.Error() }
func (e *CodedError) Unwrap() error { return e.Err }

func coded(code string, err error) error {
	return &CodedError{Code: code, Err: err}
}
