package restrict

import (
	"errors"
	"fmt"
	"strings"

	"cuelang.org/go/cue/token"
)

// Problem is one invalid entry of a restriction model.
type Problem struct {
	// Field is the offending entry, e.g. "columns.ssn" or "order_by[1]".
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (p Problem) String() string {
	return p.Field + ": " + p.Message
}

// ModelError reports a restriction model that does not fit its queryable.
// It always indicates a configuration bug.
type ModelError struct {
	Model    string
	Source   string // file:line of the declaration, when known
	Problems []Problem
}

func (e *ModelError) Error() string {
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = p.String()
	}
	where := ""
	if e.Source != "" {
		where = " (" + e.Source + ")"
	}
	return fmt.Sprintf("invalid restriction model %q%s: %s", e.Model, where, strings.Join(parts, "; "))
}

// IsModelError returns true if err is or wraps a *ModelError.
func IsModelError(err error) bool {
	var me *ModelError
	return errors.As(err, &me)
}

// LoadError reports a restriction file that could not be read or decoded.
type LoadError struct {
	Path    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}
