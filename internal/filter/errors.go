package filter

import (
	"errors"
	"fmt"
)

// Kind classifies a rejected filter expression. Every kind is a client input
// error; configuration problems surface as restrict.ModelError instead.
type Kind string

const (
	// KindFormat: the expression is structurally malformed.
	KindFormat Kind = "format"

	// KindColumn: a column or keyword is absent from the queryable or
	// disallowed by the restriction model.
	KindColumn Kind = "column"

	// KindInvalidOperator: the restriction model forbids the operator on
	// that column.
	KindInvalidOperator Kind = "invalid_operator"

	// KindInvalidValue: a value does not coerce to the column's type.
	KindInvalidValue Kind = "invalid_value"

	// KindUnknownKeyword: a top-level key is neither a keyword, a junction,
	// an operator nor a column name.
	KindUnknownKeyword Kind = "unknown_keyword"
)

// Error is returned for every rejected filter expression.
type Error struct {
	Kind Kind

	// Path is the dotted location of the offending key, e.g. "age.or.gt"
	// or "order_by[1]". Empty for problems with the document itself.
	Path string

	// Column is the column in context, if any.
	Column string

	Message string

	// Err is the underlying cause (a *coerce.Error, *order.SyntaxError or
	// decoder error), if any.
	Err error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s error at %s: %s", e.Kind, e.Path, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, path, column string, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Path:    path,
		Column:  column,
		Message: fmt.Sprintf(format, args...),
	}
}

func formatError(path string, format string, args ...any) *Error {
	return newError(KindFormat, path, "", format, args...)
}

// KindOf returns the kind of a filter error, or "" if err is not one.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// IsFormatError returns true if err is a malformed-expression error.
func IsFormatError(err error) bool {
	return KindOf(err) == KindFormat
}

// IsColumnError returns true if err rejects a column or keyword.
func IsColumnError(err error) bool {
	return KindOf(err) == KindColumn
}

// IsInvalidOperatorError returns true if err rejects an operator.
func IsInvalidOperatorError(err error) bool {
	return KindOf(err) == KindInvalidOperator
}

// IsInvalidValueError returns true if err rejects a value.
func IsInvalidValueError(err error) bool {
	return KindOf(err) == KindInvalidValue
}

// IsUnknownKeywordError returns true if err rejects an unrecognized key.
func IsUnknownKeywordError(err error) bool {
	return KindOf(err) == KindUnknownKeyword
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func indexPath(path string, i int) string {
	return fmt.Sprintf("%s[%d]", path, i)
}
