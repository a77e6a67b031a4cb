package queryir

import (
	"fmt"

	"github.com/roach88/siphon/internal/ir"
)

// ValidationResult contains the well-formedness analysis of a predicate.
type ValidationResult struct {
	// Valid is true when Problems is empty.
	Valid bool

	// Problems lists every malformed node found, in traversal order.
	Problems []string
}

// Validate checks that a predicate tree is well formed:
//  1. Comparisons name a column and use a declared operator
//  2. in_/nin carry an ir.List; other operators carry a scalar
//  3. List items match the list's element type
//  4. Junctions have at least two children and no nil children
//
// The filter compiler only ever emits well-formed trees; Validate exists for
// backends that accept hand-built predicates.
//
// Validate is a pure function with no side effects. A nil predicate is valid.
func Validate(p Predicate) ValidationResult {
	v := &validator{
		problems: []string{},
	}
	if p != nil {
		v.validatePredicate(p, "$")
	}

	return ValidationResult{
		Valid:    len(v.problems) == 0,
		Problems: v.problems,
	}
}

// validator accumulates problems during traversal.
type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validatePredicate(p Predicate, path string) {
	switch pred := p.(type) {
	case nil:
		v.addProblem("%s: nil predicate inside junction", path)
	case Comparison:
		v.validateComparison(pred, path)
	case And:
		v.validateJunction("and", pred.Predicates, path)
	case Or:
		v.validateJunction("or", pred.Predicates, path)
	default:
		v.addProblem("%s: unknown predicate type %T", path, p)
	}
}

func (v *validator) validateJunction(kind string, preds []Predicate, path string) {
	if len(preds) < 2 {
		v.addProblem("%s: %s junction with %d child(ren), need at least 2", path, kind, len(preds))
	}
	for i, child := range preds {
		v.validatePredicate(child, fmt.Sprintf("%s.%s[%d]", path, kind, i))
	}
}

func (v *validator) validateComparison(c Comparison, path string) {
	if c.Column == "" {
		v.addProblem("%s: comparison without column", path)
	}
	if !c.Op.Valid() {
		v.addProblem("%s: invalid operator %d on column %q", path, c.Op, c.Column)
		return
	}
	if c.Value == nil {
		v.addProblem("%s: %s on column %q has no value", path, c.Op, c.Column)
		return
	}

	list, isList := c.Value.(ir.List)
	if c.Op.TakesList() != isList {
		if isList {
			v.addProblem("%s: %s on column %q takes a scalar, got list", path, c.Op, c.Column)
		} else {
			v.addProblem("%s: %s on column %q takes a list, got %s", path, c.Op, c.Column, c.Value.Type())
		}
		return
	}
	if isList {
		for i, item := range list.Items {
			if _, nested := item.(ir.List); nested {
				v.addProblem("%s: %s on column %q: item %d is a nested list", path, c.Op, c.Column, i)
				continue
			}
			if item.Type() != list.Elem {
				v.addProblem("%s: %s on column %q: item %d is %s, list holds %s", path, c.Op, c.Column, i, item.Type(), list.Elem)
			}
		}
	}
}
