package queryir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/siphon/internal/ir"
)

// Format renders a predicate for humans, e.g.
//
//	age < 18 OR age > 65
//	(age >= 18 AND age <= 65) AND name = "Bob"
//
// Nested junctions are parenthesized; the outermost one is not. A nil
// predicate renders as "TRUE".
func Format(p Predicate) string {
	if p == nil {
		return "TRUE"
	}
	var b strings.Builder
	formatPredicate(&b, p, false)
	return b.String()
}

func formatPredicate(b *strings.Builder, p Predicate, nested bool) {
	switch pred := p.(type) {
	case Comparison:
		formatComparison(b, pred)
	case And:
		formatJunction(b, pred.Predicates, " AND ", nested)
	case Or:
		formatJunction(b, pred.Predicates, " OR ", nested)
	default:
		fmt.Fprintf(b, "<%T>", p)
	}
}

func formatJunction(b *strings.Builder, preds []Predicate, sep string, nested bool) {
	if nested {
		b.WriteByte('(')
	}
	for i, child := range preds {
		if i > 0 {
			b.WriteString(sep)
		}
		formatPredicate(b, child, true)
	}
	if nested {
		b.WriteByte(')')
	}
}

func formatComparison(b *strings.Builder, c Comparison) {
	b.WriteString(c.Column)
	b.WriteByte(' ')
	b.WriteString(c.Op.Symbol())
	b.WriteByte(' ')
	formatValue(b, c.Value)
}

func formatValue(b *strings.Builder, v ir.Value) {
	switch val := v.(type) {
	case nil:
		b.WriteString("NULL")
	case ir.String:
		b.WriteString(strconv.Quote(string(val)))
	case ir.Bool:
		b.WriteString(strconv.FormatBool(bool(val)))
	case ir.Timestamp:
		b.WriteString(strconv.Quote(val.String()))
	case ir.List:
		b.WriteByte('(')
		for i, item := range val.Items {
			if i > 0 {
				b.WriteString(", ")
			}
			formatValue(b, item)
		}
		b.WriteByte(')')
	default:
		fmt.Fprintf(b, "%v", val)
	}
}
