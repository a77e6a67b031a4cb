// Package coerce converts untyped filter literals into a column's semantic
// type.
//
// Literals arrive from decoders as strings, json.Number, float64, bool, or
// already-typed Go scalars. Coercion is strict: a fractional number never
// becomes an Int, NaN and infinities are rejected, and timestamps are
// accepted only in ISO-8601 form.
//
// Every function here is pure.
package coerce

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/siphon/internal/ir"
)

// Error reports a literal that does not fit its column's type.
type Error struct {
	Column   string
	Expected ir.SemanticType

	// Value is the raw literal that failed. For list coercion it is the
	// first failing element.
	Value any

	// Index is the element position for list coercion, -1 for scalars.
	Index int

	// Reason is a short explanation, e.g. "not an integer".
	Reason string
}

func (e *Error) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("column %q: item %d (%s) is not a valid %s: %s", e.Column, e.Index, describe(e.Value), e.Expected, e.Reason)
	}
	return fmt.Sprintf("column %q: %s is not a valid %s: %s", e.Column, describe(e.Value), e.Expected, e.Reason)
}

func describe(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// Coerce converts raw into a scalar of col's type.
func Coerce(col ir.Column, raw any) (ir.Value, error) {
	v, reason := coerceScalar(col.Type, raw)
	if reason != "" {
		return nil, &Error{Column: col.Name, Expected: col.Type, Value: raw, Index: -1, Reason: reason}
	}
	return v, nil
}

// CoerceList converts every element of raw, which must be a sequence, into
// col's type. The first failing element is reported.
func CoerceList(col ir.Column, raw any) (ir.List, error) {
	items, ok := sequence(raw)
	if !ok {
		return ir.List{}, &Error{Column: col.Name, Expected: col.Type, Value: raw, Index: -1, Reason: "expected a sequence"}
	}

	list := ir.List{Elem: col.Type, Items: make([]ir.Value, 0, len(items))}
	for i, item := range items {
		v, reason := coerceScalar(col.Type, item)
		if reason != "" {
			return ir.List{}, &Error{Column: col.Name, Expected: col.Type, Value: item, Index: i, Reason: reason}
		}
		list.Items = append(list.Items, v)
	}
	return list, nil
}

// sequence unpacks slices and arrays. Strings and byte slices are not
// sequences.
func sequence(raw any) ([]any, bool) {
	switch v := raw.(type) {
	case nil, string, []byte:
		return nil, false
	case []any:
		return v, true
	case ir.List:
		out := make([]any, len(v.Items))
		for i, item := range v.Items {
			out[i] = item
		}
		return out, true
	}

	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// coerceScalar returns the coerced value, or a non-empty reason on failure.
func coerceScalar(t ir.SemanticType, raw any) (ir.Value, string) {
	if raw == nil {
		return nil, "null is not comparable"
	}
	if v, ok := raw.(ir.Value); ok {
		if _, isList := v.(ir.List); isList {
			return nil, "expected a scalar"
		}
		raw = v.Native()
	}
	if _, isSeq := sequence(raw); isSeq {
		return nil, "expected a scalar"
	}

	switch t {
	case ir.TypeInt:
		return toInt(raw)
	case ir.TypeFloat:
		return toFloat(raw)
	case ir.TypeString:
		return toString(raw)
	case ir.TypeBool:
		return toBool(raw)
	case ir.TypeTimestamp:
		return toTimestamp(raw)
	default:
		return nil, fmt.Sprintf("unsupported column type %s", t)
	}
}

func toInt(raw any) (ir.Value, string) {
	switch v := raw.(type) {
	case int:
		return ir.Int(v), ""
	case int8:
		return ir.Int(v), ""
	case int16:
		return ir.Int(v), ""
	case int32:
		return ir.Int(v), ""
	case int64:
		return ir.Int(v), ""
	case uint8:
		return ir.Int(v), ""
	case uint16:
		return ir.Int(v), ""
	case uint32:
		return ir.Int(v), ""
	case uint:
		if uint64(v) > math.MaxInt64 {
			return nil, "out of range"
		}
		return ir.Int(v), ""
	case uint64:
		if v > math.MaxInt64 {
			return nil, "out of range"
		}
		return ir.Int(v), ""
	case float32:
		return integralFloat(float64(v))
	case float64:
		return integralFloat(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return ir.Int(n), ""
		}
		f, err := v.Float64()
		if err != nil {
			return nil, "not a number"
		}
		return integralFloat(f)
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, "not an integer"
		}
		return ir.Int(n), ""
	default:
		return nil, fmt.Sprintf("cannot convert %T to int", raw)
	}
}

func integralFloat(f float64) (ir.Value, string) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, "not a finite number"
	}
	if f != math.Trunc(f) {
		return nil, "not an integer"
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return nil, "out of range"
	}
	return ir.Int(int64(f)), ""
}

func toFloat(raw any) (ir.Value, string) {
	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int8:
		f = float64(v)
	case int16:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint:
		f = float64(v)
	case uint8:
		f = float64(v)
	case uint16:
		f = float64(v)
	case uint32:
		f = float64(v)
	case uint64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return nil, "not a number"
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, "not a number"
		}
		f = parsed
	default:
		return nil, fmt.Sprintf("cannot convert %T to float", raw)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, "not a finite number"
	}
	return ir.Float(f), ""
}

func toString(raw any) (ir.Value, string) {
	switch v := raw.(type) {
	case string:
		return ir.String(v), ""
	case json.Number:
		return ir.String(v.String()), ""
	case bool:
		return ir.String(strconv.FormatBool(v)), ""
	case float64:
		return ir.String(strconv.FormatFloat(v, 'g', -1, 64)), ""
	case float32:
		return ir.String(strconv.FormatFloat(float64(v), 'g', -1, 32)), ""
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return ir.String(fmt.Sprintf("%d", v)), ""
	case time.Time:
		return ir.String(v.Format(time.RFC3339Nano)), ""
	default:
		return nil, fmt.Sprintf("cannot convert %T to string", raw)
	}
}

func toBool(raw any) (ir.Value, string) {
	switch v := raw.(type) {
	case bool:
		return ir.Bool(v), ""
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return nil, "not a boolean"
		}
		return ir.Bool(b), ""
	}

	// 0 and 1 only
	n, reason := toInt(raw)
	if reason != "" {
		return nil, "not a boolean"
	}
	switch n.(ir.Int) {
	case 0:
		return ir.Bool(false), ""
	case 1:
		return ir.Bool(true), ""
	default:
		return nil, "not a boolean"
	}
}

func toTimestamp(raw any) (ir.Value, string) {
	switch v := raw.(type) {
	case time.Time:
		return ir.NewTimestamp(v), ""
	case string:
		t, ok := ParseISO8601(v)
		if !ok {
			return nil, "not an ISO-8601 timestamp"
		}
		return ir.NewTimestamp(t), ""
	default:
		return nil, fmt.Sprintf("cannot convert %T to timestamp", raw)
	}
}
