package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"time"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces deterministic JSON for snapshots and CLI output.
//
// Differences from json.Marshal:
//  1. Object keys sorted by UTF-16 code units (RFC 8785 ordering)
//  2. No HTML escaping (< > & are NOT escaped)
//  3. Strings are NFC normalized
//  4. Timestamps render as RFC 3339 strings with nanoseconds
//  5. No insignificant whitespace
//
// Accepted inputs: nil, Value types, string, bool, the Go integer and float
// kinds, time.Time, []any, []string and map[string]any (recursively).
func MarshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := marshalCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func marshalCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case Int:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case Float:
		return marshalCanonicalFloat(buf, float64(val))
	case String:
		return marshalCanonicalString(buf, string(val))
	case Bool:
		writeBool(buf, bool(val))
	case Timestamp:
		return marshalCanonicalString(buf, val.String())
	case List:
		return marshalCanonicalArray(buf, len(val.Items), func(i int) any { return val.Items[i] })
	case string:
		return marshalCanonicalString(buf, val)
	case bool:
		writeBool(buf, val)
	case int:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case uint64:
		buf.WriteString(strconv.FormatUint(val, 10))
	case float64:
		return marshalCanonicalFloat(buf, val)
	case json.Number:
		buf.WriteString(val.String())
	case time.Time:
		return marshalCanonicalString(buf, val.Format(time.RFC3339Nano))
	case []any:
		return marshalCanonicalArray(buf, len(val), func(i int) any { return val[i] })
	case []string:
		return marshalCanonicalArray(buf, len(val), func(i int) any { return val[i] })
	case map[string]any:
		return marshalCanonicalObject(buf, val)
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

func writeBool(buf *bytes.Buffer, b bool) {
	if b {
		buf.WriteString("true")
		return
	}
	buf.WriteString("false")
}

func marshalCanonicalFloat(buf *bytes.Buffer, f float64) error {
	b, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("float %v: %w", f, err)
	}
	buf.Write(b)
	return nil
}

// marshalCanonicalString writes an NFC normalized JSON string without HTML
// escaping.
func marshalCanonicalString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return err
	}
	// json.Encoder adds a trailing newline
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
	return nil
}

func marshalCanonicalArray(buf *bytes.Buffer, n int, at func(int) any) error {
	buf.WriteByte('[')
	for i := 0; i < n; i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := marshalCanonical(buf, at(i)); err != nil {
			return fmt.Errorf("array[%d]: %w", i, err)
		}
	}
	buf.WriteByte(']')
	return nil
}

func marshalCanonicalObject(buf *bytes.Buffer, obj map[string]any) error {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := marshalCanonicalString(buf, k); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := marshalCanonical(buf, obj[k]); err != nil {
			return fmt.Errorf("object[%q]: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

// compareKeysRFC8785 compares strings by UTF-16 code units.
// Go's default string comparison uses UTF-8 which produces a different order
// outside the BMP.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}
