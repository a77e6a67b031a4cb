package filter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// Member is one key/value pair of an Object.
type Member struct {
	Key   string
	Value any
}

// Object is an ordered mapping, the raw form of a filter expression.
//
// Values are nil, string, bool, json.Number, Go numbers, []any or a nested
// Object. Document order is kept so errors are reported for the first
// offending key as written.
type Object []Member

// Get returns the value of the first member named key.
func (o Object) Get(key string) (any, bool) {
	for _, m := range o {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// Keys returns the member keys in order.
func (o Object) Keys() []string {
	keys := make([]string, len(o))
	for i, m := range o {
		keys[i] = m.Key
	}
	return keys
}

// MarshalJSON writes the members in order.
func (o Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(m.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(m.Value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", m.Key, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// FromMap converts a plain map, as produced by generic decoders, into an
// Object. Go maps have no order, so keys are sorted. Nested maps and maps
// inside slices are converted too.
func FromMap(m map[string]any) Object {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	obj := make(Object, 0, len(keys))
	for _, k := range keys {
		obj = append(obj, Member{Key: normalizeKey(k), Value: fromAny(m[k])})
	}
	return obj
}

func fromAny(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return FromMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = fromAny(item)
		}
		return out
	default:
		return v
	}
}
