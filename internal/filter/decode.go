package filter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// normalizeKey NFC-normalizes a key so visually identical column names
// compare equal.
func normalizeKey(k string) string {
	return norm.NFC.String(k)
}

// containerLimit is how many nested mappings and sequences the decoders
// accept. Each parse level may sit inside one list, so twice the parse depth
// never rejects a filter Parse would accept.
func containerLimit(maxDepth int) int {
	return 2 * maxDepth
}

// maxAliasNodes caps the nodes materialized through YAML aliases.
const maxAliasNodes = 10000

func tooDeep(path string, maxDepth int) *Error {
	return formatError(path, "nesting deeper than %d levels", maxDepth)
}

// DecodeJSON decodes a JSON object into an Object, keeping key order.
// Numbers stay json.Number so integers never pass through float64.
// Duplicate keys at one level are a format error, and so is nesting past
// the WithMaxDepth bound.
func DecodeJSON(data []byte, opts ...Option) (Object, error) {
	o := newOptions(opts)
	d := &jsonDecoder{
		dec:      json.NewDecoder(bytes.NewReader(data)),
		maxDepth: o.maxDepth,
		limit:    containerLimit(o.maxDepth),
	}
	d.dec.UseNumber()

	tok, err := d.dec.Token()
	if err != nil {
		return nil, decodeError("json", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, formatError("", "filter must be a JSON object")
	}
	obj, err := d.object("", 1)
	if err != nil {
		return nil, err
	}
	if _, err := d.dec.Token(); !errors.Is(err, io.EOF) {
		return nil, formatError("", "unexpected data after the filter object")
	}
	return obj, nil
}

type jsonDecoder struct {
	dec      *json.Decoder
	maxDepth int
	limit    int
}

// object reads members up to the closing '}'. depth is the object's own
// nesting depth; the top level is 1.
func (d *jsonDecoder) object(path string, depth int) (Object, error) {
	obj := Object{}
	seen := make(map[string]bool)
	for d.dec.More() {
		tok, err := d.dec.Token()
		if err != nil {
			return nil, decodeError("json", err)
		}
		key := normalizeKey(tok.(string))
		keyPath := joinPath(path, key)
		if seen[key] {
			return nil, formatError(keyPath, "duplicate key %q", key)
		}
		seen[key] = true

		val, err := d.value(keyPath, depth)
		if err != nil {
			return nil, err
		}
		obj = append(obj, Member{Key: key, Value: val})
	}
	// closing '}'
	if _, err := d.dec.Token(); err != nil {
		return nil, decodeError("json", err)
	}
	return obj, nil
}

// value reads one value whose parent sits at depth.
func (d *jsonDecoder) value(path string, depth int) (any, error) {
	tok, err := d.dec.Token()
	if err != nil {
		return nil, decodeError("json", err)
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	if depth+1 > d.limit {
		return nil, tooDeep(path, d.maxDepth)
	}
	switch delim {
	case '{':
		return d.object(path, depth+1)
	case '[':
		arr := []any{}
		for i := 0; d.dec.More(); i++ {
			v, err := d.value(indexPath(path, i), depth+1)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		// closing ']'
		if _, err := d.dec.Token(); err != nil {
			return nil, decodeError("json", err)
		}
		return arr, nil
	default:
		return nil, formatError(path, "unexpected %q", string(delim))
	}
}

// DecodeYAML decodes a YAML mapping into an Object, keeping key order.
// Scalars take their YAML-resolved Go type (int, float64, bool, string).
// An empty document yields an empty Object.
//
// Aliases are expanded in place. An alias to an enclosing anchor, or
// aliases expanding to more than 10000 nodes, are format errors.
func DecodeYAML(data []byte, opts ...Option) (Object, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, decodeError("yaml", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return Object{}, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, formatError("", "filter must be a YAML mapping")
	}

	o := newOptions(opts)
	d := &yamlDecoder{
		maxDepth: o.maxDepth,
		limit:    containerLimit(o.maxDepth),
		open:     make(map[*yaml.Node]bool),
	}
	v, err := d.value(root, "", 1)
	if err != nil {
		return nil, err
	}
	return v.(Object), nil
}

type yamlDecoder struct {
	maxDepth int
	limit    int

	open       map[*yaml.Node]bool // anchored nodes being decoded
	inAlias    int
	aliasNodes int
}

// value decodes n, which sits at depth.
func (d *yamlDecoder) value(n *yaml.Node, path string, depth int) (any, error) {
	if d.inAlias > 0 {
		d.aliasNodes++
		if d.aliasNodes > maxAliasNodes {
			return nil, formatError(path, "line %d: aliases expand to more than %d nodes", n.Line, maxAliasNodes)
		}
	}
	if n.Anchor != "" {
		d.open[n] = true
		defer delete(d.open, n)
	}

	switch n.Kind {
	case yaml.AliasNode:
		if d.open[n.Alias] {
			return nil, formatError(path, "line %d: alias *%s refers to an enclosing node", n.Line, n.Value)
		}
		d.inAlias++
		defer func() { d.inAlias-- }()
		return d.value(n.Alias, path, depth)
	case yaml.MappingNode:
		if depth > d.limit {
			return nil, tooDeep(path, d.maxDepth)
		}
		obj := make(Object, 0, len(n.Content)/2)
		seen := make(map[string]bool)
		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode := n.Content[i]
			if keyNode.Kind != yaml.ScalarNode {
				return nil, formatError(path, "line %d: mapping keys must be scalars", keyNode.Line)
			}
			key := normalizeKey(keyNode.Value)
			keyPath := joinPath(path, key)
			if seen[key] {
				return nil, formatError(keyPath, "line %d: duplicate key %q", keyNode.Line, key)
			}
			seen[key] = true

			val, err := d.value(n.Content[i+1], keyPath, depth+1)
			if err != nil {
				return nil, err
			}
			obj = append(obj, Member{Key: key, Value: val})
		}
		return obj, nil
	case yaml.SequenceNode:
		if depth > d.limit {
			return nil, tooDeep(path, d.maxDepth)
		}
		arr := make([]any, 0, len(n.Content))
		for i, item := range n.Content {
			v, err := d.value(item, indexPath(path, i), depth+1)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, &Error{Kind: KindFormat, Path: path, Message: fmt.Sprintf("line %d: %v", n.Line, err), Err: err}
		}
		return v, nil
	default:
		return nil, formatError(path, "line %d: unsupported YAML node", n.Line)
	}
}

// DecodeQuery decodes a URL query string in bracket syntax:
//
//	age[gt]=18&age[lt]=65&name[in_]=ann&name[in_]=bob&order_by=-age&limit=10
//
// Nested keys build nested Objects in first-seen order. A repeated key
// becomes a list; in_ and nin always take a list. Values stay strings and
// are coerced later against the column type. A '+' is kept literally so
// sign-prefixed order_by items survive.
func DecodeQuery(query string) (Object, error) {
	query = strings.TrimPrefix(query, "?")
	obj := Object{}
	if query == "" {
		return obj, nil
	}

	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawVal, _ := strings.Cut(pair, "=")
		key, err := url.PathUnescape(rawKey)
		if err != nil {
			return nil, formatError("", "invalid escape in key %q", rawKey)
		}
		val, err := url.PathUnescape(rawVal)
		if err != nil {
			return nil, formatError(key, "invalid escape in value %q", rawVal)
		}

		segments, err := splitQueryKey(key)
		if err != nil {
			return nil, err
		}
		if err := insertQueryValue(&obj, segments, val, ""); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

// splitQueryKey splits "age[or][lt]" into ["age", "or", "lt"].
func splitQueryKey(key string) ([]string, error) {
	head, rest, found := strings.Cut(key, "[")
	if head == "" {
		return nil, formatError("", "empty key in %q", key)
	}
	segments := []string{normalizeKey(head)}
	if !found {
		return segments, nil
	}

	rest = "[" + rest
	for rest != "" {
		if rest[0] != '[' {
			return nil, formatError(head, "malformed key %q", key)
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return nil, formatError(head, "unclosed bracket in key %q", key)
		}
		seg := rest[1:end]
		if seg == "" {
			return nil, formatError(head, "empty bracket in key %q", key)
		}
		segments = append(segments, normalizeKey(seg))
		rest = rest[end+1:]
	}
	return segments, nil
}

func insertQueryValue(obj *Object, segments []string, val, path string) error {
	key := segments[0]
	keyPath := joinPath(path, key)

	idx := -1
	for i, m := range *obj {
		if m.Key == key {
			idx = i
			break
		}
	}

	if len(segments) == 1 {
		if idx < 0 {
			var v any = val
			if key == "in_" || key == "nin" {
				v = []any{val}
			}
			*obj = append(*obj, Member{Key: key, Value: v})
			return nil
		}
		switch existing := (*obj)[idx].Value.(type) {
		case string:
			(*obj)[idx].Value = []any{existing, val}
		case []any:
			(*obj)[idx].Value = append(existing, val)
		default:
			return formatError(keyPath, "key %q is used both as a value and as a mapping", key)
		}
		return nil
	}

	if idx < 0 {
		*obj = append(*obj, Member{Key: key, Value: Object{}})
		idx = len(*obj) - 1
	}
	child, ok := (*obj)[idx].Value.(Object)
	if !ok {
		return formatError(keyPath, "key %q is used both as a value and as a mapping", key)
	}
	if err := insertQueryValue(&child, segments[1:], val, keyPath); err != nil {
		return err
	}
	(*obj)[idx].Value = child
	return nil
}

func decodeError(format string, err error) *Error {
	return &Error{
		Kind:    KindFormat,
		Message: fmt.Sprintf("invalid %s: %v", format, err),
		Err:     err,
	}
}
