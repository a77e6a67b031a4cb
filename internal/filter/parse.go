package filter

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/roach88/siphon/internal/order"
	"github.com/roach88/siphon/internal/queryir"
)

// columnName is the accepted shape of a column key. Dotted names address
// columns of joined tables.
var columnName = regexp.MustCompile(`^[\p{L}_][\p{L}\p{N}_]*(?:\.[\p{L}_][\p{L}\p{N}_]*)*$`)

// Parse turns a raw expression into a typed tree, rejecting every structural
// problem with a KindFormat error (or KindUnknownKeyword for unrecognizable
// top-level keys). It does not look at columns or a restriction model; see
// Validate.
func Parse(obj Object, opts ...Option) (*Expr, error) {
	o := newOptions(opts)
	p := &parser{maxDepth: o.maxDepth}

	nodes, err := p.level(obj, "", 1, true)
	if err != nil {
		return nil, err
	}
	return &Expr{Nodes: nodes}, nil
}

type parser struct {
	maxDepth int
}

func (p *parser) checkDepth(path string, depth int) error {
	if depth > p.maxDepth {
		return formatError(path, "nesting deeper than %d levels", p.maxDepth)
	}
	return nil
}

// level parses a mapping with no bound column: the top level, a junction
// body, or one group of a junction list.
func (p *parser) level(obj Object, path string, depth int, top bool) ([]Node, error) {
	if err := p.checkDepth(path, depth); err != nil {
		return nil, err
	}

	var nodes []Node
	seen := make(map[string]bool, len(obj))
	junction := ""
	for _, m := range obj {
		key := normalizeKey(m.Key)
		keyPath := joinPath(path, key)
		if seen[key] {
			return nil, formatError(keyPath, "duplicate key %q", key)
		}
		seen[key] = true

		switch {
		case isJunctionKey(key):
			if junction != "" {
				return nil, formatError(keyPath, "%q and %q at the same level: only one junction is allowed per level", junction, key)
			}
			junction = key
			j, err := p.junction(JunctionKind(key), m.Value, keyPath, depth)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, j)

		case isKeyword(key):
			if !top {
				return nil, formatError(keyPath, "keyword %q is only allowed at the top level", key)
			}
			kw, err := p.keyword(key, m.Value, keyPath)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, kw)

		case queryir.IsOpToken(key):
			return nil, formatError(keyPath, "operator %q has no bound column", key)

		case columnName.MatchString(key):
			cp, err := p.column(key, m.Value, keyPath, depth)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, cp)

		default:
			if top {
				return nil, newError(KindUnknownKeyword, keyPath, "", "unknown key %q: expected a column name, and/or, limit, offset or order_by", key)
			}
			return nil, formatError(keyPath, "%q is not a column name", key)
		}
	}
	return nodes, nil
}

// junction parses the value of an and/or key without a bound column.
func (p *parser) junction(kind JunctionKind, raw any, path string, depth int) (Junction, error) {
	j := Junction{Kind: kind, Path: path}

	switch v := raw.(type) {
	case Object:
		if len(v) == 0 {
			return Junction{}, formatError(path, "empty %s", kind)
		}
		children, err := p.level(v, path, depth+1, false)
		if err != nil {
			return Junction{}, err
		}
		j.Children = children

	case []any:
		if len(v) == 0 {
			return Junction{}, formatError(path, "empty %s", kind)
		}
		for i, item := range v {
			itemPath := indexPath(path, i)
			group, ok := item.(Object)
			if !ok || len(group) == 0 {
				return Junction{}, formatError(itemPath, "%s items must be non-empty mappings", kind)
			}
			children, err := p.level(group, itemPath, depth+1, false)
			if err != nil {
				return Junction{}, err
			}
			if len(children) == 1 {
				j.Children = append(j.Children, children[0])
				continue
			}
			j.Children = append(j.Children, Junction{Kind: JunctionAnd, Path: itemPath, Children: children})
		}

	default:
		return Junction{}, formatError(path, "%s expects a mapping or a list of mappings, got %s", kind, describe(raw))
	}
	return j, nil
}

// column parses the value of a column key.
func (p *parser) column(col string, raw any, path string, depth int) (ColumnPredicate, error) {
	obj, ok := raw.(Object)
	if !ok {
		return ColumnPredicate{}, formatError(path, "column %q expects a mapping of operators, got %s", col, describe(raw))
	}
	if len(obj) == 0 {
		return ColumnPredicate{}, formatError(path, "column %q has no operators", col)
	}

	ops, err := p.ops(col, obj, path, depth+1)
	if err != nil {
		return ColumnPredicate{}, err
	}
	return ColumnPredicate{Column: col, Path: path, Ops: ops}, nil
}

// ops parses a mapping under a bound column: operators and at most one
// junction of further operator mappings.
func (p *parser) ops(col string, obj Object, path string, depth int) ([]OpNode, error) {
	if err := p.checkDepth(path, depth); err != nil {
		return nil, err
	}

	var nodes []OpNode
	seen := make(map[string]bool, len(obj))
	junction := ""
	for _, m := range obj {
		key := normalizeKey(m.Key)
		keyPath := joinPath(path, key)
		if seen[key] {
			return nil, formatError(keyPath, "duplicate key %q", key)
		}
		seen[key] = true

		if op, ok := queryir.ParseOp(key); ok {
			nodes = append(nodes, Operation{Op: op, Path: keyPath, Value: m.Value})
			continue
		}

		switch {
		case isJunctionKey(key):
			if junction != "" {
				return nil, formatError(keyPath, "%q and %q at the same level: only one junction is allowed per level", junction, key)
			}
			junction = key
			j, err := p.opJunction(col, JunctionKind(key), m.Value, keyPath, depth)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, j)
		case isKeyword(key):
			return nil, formatError(keyPath, "keyword %q is only allowed at the top level", key)
		default:
			return nil, formatError(keyPath, "%q under column %q: only operators and and/or may appear here", key, col)
		}
	}
	return nodes, nil
}

func (p *parser) opJunction(col string, kind JunctionKind, raw any, path string, depth int) (OpJunction, error) {
	j := OpJunction{Kind: kind, Path: path}

	switch v := raw.(type) {
	case Object:
		if len(v) == 0 {
			return OpJunction{}, formatError(path, "empty %s", kind)
		}
		children, err := p.ops(col, v, path, depth+1)
		if err != nil {
			return OpJunction{}, err
		}
		j.Children = children

	case []any:
		if len(v) == 0 {
			return OpJunction{}, formatError(path, "empty %s", kind)
		}
		for i, item := range v {
			itemPath := indexPath(path, i)
			group, ok := item.(Object)
			if !ok || len(group) == 0 {
				return OpJunction{}, formatError(itemPath, "%s items must be non-empty mappings", kind)
			}
			children, err := p.ops(col, group, itemPath, depth+1)
			if err != nil {
				return OpJunction{}, err
			}
			if len(children) == 1 {
				j.Children = append(j.Children, children[0])
				continue
			}
			j.Children = append(j.Children, OpJunction{Kind: JunctionAnd, Path: itemPath, Children: children})
		}

	default:
		return OpJunction{}, formatError(path, "%s expects a mapping or a list of mappings, got %s", kind, describe(raw))
	}
	return j, nil
}

func (p *parser) keyword(name string, raw any, path string) (Keyword, error) {
	kw := Keyword{Name: name, Path: path}
	if name == KeywordOrderBy {
		if _, isObj := raw.(Object); isObj {
			return Keyword{}, formatError(path, "order_by expects a string or a list of strings")
		}
		specs, err := order.Parse(raw)
		if err != nil {
			var se *order.SyntaxError
			if _, isList := raw.([]any); isList && errors.As(err, &se) {
				path = indexPath(path, se.Index)
			}
			return Keyword{}, &Error{Kind: KindFormat, Path: path, Message: err.Error(), Err: err}
		}
		kw.OrderBy = specs
		return kw, nil
	}

	n, err := nonNegativeInt(raw)
	if err != nil {
		return Keyword{}, &Error{Kind: KindFormat, Path: path, Message: fmt.Sprintf("%s %s", name, err), Err: err}
	}
	kw.Count = n
	return kw, nil
}

var (
	errNegative   = errors.New("must not be negative")
	errNotInteger = errors.New("must be a non-negative integer")
	errTooLarge   = fmt.Errorf("must not exceed %d", int64(math.MaxInt64))
)

// nonNegativeInt accepts integers, integral floats and decimal digit strings.
func nonNegativeInt(raw any) (uint64, error) {
	switch v := raw.(type) {
	case int:
		return fromInt64(int64(v))
	case int64:
		return fromInt64(v)
	case int32:
		return fromInt64(int64(v))
	case uint:
		return fromUint64(uint64(v))
	case uint64:
		return fromUint64(v)
	case uint32:
		return uint64(v), nil
	case float64:
		return fromFloat(v)
	case json.Number:
		if n, err := strconv.ParseInt(v.String(), 10, 64); err == nil {
			return fromInt64(n)
		}
		if n, err := strconv.ParseUint(v.String(), 10, 64); err == nil {
			return fromUint64(n)
		}
		f, err := v.Float64()
		if err != nil {
			return 0, errNotInteger
		}
		return fromFloat(f)
	case string:
		s := strings.TrimSpace(v)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return fromInt64(n)
		}
		n, err := strconv.ParseUint(s, 10, 64)
		if err == nil {
			return fromUint64(n)
		}
		if errors.Is(err, strconv.ErrRange) {
			return 0, errTooLarge
		}
		return 0, errNotInteger
	default:
		return 0, errNotInteger
	}
}

func fromInt64(n int64) (uint64, error) {
	if n < 0 {
		return 0, errNegative
	}
	return uint64(n), nil
}

// fromUint64 keeps counts within int64 so they stay valid SQL integers.
func fromUint64(n uint64) (uint64, error) {
	if n > math.MaxInt64 {
		return 0, errTooLarge
	}
	return n, nil
}

func fromFloat(f float64) (uint64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, errNotInteger
	}
	if f < 0 {
		return 0, errNegative
	}
	if f >= math.MaxInt64 {
		return 0, errTooLarge
	}
	return uint64(f), nil
}

// describe names the shape of a raw value for error messages.
func describe(raw any) string {
	switch v := raw.(type) {
	case nil:
		return "null"
	case Object:
		return "a mapping"
	case []any:
		return "a list"
	case string:
		return strconv.Quote(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
