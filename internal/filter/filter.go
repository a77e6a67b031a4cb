package filter

import (
	"errors"

	"github.com/roach88/siphon/internal/ir"
	"github.com/roach88/siphon/internal/queryir"
	"github.com/roach88/siphon/internal/restrict"
)

// Filter binds a queryable's columns and an optional restriction model.
// It is immutable and safe for concurrent use.
type Filter struct {
	columns ir.Columns
	model   *restrict.Model
	opts    options
}

// New returns a Filter over cols. model may be nil, in which case every
// existing column, operator and keyword is allowed. Otherwise the model is
// checked against cols and a *restrict.ModelError returned if it names a
// missing column.
func New(cols ir.Columns, model *restrict.Model, opts ...Option) (*Filter, error) {
	if model != nil {
		if err := model.ValidateAgainst(cols); err != nil {
			return nil, err
		}
	}
	return &Filter{
		columns: cols,
		model:   model,
		opts:    newOptions(opts),
	}, nil
}

// Columns returns the bound column lookup.
func (f *Filter) Columns() ir.Columns { return f.columns }

// Model returns the bound restriction model, or nil.
func (f *Filter) Model() *restrict.Model { return f.model }

// MaxDepth returns the nesting bound applied by the decoders and Parse.
func (f *Filter) MaxDepth() int { return f.opts.maxDepth }

// Check parses and validates obj.
func (f *Filter) Check(obj Object) (*Expr, error) {
	expr, err := Parse(obj, WithMaxDepth(f.opts.maxDepth))
	if err != nil {
		return nil, f.reject(err)
	}
	if err := Validate(expr, f.columns, f.model); err != nil {
		return nil, f.reject(err)
	}
	return expr, nil
}

// Apply parses, validates and compiles obj. Any error is an *Error.
func (f *Filter) Apply(obj Object) (Result, error) {
	expr, err := f.Check(obj)
	if err != nil {
		return Result{}, err
	}
	res, err := Compile(expr, f.columns)
	if err != nil {
		return Result{}, f.reject(err)
	}

	f.opts.logger.Debug("filter compiled",
		"predicate", queryir.Format(res.Predicate),
		"order_by", len(res.Directives.OrderBy))
	return res, nil
}

// ApplyJSON decodes a JSON object and applies it.
func (f *Filter) ApplyJSON(data []byte) (Result, error) {
	obj, err := DecodeJSON(data, WithMaxDepth(f.opts.maxDepth))
	if err != nil {
		return Result{}, f.reject(err)
	}
	return f.Apply(obj)
}

// ApplyYAML decodes a YAML mapping and applies it.
func (f *Filter) ApplyYAML(data []byte) (Result, error) {
	obj, err := DecodeYAML(data, WithMaxDepth(f.opts.maxDepth))
	if err != nil {
		return Result{}, f.reject(err)
	}
	return f.Apply(obj)
}

// ApplyQuery decodes a bracket-syntax query string and applies it.
func (f *Filter) ApplyQuery(query string) (Result, error) {
	obj, err := DecodeQuery(query)
	if err != nil {
		return Result{}, f.reject(err)
	}
	return f.Apply(obj)
}

func (f *Filter) reject(err error) error {
	var fe *Error
	if errors.As(err, &fe) {
		f.opts.logger.Debug("filter rejected", "kind", fe.Kind, "path", fe.Path, "error", fe.Message)
	}
	return err
}
