package restrict

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
)

//go:embed schema/restriction.cue
var schemaSource string

// ParseCUE decodes every model under the top-level "restriction" field of a
// CUE document. The document is unified with the restriction schema first,
// so unknown fields and operator tokens are rejected with their position.
//
// Models are returned in declaration order.
func ParseCUE(filename string, src []byte) ([]Spec, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("restriction_schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("restriction schema: %w", err)
	}

	value := ctx.CompileBytes(src, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, formatCUEError(filename, err)
	}

	return decodeCUE(filename, schema.Unify(value))
}

// LoadCUEFile reads and decodes a single .cue file.
func LoadCUEFile(path string) ([]Spec, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Message: err.Error()}
	}
	return ParseCUE(path, src)
}

// LoadCUEDir loads the CUE package in dir and decodes its models. All files
// of the package contribute to one "restriction" struct.
func LoadCUEDir(dir string) ([]Spec, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &LoadError{Path: dir, Message: err.Error()}
	}
	if !info.IsDir() {
		return nil, &LoadError{Path: dir, Message: "not a directory"}
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Path: dir, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, formatCUEError(dir, inst.Err)
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("restriction_schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("restriction schema: %w", err)
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, formatCUEError(dir, err)
	}

	return decodeCUE(filepath.Clean(dir), schema.Unify(value))
}

func decodeCUE(path string, v cue.Value) ([]Spec, error) {
	if err := v.Validate(); err != nil {
		return nil, formatCUEError(path, err)
	}

	root := v.LookupPath(cue.ParsePath("restriction"))
	if !root.Exists() {
		return nil, &LoadError{Path: path, Message: "no restriction models found"}
	}

	iter, err := root.Fields()
	if err != nil {
		return nil, formatCUEError(path, err)
	}

	var specs []Spec
	for iter.Next() {
		spec, err := decodeRestriction(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	if len(specs) == 0 {
		return nil, &LoadError{Path: path, Message: "no restriction models found"}
	}
	return specs, nil
}

func decodeRestriction(name string, v cue.Value) (Spec, error) {
	spec := Spec{
		Name:    name,
		Columns: map[string][]string{},
		Source:  formatPos(v.Pos()),
	}

	colsVal := v.LookupPath(cue.ParsePath("columns"))
	if colsVal.Exists() {
		iter, err := colsVal.Fields()
		if err != nil {
			return Spec{}, formatCUEError(name, err)
		}
		for iter.Next() {
			ops, err := stringList(iter.Value())
			if err != nil {
				return Spec{}, err
			}
			spec.Columns[iter.Label()] = ops
		}
	}

	orderVal := v.LookupPath(cue.ParsePath("order_by"))
	if orderVal.Exists() {
		cols, err := stringList(orderVal)
		if err != nil {
			return Spec{}, err
		}
		spec.OrderBy = cols
	}

	var err error
	if spec.Limit, err = boolField(v, "limit"); err != nil {
		return Spec{}, err
	}
	if spec.Offset, err = boolField(v, "offset"); err != nil {
		return Spec{}, err
	}
	return spec, nil
}

func stringList(v cue.Value) ([]string, error) {
	if d, ok := v.Default(); ok {
		v = d
	}
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError("", err)
	}
	out := []string{}
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError("", err)
		}
		out = append(out, s)
	}
	return out, nil
}

func boolField(v cue.Value, field string) (bool, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return false, nil
	}
	if d, ok := fv.Default(); ok {
		fv = d
	}
	b, err := fv.Bool()
	if err != nil {
		return false, formatCUEError("", err)
	}
	return b, nil
}

// formatCUEError converts a CUE error to a LoadError carrying the position
// of the first reported problem.
func formatCUEError(path string, err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Path: path, Message: err.Error()}
	}

	first := errs[0]
	loadErr := &LoadError{Path: path, Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		loadErr.Pos = positions[0]
	}
	return loadErr
}

func formatPos(pos token.Pos) string {
	if !pos.IsValid() {
		return ""
	}
	return fmt.Sprintf("%s:%d", pos.Filename(), pos.Line())
}
