package restrict

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadFile loads models from a .cue, .yaml or .yml file, or from a directory
// holding a CUE package.
func LoadFile(path string) ([]Spec, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &LoadError{Path: path, Message: err.Error()}
	}
	if info.IsDir() {
		return LoadCUEDir(path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return LoadCUEFile(path)
	case ".yaml", ".yml":
		return LoadYAMLFile(path)
	default:
		return nil, &LoadError{Path: path, Message: fmt.Sprintf("unsupported model file extension %q", filepath.Ext(path))}
	}
}

// Find returns the model named name, or the only model when name is empty.
func Find(specs []Spec, name string) (Spec, error) {
	if name == "" {
		if len(specs) == 1 {
			return specs[0], nil
		}
		names := make([]string, len(specs))
		for i, s := range specs {
			names[i] = s.Name
		}
		return Spec{}, fmt.Errorf("%d restriction models found (%s): pick one by name", len(specs), strings.Join(names, ", "))
	}
	for _, s := range specs {
		if s.Name == name {
			return s, nil
		}
	}
	return Spec{}, fmt.Errorf("restriction model %q not found", name)
}
