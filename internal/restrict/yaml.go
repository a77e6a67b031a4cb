package restrict

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// yamlDocument mirrors the CUE layout: models live under "restriction".
type yamlDocument struct {
	Restriction map[string]Spec `yaml:"restriction"`
}

// ParseYAML decodes every model under the top-level "restriction" mapping of
// a YAML document. Unknown fields are rejected. Operator tokens are checked
// later, by New.
//
// Models are returned in document order.
func ParseYAML(filename string, src []byte) ([]Spec, error) {
	dec := yaml.NewDecoder(bytes.NewReader(src))
	dec.KnownFields(true)

	var doc yamlDocument
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &LoadError{Path: filename, Message: "empty document"}
		}
		return nil, &LoadError{Path: filename, Message: err.Error()}
	}
	if len(doc.Restriction) == 0 {
		return nil, &LoadError{Path: filename, Message: "no restriction models found"}
	}

	// Second pass over the node tree for document order and line numbers.
	var root yaml.Node
	if err := yaml.Unmarshal(src, &root); err != nil {
		return nil, &LoadError{Path: filename, Message: err.Error()}
	}
	models := findMapping(&root, "restriction")
	if models == nil {
		return nil, &LoadError{Path: filename, Message: "restriction must be a mapping"}
	}

	specs := make([]Spec, 0, len(doc.Restriction))
	for i := 0; i+1 < len(models.Content); i += 2 {
		key := models.Content[i]
		spec := doc.Restriction[key.Value]
		spec.Name = key.Value
		spec.Source = fmt.Sprintf("%s:%d", filename, key.Line)
		if spec.Columns == nil {
			spec.Columns = map[string][]string{}
		}
		for col, ops := range spec.Columns {
			if ops == nil {
				spec.Columns[col] = []string{}
			}
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// LoadYAMLFile reads and decodes a single YAML file.
func LoadYAMLFile(path string) ([]Spec, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Message: err.Error()}
	}
	return ParseYAML(path, src)
}

func findMapping(n *yaml.Node, key string) *yaml.Node {
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		n = n.Content[0]
	}
	if n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key && n.Content[i+1].Kind == yaml.MappingNode {
			return n.Content[i+1]
		}
	}
	return nil
}
