package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/siphon/internal/filter"
	"github.com/roach88/siphon/internal/ir"
	"github.com/roach88/siphon/internal/restrict"
)

// Scenario defines a filter conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Fixture loads a database fixture; its table supplies the columns.
	// Known fixtures: people.
	Fixture string `yaml:"fixture,omitempty"`

	// Columns is the column set when no fixture is given.
	Columns []ir.Column `yaml:"columns,omitempty"`

	// Table is the SQL target. Defaults to the fixture's table.
	Table string `yaml:"table,omitempty"`

	// Model is an inline restriction model.
	Model *restrict.Spec `yaml:"model,omitempty"`

	// ModelFile points at a .cue or .yaml model file, relative to the
	// scenario file. ModelName picks one model when the file holds several.
	ModelFile string `yaml:"model_file,omitempty"`
	ModelName string `yaml:"model_name,omitempty"`

	// MaxDepth overrides the parser's nesting limit.
	MaxDepth int `yaml:"max_depth,omitempty"`

	// Placeholder is "question" (default) or "dollar".
	Placeholder string `yaml:"placeholder,omitempty"`

	// Cases are run in order.
	Cases []Case `yaml:"cases"`
}

// Case is one filter expression and its expected outcome.
type Case struct {
	Name   string `yaml:"name"`
	Input  Input  `yaml:"input"`
	Expect Expect `yaml:"expect"`
}

// Input holds a filter expression in exactly one encoding.
type Input struct {
	JSON  string `yaml:"json,omitempty"`
	YAML  string `yaml:"yaml,omitempty"`
	Query string `yaml:"query,omitempty"`
}

// Encoding returns the name of the one populated field, or "" when none or
// several are set.
func (in Input) Encoding() string {
	var set []string
	if in.JSON != "" {
		set = append(set, "json")
	}
	if in.YAML != "" {
		set = append(set, "yaml")
	}
	if in.Query != "" {
		set = append(set, "query")
	}
	if len(set) != 1 {
		return ""
	}
	return set[0]
}

// Expect specifies the expected outcome. Unset fields are not checked.
type Expect struct {
	// Error is the expected error kind (format, column, invalid_operator,
	// invalid_value, unknown_keyword). Empty means the filter must compile.
	Error string `yaml:"error,omitempty"`

	// Message must be a substring of the error message.
	Message string `yaml:"message,omitempty"`

	// Predicate is the expected queryir.Format rendering.
	Predicate *string `yaml:"predicate,omitempty"`

	SQL    string `yaml:"sql,omitempty"`
	Params *[]any `yaml:"params,omitempty"`

	// Rows are the expected row keys in result order. Fixture only.
	Rows *[]any `yaml:"rows,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file. ModelFile is resolved
// relative to the scenario file.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the model file relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Reject unknown fields
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.ModelFile != "" && !filepath.IsAbs(scenario.ModelFile) && basePath != "" {
		scenario.ModelFile = filepath.Join(basePath, scenario.ModelFile)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml and *.yml file in dir, ordered by file
// name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)

	scenarios := make([]*Scenario, 0, len(names))
	for _, name := range names {
		s, err := LoadScenario(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

var errorKinds = []filter.Kind{
	filter.KindFormat,
	filter.KindColumn,
	filter.KindInvalidOperator,
	filter.KindInvalidValue,
	filter.KindUnknownKeyword,
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Fixture != "" {
		if _, ok := fixtures[s.Fixture]; !ok {
			return fmt.Errorf("unknown fixture %q", s.Fixture)
		}
		if len(s.Columns) > 0 {
			return fmt.Errorf("columns and fixture are mutually exclusive")
		}
	} else {
		if len(s.Columns) == 0 {
			return fmt.Errorf("columns list is required without a fixture")
		}
		if s.Table == "" {
			return fmt.Errorf("table is required without a fixture")
		}
	}

	if s.Model != nil && s.ModelFile != "" {
		return fmt.Errorf("model and model_file are mutually exclusive")
	}
	if s.ModelFile != "" {
		if _, err := os.Stat(s.ModelFile); os.IsNotExist(err) {
			return fmt.Errorf("model file not found: %s", s.ModelFile)
		}
	}

	switch s.Placeholder {
	case "", "question", "dollar":
	default:
		return fmt.Errorf("unknown placeholder %q: must be question or dollar", s.Placeholder)
	}

	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}

	for i, c := range s.Cases {
		if c.Name == "" {
			return fmt.Errorf("cases[%d]: name is required", i)
		}
		if c.Input.Encoding() == "" {
			return fmt.Errorf("cases[%d]: input needs exactly one of json, yaml, query", i)
		}
		if c.Expect.Error != "" && !slices.Contains(errorKinds, filter.Kind(c.Expect.Error)) {
			return fmt.Errorf("cases[%d]: unknown error kind %q", i, c.Expect.Error)
		}
		if c.Expect.Rows != nil && s.Fixture == "" {
			return fmt.Errorf("cases[%d]: rows can only be checked against a fixture", i)
		}
	}

	return nil
}
