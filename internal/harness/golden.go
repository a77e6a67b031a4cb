package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/siphon/internal/ir"
)

// Snapshot captures every case outcome of a scenario execution.
type Snapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Cases        []CaseResult `json:"cases"`
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical JSON
// serialization. ir.MarshalCanonical only handles maps, slices and scalars.
func (s *Snapshot) toCanonicalMap() map[string]any {
	cases := make([]any, len(s.Cases))
	for i, c := range s.Cases {
		m := map[string]any{"name": c.Name}
		if c.Error != nil {
			m["error"] = map[string]any{
				"kind":    c.Error.Kind,
				"message": c.Error.Message,
			}
		} else {
			m["predicate"] = c.Predicate
			m["sql"] = c.SQL
			m["params"] = nonNil(c.Params)
			if c.Rows != nil {
				m["rows"] = c.Rows
			}
		}
		cases[i] = m
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"cases":         cases,
	}
}

func nonNil(v []any) []any {
	if v == nil {
		return []any{}
	}
	return v
}

// RunWithGolden executes a scenario and compares every case outcome against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can also check Pass. Returns an error if
// the scenario cannot be executed; a golden mismatch fails t via goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// SnapshotJSON renders a result as the canonical JSON stored in golden
// files.
func SnapshotJSON(scenarioName string, result *Result) ([]byte, error) {
	snapshot := Snapshot{
		ScenarioName: scenarioName,
		Cases:        result.Cases,
	}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := SnapshotJSON(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
