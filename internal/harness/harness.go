package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	sq "github.com/Masterminds/squirrel"

	"github.com/roach88/siphon/internal/filter"
	"github.com/roach88/siphon/internal/ir"
	"github.com/roach88/siphon/internal/queryir"
	"github.com/roach88/siphon/internal/querysql"
	"github.com/roach88/siphon/internal/restrict"
	"github.com/roach88/siphon/internal/store"
)

// Harness is the scenario execution environment: one filter, one SQL
// compiler and, with a fixture, one isolated in-memory database.
type Harness struct {
	store    *store.Store
	filter   *filter.Filter
	compiler *querysql.SQLCompiler
	key      string
	logger   *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Load the fixture into a fresh in-memory database, or build the
//     column set from the scenario
//  2. Bind the restriction model to the columns
//  3. Run every case through decode, parse, validate and compile
//  4. Render SQL and, with a fixture, execute it
//  5. Compare each outcome with its expectation
//
// An error is returned only when the scenario itself cannot be set up; case
// mismatches are reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	h, err := newHarness(ctx, scenario)
	if err != nil {
		return nil, err
	}
	defer h.close()

	result := NewResult()
	for i, c := range scenario.Cases {
		cr, err := h.runCase(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("cases[%d] %s: %w", i, c.Name, err)
		}
		result.Cases = append(result.Cases, cr)

		for _, msg := range checkCase(c.Expect, cr) {
			result.AddError(fmt.Sprintf("cases[%d] %s: %s", i, c.Name, msg))
		}
	}

	h.logger.Debug("scenario finished",
		"scenario", scenario.Name,
		"cases", len(scenario.Cases),
		"pass", result.Pass,
	)
	return result, nil
}

func newHarness(ctx context.Context, scenario *Scenario) (*Harness, error) {
	// Suppress logs in tests
	h := &Harness{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	var cols ir.Columns
	if scenario.Fixture != "" {
		fx, ok := fixtures[scenario.Fixture]
		if !ok {
			return nil, fmt.Errorf("unknown fixture %q", scenario.Fixture)
		}

		st, err := store.Open(":memory:", store.WithLogger(h.logger))
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory store: %w", err)
		}
		h.store = st

		if err := st.Exec(ctx, fx.sql); err != nil {
			h.close()
			return nil, fmt.Errorf("failed to load fixture %q: %w", scenario.Fixture, err)
		}

		table := fx.table
		if scenario.Table != "" {
			table = scenario.Table
		}
		tbl, err := st.Table(ctx, table)
		if err != nil {
			h.close()
			return nil, err
		}
		cols = tbl
		h.compiler = tbl.Compiler()
		h.compiler.Columns = []string{fx.key}
		h.compiler.TimeFormat = fx.timeFormat
		h.key = fx.key
	} else {
		cols = ir.NewSchema(scenario.Columns...)
		h.compiler = querysql.NewSQLCompiler(scenario.Table)
	}

	if scenario.Placeholder == "dollar" {
		h.compiler.Placeholder = sq.Dollar
	}

	model, err := loadModel(scenario, cols)
	if err != nil {
		h.close()
		return nil, err
	}

	opts := []filter.Option{filter.WithLogger(h.logger)}
	if scenario.MaxDepth > 0 {
		opts = append(opts, filter.WithMaxDepth(scenario.MaxDepth))
	}
	h.filter, err = filter.New(cols, model, opts...)
	if err != nil {
		h.close()
		return nil, err
	}

	return h, nil
}

// loadModel returns the scenario's restriction model bound to cols, or nil
// when the scenario has none.
func loadModel(scenario *Scenario, cols ir.Columns) (*restrict.Model, error) {
	var spec restrict.Spec
	switch {
	case scenario.Model != nil:
		spec = *scenario.Model
		spec.Name = scenario.Name
	case scenario.ModelFile != "":
		specs, err := restrict.LoadFile(scenario.ModelFile)
		if err != nil {
			return nil, err
		}
		spec, err = restrict.Find(specs, scenario.ModelName)
		if err != nil {
			return nil, err
		}
	default:
		return nil, nil
	}
	return restrict.Bind(spec, cols)
}

func (h *Harness) close() {
	if h.store != nil {
		h.store.Close()
	}
}

// runCase pushes one input through the pipeline. Filter rejections are
// outcomes, not errors; only SQL rendering or execution failures are.
func (h *Harness) runCase(ctx context.Context, c Case) (CaseResult, error) {
	cr := CaseResult{Name: c.Name}

	var (
		res filter.Result
		err error
	)
	switch c.Input.Encoding() {
	case "json":
		res, err = h.filter.ApplyJSON([]byte(c.Input.JSON))
	case "yaml":
		res, err = h.filter.ApplyYAML([]byte(c.Input.YAML))
	case "query":
		res, err = h.filter.ApplyQuery(c.Input.Query)
	default:
		return cr, fmt.Errorf("input needs exactly one of json, yaml, query")
	}
	if err != nil {
		cr.Error = &ErrorOutcome{Kind: string(filter.KindOf(err)), Message: err.Error()}
		return cr, nil
	}

	cr.Predicate = queryir.Format(res.Predicate)

	sql, params, err := h.compiler.Compile(res.Predicate, res.Directives)
	if err != nil {
		return cr, err
	}
	cr.SQL = sql
	cr.Params = params
	if cr.Params == nil {
		cr.Params = []any{}
	}

	if h.store != nil {
		rs, err := h.store.Select(ctx, h.compiler, res.Predicate, res.Directives)
		if err != nil {
			return cr, err
		}
		cr.Rows = rs.Column(h.key)
	}
	return cr, nil
}
