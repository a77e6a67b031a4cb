package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/siphon/internal/restrict"
)

// ModelCommandOptions holds flags for the model command.
type ModelCommandOptions struct {
	*RootOptions
	ColumnSourceOptions
	ModelName string
}

// ModelInfo describes one restriction model.
type ModelInfo struct {
	restrict.Spec
	Bound bool `json:"bound"`
}

// NewModelCommand creates the model command.
func NewModelCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ModelCommandOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "model <file>",
		Short: "Load restriction models and check them against a table",
		Long: `Load restriction models from a .cue or .yaml file, or a CUE package
directory, and print them.

With a column source (--db and --table, or --columns) every model is also
bound, which fails when a model names a column the table lacks.

Examples:
  siphon model models.cue
  siphon model models.yaml --db app.db --table people
  siphon model ./models --model-name public --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModel(cmd.Context(), opts, cmd, args[0])
		},
	}

	opts.ColumnSourceOptions.bind(cmd)
	cmd.Flags().StringVar(&opts.ModelName, "model-name", "", "only this model")

	return cmd
}

func runModel(ctx context.Context, opts *ModelCommandOptions, cmd *cobra.Command, path string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}

	mo := ModelOptions{Model: path, ModelName: opts.ModelName}
	specs, err := mo.loadSpecs()
	if err != nil {
		return fail(formatter, err)
	}

	var models []*restrict.Model
	bound := opts.ColumnSourceOptions.given()
	if bound {
		src, err := opts.ColumnSourceOptions.open(ctx)
		if err != nil {
			return fail(formatter, err)
		}
		defer src.Close()

		for _, spec := range specs {
			m, err := restrict.Bind(spec, src.columns)
			if err != nil {
				return fail(formatter, err)
			}
			models = append(models, m)
		}
	} else {
		for _, spec := range specs {
			m, err := restrict.New(spec)
			if err != nil {
				return fail(formatter, err)
			}
			models = append(models, m)
		}
	}

	slog.Debug("models loaded", "path", path, "count", len(models), "bound", bound)

	if formatter.Format == "json" {
		infos := make([]ModelInfo, len(models))
		for i, m := range models {
			infos[i] = ModelInfo{Spec: m.Spec(), Bound: bound}
		}
		return formatter.Success(infos)
	}

	verb := "Loaded"
	if bound {
		verb = "Bound"
	}
	fmt.Fprintf(formatter.Writer, "✓ %s %d model(s)\n\n", verb, len(models))
	for _, m := range models {
		fmt.Fprintf(formatter.Writer, "  %s\n", m)
	}
	return nil
}
