package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/siphon/internal/filter"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	ColumnSourceOptions
	ModelOptions
	InputOptions
	MaxDepth int
}

// ValidationOutput is the validate command's payload on success.
type ValidationOutput struct {
	Valid bool `json:"valid"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate [filter]",
		Short: "Check a filter expression without compiling it",
		Long: `Check a filter expression against the columns and restriction model.

Reports the first problem in document order with its kind and path.

Exit codes:
  0 - Filter accepted
  1 - Filter rejected
  2 - Command error`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.Context(), opts, cmd, args)
		},
	}

	opts.ColumnSourceOptions.bind(cmd)
	opts.ModelOptions.bind(cmd)
	opts.InputOptions.bind(cmd)
	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", filter.DefaultMaxDepth, "maximum nesting depth")

	return cmd
}

func runValidate(ctx context.Context, opts *ValidateOptions, cmd *cobra.Command, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}

	src, err := opts.ColumnSourceOptions.open(ctx)
	if err != nil {
		return fail(formatter, err)
	}
	defer src.Close()

	model, err := opts.ModelOptions.load(src.columns)
	if err != nil {
		return fail(formatter, err)
	}

	data, err := opts.InputOptions.read(cmd, args)
	if err != nil {
		return fail(formatter, err)
	}

	f, err := filter.New(src.columns, model, filter.WithMaxDepth(opts.MaxDepth), filter.WithLogger(slog.Default()))
	if err != nil {
		return fail(formatter, err)
	}
	if err := opts.InputOptions.check(f, data); err != nil {
		if formatter.Format != "json" && filter.KindOf(err) != "" {
			fmt.Fprintf(formatter.Writer, "✗ %s\n", err)
			return WrapExitError(ExitFailure, ErrorCode(err), err)
		}
		return fail(formatter, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(ValidationOutput{Valid: true})
	}
	fmt.Fprintln(formatter.Writer, "✓ Filter is valid")
	return nil
}
