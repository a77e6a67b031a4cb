package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/spf13/cobra"

	"github.com/roach88/siphon/internal/filter"
	"github.com/roach88/siphon/internal/queryir"
	"github.com/roach88/siphon/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	ColumnSourceOptions
	ModelOptions
	InputOptions

	TieBreaker  string
	Placeholder string // question | dollar
	TimeFormat  string
	Select      []string
	WhereOnly   bool
	Execute     bool
	MaxDepth    int
}

// CompileOutput is the compile command's payload.
type CompileOutput struct {
	Predicate string           `json:"predicate"`
	SQL       string           `json:"sql"`
	Params    []any            `json:"params"`
	Result    *store.ResultSet `json:"result,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile [filter]",
		Short: "Compile a filter expression to parameterized SQL",
		Long: `Compile a filter expression to a parameterized SELECT statement.

The filter is read from the argument, or from stdin when the argument is
missing or "-". Values are never interpolated; they are returned as params.

Exit codes:
  0 - Filter compiled
  1 - Filter rejected
  2 - Command error (bad flags, missing database, invalid model)

Examples:
  siphon compile --db app.db --table people '{"age": {"ge": 18}}'
  siphon compile --columns age:int,name:string -i query 'age[gt]=18&order_by=-age'
  siphon compile --db app.db --table people --model models.cue --execute < filter.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd.Context(), opts, cmd, args)
		},
	}

	opts.ColumnSourceOptions.bind(cmd)
	opts.ModelOptions.bind(cmd)
	opts.InputOptions.bind(cmd)
	cmd.Flags().StringVar(&opts.TieBreaker, "tiebreaker", "", "final ascending sort key for stable paging (default: id when the table has one)")
	cmd.Flags().StringVar(&opts.Placeholder, "placeholder", "question", "bind parameter style (question|dollar)")
	cmd.Flags().StringVar(&opts.TimeFormat, "time-format", "", "bind timestamps as UTC text in this Go layout")
	cmd.Flags().StringSliceVar(&opts.Select, "select", nil, "columns to select (default *)")
	cmd.Flags().BoolVar(&opts.WhereOnly, "where", false, "print only the WHERE condition")
	cmd.Flags().BoolVar(&opts.Execute, "execute", false, "run the statement against --db and print the rows")
	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", filter.DefaultMaxDepth, "maximum nesting depth")

	return cmd
}

func runCompile(ctx context.Context, opts *CompileOptions, cmd *cobra.Command, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}

	if opts.Execute && opts.DB == "" {
		return fail(formatter, coded(ErrCodeBadFlags, fmt.Errorf("--execute requires --db")))
	}
	if opts.Execute && opts.WhereOnly {
		return fail(formatter, coded(ErrCodeBadFlags, fmt.Errorf("--execute and --where are mutually exclusive")))
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
	res, err := opts.InputOptions.apply(f, data)
	if err != nil {
		return fail(formatter, err)
	}

	c := src.compiler()
	if opts.TieBreaker != "" {
		c.TieBreaker = opts.TieBreaker
	}
	if len(opts.Select) > 0 {
		c.Columns = opts.Select
	}
	c.TimeFormat = opts.TimeFormat
	switch opts.Placeholder {
	case "question":
	case "dollar":
		c.Placeholder = sq.Dollar
	default:
		return fail(formatter, coded(ErrCodeBadFlags, fmt.Errorf("invalid placeholder %q: must be question or dollar", opts.Placeholder)))
	}

	out := CompileOutput{Predicate: queryir.Format(res.Predicate)}
	if opts.WhereOnly {
		out.SQL, out.Params, err = c.CompileWhere(res.Predicate)
	} else {
		out.SQL, out.Params, err = c.Compile(res.Predicate, res.Directives)
	}
	if err != nil {
		return fail(formatter, err)
	}
	if out.Params == nil {
		out.Params = []any{}
	}

	if opts.Execute {
		rs, err := src.store.Select(ctx, c, res.Predicate, res.Directives)
		if err != nil {
			return fail(formatter, coded(ErrCodeDatabase, err))
		}
		out.Result = rs
	}

	slog.Debug("compiled", "sql", out.SQL, "params", len(out.Params))

	if formatter.Format == "json" {
		return formatter.Success(out)
	}
	writeCompileText(formatter, out)
	return nil
}

func writeCompileText(formatter *OutputFormatter, out CompileOutput) {
	w := formatter.Writer
	fmt.Fprintf(w, "predicate: %s\n", out.Predicate)
	fmt.Fprintf(w, "sql:       %s\n", out.SQL)
	fmt.Fprintf(w, "params:    %s\n", formatParams(out.Params))

	if out.Result == nil {
		return
	}
	fmt.Fprintf(w, "\n%s\n", strings.Join(out.Result.Columns, "\t"))
	for _, row := range out.Result.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = formatCell(v)
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	fmt.Fprintf(w, "(%d row(s))\n", len(out.Result.Rows))
}

func formatParams(params []any) string {
	parts := make([]string, len(params))
	for i, p := range params {
		if s, ok := p.(string); ok {
			parts[i] = fmt.Sprintf("%q", s)
			continue
		}
		parts[i] = formatCell(p)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatCell(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", v)
}
