package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/siphon/internal/filter"
	"github.com/roach88/siphon/internal/ir"
	"github.com/roach88/siphon/internal/querysql"
	"github.com/roach88/siphon/internal/restrict"
	"github.com/roach88/siphon/internal/store"
)

// ColumnSourceOptions selects the queryable: a SQLite table, or an explicit
// column list.
type ColumnSourceOptions struct {
	DB      string // SQLite database path
	Table   string // table name; required with --db, names the SQL target otherwise
	Columns string // "age:int,name:string"
}

func (o *ColumnSourceOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.DB, "db", "", "SQLite database whose table supplies the columns")
	cmd.Flags().StringVar(&o.Table, "table", "", "table name")
	cmd.Flags().StringVar(&o.Columns, "columns", "", `explicit columns, e.g. "age:int,name:string,born:timestamp"`)
}

// given reports whether any column source flag is set.
func (o *ColumnSourceOptions) given() bool {
	return o.DB != "" || o.Columns != ""
}

// ModelOptions selects a restriction model.
type ModelOptions struct {
	Model     string // .cue / .yaml file or CUE package dir
	ModelName string // model to use when the file declares several
}

func (o *ModelOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Model, "model", "", "restriction model file (.cue, .yaml) or CUE package directory")
	cmd.Flags().StringVar(&o.ModelName, "model-name", "", "model to use when the file declares several")
}

// source is an opened queryable.
type source struct {
	columns ir.Columns
	table   string
	store   *store.Store // nil without --db
}

func (s *source) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

// compiler returns a SQL compiler for the source's table.
func (s *source) compiler() *querysql.SQLCompiler {
	if t, ok := s.columns.(*store.Table); ok {
		return t.Compiler()
	}
	return querysql.NewSQLCompiler(s.table)
}

// open resolves the column source. Errors carry their CLI code.
func (o *ColumnSourceOptions) open(ctx context.Context) (*source, error) {
	switch {
	case o.DB != "" && o.Columns != "":
		return nil, coded(ErrCodeBadFlags, fmt.Errorf("--db and --columns are mutually exclusive"))
	case o.DB != "":
		if o.Table == "" {
			return nil, coded(ErrCodeBadFlags, fmt.Errorf("--table is required with --db"))
		}
		if _, err := os.Stat(o.DB); err != nil {
			return nil, coded(ErrCodeNotFound, fmt.Errorf("database not found: %s", o.DB))
		}
		st, err := store.Open(o.DB, store.ReadOnly())
		if err != nil {
			return nil, coded(ErrCodeDatabase, err)
		}
		tbl, err := st.Table(ctx, o.Table)
		if err != nil {
			st.Close()
			return nil, err
		}
		return &source{columns: tbl, table: o.Table, store: st}, nil
	case o.Columns != "":
		cols, err := ParseColumns(o.Columns)
		if err != nil {
			return nil, coded(ErrCodeBadFlags, err)
		}
		table := o.Table
		if table == "" {
			table = "records"
		}
		return &source{columns: ir.NewSchema(cols...), table: table}, nil
	default:
		return nil, coded(ErrCodeBadFlags, fmt.Errorf("a column source is required: --db with --table, or --columns"))
	}
}

// ParseColumns parses "name:type" pairs separated by commas.
func ParseColumns(s string) ([]ir.Column, error) {
	var cols []ir.Column
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, typ, ok := strings.Cut(part, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("column spec %q: want name:type", part)
		}
		st, err := ir.ParseSemanticType(typ)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		cols = append(cols, ir.Column{Name: strings.TrimSpace(name), Type: st})
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("no columns in %q", s)
	}
	return cols, nil
}

// loadSpecs loads the model file and picks the named model, or every model
// when no name is given.
func (o *ModelOptions) loadSpecs() ([]restrict.Spec, error) {
	specs, err := restrict.LoadFile(o.Model)
	if err != nil {
		return nil, err
	}
	if o.ModelName == "" {
		return specs, nil
	}
	spec, err := restrict.Find(specs, o.ModelName)
	if err != nil {
		return nil, coded(ErrCodeModelNotFound, err)
	}
	return []restrict.Spec{spec}, nil
}

// load returns the single selected model bound to cols, or nil without
// --model.
func (o *ModelOptions) load(cols ir.Columns) (*restrict.Model, error) {
	if o.Model == "" {
		return nil, nil
	}
	specs, err := o.loadSpecs()
	if err != nil {
		return nil, err
	}
	spec, err := restrict.Find(specs, "")
	if err != nil {
		return nil, coded(ErrCodeModelNotFound, err)
	}
	return restrict.Bind(spec, cols)
}

// InputOptions controls how the filter expression is read.
type InputOptions struct {
	Input string // json | yaml | query
}

// ValidInputs defines the accepted filter encodings.
var ValidInputs = []string{"json", "yaml", "query"}

func (o *InputOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.Input, "input", "i", "json", "filter encoding (json|yaml|query)")
}

// read returns the filter text: the argument, or stdin when there is none
// or it is "-".
func (o *InputOptions) read(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 1 && args[0] != "-" {
		return []byte(args[0]), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, coded(ErrCodeReadFailed, fmt.Errorf("reading filter from stdin: %w", err))
	}
	return data, nil
}

// apply runs data through f using the selected encoding.
func (o *InputOptions) apply(f *filter.Filter, data []byte) (filter.Result, error) {
	switch o.Input {
	case "json":
		return f.ApplyJSON(data)
	case "yaml":
		return f.ApplyYAML(data)
	case "query":
		return f.ApplyQuery(strings.TrimSpace(string(data)))
	default:
		return filter.Result{}, coded(ErrCodeBadFlags, fmt.Errorf("invalid input %q: must be one of %v", o.Input, ValidInputs))
	}
}

// check runs only parse and validate.
func (o *InputOptions) check(f *filter.Filter, data []byte) error {
	var (
		obj filter.Object
		err error
	)
	switch o.Input {
	case "json":
		obj, err = filter.DecodeJSON(data, filter.WithMaxDepth(f.MaxDepth()))
	case "yaml":
		obj, err = filter.DecodeYAML(data, filter.WithMaxDepth(f.MaxDepth()))
	case "query":
		obj, err = filter.DecodeQuery(strings.TrimSpace(string(data)))
	default:
		return coded(ErrCodeBadFlags, fmt.Errorf("invalid input %q: must be one of %v", o.Input, ValidInputs))
	}
	if err != nil {
		return err
	}
	_, err = f.Check(obj)
	return err
}

// rejection is the error payload for a rejected filter or a failed setup.
type rejection struct {
	Kind   string `json:"kind,omitempty"`
	Path   string `json:"path,omitempty"`
	Column string `json:"column,omitempty"`
}

func rejectionDetails(err error) any {
	var fe *filter.Error
	if errors.As(err, &fe) {
		return rejection{Kind: string(fe.Kind), Path: fe.Path, Column: fe.Column}
	}
	var me *restrict.ModelError
	if errors.As(err, &me) {
		return me.Problems
	}
	return nil
}

// fail reports err through the formatter and returns the ExitError the
// command should return. Filter rejections exit 1; everything else exits 2.
func fail(formatter *OutputFormatter, err error) error {
	code := ErrorCode(err)
	_ = formatter.Error(code, err.Error(), rejectionDetails(err))

	exit := ExitCommandError
	if filter.KindOf(err) != "" {
		exit = ExitFailure
	}
	return WrapExitError(exit, code, err)
}
