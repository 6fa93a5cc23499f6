package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"sales-assistant/internal/interpreter"
	"sales-assistant/internal/interpreter/queries"
	"sales-assistant/internal/loader"
	"sales-assistant/internal/render"
)

type SchemaOptions struct {
	*RootOptions
	DDL     bool
	Dialect string
}

func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SchemaOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the sales schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.DDL, "ddl", false, "print CREATE statements instead of the catalog")
	cmd.Flags().StringVar(&opts.Dialect, "dialect", string(queries.SQLite), "DDL dialect (postgres|sqlite3)")

	return cmd
}

func runSchema(cmd *cobra.Command, opts *SchemaOptions) error {
	out := cmd.OutOrStdout()

	if opts.DDL {
		dialect, err := queries.DialectFor(opts.Dialect)
		if err != nil {
			return err
		}
		stmts, err := loader.SchemaStatements(dialect)
		if err != nil {
			return err
		}
		if opts.Format == "json" {
			return writeJSON(out, stmts)
		}
		for _, stmt := range stmts {
			fmt.Fprintf(out, "%s;\n\n", stmt)
		}
		return nil
	}

	if opts.Format == "json" {
		return writeJSON(out, interpreter.Catalog())
	}
	render.New(out, false).Catalog(interpreter.Catalog())
	return nil
}
