package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"sales-assistant/internal/common/database"
	"sales-assistant/internal/interpreter/queries"
	"sales-assistant/internal/loader"
	"sales-assistant/internal/render"
)

type LoadOptions struct {
	*RootOptions
	Reset  bool
	DBPath string
}

type loadResult struct {
	Load   *loader.LoadReport   `json:"load"`
	Verify *loader.VerifyReport `json:"verify"`
}

func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "load <export.csv>",
		Short: "Create the sales schema and load a transactions export",
		Long: `Create the customers, products, invoices and invoice_items tables and the
transactions_view, then load a cleaned CSV export into them in one transaction.
Cancelled invoices, lines without a customer and non-positive quantities or
prices are dropped. The store is verified after loading.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.Reset, "reset", false, "drop existing tables before loading")
	cmd.Flags().StringVar(&opts.DBPath, "db", "", "sqlite file to load instead of the configured store")

	return cmd
}

func runLoad(cmd *cobra.Command, opts *LoadOptions, path string) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	if opts.DBPath != "" {
		cfg.Database.Store.Driver = database.DriverSQLite
		cfg.Database.SQLite.Path = opts.DBPath
	}

	dialect, err := queries.DialectFor(cfg.Database.Store.Driver)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open export: %w", err)
	}
	defer f.Close()

	ctx := cmd.Context()
	db, err := database.OpenWriter(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	report, err := loader.New(db, dialect, opts.logger(cfg)).Load(ctx, f, loader.Options{Reset: opts.Reset})
	if err != nil {
		return err
	}
	verified, verifyErr := loader.Verify(ctx, db)

	if opts.Format == "json" {
		if err := writeJSON(cmd.OutOrStdout(), loadResult{Load: report, Verify: verified}); err != nil {
			return err
		}
		return verifyErr
	}

	r := render.New(cmd.OutOrStdout(), false)
	r.Heading("Load")
	rows := [][]string{
		{"rows read", strconv.Itoa(report.RowsRead)},
		{"rows kept", strconv.Itoa(report.RowsKept)},
	}
	for _, reason := range report.DroppedReasons() {
		rows = append(rows, []string{"dropped: " + reason, strconv.Itoa(report.Dropped[reason])})
	}
	r.Table([]string{"Metric", "Count"}, rows)

	if verified != nil {
		r.Heading("Tables")
		tables := make([][]string, 0, len(verified.Tables)+1)
		for _, table := range []string{"customers", "products", "invoices", "invoice_items"} {
			if n, ok := verified.Tables[table]; ok {
				tables = append(tables, []string{table, strconv.Itoa(n)})
			}
		}
		tables = append(tables, []string{loader.ViewTransactions, strconv.Itoa(verified.ViewRows)})
		r.Table([]string{"Table", "Rows"}, tables)
	}

	return verifyErr
}
