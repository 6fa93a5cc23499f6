package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"sales-assistant/internal/common/database"
	"sales-assistant/internal/common/metrics"
	"sales-assistant/internal/interpreter"
	"sales-assistant/internal/render"
)

type AskOptions struct {
	*RootOptions
	ShowQuery bool
	DBPath    string
}

func NewAskCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AskOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question about the sales data",
		Long: `Answer a plain-English question such as "Total revenue",
"Sales in France" or "Top 5 customers". The question may be given as
several words; they are joined with spaces.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, opts, strings.Join(args, " "))
		},
	}

	cmd.Flags().BoolVarP(&opts.ShowQuery, "show-query", "q", false, "print the generated query")
	cmd.Flags().StringVar(&opts.DBPath, "db", "", "sqlite file to query instead of the configured store")

	return cmd
}

func runAsk(cmd *cobra.Command, opts *AskOptions, question string) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	if opts.DBPath != "" {
		cfg.Database.Store.Driver = database.DriverSQLite
		cfg.Database.Store.DSN = ""
		cfg.Database.SQLite.Path = opts.DBPath
	}

	it, err := interpreter.NewFromConfig(cfg, opts.logger(cfg), interpreter.WithRecorder(metrics.Recorder{}))
	if err != nil {
		return err
	}

	result := it.Ask(cmd.Context(), question)

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), result)
	}
	render.New(cmd.OutOrStdout(), opts.ShowQuery).Answer(result)
	return nil
}
