package cli

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/nconklindev/csvmaker/internal/converter"
)

func newQueryCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Write the result of a database query to CSV",
		Long: `Run a query against SQLite or PostgreSQL and write every result row to a CSV file.

Examples:
  csvmaker query --dsn data.db --sql "SELECT * FROM hours" -o hours.csv
  csvmaker query --driver postgres --dsn postgres://localhost/app --sql "SELECT id, name FROM users" -o users.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runQuery(cmd, output)
		},
	}

	cmd.Flags().String("driver", "sqlite", "database driver: sqlite or postgres")
	cmd.Flags().String("dsn", "", "database file or connection string")
	cmd.Flags().String("sql", "", "query to run")
	cmd.Flags().StringP("qualifier", "q", "", "text qualifier wrapped around every output field")
	cmd.Flags().Bool("crlf", false, "end output lines with CRLF")
	cmd.Flags().StringVarP(&output, "output", "o", "", "CSV file to write")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func (a *app) runQuery(cmd *cobra.Command, output string) error {
	db := a.cfg.Database
	if db.DSN == "" {
		return errors.WithHint(errors.New("no database given"), "pass --dsn or set database.dsn in the config file")
	}
	if a.cfg.Query == "" {
		return errors.WithHint(errors.New("no query given"), "pass --sql")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	res := converter.ConvertQuery(ctx, db.Driver, db.DSN, a.cfg.Query, output, a.cfg.Options())
	if !res.OK() && res.OutputFile != "" {
		_ = os.Remove(res.OutputFile)
	}

	fmt.Fprintln(cmd.OutOrStdout(), res.Summary())
	if !res.OK() {
		return errors.New("query failed")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d rows written to %s\n", res.RowsWritten, output)
	return nil
}
