package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/nconklindev/csvmaker/internal/batch"
)

func newConvertCmd(a *app) *cobra.Command {
	var reportPath string

	cmd := &cobra.Command{
		Use:   "convert [files...]",
		Short: "Convert files to CSV",
		Long: `Convert one or more files of the same type to CSV.

Delimited input is checked for a consistent number of fields per line.
Fixed-width input is cut into fields by --widths or --layout. Tabular input
reads a worksheet from .xlsx workbooks or runs --query against a SQLite file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConvert(cmd, args, reportPath)
		},
	}

	addJobFlags(cmd.Flags())
	cmd.Flags().StringVar(&reportPath, "report", "", "write a YAML run report to this file")
	return cmd
}

func (a *app) runConvert(cmd *cobra.Command, files []string, reportPath string) error {
	job, err := a.cfg.Job()
	if err != nil {
		return err
	}
	if err := batch.CheckSameExtension(files); err != nil {
		return err
	}
	if err := mkdirOutput(a.cfg.OutputDir); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	runner := batch.Runner{
		Job:       job,
		OutputDir: a.cfg.OutputDir,
		Workers:   a.cfg.Workers,
	}

	out := cmd.OutOrStdout()
	progress := make(chan batch.Progress)
	done := make(chan batch.Report, 1)
	go func() {
		done <- runner.Run(ctx, files, progress)
		close(progress)
	}()

	for p := range progress {
		fmt.Fprintf(out, "%s: %s\n", filepath.Base(files[p.Index]), p.Result.Summary())
	}
	report := <-done
	fmt.Fprintln(out, "Job complete.")

	if reportPath != "" {
		if err := writeReport(report, reportPath); err != nil {
			return err
		}
	}

	if failed := report.Failed(); failed > 0 {
		return errors.Newf("%d of %d files failed", failed, len(report.Results))
	}
	return nil
}

func writeReport(report batch.Report, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create report file")
	}
	if err := report.WriteYAML(f); err != nil {
		f.Close()
		return err
	}
	return errors.Wrap(f.Close(), "close report file")
}
