// Package cli wires the csvmaker commands together.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/nconklindev/csvmaker/internal/config"
	"github.com/nconklindev/csvmaker/internal/logger"
)

// BuildInfo is stamped into the binary at link time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// flagKeys maps flag names to config keys where the two differ.
var flagKeys = map[string]string{
	"out":       "output_dir",
	"log-level": "log.level",
	"log-json":  "log.json",
	"driver":    "database.driver",
	"dsn":       "database.dsn",
	"sql":       "query",
}

// unboundFlags are command options that never come from config.
var unboundFlags = map[string]bool{
	"config":  true,
	"report":  true,
	"output":  true,
	"help":    true,
	"version": true,
}

type app struct {
	v          *viper.Viper
	cfg        *config.Config
	configPath string
}

// NewRootCmd builds the command tree.
func NewRootCmd(info BuildInfo) *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:   "csvmaker",
		Short: "Convert delimited, fixed-width and spreadsheet exports to CSV",
		Long: `csvmaker converts data exports to comma-separated files.

Each input becomes <name>.csv in the output directory. A file that fails
to convert reports the line at fault and leaves no CSV behind.

Examples:
  csvmaker convert --delimiter '|' export.txt         # pipe-delimited text
  csvmaker convert --format fixed --widths 9,25,8 *.s01
  csvmaker convert --format tabular --sheet Hours book.xlsx
  csvmaker widths layout.txt                          # print widths from a layout file
  csvmaker tui --format fixed --layout layout.txt     # interactive batch`,
		Version:       fmt.Sprintf("%s\ncommit: %s\nbuilt: %s", info.Version, info.Commit, info.Date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ./csvmaker.yaml or ~/.config/csvmaker/csvmaker.yaml)")
	root.PersistentFlags().String("log-level", "warn", "log level: debug, info, warn, error")
	root.PersistentFlags().Bool("log-json", false, "write logs as JSON")

	root.AddCommand(
		newConvertCmd(a),
		newQueryCmd(a),
		newWidthsCmd(),
		newTUICmd(a),
	)
	return root
}

// setup binds the running command's flags, reads the config file and
// starts the logger.
func (a *app) setup(cmd *cobra.Command) error {
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if unboundFlags[f.Name] || bindErr != nil {
			return
		}
		key := f.Name
		if k, ok := flagKeys[f.Name]; ok {
			key = k
		}
		bindErr = a.v.BindPFlag(key, f)
	})
	if bindErr != nil {
		return errors.Wrap(bindErr, "bind flags")
	}

	if err := config.ReadConfig(a.v, a.configPath); err != nil {
		return err
	}
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if err := logger.Initialize(cfg.Log.Level, cfg.Log.JSON); err != nil {
		return errors.Wrap(err, "initialize logger")
	}
	return nil
}

// addJobFlags registers the options shared by commands that convert files.
func addJobFlags(fs *pflag.FlagSet) {
	fs.StringP("format", "f", "delimited", "input format: delimited, fixed-width or tabular")
	fs.StringP("delimiter", "d", ",", "field delimiter for delimited input (a character or tab, pipe, semicolon)")
	fs.StringP("widths", "w", "", "comma-separated field widths for fixed-width input")
	fs.String("layout", "", "layout file listing fixed-width field lengths")
	fs.StringP("qualifier", "q", "", "text qualifier wrapped around every output field")
	fs.StringP("out", "o", "", "output directory (default: next to each input)")
	fs.String("encoding", "utf-8", "text input encoding, e.g. windows-1252 or utf-16")
	fs.Bool("strict", true, "fail fixed-width input that ends inside a record")
	fs.Bool("crlf", false, "end output lines with CRLF")
	fs.String("sheet", "", "worksheet to read (default: first sheet)")
	fs.Bool("header", true, "first worksheet row holds column names")
	fs.String("query", "", "query to run against .db/.sqlite inputs")
	fs.IntP("workers", "j", 1, "files converted at once")
}

// Execute runs the CLI and returns the process exit code.
func Execute(info BuildInfo) int {
	defer logger.Cleanup()

	root := NewRootCmd(info)
	if err := root.Execute(); err != nil {
		printError(root.ErrOrStderr(), err)
		return 1
	}
	return 0
}

func printError(w io.Writer, err error) {
	fmt.Fprintln(w, "Error:", err)
	if hint := errors.FlattenHints(err); hint != "" {
		fmt.Fprintln(w, "Hint:", hint)
	}
}

func mkdirOutput(dir string) error {
	if dir == "" {
		return nil
	}
	return errors.Wrap(os.MkdirAll(dir, 0o755), "create output directory")
}
