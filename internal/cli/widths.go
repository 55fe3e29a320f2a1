package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/nconklindev/csvmaker/internal/converter"
)

func newWidthsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "widths <layout-file>",
		Short: "Print the field widths defined by a layout file",
		Long: `Read a fixed-width layout file and print its field lengths in the form
accepted by --widths.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return errors.Wrap(err, "open layout file")
			}
			defer f.Close()

			widths, err := converter.ParseLayoutFile(f)
			if err != nil {
				return err
			}

			parts := make([]string, len(widths))
			for i, w := range widths {
				parts[i] = strconv.Itoa(w)
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(parts, ","))
			return nil
		},
	}
}
