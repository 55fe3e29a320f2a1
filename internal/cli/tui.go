package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/nconklindev/csvmaker/internal/ui"
)

func newTUICmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui [files...]",
		Short: "Pick and convert files interactively",
		Long: `Open a file picker to build a batch, preview the first rows of a file and
watch each file convert. Files given as arguments are queued up front.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := a.cfg.Job()
			if err != nil {
				return err
			}
			if err := mkdirOutput(a.cfg.OutputDir); err != nil {
				return err
			}

			model := ui.New(ui.Settings{
				Job:       job,
				OutputDir: a.cfg.OutputDir,
				Workers:   a.cfg.Workers,
				Files:     args,
			})
			p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			if _, err := p.Run(); err != nil {
				return errors.Wrap(err, "run interface")
			}
			return nil
		},
	}

	addJobFlags(cmd.Flags())
	return cmd
}
