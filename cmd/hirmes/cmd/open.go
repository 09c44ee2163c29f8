package cmd

import (
	"github.com/spf13/cobra"

	"github.com/hirmes/hirmes/internal/output"
	"github.com/hirmes/hirmes/internal/ui"
)

func newOpenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <path>",
		Short: "Open a document on the service host",
		Long: `Ask the service to open a document with the host's default application.

The path is the one shown in search results.`,
		Example: `  hirmes open /home/me/papers/kernel.pdf`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDeps(false)
			if err != nil {
				return err
			}
			defer d.Close()

			ctx := cmd.Context()
			console := ui.NewConsole(d.modal, cmd.OutOrStdout(), cmd.InOrStdin())
			stop := runConsole(ctx, console)
			defer stop()

			s := d.searcher()
			defer s.Close()

			if err := s.OpenFile(ctx, args[0]); err != nil {
				_ = console.WaitIdle(ctx)
				return reported(err)
			}
			console.Print(func(w *output.Writer) { w.Successf("Opened %s", args[0]) })
			return nil
		},
	}
}
