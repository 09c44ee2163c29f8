package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hirmes/hirmes/internal/output"
)

// maxSimilarDistance bounds --like matches by edit distance.
const maxSimilarDistance = 3

func newHistoryCmd() *cobra.Command {
	var (
		limit int
		like  string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past searches",
		Long: `Show searches recorded in the local history database, newest first.

--like lists distinct past queries close to the given text, closest first.`,
		Example: `  hirmes history
  hirmes history -n 50
  hirmes history --like recusion`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := loadDeps(false)
			if err != nil {
				return err
			}
			defer d.Close()

			if d.history == nil {
				return errors.New("search history is disabled or unavailable")
			}

			ctx := cmd.Context()
			out := output.New(cmd.OutOrStdout())

			if like != "" {
				matches, err := d.history.Similar(ctx, like, maxSimilarDistance, limit)
				if err != nil {
					return err
				}
				if len(matches) == 0 {
					out.Statusf("🔎", "No past searches like %q", like)
					return nil
				}
				for _, m := range matches {
					fmt.Fprintf(cmd.OutOrStdout(), "%d  %s\n", m.Distance, m.Query)
				}
				return nil
			}

			entries, err := d.history.Recent(ctx, limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				out.Status("📭", "No searches recorded yet")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintln(cmd.OutOrStdout(), e.String())
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of entries")
	cmd.Flags().StringVar(&like, "like", "", "List past queries similar to this text")

	return cmd
}
