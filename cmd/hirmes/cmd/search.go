package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/hirmes/hirmes/internal/output"
	"github.com/hirmes/hirmes/internal/results"
	"github.com/hirmes/hirmes/internal/ui"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	fullText bool
	jsonOut  bool
	noColor  bool
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search indexed documents",
		Long: `Search indexed documents and print the results as a table.

By default only titles are matched; --full-text searches document bodies.
When the service suggests a spelling correction you are asked whether to
search for it instead. Tags are fetched for every row when the service
supports tagging.`,
		Example: `  hirmes search "operating systems"
  hirmes search recursion --full-text
  hirmes search kernel --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.fullText, "full-text", "f", false, "Search document bodies, not only titles")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "Output results as JSON")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored table output")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
	d, err := loadDeps(false)
	if err != nil {
		return err
	}
	defer d.Close()

	fullText := opts.fullText
	if !cmd.Flags().Changed("full-text") {
		fullText = d.cfg.Search.FullText
	}

	console := ui.NewConsole(d.modal, cmd.OutOrStdout(), cmd.InOrStdin())
	s := d.searcher()
	defer s.Close()

	res, err := s.Submit(ctx, query, fullText)
	if err != nil {
		stop := runConsole(ctx, console)
		defer stop()
		_ = console.WaitIdle(ctx)
		return reported(err)
	}

	// Rows are printed before the console answers any spelling prompt.
	s.WaitEnrichment()
	if !opts.jsonOut {
		printResults(console, d.board.Snapshot(), styles(cmd, opts.noColor))
	}

	stop := runConsole(ctx, console)
	defer stop()

	// An accepted suggestion installs a new set.
	s.Wait()
	_ = console.WaitIdle(ctx)

	final := d.board.Snapshot()
	if opts.jsonOut {
		return writeJSON(cmd, final)
	}
	if final.Epoch != res.Epoch {
		printResults(console, final, styles(cmd, opts.noColor))
	}
	return nil
}

// runConsole drives the modal from the terminal until the returned stop
// function is called.
func runConsole(ctx context.Context, console *ui.Console) func() {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Go(func() { console.Run(ctx) })
	return func() {
		cancel()
		wg.Wait()
	}
}

func styles(cmd *cobra.Command, noColor bool) ui.Styles {
	return ui.GetStyles(noColor || ui.DetectNoColor() || !ui.IsTTY(cmd.OutOrStdout()))
}

func printResults(console *ui.Console, snap results.Snapshot, st ui.Styles) {
	view := results.BuildView(snap)
	console.Print(func(w *output.Writer) {
		w.Statusf("🔎", "%s for %q: %d row(s)", view.Title, snap.Query, len(view.Rows))
		w.Block(ui.RenderTable(view, st, ui.TableOptions{Selected: -1}))
	})
}

// jsonRow is the --json shape of one result row.
type jsonRow struct {
	Path        string   `json:"path"`
	PageNumbers []int    `json:"page_numbers"`
	MatchTerms  []string `json:"match_terms"`
	Snippets    []string `json:"snippets"`
	Tag         *string  `json:"tag,omitempty"`
	TagError    bool     `json:"tag_error,omitempty"`
}

type jsonResults struct {
	Query   string    `json:"query"`
	Tagging string    `json:"tagging"`
	Results []jsonRow `json:"results"`
}

func writeJSON(cmd *cobra.Command, snap results.Snapshot) error {
	out := jsonResults{
		Query:   snap.Query,
		Tagging: snap.Capability.String(),
		Results: make([]jsonRow, 0, len(snap.Rows)),
	}
	for _, r := range snap.Rows {
		row := jsonRow{
			Path:        r.Path,
			PageNumbers: r.PageNumbers,
			MatchTerms:  r.MatchTerms,
			Snippets:    r.Snippets,
		}
		switch r.Tag.Status {
		case results.TagResolved:
			tag := r.Tag.Value
			row.Tag = &tag
		case results.TagFailed:
			row.TagError = true
		}
		out.Results = append(out.Results, row)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	return nil
}
