package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hirmes/hirmes/internal/client"
	herrors "github.com/hirmes/hirmes/internal/errors"
	"github.com/hirmes/hirmes/internal/indexing"
	"github.com/hirmes/hirmes/internal/output"
	"github.com/hirmes/hirmes/internal/progress"
	"github.com/hirmes/hirmes/internal/ui"
	"github.com/hirmes/hirmes/internal/watcher"
)

// indexOptions holds CLI flags for index.
type indexOptions struct {
	recursive bool
	replace   bool
	watch     bool
}

func newIndexCmd() *cobra.Command {
	var opts indexOptions

	cmd := &cobra.Command{
		Use:   "index [path]",
		Short: "Index a directory on the service",
		Long: `Ask the service to index the documents under path.

Without a path the last successfully indexed path is used. --recursive and
--replace-filename default to the options of that run as well.

--replace-filename renames every newly indexed file to its document ID and
cannot be undone; you are asked to confirm it first.

With --watch, hirmes stays running after the first run and re-indexes
whenever files under path change. Re-runs never rename files.`,
		Example: `  hirmes index ~/papers
  hirmes index ~/papers --recursive
  hirmes index ~/papers -r --watch
  hirmes index`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd.Context(), cmd, args, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.recursive, "recursive", "r", false, "Index subdirectories too")
	cmd.Flags().BoolVar(&opts.replace, "replace-filename", false, "Rename indexed files to their document IDs (asks first)")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Keep running and re-index on changes")

	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, args []string, opts indexOptions) error {
	d, err := loadDeps(false)
	if err != nil {
		return err
	}
	defer d.Close()

	saved := d.rememberedIndexing()
	req := client.IndexRequest{
		Path:            saved.Path,
		Recursive:       saved.Recursive,
		ReplaceFilename: saved.ReplaceFilename,
	}
	if len(args) == 1 {
		req.Path = args[0]
	}
	if cmd.Flags().Changed("recursive") {
		req.Recursive = opts.recursive
	}
	if cmd.Flags().Changed("replace-filename") {
		req.ReplaceFilename = opts.replace
	}
	if err := req.Validate(); err != nil {
		return herrors.ValidationError("no path given and no previous indexing run to reuse", err)
	}

	console := ui.NewConsole(d.modal, cmd.OutOrStdout(), cmd.InOrStdin())
	stop := runConsole(ctx, console)
	defer stop()

	reporter := progress.New(d.progressConfig(), console.Progress)
	ix := d.indexer(reporter)

	_, err = ix.Submit(ctx, req)
	_ = reporter.Wait(ctx)
	_ = console.WaitIdle(ctx)
	switch {
	case errors.Is(err, indexing.ErrDeclined):
		console.Print(func(w *output.Writer) { w.Warning("Indexing cancelled.") })
		return nil
	case err != nil:
		return reported(err)
	}

	if !opts.watch {
		return nil
	}
	return watchIndex(ctx, d, console, ix, req)
}

// watchIndex re-runs req on every debounced batch of changes until ctx is
// cancelled.
func watchIndex(ctx context.Context, d *deps, console *ui.Console, ix *indexing.Orchestrator, req client.IndexRequest) error {
	w, err := watcher.New(watcher.Options{
		DebounceWindow: d.cfg.Watch.Debounce,
		Recursive:      req.Recursive,
	})
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer func() { _ = w.Stop() }()

	console.Print(func(out *output.Writer) {
		out.Statusf("👀", "Watching %s for changes (Ctrl+C to stop)", req.Path)
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Start(gctx, req.Path)
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case err, ok := <-w.Errors():
				if !ok {
					return nil
				}
				slog.Warn("watch_error", herrors.LogAttrs(err)...)
			}
		}
	})
	g.Go(func() error {
		return ix.Watch(gctx, w.Events(), req)
	})

	err = g.Wait()
	slog.Info("watch_stopped", slog.String("path", req.Path))
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watch failed: %w", err)
	}
	return nil
}
