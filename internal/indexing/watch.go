package indexing

import (
	"context"
	"log/slog"

	"github.com/hirmes/hirmes/internal/client"
	herrors "github.com/hirmes/hirmes/internal/errors"
	"github.com/hirmes/hirmes/internal/watcher"
)

// Watch resubmits req each time a batch of changes arrives, until ctx is done
// or batches is closed. Re-runs never rename files: ReplaceFilename is
// forced off. A failed run is reported and watching continues.
func (o *Orchestrator) Watch(ctx context.Context, batches <-chan []watcher.FileEvent, req client.IndexRequest) error {
	req.ReplaceFilename = false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case batch, ok := <-batches:
			if !ok {
				return nil
			}
			o.logger.Info("watch_reindex",
				slog.String("path", req.Path),
				slog.Int("changes", len(batch)))
			if _, err := o.Submit(ctx, req); err != nil {
				o.logger.Warn("watch_reindex_failed", herrors.LogAttrs(err)...)
			}
		}
	}
}
