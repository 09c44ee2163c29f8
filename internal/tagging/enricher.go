package tagging

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	herrors "github.com/hirmes/hirmes/internal/errors"
)

// Tagger fetches the tags of one document.
type Tagger interface {
	Tag(ctx context.Context, path string) (string, error)
}

// Sink receives per-row outcomes. Apply reports whether the write landed;
// false means the epoch has been superseded.
type Sink interface {
	ApplyTag(epoch uint64, path string, tag string, err error) bool
}

// Options configures an Enricher.
type Options struct {
	// Concurrency bounds requests in flight. Values below 1 mean 1.
	Concurrency int
	// RatePerSecond paces request starts. Zero disables pacing.
	RatePerSecond float64
}

// Enricher issues one tag request per row.
type Enricher struct {
	tagger      Tagger
	concurrency int
	limiter     *rate.Limiter
}

// NewEnricher creates an Enricher backed by tagger.
func NewEnricher(tagger Tagger, opts Options) *Enricher {
	e := &Enricher{tagger: tagger, concurrency: max(opts.Concurrency, 1)}
	if opts.RatePerSecond > 0 {
		e.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1)
	}
	return e
}

// Enrich requests tags for each path and reports each outcome to sink under
// epoch. A failed row only affects that row. Enrich returns once every
// request has finished, been skipped as stale, or ctx is done.
func (e *Enricher) Enrich(ctx context.Context, epoch uint64, paths []string, sink Sink) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if e.limiter != nil {
				if err := e.limiter.Wait(ctx); err != nil {
					return nil
				}
			}

			tag, err := e.tagger.Tag(ctx, path)
			if err != nil && ctx.Err() != nil {
				return nil
			}
			if err != nil {
				err = herrors.Wrap(herrors.ErrCodeEnrichmentFailed, err).WithDetail("path", path)
				slog.Warn("tag_failed",
					slog.String("path", path),
					slog.Uint64("epoch", epoch),
					slog.String("error", err.Error()))
			}
			if !sink.ApplyTag(epoch, path, tag, err) {
				slog.Debug("tag_discarded_stale", slog.String("path", path), slog.Uint64("epoch", epoch))
			}
			// Row failures are row-local; never cancel siblings.
			return nil
		})
	}
	_ = g.Wait()
}
