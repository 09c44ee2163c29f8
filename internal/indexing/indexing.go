// Package indexing coordinates an indexing request: optional destructive
// confirmation, simulated progress, the remote call, and the user report.
package indexing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hirmes/hirmes/internal/client"
	herrors "github.com/hirmes/hirmes/internal/errors"
	"github.com/hirmes/hirmes/internal/progress"
	"github.com/hirmes/hirmes/internal/settings"
)

// User-facing texts.
const (
	ReplaceWarning = "Replace filename renames every newly indexed file to its document ID " +
		"and discards the original name. This cannot be undone. Continue?"
	FailedMessage = "Indexing failed!"
	progressLabel = "Indexing"
)

// ErrDeclined is returned when the user declines the destructive confirmation.
var ErrDeclined = errors.New("indexing declined")

// Modal is the confirmation and notification surface.
type Modal interface {
	Notify(message string)
	Confirm(ctx context.Context, message string) (bool, error)
}

// Indexer performs the remote indexing call.
type Indexer interface {
	Index(ctx context.Context, req client.IndexRequest) (*client.IndexResponse, error)
}

// ProgressStarter begins a simulated progress run.
type ProgressStarter interface {
	Start(ctx context.Context, label string) *progress.Run
}

// SettingsSaver remembers the options of a successful run.
type SettingsSaver interface {
	SaveIndexing(opts settings.Indexing) error
}

// Orchestrator runs indexing workflows.
type Orchestrator struct {
	indexer  Indexer
	modal    Modal
	progress ProgressStarter
	settings SettingsSaver
	logger   *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSettings persists the options of each successful run.
func WithSettings(s SettingsSaver) Option {
	return func(o *Orchestrator) { o.settings = s }
}

// WithLogger overrides the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// New creates an indexing orchestrator.
func New(indexer Indexer, modal Modal, p ProgressStarter, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		indexer:  indexer,
		modal:    modal,
		progress: p,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Submit runs one indexing request. A ReplaceFilename request is confirmed
// first; declining returns ErrDeclined without any network call. Failures
// are reported through the modal and returned. There are no retries.
func (o *Orchestrator) Submit(ctx context.Context, req client.IndexRequest) (*client.IndexResponse, error) {
	if req.ReplaceFilename {
		ok, err := o.modal.Confirm(ctx, ReplaceWarning)
		if err != nil {
			return nil, err
		}
		if !ok {
			o.logger.Info("index_declined", slog.String("path", req.Path))
			return nil, ErrDeclined
		}
	}

	o.logger.Info("index_started",
		slog.String("path", req.Path),
		slog.Bool("recursive", req.Recursive),
		slog.Bool("replace_filename", req.ReplaceFilename))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	run := o.progress.Start(runCtx, progressLabel)

	start := time.Now()
	resp, err := o.indexer.Index(ctx, req)
	if err != nil {
		run.Fail()
		o.logger.Error("index_failed", append([]any{
			slog.String("path", req.Path),
			slog.Duration("duration", time.Since(start)),
		}, herrors.LogAttrs(err)...)...)
		o.modal.Notify(herrors.UserMessage(err, FailedMessage))
		return nil, err
	}

	run.Complete()
	o.logger.Info("index_complete",
		slog.String("path", req.Path),
		slog.Int("indexed_count", resp.IndexedCount),
		slog.Duration("duration", time.Since(start)))
	o.modal.Notify(IndexedMessage(resp.IndexedCount))

	if o.settings != nil {
		if err := o.settings.SaveIndexing(settings.Indexing{
			Path:            req.Path,
			Recursive:       req.Recursive,
			ReplaceFilename: req.ReplaceFilename,
		}); err != nil {
			o.logger.Warn("settings_save_failed", herrors.LogAttrs(err)...)
		}
	}

	return resp, nil
}

// IndexedMessage is the success notice for n files.
func IndexedMessage(n int) string {
	return fmt.Sprintf("Indexed %d file(s).", n)
}
