// Package search coordinates query submission: the remote call, installing
// the result set, tag enrichment, and the "did you mean" prompt.
package search

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hirmes/hirmes/internal/client"
	herrors "github.com/hirmes/hirmes/internal/errors"
	"github.com/hirmes/hirmes/internal/history"
	"github.com/hirmes/hirmes/internal/results"
	"github.com/hirmes/hirmes/internal/tagging"
)

// User-facing texts.
const (
	FailedMessage     = "Search failed!"
	EmptyQueryMessage = "Please enter a search query."
	OpenFailedMessage = "Could not open file."
	suggestionPrefix  = "Did you mean: "
)

// ErrSuperseded is returned when a newer submission was issued before this
// one's response arrived. Nothing was rendered.
var ErrSuperseded = results.ErrSuperseded

// Modal is the confirmation and notification surface.
type Modal interface {
	Notify(message string)
	Confirm(ctx context.Context, message string) (bool, error)
}

// Service is the subset of the wire client the orchestrator needs.
type Service interface {
	Search(ctx context.Context, req client.SearchRequest) (*client.SearchResponse, error)
	OpenFile(ctx context.Context, path string) error
	tagging.Checker
	tagging.Tagger
}

// Recorder stores submissions in the query history.
type Recorder interface {
	Record(ctx context.Context, e history.Entry) error
}

// Options configures an Orchestrator.
type Options struct {
	// RejectEmptyQuery stops blank queries client-side.
	RejectEmptyQuery bool
	// Tagging enables the capability probe. When false every set is
	// treated as Unavailable.
	Tagging bool
	// Enrich bounds per-row tag requests.
	Enrich tagging.Options
	// History records submissions when set.
	History Recorder
	Logger  *slog.Logger
}

// Result describes an installed result set.
type Result struct {
	Epoch      uint64
	Count      int
	Suggestion string
}

// Orchestrator runs search workflows against one board.
type Orchestrator struct {
	svc      Service
	modal    Modal
	board    *results.Board
	enricher *tagging.Enricher
	opts     Options
	logger   *slog.Logger

	base     context.Context
	stopBase context.CancelFunc

	mu           sync.Mutex
	enrichEpoch  uint64
	cancelEnrich context.CancelFunc

	enrichWG sync.WaitGroup
	promptWG sync.WaitGroup
}

// New creates a search orchestrator rendering into board.
func New(svc Service, modal Modal, board *results.Board, opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	base, stop := context.WithCancel(context.Background())
	return &Orchestrator{
		svc:      svc,
		modal:    modal,
		board:    board,
		enricher: tagging.NewEnricher(svc, opts.Enrich),
		opts:     opts,
		logger:   logger,
		base:     base,
		stopBase: stop,
	}
}

// Board returns the board results are installed on.
func (o *Orchestrator) Board() *results.Board {
	return o.board
}

// Submit sends query and installs the response as the active result set.
// Service and transport failures are reported through the modal and
// returned without rendering. A response overtaken by a newer submission
// returns ErrSuperseded. Enrichment and any spelling prompt continue in the
// background; see Wait.
func (o *Orchestrator) Submit(ctx context.Context, query string, fullText bool) (*Result, error) {
	if o.opts.RejectEmptyQuery && strings.TrimSpace(query) == "" {
		o.modal.Notify(EmptyQueryMessage)
		o.record(ctx, history.Entry{Query: query, FullText: fullText, Outcome: history.OutcomeRejected})
		return nil, herrors.New(herrors.ErrCodeQueryEmpty, "empty query", nil)
	}

	seq := o.board.Begin()
	o.logger.Info("search_started",
		slog.String("query", query),
		slog.Bool("full_text", fullText),
		slog.Uint64("seq", seq))

	start := time.Now()
	resp, err := o.svc.Search(ctx, client.SearchRequest{Query: query, FullText: fullText})
	latency := time.Since(start)

	if err != nil {
		entry := history.Entry{Query: query, FullText: fullText, Latency: latency, Outcome: history.OutcomeFailed}
		if herrors.IsService(err) {
			entry.Outcome = history.OutcomeError
		}
		if !o.board.IsLatest(seq) {
			// A newer submission owns the surface; its outcome is what the user sees.
			o.logger.Debug("search_failed_stale", append([]any{slog.Uint64("seq", seq)}, herrors.LogAttrs(err)...)...)
			entry.Outcome = history.OutcomeSuperseded
			o.record(ctx, entry)
			return nil, ErrSuperseded
		}
		o.logger.Error("search_failed", append([]any{
			slog.String("query", query),
			slog.Duration("duration", latency),
		}, herrors.LogAttrs(err)...)...)
		o.modal.Notify(herrors.UserMessage(err, FailedMessage))
		o.record(ctx, entry)
		return nil, err
	}

	rows := results.RowsFromResponse(resp.Results)
	epoch, err := o.board.Replace(seq, query, rows)
	if errors.Is(err, results.ErrSuperseded) {
		o.logger.Debug("search_discarded_stale", slog.String("query", query), slog.Uint64("seq", seq))
		o.record(ctx, history.Entry{Query: query, FullText: fullText, ResultCount: len(rows),
			Latency: latency, Outcome: history.OutcomeSuperseded})
		return nil, ErrSuperseded
	}

	o.logger.Info("search_complete",
		slog.String("query", query),
		slog.Int("results", len(rows)),
		slog.Uint64("epoch", epoch),
		slog.Duration("duration", latency))

	o.startEnrichment(epoch)

	res := &Result{Epoch: epoch, Count: len(rows)}
	if SuggestionDiffers(query, resp.Spellchecked) {
		res.Suggestion = resp.Spellchecked
		o.offerSuggestion(resp.Spellchecked, fullText)
	}

	o.record(ctx, history.Entry{Query: query, FullText: fullText, ResultCount: len(rows),
		Suggestion: res.Suggestion, Latency: latency, Outcome: history.OutcomeOK})

	return res, nil
}

// OpenFile asks the service to open path; failures are reported through the
// modal.
func (o *Orchestrator) OpenFile(ctx context.Context, path string) error {
	if err := o.svc.OpenFile(ctx, path); err != nil {
		o.logger.Warn("open_file_failed", append([]any{slog.String("path", path)}, herrors.LogAttrs(err)...)...)
		o.modal.Notify(herrors.UserMessage(err, OpenFailedMessage))
		return err
	}
	o.logger.Info("open_file", slog.String("path", path))
	return nil
}

// WaitEnrichment blocks until all started enrichment has finished.
func (o *Orchestrator) WaitEnrichment() {
	o.enrichWG.Wait()
}

// Wait blocks until background enrichment and spelling prompts, including
// any resubmissions they trigger, have finished.
func (o *Orchestrator) Wait() {
	o.promptWG.Wait()
	o.enrichWG.Wait()
}

// Close withdraws pending prompts, stops enrichment, and waits for the
// background work to exit.
func (o *Orchestrator) Close() {
	o.stopBase()
	o.Wait()
}

// startEnrichment cancels enrichment of the previous set and starts the
// probe workflow for epoch. A call for an epoch older than the one already
// being enriched does nothing.
func (o *Orchestrator) startEnrichment(epoch uint64) {
	o.mu.Lock()
	if epoch <= o.enrichEpoch {
		o.mu.Unlock()
		o.logger.Debug("enrichment_skipped_stale", slog.Uint64("epoch", epoch))
		return
	}
	ctx, cancel := context.WithCancel(o.base)
	if o.cancelEnrich != nil {
		o.cancelEnrich()
	}
	o.enrichEpoch = epoch
	o.cancelEnrich = cancel
	o.mu.Unlock()

	o.enrichWG.Go(func() {
		defer cancel()
		o.enrich(ctx, epoch)
	})
}

func (o *Orchestrator) enrich(ctx context.Context, epoch uint64) {
	capability := tagging.Unavailable
	if o.opts.Tagging {
		capability = tagging.Probe(ctx, o.svc)
	}
	if ctx.Err() != nil {
		// Cancelled probes say nothing about the service.
		return
	}
	if !o.board.SetCapability(epoch, capability) {
		return
	}
	if capability != tagging.Available {
		return
	}

	paths := o.board.Paths(epoch)
	start := time.Now()
	o.enricher.Enrich(ctx, epoch, paths, o.board)
	o.logger.Debug("enrichment_complete",
		slog.Uint64("epoch", epoch),
		slog.Int("rows", len(paths)),
		slog.Duration("duration", time.Since(start)))
}

func (o *Orchestrator) offerSuggestion(suggestion string, fullText bool) {
	o.promptWG.Go(func() {
		ok, err := o.modal.Confirm(o.base, SuggestionPrompt(suggestion))
		if err != nil || !ok {
			return
		}
		o.logger.Info("suggestion_accepted", slog.String("query", suggestion))
		if _, err := o.Submit(o.base, suggestion, fullText); err != nil && !errors.Is(err, ErrSuperseded) {
			o.logger.Debug("suggestion_search_failed", herrors.LogAttrs(err)...)
		}
	})
}

func (o *Orchestrator) record(ctx context.Context, e history.Entry) {
	if o.opts.History == nil {
		return
	}
	if err := o.opts.History.Record(context.WithoutCancel(ctx), e); err != nil {
		o.logger.Warn("history_record_failed", herrors.LogAttrs(err)...)
	}
}

// SuggestionDiffers reports whether the service's spell-corrected query
// should be offered for query. Case and runs of whitespace are ignored; an
// empty suggestion never differs.
func SuggestionDiffers(query, suggestion string) bool {
	if strings.TrimSpace(suggestion) == "" {
		return false
	}
	return normalize(query) != normalize(suggestion)
}

// SuggestionPrompt is the modal text offering suggestion.
func SuggestionPrompt(suggestion string) string {
	return suggestionPrefix + suggestion
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
