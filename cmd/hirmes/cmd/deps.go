package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hirmes/hirmes/internal/client"
	"github.com/hirmes/hirmes/internal/config"
	herrors "github.com/hirmes/hirmes/internal/errors"
	"github.com/hirmes/hirmes/internal/history"
	"github.com/hirmes/hirmes/internal/indexing"
	"github.com/hirmes/hirmes/internal/modal"
	"github.com/hirmes/hirmes/internal/progress"
	"github.com/hirmes/hirmes/internal/results"
	"github.com/hirmes/hirmes/internal/search"
	"github.com/hirmes/hirmes/internal/settings"
	"github.com/hirmes/hirmes/internal/tagging"
	"github.com/hirmes/hirmes/internal/ui"
)

// deps is the object graph shared by the commands: one modal surface and one
// result board per process.
type deps struct {
	cfg      *config.Config
	client   *client.Client
	modal    *modal.Service
	board    *results.Board
	settings *settings.Store
	history  *history.Store
}

// loadDeps loads configuration, applies --server, and starts logging.
// History is optional: a database that cannot be opened is logged and
// skipped.
func loadDeps(interactive bool) (*deps, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, herrors.ConfigError("failed to load configuration", err)
	}
	if serverURL != "" {
		cfg.Server.URL = serverURL
		if err := cfg.Validate(); err != nil {
			return nil, herrors.ConfigError("invalid --server", err)
		}
	}

	startLogging(cfg.Logging.Level, interactive)

	d := &deps{
		cfg: cfg,
		client: client.New(client.Config{
			BaseURL:      cfg.Server.URL,
			Timeout:      cfg.Server.Timeout,
			IndexTimeout: cfg.Server.IndexTimeout,
		}),
		modal:    modal.New(),
		board:    results.NewBoard(),
		settings: settings.NewStore(""),
	}

	if cfg.History.Enabled {
		h, err := history.Open(cfg.History.Path, cfg.History.MaxEntries)
		if err != nil {
			slog.Warn("history_unavailable", herrors.LogAttrs(err)...)
		} else {
			d.history = h
		}
	}

	slog.Debug("client_ready",
		slog.String("server", d.client.BaseURL()),
		slog.Bool("tagging", cfg.Tagging.Enabled),
		slog.Bool("history", d.history != nil))
	return d, nil
}

// Close releases the history database.
func (d *deps) Close() {
	if d.history != nil {
		_ = d.history.Close()
	}
}

func (d *deps) progressConfig() progress.Config {
	return progress.Config{
		Interval:  d.cfg.Progress.Interval,
		Ceiling:   d.cfg.Progress.Ceiling,
		MaxStep:   d.cfg.Progress.MaxStep,
		HideDelay: d.cfg.Progress.HideDelay,
	}
}

func (d *deps) searcher() *search.Orchestrator {
	opts := search.Options{
		RejectEmptyQuery: d.cfg.Search.RejectEmptyQuery,
		Tagging:          d.cfg.Tagging.Enabled,
		Enrich: tagging.Options{
			Concurrency:   d.cfg.Tagging.Concurrency,
			RatePerSecond: d.cfg.Tagging.RatePerSecond,
		},
	}
	if d.history != nil {
		opts.History = d.history
	}
	return search.New(d.client, d.modal, d.board, opts)
}

func (d *deps) indexer(p indexing.ProgressStarter) *indexing.Orchestrator {
	return indexing.New(d.client, d.modal, p, indexing.WithSettings(d.settings))
}

// rememberedIndexing returns the saved indexing options, or zero options if
// they cannot be read.
func (d *deps) rememberedIndexing() settings.Indexing {
	st, err := d.settings.Load()
	if err != nil {
		slog.Warn("settings_load_failed", herrors.LogAttrs(err)...)
		return settings.Indexing{}
	}
	return st.Indexing
}

// runTUI wires the surfaces into the interactive application and runs it.
func (d *deps) runTUI(ctx context.Context, uiCfg ui.Config) error {
	bridge := &ui.Bridge{}
	unsubscribeModal := d.modal.Subscribe(bridge.Modal)
	defer unsubscribeModal()
	unsubscribeBoard := d.board.OnChange(bridge.Board)
	defer unsubscribeBoard()

	s := d.searcher()
	defer s.Close()
	reporter := progress.New(d.progressConfig(), bridge.Progress)

	app := ui.NewApp(ctx, ui.AppOptions{
		Search:   s,
		Index:    d.indexer(reporter),
		Modal:    d.modal,
		Styles:   ui.GetStyles(uiCfg.NoColor),
		Initial:  d.board.Snapshot(),
		FullText: d.cfg.Search.FullText,
		Indexing: d.rememberedIndexing(),
	})

	slog.Info("tui_started", slog.String("server", d.client.BaseURL()))
	if err := ui.RunTUI(ctx, uiCfg, app, bridge); err != nil {
		return fmt.Errorf("interactive UI failed: %w", err)
	}
	return nil
}
