// Package history records submitted queries in a local SQLite database.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	herrors "github.com/hirmes/hirmes/internal/errors"
)

// Outcome classifies how a submission ended.
type Outcome string

const (
	OutcomeOK         Outcome = "ok"
	OutcomeFailed     Outcome = "failed"
	OutcomeError      Outcome = "service_error"
	OutcomeSuperseded Outcome = "superseded"
	OutcomeRejected   Outcome = "rejected"
)

// Entry is one recorded submission.
type Entry struct {
	ID          int64
	Query       string
	FullText    bool
	ResultCount int
	// Suggestion is the service's spell-corrected query when it differed.
	Suggestion string
	// EditDistance is the Levenshtein distance from Query to Suggestion.
	EditDistance int
	Latency      time.Duration
	Outcome      Outcome
	CreatedAt    time.Time
}

// DefaultMaxEntries bounds the table when no limit is configured.
const DefaultMaxEntries = 500

// Store is a SQLite-backed query history.
type Store struct {
	db         *sql.DB
	maxEntries int
}

// Open opens or creates the history database at path.
func Open(path string, maxEntries int) (*Store, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, herrors.New(herrors.ErrCodeHistoryIO, "failed to create history directory", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, herrors.New(herrors.ErrCodeHistoryIO, "failed to open history database", err).
			WithDetail("path", path)
	}
	// modernc.org/sqlite ignores most DSN params; set pragmas explicitly.
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, herrors.New(herrors.ErrCodeHistoryIO, "failed to configure history database", err)
		}
	}

	s := &Store{db: db, maxEntries: maxEntries}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS queries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		query TEXT NOT NULL,
		full_text INTEGER NOT NULL DEFAULT 0,
		result_count INTEGER NOT NULL DEFAULT 0,
		suggestion TEXT NOT NULL DEFAULT '',
		edit_distance INTEGER NOT NULL DEFAULT 0,
		latency_ms INTEGER NOT NULL DEFAULT 0,
		outcome TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_queries_created ON queries(created_at DESC);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return herrors.New(herrors.ErrCodeHistoryIO, "create history schema", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts e and trims the table to the configured maximum. The edit
// distance is computed when a suggestion is present.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	if e.Suggestion != "" {
		e.EditDistance = levenshtein.ComputeDistance(e.Query, e.Suggestion)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return herrors.New(herrors.ErrCodeHistoryIO, "begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO queries (query, full_text, result_count, suggestion, edit_distance, latency_ms, outcome, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.Query, e.FullText, e.ResultCount, e.Suggestion, e.EditDistance,
		e.Latency.Milliseconds(), string(e.Outcome), e.CreatedAt.UTC()); err != nil {
		return herrors.New(herrors.ErrCodeHistoryIO, "insert history entry", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM queries
		WHERE id NOT IN (
			SELECT id FROM queries
			ORDER BY id DESC
			LIMIT ?
		)
	`, s.maxEntries); err != nil {
		return herrors.New(herrors.ErrCodeHistoryIO, "trim history", err)
	}

	if err := tx.Commit(); err != nil {
		return herrors.New(herrors.ErrCodeHistoryIO, "commit transaction", err)
	}

	slog.Debug("history_recorded",
		slog.String("query", e.Query),
		slog.String("outcome", string(e.Outcome)),
		slog.Int("results", e.ResultCount))
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, query, full_text, result_count, suggestion, edit_distance, latency_ms, outcome, created_at
		FROM queries
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, herrors.New(herrors.ErrCodeHistoryIO, "query history", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var latencyMs int64
		var outcome string
		if err := rows.Scan(&e.ID, &e.Query, &e.FullText, &e.ResultCount, &e.Suggestion,
			&e.EditDistance, &latencyMs, &outcome, &e.CreatedAt); err != nil {
			return nil, herrors.New(herrors.ErrCodeHistoryIO, "scan history row", err)
		}
		e.Latency = time.Duration(latencyMs) * time.Millisecond
		e.Outcome = Outcome(outcome)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, herrors.New(herrors.ErrCodeHistoryIO, "read history", err)
	}
	return entries, nil
}

// Match is a past query ranked by closeness to a probe string.
type Match struct {
	Query    string
	Distance int
}

// Similar returns up to limit distinct past queries within maxDistance edits
// of query, closest first. Comparison ignores case.
func (s *Store) Similar(ctx context.Context, query string, maxDistance, limit int) ([]Match, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT query FROM queries`)
	if err != nil {
		return nil, herrors.New(herrors.ErrCodeHistoryIO, "query history", err)
	}
	defer rows.Close()

	probe := strings.ToLower(strings.TrimSpace(query))
	var matches []Match
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, herrors.New(herrors.ErrCodeHistoryIO, "scan history row", err)
		}
		d := levenshtein.ComputeDistance(probe, strings.ToLower(strings.TrimSpace(q)))
		if d <= maxDistance {
			matches = append(matches, Match{Query: q, Distance: d})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, herrors.New(herrors.ErrCodeHistoryIO, "read history", err)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].Query < matches[j].Query
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// String renders an entry for list output.
func (e Entry) String() string {
	mode := "title"
	if e.FullText {
		mode = "full-text"
	}
	s := fmt.Sprintf("%s  %-9s  %-13s  %3d result(s)  %s",
		e.CreatedAt.Local().Format("2006-01-02 15:04"), mode, e.Outcome, e.ResultCount, e.Query)
	if e.Suggestion != "" {
		s += fmt.Sprintf("  (suggested %q, distance %d)", e.Suggestion, e.EditDistance)
	}
	return s
}
