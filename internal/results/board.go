package results

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/hirmes/hirmes/internal/tagging"
)

// ErrSuperseded is returned when a response arrives after a newer submission
// was issued.
var ErrSuperseded = errors.New("superseded by a newer submission")

// Snapshot is an immutable copy of the active result set.
type Snapshot struct {
	// Present is false until the first result set is installed.
	Present    bool
	Epoch      uint64
	Query      string
	Rows       []Row
	Capability tagging.Capability
}

// Board owns the active result set. Submissions take a sequence number from
// Begin; only the latest sequence may install a set. Each installed set gets
// a fresh epoch, and per-row writes carrying an older epoch are dropped.
type Board struct {
	mu         sync.Mutex
	issued     uint64
	epoch      uint64
	present    bool
	query      string
	rows       []Row
	byPath     map[string][]int
	capability tagging.Capability

	pubMu     sync.Mutex
	listeners map[int]func(Snapshot)
	nextID    int
}

// NewBoard creates an empty board.
func NewBoard() *Board {
	return &Board{listeners: make(map[int]func(Snapshot))}
}

// Begin issues the next submission sequence number.
func (b *Board) Begin() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.issued++
	return b.issued
}

// Latest reports the most recently issued sequence number.
func (b *Board) Latest() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.issued
}

// IsLatest reports whether seq is still the newest submission.
func (b *Board) IsLatest(seq uint64) bool {
	return b.Latest() == seq
}

// Replace installs rows as the active set if seq is still the latest
// submission and returns the new set's epoch.
func (b *Board) Replace(seq uint64, query string, rows []Row) (uint64, error) {
	b.mu.Lock()
	if seq != b.issued {
		b.mu.Unlock()
		slog.Debug("results_discarded_stale", slog.Uint64("seq", seq), slog.Uint64("latest", b.issued))
		return 0, ErrSuperseded
	}

	b.epoch++
	b.present = true
	b.query = query
	b.rows = make([]Row, len(rows))
	b.byPath = make(map[string][]int, len(rows))
	for i, r := range rows {
		r = r.clone()
		r.Tag = TagState{Status: TagPending}
		b.rows[i] = r
		b.byPath[r.Path] = append(b.byPath[r.Path], i)
	}
	b.capability = tagging.Unknown
	epoch := b.epoch
	b.mu.Unlock()

	b.publish()
	return epoch, nil
}

// SetCapability records the probe outcome for the set with epoch.
func (b *Board) SetCapability(epoch uint64, c tagging.Capability) bool {
	b.mu.Lock()
	if epoch != b.epoch || !b.present {
		b.mu.Unlock()
		return false
	}
	b.capability = c
	b.mu.Unlock()

	b.publish()
	return true
}

// ApplyTag writes an enrichment outcome to every row with path in the set
// with epoch. It reports false for superseded epochs, unknown paths, or a
// set whose tag column has been removed.
func (b *Board) ApplyTag(epoch uint64, path string, tag string, err error) bool {
	b.mu.Lock()
	if epoch != b.epoch || !b.present || b.capability == tagging.Unavailable {
		b.mu.Unlock()
		return false
	}
	idx, ok := b.byPath[path]
	if !ok {
		b.mu.Unlock()
		return false
	}
	state := TagState{Status: TagResolved, Value: tag}
	if err != nil {
		state = TagState{Status: TagFailed}
	}
	for _, i := range idx {
		b.rows[i].Tag = state
	}
	b.mu.Unlock()

	b.publish()
	return true
}

// Paths returns the distinct row paths of the set with epoch, in row order.
func (b *Board) Paths(epoch uint64) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if epoch != b.epoch {
		return nil
	}
	paths := make([]string, 0, len(b.byPath))
	seen := make(map[string]bool, len(b.byPath))
	for _, r := range b.rows {
		if !seen[r.Path] {
			seen[r.Path] = true
			paths = append(paths, r.Path)
		}
	}
	return paths
}

// Snapshot returns a copy of the active set.
func (b *Board) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

func (b *Board) snapshotLocked() Snapshot {
	rows := make([]Row, len(b.rows))
	for i, r := range b.rows {
		rows[i] = r.clone()
	}
	return Snapshot{
		Present:    b.present,
		Epoch:      b.epoch,
		Query:      b.query,
		Rows:       rows,
		Capability: b.capability,
	}
}

// OnChange registers fn to receive a snapshot after every mutation. The
// returned function unregisters it. fn must not call back into the Board's
// OnChange.
func (b *Board) OnChange(fn func(Snapshot)) func() {
	b.pubMu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = fn
	b.pubMu.Unlock()

	return func() {
		b.pubMu.Lock()
		delete(b.listeners, id)
		b.pubMu.Unlock()
	}
}

func (b *Board) publish() {
	b.pubMu.Lock()
	defer b.pubMu.Unlock()
	if len(b.listeners) == 0 {
		return
	}
	snap := b.Snapshot()
	for _, fn := range b.listeners {
		fn(snap)
	}
}
