// Package modal provides the single shared confirmation and notification
// surface. Entries are displayed one at a time from a FIFO queue; renderers
// observe the head through State and Subscribe.
package modal

import (
	"context"
	"log/slog"
	"sync"
)

// State is what a renderer shows.
type State struct {
	// ID identifies the displayed content; it changes when the head changes
	// or its text is replaced.
	ID          uint64
	Visible     bool
	Message     string
	Confirmable bool
	// Pending counts entries queued behind the visible one.
	Pending     int
}

type entry struct {
	id      uint64
	message string
	confirm bool

	// set once under Service.mu
	resolved bool
	accepted bool
	err      error
	done     chan struct{}
}

// Service owns the modal queue. The zero value is not usable; call New.
type Service struct {
	mu     sync.Mutex
	queue  []*entry
	nextID uint64

	pubMu   sync.Mutex
	subs    map[int]func(State)
	nextSub int
}

// New creates an empty modal service.
func New() *Service {
	return &Service{subs: make(map[int]func(State))}
}

// Notify displays a message with no confirmation affordance.
// A notice already at the head has its text replaced. Behind a confirmation
// the notice is queued; a repeat of the trailing queued notice is dropped.
func (s *Service) Notify(message string) {
	s.mu.Lock()
	switch {
	case len(s.queue) == 0:
		s.queue = append(s.queue, s.newEntryLocked(message, false))
	case !s.queue[0].confirm:
		s.nextID++
		s.queue[0].id = s.nextID
		s.queue[0].message = message
	default:
		last := s.queue[len(s.queue)-1]
		if last.confirm || last.message != message {
			s.queue = append(s.queue, s.newEntryLocked(message, false))
		}
	}
	s.mu.Unlock()

	slog.Debug("modal_notice", slog.String("message", message))
	s.publish()
}

// Confirm displays message with accept and decline affordances and blocks
// until the user resolves it. If ctx is done first the request is withdrawn
// and ctx.Err() is returned.
func (s *Service) Confirm(ctx context.Context, message string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	e := s.newEntryLocked(message, true)
	s.queue = append(s.queue, e)
	s.mu.Unlock()
	slog.Debug("modal_confirm_queued", slog.String("message", message))
	s.publish()

	stop := context.AfterFunc(ctx, func() { s.withdraw(e, ctx.Err()) })
	<-e.done
	stop()

	return e.accepted, e.err
}

// Accept resolves a displayed confirmation as accepted, or dismisses a
// displayed notice.
func (s *Service) Accept() {
	s.resolveHead(true)
}

// Decline resolves a displayed confirmation as declined, or dismisses a
// displayed notice.
func (s *Service) Decline() {
	s.resolveHead(false)
}

// Close hides the displayed entry. Closing a confirmation declines it.
func (s *Service) Close() {
	s.resolveHead(false)
}

// Respond resolves the entry identified by id if it is still displayed and
// reports whether it was. Renderers acting on a State they observed earlier
// use it so a late answer cannot land on a different entry.
func (s *Service) Respond(id uint64, accepted bool) bool {
	return s.resolve(func(head *entry) bool { return head.id == id }, accepted)
}

// State returns a snapshot of what is displayed.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Subscribe registers fn to receive every state change. The returned
// function unregisters it. fn must not call back into the Service.
func (s *Service) Subscribe(fn func(State)) func() {
	s.pubMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.pubMu.Unlock()

	return func() {
		s.pubMu.Lock()
		delete(s.subs, id)
		s.pubMu.Unlock()
	}
}

func (s *Service) newEntryLocked(message string, confirm bool) *entry {
	s.nextID++
	e := &entry{id: s.nextID, message: message, confirm: confirm}
	if confirm {
		e.done = make(chan struct{})
	}
	return e
}

func (s *Service) stateLocked() State {
	if len(s.queue) == 0 {
		return State{}
	}
	head := s.queue[0]
	return State{
		ID:          head.id,
		Visible:     true,
		Message:     head.message,
		Confirmable: head.confirm,
		Pending:     len(s.queue) - 1,
	}
}

func (s *Service) resolveHead(accepted bool) {
	s.resolve(func(*entry) bool { return true }, accepted)
}

func (s *Service) resolve(match func(head *entry) bool, accepted bool) bool {
	s.mu.Lock()
	if len(s.queue) == 0 || !match(s.queue[0]) {
		s.mu.Unlock()
		return false
	}
	head := s.queue[0]
	s.queue = s.queue[1:]
	if head.confirm {
		resolveLocked(head, accepted, nil)
	}
	s.mu.Unlock()

	if head.confirm {
		slog.Debug("modal_confirm_resolved", slog.Bool("accepted", accepted))
	}
	s.publish()
	return true
}

func (s *Service) withdraw(e *entry, err error) {
	s.mu.Lock()
	if e.resolved {
		s.mu.Unlock()
		return
	}
	for i, q := range s.queue {
		if q == e {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			break
		}
	}
	resolveLocked(e, false, err)
	s.mu.Unlock()

	slog.Debug("modal_confirm_withdrawn", slog.String("message", e.message))
	s.publish()
}

func resolveLocked(e *entry, accepted bool, err error) {
	if e.resolved {
		return
	}
	e.resolved = true
	e.accepted = accepted
	e.err = err
	close(e.done)
}

// publish delivers the current state to subscribers. pubMu serializes
// deliveries so subscribers never see states out of order.
func (s *Service) publish() {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	st := s.State()
	for _, fn := range s.subs {
		fn(st)
	}
}
