package ui

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"

	"github.com/hirmes/hirmes/internal/modal"
	"github.com/hirmes/hirmes/internal/output"
	"github.com/hirmes/hirmes/internal/progress"
)

// ModalService is the modal surface as seen by a renderer.
type ModalService interface {
	State() modal.State
	Subscribe(fn func(modal.State)) func()
	Respond(id uint64, accepted bool) bool
}

// Console renders the modal and progress surfaces line by line. Notices are
// printed and dismissed; confirmations are answered from the input with
// y or yes. End of input declines.
type Console struct {
	modal ModalService
	in    io.Reader

	mu  sync.Mutex
	out *output.Writer

	linesOnce sync.Once
	lines     chan string
}

// NewConsole creates a console renderer writing to out and reading answers
// from in.
func NewConsole(m ModalService, out io.Writer, in io.Reader) *Console {
	return &Console{
		modal: m,
		in:    in,
		out:   output.New(out),
	}
}

// Progress renders one progress frame. It is safe to pass as a
// progress.Reporter sink.
func (c *Console) Progress(u progress.Update) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.out.Progress(u)
}

// Print runs fn with exclusive use of the output.
func (c *Console) Print(fn func(w *output.Writer)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.out)
}

// Run handles modal entries until ctx is done.
func (c *Console) Run(ctx context.Context) {
	wake := make(chan struct{}, 1)
	signal := func(modal.State) {
		select {
		case wake <- struct{}{}:
		default:
		}
	}
	unsubscribe := c.modal.Subscribe(signal)
	defer unsubscribe()
	signal(modal.State{})

	var handled uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-wake:
		}

		st := c.modal.State()
		if !st.Visible || st.ID == handled {
			continue
		}
		handled = st.ID
		c.handle(ctx, st, wake)
	}
}

// WaitIdle blocks until the modal shows nothing or ctx is done. Run must be
// active for entries to drain.
func (c *Console) WaitIdle(ctx context.Context) error {
	wake := make(chan struct{}, 1)
	unsubscribe := c.modal.Subscribe(func(modal.State) {
		select {
		case wake <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	for c.modal.State().Visible {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-wake:
		}
	}
	return nil
}

func (c *Console) handle(ctx context.Context, st modal.State, wake chan struct{}) {
	if !st.Confirmable {
		c.Print(func(w *output.Writer) { w.Notice(st.Message) })
		c.modal.Respond(st.ID, false)
		return
	}

	c.Print(func(w *output.Writer) { w.Prompt(st.Message + " [y/N]") })
	lines := c.input()
	for {
		select {
		case <-ctx.Done():
			return
		case <-wake:
			if c.modal.State().ID == st.ID {
				continue
			}
			// Withdrawn while waiting for an answer.
			c.Print(func(w *output.Writer) { w.Newline() })
			select {
			case wake <- struct{}{}:
			default:
			}
			return
		case line, ok := <-lines:
			if !ok {
				c.Print(func(w *output.Writer) { w.Newline() })
			}
			c.modal.Respond(st.ID, ok && isYes(line))
			return
		}
	}
}

// input starts the reader goroutine on first use. It exits at end of input;
// a read blocked on a terminal outlives Run.
func (c *Console) input() <-chan string {
	c.linesOnce.Do(func() {
		c.lines = make(chan string)
		go func() {
			defer close(c.lines)
			sc := bufio.NewScanner(c.in)
			for sc.Scan() {
				c.lines <- sc.Text()
			}
		}()
	})
	return c.lines
}

func isYes(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes":
		return true
	}
	return false
}
