package ui

import (
	"context"
	"errors"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hirmes/hirmes/internal/modal"
	"github.com/hirmes/hirmes/internal/progress"
	"github.com/hirmes/hirmes/internal/results"
)

// Message types for bubbletea
type (
	modalMsg      modal.State
	progressMsg   progress.Update
	boardMsg      results.Snapshot
	searchDoneMsg struct{ err error }
	indexDoneMsg  struct{ err error }
	openDoneMsg   struct{ err error }
)

// Bridge forwards modal, board and progress changes into a running
// program. Changes arriving while no program is attached are dropped.
// Its methods block until the program accepts the message, so they must
// not be called from the program's Update.
type Bridge struct {
	p atomic.Pointer[tea.Program]
}

// Attach starts forwarding to p.
func (b *Bridge) Attach(p *tea.Program) {
	b.p.Store(p)
}

// Detach stops forwarding.
func (b *Bridge) Detach() {
	b.p.Store(nil)
}

// Modal forwards a modal state. It fits modal.Service.Subscribe.
func (b *Bridge) Modal(s modal.State) {
	b.send(modalMsg(s))
}

// Progress forwards a progress frame. It fits a progress.Reporter sink.
func (b *Bridge) Progress(u progress.Update) {
	b.send(progressMsg(u))
}

// Board forwards a result-set snapshot. It fits results.Board.OnChange.
func (b *Bridge) Board(s results.Snapshot) {
	b.send(boardMsg(s))
}

func (b *Bridge) send(msg tea.Msg) {
	if p := b.p.Load(); p != nil {
		p.Send(msg)
	}
}

// RunTUI runs app full-screen until the user quits or ctx is done.
func RunTUI(ctx context.Context, cfg Config, app *App, bridge *Bridge) error {
	opts := []tea.ProgramOption{
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithOutput(cfg.Output),
	}
	if cfg.Input != nil {
		opts = append(opts, tea.WithInput(cfg.Input))
	}

	p := tea.NewProgram(app, opts...)
	bridge.Attach(p)
	defer bridge.Detach()

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
