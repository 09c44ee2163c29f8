// Package progress simulates incremental progress for operations whose
// real completion is only known when their response arrives.
package progress

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

// Terminal labels.
const (
	LabelCompleted = "Completed!"
	LabelFailed    = "Failed!"
)

// Update is one frame for the progress surface.
type Update struct {
	Percent float64
	Label   string
	Visible bool
}

// Config tunes the simulation.
type Config struct {
	Interval  time.Duration
	Ceiling   float64
	MaxStep   float64
	HideDelay time.Duration
	// Rand returns a value in [0, 1). Defaults to math/rand/v2.
	Rand func() float64
}

// DefaultConfig mirrors the defaults of the config package.
func DefaultConfig() Config {
	return Config{
		Interval:  500 * time.Millisecond,
		Ceiling:   95,
		MaxStep:   10,
		HideDelay: 800 * time.Millisecond,
	}
}

// Reporter starts simulated runs and forwards their frames to a sink.
type Reporter struct {
	cfg  Config
	sink func(Update)

	mu     sync.Mutex
	sinkMu sync.Mutex
	gen    uint64

	// pending counts runs that have not been hidden yet.
	pending sync.WaitGroup
}

// New creates a Reporter. sink receives every frame, serialized.
func New(cfg Config, sink func(Update)) *Reporter {
	if cfg.Rand == nil {
		cfg.Rand = rand.Float64
	}
	if sink == nil {
		sink = func(Update) {}
	}
	return &Reporter{cfg: cfg, sink: sink}
}

// Run is one simulated progress session bound to an operation.
type Run struct {
	r     *Reporter
	gen   uint64
	label string

	mu    sync.Mutex
	value float64

	once   sync.Once
	stop   chan struct{}
	exited chan struct{}
	hidden chan struct{}
}

// Start shows the surface and begins ticking until Complete, Fail, or ctx
// cancellation.
func (r *Reporter) Start(ctx context.Context, label string) *Run {
	r.mu.Lock()
	r.gen++
	gen := r.gen
	r.mu.Unlock()
	r.pending.Add(1)

	run := &Run{
		r:      r,
		gen:    gen,
		label:  label,
		stop:   make(chan struct{}),
		exited: make(chan struct{}),
		hidden: make(chan struct{}),
	}

	r.emit(Update{Percent: 0, Label: label + " in progress...", Visible: true})
	go run.tick(ctx)

	return run
}

func (run *Run) tick(ctx context.Context) {
	defer close(run.exited)

	ticker := time.NewTicker(run.r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Debug("progress_cancelled", slog.String("label", run.label))
			return
		case <-run.stop:
			return
		case <-ticker.C:
			run.mu.Lock()
			run.value = math.Min(run.value+run.r.cfg.Rand()*run.r.cfg.MaxStep, run.r.cfg.Ceiling)
			v := run.value
			run.mu.Unlock()

			// A terminal frame may already have been emitted; don't overwrite it.
			select {
			case <-run.stop:
				return
			default:
			}
			run.r.emit(Update{
				Percent: v,
				Label:   fmt.Sprintf("%s... %d%%", run.label, int(math.Floor(v))),
				Visible: true,
			})
		}
	}
}

// Value returns the current simulated percentage.
func (run *Run) Value() float64 {
	run.mu.Lock()
	defer run.mu.Unlock()
	return run.value
}

// Complete stops ticking, shows 100% "Completed!", and hides the surface
// after the hide delay. Only the first Complete or Fail has an effect.
func (run *Run) Complete() {
	run.finish(100, LabelCompleted)
}

// Fail stops ticking, shows 0% "Failed!", and hides the surface after the
// hide delay. Only the first Complete or Fail has an effect.
func (run *Run) Fail() {
	run.finish(0, LabelFailed)
}

// Hidden is closed once the surface has been hidden after Complete or Fail.
func (run *Run) Hidden() <-chan struct{} {
	return run.hidden
}

func (run *Run) finish(percent float64, label string) {
	run.once.Do(func() {
		close(run.stop)
		<-run.exited

		run.mu.Lock()
		run.value = percent
		run.mu.Unlock()

		run.r.emit(Update{Percent: percent, Label: label, Visible: true})

		time.AfterFunc(run.r.cfg.HideDelay, func() {
			defer run.r.pending.Done()
			defer close(run.hidden)
			// A newer run owns the surface now.
			if run.r.current() != run.gen {
				return
			}
			run.r.emit(Update{Percent: percent, Label: label, Visible: false})
		})
	})
}

// Wait blocks until every finished run has been hidden. A run that is never
// completed or failed holds Wait until ctx is done.
func (r *Reporter) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Reporter) current() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gen
}

func (r *Reporter) emit(u Update) {
	r.sinkMu.Lock()
	defer r.sinkMu.Unlock()
	r.sink(u)
}
