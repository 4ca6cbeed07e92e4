// Package dispatch is the single path by which searchers reach the
// compiler: it finds the project's session, advances a snapshot to the
// requested phase and runs exactly one searcher against it.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/jward/interop/internal/compiler"
	"github.com/jward/interop/internal/session"
)

// Searcher is a one-shot query. Run reads its inputs, queries the snapshot
// and stores results in its own fields. A searcher is run at most once.
type Searcher interface {
	Name() string
	Run(snap *compiler.Snapshot) error
}

// ErrPanic is wrapped by the error returned when a searcher panics.
var ErrPanic = errors.New("dispatch: searcher panicked")

// Sessions leases a compilation service per project. The service stays
// open until release is called, even if the project is invalidated.
type Sessions interface {
	Acquire(ctx context.Context, project string) (svc *compiler.Service, release func(), err error)
}

// Dispatcher runs searchers against project sessions.
type Dispatcher struct {
	sessions Sessions
	metrics  *Metrics
	log      *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// New creates a Dispatcher over sessions.
func New(sessions Sessions, opts ...Option) *Dispatcher {
	d := &Dispatcher{sessions: sessions, log: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	if d.metrics == nil {
		d.metrics = NewMetrics(nil)
	}
	return d
}

// Execute runs s against a fresh snapshot of project's session advanced to
// phase. It blocks until the searcher finishes. The index is refreshed
// before every task.
func (d *Dispatcher) Execute(ctx context.Context, project string, phase compiler.Phase, s Searcher) error {
	start := time.Now()
	err := d.execute(ctx, project, phase, s)
	elapsed := time.Since(start)
	d.metrics.observeTask(s.Name(), elapsed.Seconds(), err)

	if err != nil {
		d.log.Warn("searcher failed",
			"project", project, "searcher", s.Name(), "phase", phase.String(), "error", err)
		return err
	}
	d.log.Debug("searcher done",
		"project", project, "searcher", s.Name(), "phase", phase.String(), "duration", elapsed)
	return nil
}

func (d *Dispatcher) execute(ctx context.Context, project string, phase compiler.Phase, s Searcher) (err error) {
	svc, release, err := d.sessions.Acquire(ctx, project)
	if err != nil {
		return err
	}
	defer release()
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("searcher panic", "project", project, "searcher", s.Name(), "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("%s: %w: %v", s.Name(), ErrPanic, r)
		}
	}()

	err = svc.RunUserActionTask(ctx, func(snap *compiler.Snapshot) error {
		snap.ToPhase(phase)
		return s.Run(snap)
	}, true)
	if err != nil {
		return fmt.Errorf("%s: %w", s.Name(), err)
	}
	return nil
}

// Execute runs s through d and returns it populated.
func Execute[S Searcher](ctx context.Context, d *Dispatcher, project string, phase compiler.Phase, s S) (S, error) {
	err := d.Execute(ctx, project, phase, s)
	return s, err
}

var _ session.Observer = (*Metrics)(nil)
