package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jward/interop/internal/compiler"
	"github.com/jward/interop/internal/javatest"
	"github.com/jward/interop/internal/session"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recorder struct {
	phase compiler.Phase
	found bool
	err   error
	runs  int
}

func (p *recorder) Name() string { return "recorder" }

func (p *recorder) Run(snap *compiler.Snapshot) error {
	p.runs++
	p.phase = snap.Phase()
	p.found = snap.TypeElement("p.A") != nil
	return p.err
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *Metrics, *session.Cache) {
	t.Helper()
	src := javatest.WriteProject(t, map[string]string{"p/A.java": "package p;\npublic class A {}\n"})
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	cache := session.NewCache(session.ClasspathFunc(func(_ context.Context, project string) (compiler.Paths, []string, error) {
		if project != "app" {
			return compiler.Paths{}, nil, errors.New("no such project")
		}
		return compiler.Paths{Sources: []string{src}}, nil, nil
	}), session.WithObserver(m))
	t.Cleanup(func() { cache.Close() })
	return New(cache, WithMetrics(m)), m, cache
}

func TestExecute_RunsAtPhase(t *testing.T) {
	d, m, _ := newTestDispatcher(t)

	p, err := Execute(context.Background(), d, "app", compiler.PhaseElementsResolved, &recorder{})
	require.NoError(t, err)
	assert.Equal(t, 1, p.runs)
	assert.Equal(t, compiler.PhaseElementsResolved, p.phase)
	assert.True(t, p.found)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.tasks.WithLabelValues("recorder", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.builds.WithLabelValues("ok")))
}

func TestExecute_SearcherErrorWrapped(t *testing.T) {
	d, m, _ := newTestDispatcher(t)
	want := errors.New("bad input")

	err := d.Execute(context.Background(), "app", compiler.PhaseElementsDiscovered, &recorder{err: want})
	require.ErrorIs(t, err, want)
	assert.ErrorContains(t, err, "recorder: ")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tasks.WithLabelValues("recorder", "error")))
}

func TestExecute_SessionFailure(t *testing.T) {
	d, m, _ := newTestDispatcher(t)
	p := &recorder{}

	for range 2 {
		err := d.Execute(context.Background(), "other", compiler.PhaseElementsDiscovered, p)
		assert.ErrorContains(t, err, "no such project")
	}
	assert.Zero(t, p.runs)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.builds.WithLabelValues("error")))
}

func TestExecute_UsageErrorSurfaces(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	err := d.Execute(context.Background(), "app", compiler.PhaseElementsDiscovered, searcherFunc(func(snap *compiler.Snapshot) error {
		snap.TypeElement("p.A").Superclass()
		return nil
	}))
	var ue *compiler.UsageError
	assert.ErrorAs(t, err, &ue)
}

func TestExecute_InvalidationCounted(t *testing.T) {
	d, m, cache := newTestDispatcher(t)
	require.NoError(t, d.Execute(context.Background(), "app", compiler.PhaseElementsDiscovered, &recorder{}))
	cache.Invalidate("app")
	require.NoError(t, d.Execute(context.Background(), "app", compiler.PhaseElementsDiscovered, &recorder{}))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.invalidations))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.builds.WithLabelValues("ok")))
}

type searcherFunc func(*compiler.Snapshot) error

func (f searcherFunc) Name() string                      { return "func" }
func (f searcherFunc) Run(snap *compiler.Snapshot) error { return f(snap) }

// invalidatingSessions drops the project's session right after leasing it.
type invalidatingSessions struct {
	*session.Cache
}

func (s invalidatingSessions) Acquire(ctx context.Context, project string) (*compiler.Service, func(), error) {
	svc, release, err := s.Cache.Acquire(ctx, project)
	if err == nil {
		s.Cache.Invalidate(project)
		time.Sleep(20 * time.Millisecond)
	}
	return svc, release, err
}

func TestExecute_InvalidatedAfterAcquireStillRuns(t *testing.T) {
	_, m, cache := newTestDispatcher(t)
	d := New(invalidatingSessions{cache}, WithMetrics(m))

	r, err := Execute(context.Background(), d, "app", compiler.PhaseElementsDiscovered, &recorder{})
	require.NoError(t, err)
	assert.True(t, r.found)

	r, err = Execute(context.Background(), d, "app", compiler.PhaseElementsDiscovered, &recorder{})
	require.NoError(t, err)
	assert.True(t, r.found)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.builds.WithLabelValues("ok")))
}

func TestExecute_PanicBecomesError(t *testing.T) {
	d, m, _ := newTestDispatcher(t)
	err := d.Execute(context.Background(), "app", compiler.PhaseElementsDiscovered, searcherFunc(func(*compiler.Snapshot) error {
		panic("boom")
	}))
	require.ErrorIs(t, err, ErrPanic)
	assert.ErrorContains(t, err, "boom")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tasks.WithLabelValues("func", "error")))

	require.NoError(t, d.Execute(context.Background(), "app", compiler.PhaseElementsDiscovered, &recorder{}), "session usable after a panic")
}
