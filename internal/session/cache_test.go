package session

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jward/interop/internal/compiler"
	"github.com/jward/interop/internal/javatest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type countingProvider struct {
	calls atomic.Int32
	mu    sync.Mutex
	paths map[string]compiler.Paths
}

func (p *countingProvider) Classpath(_ context.Context, project string) (compiler.Paths, []string, error) {
	p.calls.Add(1)
	p.mu.Lock()
	defer p.mu.Unlock()
	paths, ok := p.paths[project]
	if !ok {
		return compiler.Paths{}, nil, errors.New("unknown project")
	}
	return paths, nil, nil
}

func (p *countingProvider) set(project string, paths compiler.Paths) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paths[project] = paths
}

type recordingObserver struct {
	mu          sync.Mutex
	builds      []error
	invalidated []string
}

func (o *recordingObserver) SessionBuilt(_ string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.builds = append(o.builds, err)
}

func (o *recordingObserver) SessionInvalidated(project string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.invalidated = append(o.invalidated, project)
}

func newTestCache(t *testing.T, opts ...Option) (*Cache, *countingProvider) {
	t.Helper()
	p := &countingProvider{paths: map[string]compiler.Paths{
		"app": {Sources: []string{javatest.WriteProject(t, map[string]string{
			"p/A.java": "package p;\npublic class A {}\n",
		})}},
	}}
	c := NewCache(p, opts...)
	t.Cleanup(func() { c.Close() })
	return c, p
}

func TestSessionFor_ReusesSession(t *testing.T) {
	c, p := newTestCache(t)
	ctx := context.Background()

	a, err := c.SessionFor(ctx, "app")
	require.NoError(t, err)
	b, err := c.SessionFor(ctx, "app")
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Equal(t, int32(1), p.calls.Load())
	assert.Equal(t, []string{"app"}, c.Projects())
}

func TestSessionFor_ConcurrentFirstRequestsShareBuild(t *testing.T) {
	c, _ := newTestCache(t)

	const n = 16
	got := make([]*compiler.Service, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc, err := c.SessionFor(context.Background(), "app")
			assert.NoError(t, err)
			got[i] = svc
		}()
	}
	wg.Wait()

	for _, svc := range got[1:] {
		assert.Same(t, got[0], svc)
	}
}

func TestSessionFor_FailureIsNotCached(t *testing.T) {
	obs := &recordingObserver{}
	c, p := newTestCache(t, WithObserver(obs))
	ctx := context.Background()
	missing := filepath.Join(t.TempDir(), "gone")
	p.set("broken", compiler.Paths{Sources: []string{missing}})

	for range 2 {
		_, err := c.SessionFor(ctx, "broken")
		require.Error(t, err)
		assert.ErrorIs(t, err, compiler.ErrLookupPath)
	}
	assert.Equal(t, int32(2), p.calls.Load(), "each request retries the build")

	p.set("broken", compiler.Paths{Sources: []string{t.TempDir()}})
	_, err := c.SessionFor(ctx, "broken")
	require.NoError(t, err)

	obs.mu.Lock()
	defer obs.mu.Unlock()
	require.Len(t, obs.builds, 3)
	assert.Error(t, obs.builds[0])
	assert.NoError(t, obs.builds[2])
}

func TestSessionFor_ProviderError(t *testing.T) {
	c, _ := newTestCache(t)
	_, err := c.SessionFor(context.Background(), "nope")
	assert.ErrorContains(t, err, "unknown project")
}

func TestInvalidate_ReplacesSession(t *testing.T) {
	obs := &recordingObserver{}
	c, p := newTestCache(t, WithObserver(obs))
	ctx := context.Background()

	old, err := c.SessionFor(ctx, "app")
	require.NoError(t, err)

	c.Invalidate("app")
	c.Invalidate("app")

	fresh, err := c.SessionFor(ctx, "app")
	require.NoError(t, err)
	assert.NotSame(t, old, fresh)
	assert.NotEqual(t, old.ID(), fresh.ID())
	assert.Equal(t, int32(2), p.calls.Load())

	c.retiring.Wait()
	err = old.RunUserActionTask(ctx, func(*compiler.Snapshot) error { return nil }, false)
	assert.ErrorIs(t, err, compiler.ErrClosed)

	obs.mu.Lock()
	defer obs.mu.Unlock()
	assert.Equal(t, []string{"app"}, obs.invalidated)
}

func TestInvalidate_FromInsideTask(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	svc, err := c.SessionFor(ctx, "app")
	require.NoError(t, err)

	err = svc.RunUserActionTask(ctx, func(snap *compiler.Snapshot) error {
		c.Invalidate("app")
		assert.NotNil(t, snap.TypeElement("p.A"), "running task keeps its snapshot")
		return nil
	}, false)
	require.NoError(t, err)
	assert.Empty(t, c.Projects())
}

func TestClose(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	svc, err := c.SessionFor(ctx, "app")
	require.NoError(t, err)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, err = c.SessionFor(ctx, "app")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = svc.Stats()
	assert.ErrorIs(t, err, compiler.ErrClosed)
}

func TestAcquire_LeaseKeepsRetiredSessionOpen(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	old, release, err := c.Acquire(ctx, "app")
	require.NoError(t, err)
	c.Invalidate("app")

	retired := make(chan struct{})
	go func() {
		c.retiring.Wait()
		close(retired)
	}()

	err = old.RunUserActionTask(ctx, func(snap *compiler.Snapshot) error {
		assert.NotNil(t, snap.TypeElement("p.A"))
		return nil
	}, false)
	require.NoError(t, err, "leased session stays open after invalidation")
	assert.Never(t, func() bool {
		select {
		case <-retired:
			return true
		default:
			return false
		}
	}, 50*time.Millisecond, 5*time.Millisecond)

	fresh, err := c.SessionFor(ctx, "app")
	require.NoError(t, err)
	assert.NotSame(t, old, fresh)

	release()
	release()
	<-retired
	err = old.RunUserActionTask(ctx, func(*compiler.Snapshot) error { return nil }, false)
	assert.ErrorIs(t, err, compiler.ErrClosed)
}

// gatedProvider blocks its first Classpath call until unblock is closed.
type gatedProvider struct {
	calls   atomic.Int32
	src     string
	started chan struct{}
	unblock chan struct{}
}

func (p *gatedProvider) Classpath(_ context.Context, _ string) (compiler.Paths, []string, error) {
	if p.calls.Add(1) == 1 {
		close(p.started)
		<-p.unblock
	}
	return compiler.Paths{Sources: []string{p.src}}, nil, nil
}

func TestInvalidate_DuringBuildDiscardsResult(t *testing.T) {
	p := &gatedProvider{
		src:     javatest.WriteProject(t, map[string]string{"p/A.java": "package p;\npublic class A {}\n"}),
		started: make(chan struct{}),
		unblock: make(chan struct{}),
	}
	obs := &recordingObserver{}
	c := NewCache(p, WithObserver(obs))
	t.Cleanup(func() { c.Close() })
	ctx := context.Background()

	got := make(chan *compiler.Service, 1)
	go func() {
		svc, err := c.SessionFor(ctx, "app")
		assert.NoError(t, err)
		got <- svc
	}()

	<-p.started
	c.Invalidate("app")
	close(p.unblock)
	first := <-got

	assert.Equal(t, int32(2), p.calls.Load(), "build from before the invalidation is not kept")
	again, err := c.SessionFor(ctx, "app")
	require.NoError(t, err)
	assert.Same(t, first, again)
	assert.Equal(t, int32(2), p.calls.Load())

	obs.mu.Lock()
	defer obs.mu.Unlock()
	assert.Len(t, obs.builds, 2)
}

func TestAcquire_CanceledContext(t *testing.T) {
	c, p := newTestCache(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := c.Acquire(ctx, "app")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, p.calls.Load())
}
