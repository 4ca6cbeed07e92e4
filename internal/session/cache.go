// Package session keeps one compilation service per project. A service is
// built lazily on first use from the project's classpath and is replaced
// wholesale only when the project is invalidated.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/jward/interop/internal/compiler"
)

// ErrClosed is returned by SessionFor after the cache has been closed.
var ErrClosed = errors.New("session: cache closed")

// ClasspathProvider reports the lookup paths and exclusion globs of a
// project.
type ClasspathProvider interface {
	Classpath(ctx context.Context, project string) (compiler.Paths, []string, error)
}

// ClasspathFunc adapts a function to ClasspathProvider.
type ClasspathFunc func(ctx context.Context, project string) (compiler.Paths, []string, error)

func (f ClasspathFunc) Classpath(ctx context.Context, project string) (compiler.Paths, []string, error) {
	return f(ctx, project)
}

// Observer is told about session builds and invalidations.
type Observer interface {
	SessionBuilt(project string, err error)
	SessionInvalidated(project string)
}

// Cache maps project names to live compilation services.
type Cache struct {
	provider ClasspathProvider
	log      *slog.Logger
	observer Observer

	mu       sync.Mutex
	sessions map[string]*entry
	gens     map[string]uint64
	closed   bool

	builds   singleflight.Group
	retiring sync.WaitGroup
}

// entry is a cached service and the leases held on it. A retired entry is
// closed once its last lease is released.
type entry struct {
	svc     *compiler.Service
	leases  int
	retired bool
	drained chan struct{}
}

// Option configures a Cache.
type Option func(*Cache)

func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.log = l
		}
	}
}

func WithObserver(o Observer) Option {
	return func(c *Cache) { c.observer = o }
}

// NewCache creates an empty cache backed by provider.
func NewCache(provider ClasspathProvider, opts ...Option) *Cache {
	c := &Cache{
		provider: provider,
		log:      slog.Default(),
		sessions: make(map[string]*entry),
		gens:     make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Acquire returns the project's service, building it on first use, with a
// lease that keeps it open until release is called. An invalidated service
// stays usable by its lease holders and is closed after the last release.
//
// Concurrent first requests share one build. A failed build is not cached,
// so every request fails the same way until the classpath is fixed.
func (c *Cache) Acquire(ctx context.Context, project string) (*compiler.Service, func(), error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return nil, nil, ErrClosed
		}
		if e, ok := c.sessions[project]; ok {
			e.leases++
			c.mu.Unlock()
			return e.svc, c.releaser(e), nil
		}
		c.mu.Unlock()

		if _, err, _ := c.builds.Do(project, func() (any, error) {
			return nil, c.buildEntry(ctx, project)
		}); err != nil {
			return nil, nil, err
		}
	}
}

// SessionFor returns the project's service without holding a lease. The
// service may be retired at any time; use Acquire to pin it for a task.
func (c *Cache) SessionFor(ctx context.Context, project string) (*compiler.Service, error) {
	svc, release, err := c.Acquire(ctx, project)
	if err != nil {
		return nil, err
	}
	release()
	return svc, nil
}

func (c *Cache) releaser(e *entry) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			e.leases--
			if e.retired && e.leases == 0 {
				close(e.drained)
			}
		})
	}
}

// buildEntry builds a service and caches it unless the project was
// invalidated while the build ran, in which case the result is discarded
// and the caller retries.
func (c *Cache) buildEntry(ctx context.Context, project string) error {
	c.mu.Lock()
	if _, ok := c.sessions[project]; ok {
		c.mu.Unlock()
		return nil
	}
	gen := c.gens[project]
	c.mu.Unlock()

	svc, err := c.build(ctx, project)
	if c.observer != nil {
		c.observer.SessionBuilt(project, err)
	}
	if err != nil {
		c.log.Warn("session build failed", "project", project, "error", err)
		return err
	}

	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		svc.Close()
		return ErrClosed
	case c.gens[project] != gen:
		c.mu.Unlock()
		c.log.Debug("discarding session built before invalidation", "project", project, "session", svc.ID())
		svc.Close()
		return nil
	}
	if _, ok := c.sessions[project]; ok {
		c.mu.Unlock()
		svc.Close()
		return nil
	}
	c.sessions[project] = &entry{svc: svc, drained: make(chan struct{})}
	c.mu.Unlock()
	c.log.Debug("session built", "project", project, "session", svc.ID())
	return nil
}

func (c *Cache) build(ctx context.Context, project string) (*compiler.Service, error) {
	paths, excludes, err := c.provider.Classpath(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("session: classpath for %q: %w", project, err)
	}
	svc, err := compiler.New(paths,
		compiler.WithExcludes(excludes...),
		compiler.WithLogger(c.log.With("project", project)))
	if err != nil {
		return nil, fmt.Errorf("session: build %q: %w", project, err)
	}
	return svc, nil
}

// Invalidate drops the project's service. The next request builds a fresh
// one, and a build already in flight is discarded when it finishes. The
// dropped service is closed once its leases are released.
func (c *Cache) Invalidate(project string) {
	c.mu.Lock()
	c.gens[project]++
	e, ok := c.sessions[project]
	delete(c.sessions, project)
	if ok {
		c.retireLocked(e)
	}
	c.mu.Unlock()
	c.builds.Forget(project)
	if !ok {
		return
	}
	if c.observer != nil {
		c.observer.SessionInvalidated(project)
	}
	c.log.Debug("session invalidated", "project", project, "session", e.svc.ID())
}

// InvalidateAll drops every cached service.
func (c *Cache) InvalidateAll() {
	for _, p := range c.Projects() {
		c.Invalidate(p)
	}
}

// Projects lists the projects with a live service.
func (c *Cache) Projects() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.sessions))
	for p := range c.sessions {
		out = append(out, p)
	}
	return out
}

// retireLocked closes e's service in the background after its leases drain.
// Close also blocks on the service's task mutex, and the caller may itself
// be inside a task. c.mu must be held.
func (c *Cache) retireLocked(e *entry) {
	e.retired = true
	if e.leases == 0 {
		close(e.drained)
	}
	c.retiring.Add(1)
	go func() {
		defer c.retiring.Done()
		<-e.drained
		if err := e.svc.Close(); err != nil {
			c.log.Warn("closing retired session", "session", e.svc.ID(), "error", err)
		}
	}()
}

// Close retires every service and waits until all of them, including
// previously invalidated ones, are closed. Outstanding leases must be
// released for Close to return.
func (c *Cache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	for _, e := range c.sessions {
		c.retireLocked(e)
	}
	c.sessions = make(map[string]*entry)
	c.mu.Unlock()

	c.retiring.Wait()
	return nil
}
