package interop

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jward/interop/internal/dispatch"
	"github.com/jward/interop/internal/search"
	"github.com/jward/interop/internal/session"
)

// Bridge owns the per-project compilation sessions and dispatches every
// query against them.
type Bridge struct {
	cache      *session.Cache
	dispatcher *dispatch.Dispatcher
	log        *slog.Logger
	registerer prometheus.Registerer
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the logger used by the session cache and dispatcher.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bridge) {
		if l != nil {
			b.log = l
		}
	}
}

// WithRegisterer registers the bridge's metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(b *Bridge) { b.registerer = reg }
}

// New creates a Bridge whose sessions are built from provider's classpaths.
func New(provider ClasspathProvider, opts ...Option) *Bridge {
	b := &Bridge{log: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}
	metrics := dispatch.NewMetrics(b.registerer)
	b.cache = session.NewCache(provider,
		session.WithLogger(b.log),
		session.WithObserver(metrics))
	b.dispatcher = dispatch.New(b.cache,
		dispatch.WithLogger(b.log),
		dispatch.WithMetrics(metrics))
	return b
}

// Close closes every session.
func (b *Bridge) Close() error {
	return b.cache.Close()
}

// Project returns the query entry point for the named project. The session
// is built on first use.
func (b *Bridge) Project(name string) *Project {
	return &Project{bridge: b, name: name, ctx: context.Background()}
}

// Invalidate drops the project's session; the next query rebuilds it from
// the current classpath.
func (b *Bridge) Invalidate(project string) {
	b.cache.Invalidate(project)
}

// InvalidateAll drops every session.
func (b *Bridge) InvalidateAll() {
	b.cache.InvalidateAll()
}

// WatchConfig invalidates every session whenever one of files changes. The
// returned stop function ends watching.
func (b *Bridge) WatchConfig(ctx context.Context, files []string, debounce time.Duration) (stop func() error, err error) {
	w, err := session.InvalidateOnChange(b.cache, files,
		session.WithDebounce(debounce),
		session.WithWatcherLogger(b.log))
	if err != nil {
		return nil, err
	}
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	return w.Stop, nil
}

// Project answers queries about one project's Java elements. Adapters
// obtained from it share its context.
type Project struct {
	bridge *Bridge
	name   string
	ctx    context.Context
}

// Name returns the project name.
func (p *Project) Name() string { return p.name }

// WithContext returns a copy of p whose queries use ctx.
func (p *Project) WithContext(ctx context.Context) *Project {
	cp := *p
	cp.ctx = ctx
	return &cp
}

// Invalidate drops the project's session.
func (p *Project) Invalidate() { p.bridge.Invalidate(p.name) }

// FindClass looks a class up by canonical or binary name. A class that does
// not exist yields nil and no error.
func (p *Project) FindClass(qualifiedName string) (*Classifier, error) {
	s, err := run(p, &search.ResolveClass{QualifiedName: qualifiedName})
	if err != nil || !s.Found {
		return nil, err
	}
	return p.Classifier(s.Handle), nil
}

// FindPackage looks a package up by name.
func (p *Project) FindPackage(name string) (*Package, error) {
	s, err := run(p, &search.ResolvePackage{QualifiedName: name})
	if err != nil || !s.Found {
		return nil, err
	}
	return p.Package(s.Handle), nil
}

// Element wraps a handle of any kind in its adapter: *Classifier, *Method,
// *Constructor, *Field, *Package or *TypeParameter.
func (p *Project) Element(h ElementHandle) (Adapter, error) {
	switch h.Kind {
	case KindClass:
		return p.Classifier(h), nil
	case KindMethod:
		return &Method{p.element(h)}, nil
	case KindConstructor:
		return &Constructor{p.element(h)}, nil
	case KindField:
		return &Field{p.element(h)}, nil
	case KindPackage:
		return p.Package(h), nil
	case KindTypeParameter:
		return &TypeParameter{p.element(h)}, nil
	}
	return nil, fmt.Errorf("interop: no adapter for %s", h.Key())
}

// Classifier wraps a class handle without querying the compiler.
func (p *Project) Classifier(h ElementHandle) *Classifier {
	return &Classifier{p.element(h)}
}

// Package wraps a package handle without querying the compiler.
func (p *Project) Package(h ElementHandle) *Package {
	return &Package{p.element(h)}
}

// Type wraps a type handle without querying the compiler.
func (p *Project) Type(h TypeHandle) *Type {
	return &Type{project: p, handle: h}
}

func (p *Project) element(h ElementHandle) element {
	return element{project: p, handle: h}
}

// run dispatches one fresh searcher against the project's session.
func run[S search.Searcher](p *Project, s S) (S, error) {
	return dispatch.Execute(p.ctx, p.bridge.dispatcher, p.name, s.Phase(), s)
}
