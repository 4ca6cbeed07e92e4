package compiler

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jward/interop/internal/store"
)

// Service is one compilation session: a set of lookup paths and the index
// built from them. Tasks run against it one at a time.
type Service struct {
	id       string
	paths    Paths
	excludes []string
	log      *slog.Logger

	mu        sync.Mutex
	st        *store.Store
	refreshed bool
	closed    bool
	round     uint64
}

// Option configures a Service.
type Option func(*Service)

// WithExcludes skips files whose root-relative path matches any of the
// doublestar globs.
func WithExcludes(globs ...string) Option {
	return func(s *Service) {
		s.excludes = append(s.excludes, globs...)
	}
}

// WithLogger sets the logger used for refresh diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// New creates a session over paths. Every lookup path must be readable;
// otherwise New fails with an error wrapping ErrLookupPath. Indexing is
// deferred to the first task.
func New(paths Paths, opts ...Option) (*Service, error) {
	s := &Service{
		id:    uuid.NewString(),
		paths: paths,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := validateGlobs(s.excludes); err != nil {
		return nil, fmt.Errorf("compiler: %w", err)
	}

	roots, err := openRoots(paths)
	if err != nil {
		return nil, fmt.Errorf("compiler: %w", err)
	}
	closeRoots(roots)

	st, err := store.NewMemoryStore("interop-" + s.id)
	if err != nil {
		return nil, fmt.Errorf("compiler: create store: %w", err)
	}
	if err := st.Migrate(); err != nil {
		st.Close()
		return nil, fmt.Errorf("compiler: %w", err)
	}
	s.st = st
	s.log = s.log.With("session", s.id)
	return s, nil
}

// ID returns the session's unique identifier.
func (s *Service) ID() string { return s.id }

// Paths returns the lookup paths the session was built from.
func (s *Service) Paths() Paths { return s.paths }

// RunUserActionTask runs task against one consistent snapshot. Tasks of one
// session are serialized. With requireFresh, or before the first task, the
// lookup paths are rescanned and changed files re-indexed first.
//
// A *UsageError panic raised by the snapshot inside task is returned as the
// error; other panics propagate.
func (s *Service) RunUserActionTask(ctx context.Context, task func(*Snapshot) error, requireFresh bool) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	if requireFresh || !s.refreshed {
		if err := s.refresh(ctx); err != nil {
			return err
		}
		s.refreshed = true
	}

	tx, err := s.st.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("compiler: begin snapshot: %w", err)
	}
	defer tx.Rollback()

	s.round++
	snap := newSnapshot(s.st.WithTx(tx), s.round)
	defer snap.close()
	defer func() {
		if r := recover(); r != nil {
			switch e := r.(type) {
			case *UsageError:
				err = e
			case *queryError:
				err = e
			default:
				panic(r)
			}
		}
	}()
	return task(snap)
}

// Close releases the session's index. It waits for a running task.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.st.Close()
}

// sourceFile is a discovered file with its content read and hashed.
type sourceFile struct {
	root    *root
	rel     string
	content []byte
	hash    string
}

// refresh brings the index in line with the lookup paths: new and changed
// files are (re)indexed, deleted ones dropped. It runs in three steps:
// discovery (serial), read and hash (parallel), index writes (serial, one
// transaction).
func (s *Service) refresh(ctx context.Context) error {
	start := time.Now()
	roots, err := openRoots(s.paths)
	if err != nil {
		return fmt.Errorf("compiler: %w", err)
	}
	defer closeRoots(roots)

	var files []*sourceFile
	for _, r := range roots {
		rels, err := r.javaFiles(s.excludes)
		if err != nil {
			return fmt.Errorf("compiler: %w", err)
		}
		for _, rel := range rels {
			files = append(files, &sourceFile{root: r, rel: rel})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(runtime.NumCPU(), 1))
	for _, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			content, err := fs.ReadFile(f.root.fsys, f.rel)
			if err != nil {
				return fmt.Errorf("%w: read %s: %v", ErrLookupPath, f.root.key(f.rel), err)
			}
			f.content = content
			f.hash = store.ContentHash(content)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("compiler: %w", err)
	}

	indexed, unchanged, removed, err := s.writeIndex(ctx, files)
	if err != nil {
		return fmt.Errorf("compiler: refresh: %w", err)
	}
	s.log.Debug("index refreshed",
		"indexed", indexed, "unchanged", unchanged, "removed", removed,
		"duration", time.Since(start))
	return nil
}

func (s *Service) writeIndex(ctx context.Context, files []*sourceFile) (indexed, unchanged, removed int, err error) {
	existing, err := s.st.Files()
	if err != nil {
		return 0, 0, 0, err
	}
	byPath := make(map[string]*store.File, len(existing))
	for _, f := range existing {
		byPath[f.Path] = f
	}

	tx, err := s.st.DB().BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()
	wst := s.st.WithTx(tx)

	seen := make(map[string]bool, len(files))
	var errs []error
	for _, sf := range files {
		key := sf.root.key(sf.rel)
		seen[key] = true
		old := byPath[key]
		if old != nil && old.Hash == sf.hash && old.Rank == sf.root.rank {
			unchanged++
			continue
		}
		if old != nil {
			if err := wst.DeleteFileData(old.ID); err != nil {
				return 0, 0, 0, err
			}
		}
		f := &store.File{
			Path:   key,
			Root:   sf.root.name,
			Origin: sf.root.origin,
			Rank:   sf.root.rank,
			Hash:   sf.hash,
		}
		if err := indexFile(ctx, wst, f, sf.content); err != nil {
			if ctx.Err() != nil {
				return 0, 0, 0, ctx.Err()
			}
			errs = append(errs, fmt.Errorf("index %s: %w", key, err))
			continue
		}
		indexed++
	}
	if len(errs) > 0 {
		return 0, 0, 0, fmt.Errorf("indexing had %d error(s): %w", len(errs), errors.Join(errs...))
	}

	for path, f := range byPath {
		if seen[path] {
			continue
		}
		if err := wst.DeleteFileData(f.ID); err != nil {
			return 0, 0, 0, err
		}
		removed++
	}
	if err := wst.SetMetadata("refreshed_at", time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return 0, 0, 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, 0, 0, fmt.Errorf("commit: %w", err)
	}
	return indexed, unchanged, removed, nil
}

// Stats reports the size of the session's index.
func (s *Service) Stats() (store.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.Stats{}, ErrClosed
	}
	return s.st.Stats()
}
