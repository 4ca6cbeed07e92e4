package session

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits after the last change before
// invalidating.
const DefaultDebounce = 200 * time.Millisecond

// Watcher invalidates cached sessions when a watched configuration file
// changes. Bursts of events are coalesced into one invalidation.
type Watcher struct {
	files    map[string]bool
	onChange func(changed []string)
	debounce time.Duration
	logger   *slog.Logger

	watcher *fsnotify.Watcher
	done    chan struct{}

	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

func WithWatcherLogger(l *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewWatcher watches files and calls onChange with the changed paths.
func NewWatcher(files []string, onChange func(changed []string), opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		files:    make(map[string]bool, len(files)),
		onChange: onChange,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
		pending:  make(map[string]fsnotify.Op),
	}
	for _, opt := range opts {
		opt(w)
	}
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("session: watch %s: %w", f, err)
		}
		w.files[filepath.Clean(abs)] = true
	}
	return w, nil
}

// InvalidateOnChange returns a Watcher that drops every session in cache
// whenever one of files changes.
func InvalidateOnChange(cache *Cache, files []string, opts ...WatcherOption) (*Watcher, error) {
	return NewWatcher(files, func(changed []string) {
		cache.log.Info("configuration changed, invalidating sessions", "files", changed)
		cache.InvalidateAll()
	}, opts...)
}

// Start begins watching. Editors commonly replace files by rename, so the
// parent directories are watched and events filtered by name.
func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("session: create watcher: %w", err)
	}
	dirs := make(map[string]bool)
	for f := range w.files {
		dirs[filepath.Dir(f)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return fmt.Errorf("session: watch %s: %w", dir, err)
		}
		w.logger.Debug("Watching directory", "path", dir)
	}
	w.watcher = watcher
	w.done = make(chan struct{})

	go w.processEvents(ctx)
	return nil
}

// Stop ends watching and waits for the event loop to exit. Pending changes
// are dropped.
func (w *Watcher) Stop() error {
	if w.watcher == nil {
		return nil
	}
	err := w.watcher.Close()
	<-w.done
	w.watcher = nil
	return err
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.done)
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	var last time.Time
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.handleFSEvent(event) {
				last = time.Now()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			if !last.IsZero() && time.Since(last) >= w.debounce {
				last = time.Time{}
				w.flushPending()
			}
		}
	}
}

// handleFSEvent records a relevant event and reports whether it was one.
func (w *Watcher) handleFSEvent(event fsnotify.Event) bool {
	path := filepath.Clean(event.Name)
	if !w.files[path] {
		return false
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
		return false
	}

	w.pendingMu.Lock()
	w.pending[path] |= event.Op
	w.pendingMu.Unlock()

	w.logger.Debug("Configuration change detected", "path", path, "op", event.Op.String())
	return true
}

func (w *Watcher) flushPending() {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	changed := make([]string, 0, len(w.pending))
	for p := range w.pending {
		changed = append(changed, p)
	}
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	w.onChange(changed)
}
