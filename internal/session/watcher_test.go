package session

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_CoalescesWrites(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "interop.yaml")
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(cfg, []byte("projects: {}\n"), 0o644))

	var mu sync.Mutex
	var calls [][]string
	w, err := NewWatcher([]string{cfg}, func(changed []string) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, changed)
	}, WithDebounce(50*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	require.NoError(t, os.WriteFile(other, []byte("ignored"), 0o644))
	for i := range 3 {
		require.NoError(t, os.WriteFile(cfg, []byte("projects: {}\n# "+string(rune('a'+i))+"\n"), 0o644))
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(calls) > 0
	}, 5*time.Second, 10*time.Millisecond)

	time.Sleep(200 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, calls, 1, "burst is coalesced")
	assert.Equal(t, []string{filepath.Clean(cfg)}, calls[0])
}

func TestWatcher_InvalidatesCache(t *testing.T) {
	c, _ := newTestCache(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := c.SessionFor(ctx, "app")
	require.NoError(t, err)

	cfg := filepath.Join(t.TempDir(), "interop.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("projects: {}\n"), 0o644))
	w, err := InvalidateOnChange(c, []string{cfg}, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	require.NoError(t, os.WriteFile(cfg, []byte("projects: {app: {}}\n"), 0o644))
	assert.Eventually(t, func() bool { return len(c.Projects()) == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestWatcher_StopWithoutStart(t *testing.T) {
	w, err := NewWatcher(nil, func([]string) {})
	require.NoError(t, err)
	assert.NoError(t, w.Stop())
}
