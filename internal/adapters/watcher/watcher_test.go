package watcher_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/watcher"
	"go.trai.ch/kiln/internal/core/ports"
)

func nextEvent(t *testing.T, events <-chan ports.WatchEvent, match func(ports.WatchEvent) bool) ports.WatchEvent {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			require.True(t, ok, "event stream closed")
			if match(ev) {
				return ev
			}
		case <-timeout:
			t.Fatal("timed out waiting for event")
		}
	}
}

func startWatcher(t *testing.T, root string) (<-chan ports.WatchEvent, context.CancelFunc) {
	t.Helper()
	w, err := watcher.NewWatcher(nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx, root))
	t.Cleanup(func() {
		cancel()
		_ = w.Stop()
	})

	ch := make(chan ports.WatchEvent, 16)
	go func() {
		defer close(ch)
		for ev := range w.Events() {
			ch <- ev
		}
	}()
	return ch, cancel
}

func TestWatcher_ReportsWrites(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sass"), 0o750))
	events, _ := startWatcher(t, root)

	path := filepath.Join(root, "sass", "main.scss")
	require.NoError(t, os.WriteFile(path, []byte("a{}"), 0o600))

	ev := nextEvent(t, events, func(ev ports.WatchEvent) bool { return ev.Path == path })
	assert.Contains(t, []ports.WatchOp{ports.OpCreate, ports.OpWrite}, ev.Operation)
}

func TestWatcher_WatchesNewDirectories(t *testing.T) {
	root := t.TempDir()
	events, _ := startWatcher(t, root)

	dir := filepath.Join(root, "js")
	require.NoError(t, os.Mkdir(dir, 0o750))
	nextEvent(t, events, func(ev ports.WatchEvent) bool { return ev.Path == dir })

	path := filepath.Join(dir, "app.js")
	require.NoError(t, os.WriteFile(path, []byte("1"), 0o600))
	nextEvent(t, events, func(ev ports.WatchEvent) bool { return ev.Path == path })
}

func TestWatcher_SkipsIgnoredDirectories(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules", "pkg"), 0o750))
	events, _ := startWatcher(t, root)

	require.NoError(t, os.WriteFile(filepath.Join(root, "node_modules", "pkg", "x.js"), []byte("1"), 0o600))
	marker := filepath.Join(root, "marker")
	require.NoError(t, os.WriteFile(marker, []byte("1"), 0o600))

	ev := nextEvent(t, events, func(ports.WatchEvent) bool { return true })
	assert.Equal(t, marker, ev.Path)
}

func TestWatcher_ClosesOnCancel(t *testing.T) {
	events, cancel := startWatcher(t, t.TempDir())
	cancel()

	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("event stream not closed")
	}
}
