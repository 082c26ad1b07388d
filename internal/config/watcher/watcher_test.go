package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) handle(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func TestDebouncedWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "imebridge.toml")
	require.NoError(t, os.WriteFile(path, []byte("a = 1\n"), 0o600))

	w, err := New(WithDebounce(50 * time.Millisecond))
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	rec := &recorder{}
	w.OnChange(rec.handle)
	require.NoError(t, w.Watch(path))

	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte("a = 2\n"), 0o600))
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(120 * time.Millisecond)
	events := rec.snapshot()
	require.Len(t, events, 1)
	abs, _ := filepath.Abs(path)
	assert.Equal(t, abs, events[0].Path)
}

func TestIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "imebridge.yaml")

	w, err := New(WithDebounce(20 * time.Millisecond))
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	rec := &recorder{}
	w.OnChange(rec.handle)
	require.NoError(t, w.Watch(path))
	assert.Len(t, w.Files(), 1)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0o600))
	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, rec.snapshot())

	require.NoError(t, os.WriteFile(path, []byte("x: 1\n"), 0o600))
	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, OpCreate, rec.snapshot()[0].Op)
}

func TestHandlerPanicDoesNotStopWatcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "c.toml")

	w, err := New(WithDebounce(0))
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	rec := &recorder{}
	w.OnChange(func(Event) { panic("boom") })
	w.OnChange(rec.handle)
	require.NoError(t, w.Watch(path))

	require.NoError(t, os.WriteFile(path, []byte("a = 1\n"), 0o600))
	require.Eventually(t, func() bool { return len(rec.snapshot()) > 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestStop(t *testing.T) {
	w, err := New()
	require.NoError(t, err)
	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
	assert.ErrorIs(t, w.Watch(filepath.Join(t.TempDir(), "x.toml")), ErrStopped)
}

func TestCoalesce(t *testing.T) {
	assert.Equal(t, OpCreate, coalesce(OpCreate, OpWrite))
	assert.Equal(t, OpRemove, coalesce(OpWrite, OpRemove))
	assert.Equal(t, OpWrite, coalesce(OpRemove, OpCreate))
	assert.Equal(t, OpWrite, coalesce(OpWrite, OpWrite))
}
