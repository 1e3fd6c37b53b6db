package watch

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
	mu    sync.Mutex
	paths []string
}

func (r *recorder) record(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.paths)
}

func (r *recorder) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.paths[len(r.paths)-1]
}

func TestNew_RequiresCallback(t *testing.T) {
	t.Parallel()

	_, err := New(Options{Files: []string{t.TempDir()}})
	assert.Error(t, err)
}

func TestWatcher_DebouncesBurst(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rules := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(rules, []byte("a: 1\n"), 0o644))

	rec := &recorder{}
	w, err := New(Options{Files: []string{rules, ""}, Debounce: 50 * time.Millisecond, OnChange: rec.record})
	require.NoError(t, err)
	defer w.Close()
	assert.Equal(t, 1, w.Files())

	for i := range 5 {
		require.NoError(t, os.WriteFile(rules, []byte{byte('a' + i), ':', ' ', '1', '\n'}, 0o644))
	}

	require.Eventually(t, func() bool { return rec.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Never(t, func() bool { return rec.count() > 1 }, 200*time.Millisecond, 10*time.Millisecond)
	assert.Equal(t, rules, rec.last())
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rules := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(rules, []byte("a: 1\n"), 0o644))

	rec := &recorder{}
	w, err := New(Options{Files: []string{rules}, Debounce: 20 * time.Millisecond, OnChange: rec.record})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644))
	assert.Never(t, func() bool { return rec.count() > 0 }, 200*time.Millisecond, 10*time.Millisecond)
}

func TestWatcher_FollowsReplacedFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := filepath.Join(dir, ".devserverc.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("port: 1\n"), 0o644))

	rec := &recorder{}
	w, err := New(Options{Files: []string{cfg}, Debounce: 20 * time.Millisecond, OnChange: rec.record})
	require.NoError(t, err)
	defer w.Close()

	tmp := filepath.Join(dir, "tmp")
	require.NoError(t, os.WriteFile(tmp, []byte("port: 2\n"), 0o644))
	require.NoError(t, os.Rename(tmp, cfg))
	require.Eventually(t, func() bool { return rec.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(cfg, []byte("port: 3\n"), 0o644))
	require.Eventually(t, func() bool { return rec.count() == 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_CloseStopsCallbacks(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rules := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(rules, []byte("a: 1\n"), 0o644))

	rec := &recorder{}
	w, err := New(Options{Files: []string{rules}, Debounce: 20 * time.Millisecond, OnChange: rec.record})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	require.NoError(t, os.WriteFile(rules, []byte("b: 1\n"), 0o644))
	assert.Never(t, func() bool { return rec.count() > 0 }, 100*time.Millisecond, 10*time.Millisecond)
}
