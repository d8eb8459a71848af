package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/hashsum/pkg/hashsum/cache"
	"github.com/jamesainslie/hashsum/pkg/hashsum/manifest"
	"github.com/jamesainslie/hashsum/pkg/hashsum/pathutil"
	"github.com/jamesainslie/hashsum/pkg/hashsum/verify"
)

type result struct {
	report *verify.Report
	err    error
}

func setupManifest(t *testing.T) (dir, path string) {
	t.Helper()
	dir = t.TempDir()
	for name, content := range map[string]string{"a.txt": "hello", "b.txt": "world"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	path, err := manifest.Compute(
		[]string{filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt")},
		filepath.Join(dir, "sums.sha256"),
		manifest.Options{},
	)
	require.NoError(t, err)
	return dir, path
}

func startWatcher(t *testing.T, path string) (*Watcher, <-chan result) {
	t.Helper()
	w, err := New(path, Options{
		Verify:   verify.Options{Cache: cache.New()},
		Debounce: 20 * time.Millisecond,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	results := make(chan result, 16)
	go func() {
		_ = w.Run(ctx, func(r *verify.Report, err error) {
			results <- result{r, err}
		})
	}()
	return w, results
}

func next(t *testing.T, results <-chan result) result {
	t.Helper()
	select {
	case r := <-results:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for report")
		return result{}
	}
}

func TestRunReportsInitialCheck(t *testing.T) {
	t.Parallel()

	dir, path := setupManifest(t)
	w, results := startWatcher(t, path)

	r := next(t, results)
	require.NoError(t, r.err)
	assert.True(t, r.report.OK())
	assert.Len(t, r.report.Matched, 2)

	resolved, err := pathutil.Resolve(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{resolved}, w.Dirs())
}

func TestRunDetectsModification(t *testing.T) {
	t.Parallel()

	dir, path := setupManifest(t)
	_, results := startWatcher(t, path)
	require.True(t, next(t, results).report.OK())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("changed"), 0o644))

	r := next(t, results)
	require.NoError(t, r.err)
	require.Len(t, r.report.Modified, 1)
	assert.Equal(t, "a.txt", filepath.Base(r.report.Modified[0]))
}

func TestRunDetectsRemoval(t *testing.T) {
	t.Parallel()

	dir, path := setupManifest(t)
	_, results := startWatcher(t, path)
	require.True(t, next(t, results).report.OK())

	require.NoError(t, os.Remove(filepath.Join(dir, "b.txt")))

	r := next(t, results)
	require.NoError(t, r.err)
	require.Len(t, r.report.Missing, 1)
	assert.Equal(t, "b.txt", filepath.Base(r.report.Missing[0]))
}

func TestRunWaitsForManifest(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(file, []byte("hello"), 0o644))
	path := filepath.Join(dir, "sums.sha256")

	w, results := startWatcher(t, path)

	r := next(t, results)
	require.Error(t, r.err)
	resolved, err := pathutil.Resolve(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{resolved}, w.Dirs())

	_, err = manifest.Compute([]string{file}, path, manifest.Options{})
	require.NoError(t, err)

	r = next(t, results)
	require.NoError(t, r.err)
	assert.True(t, r.report.OK())
	assert.Len(t, r.report.Matched, 1)
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	_, path := setupManifest(t)
	w, err := New(path, Options{})
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, nil) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunAfterClose(t *testing.T) {
	t.Parallel()

	_, path := setupManifest(t)
	w, err := New(path, Options{})
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	assert.ErrorIs(t, w.Run(context.Background(), nil), ErrClosed)
}

func TestRelevant(t *testing.T) {
	t.Parallel()

	_, path := setupManifest(t)
	w, err := New(path, Options{})
	require.NoError(t, err)
	defer w.Close()

	w.check(nil)
	tracked := filepath.Join(filepath.Dir(w.Manifest()), "a.txt")

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"write to entry", fsnotify.Event{Name: tracked, Op: fsnotify.Write}, true},
		{"manifest rewritten", fsnotify.Event{Name: w.Manifest(), Op: fsnotify.Create}, true},
		{"chmod only", fsnotify.Event{Name: tracked, Op: fsnotify.Chmod}, false},
		{"unrelated file", fsnotify.Event{Name: tracked + ".swp", Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.relevant(tt.event))
		})
	}
}
