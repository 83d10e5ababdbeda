package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/kepler-labs/filedex/model"
)

// awaitNotification reads notifications off ch until pred matches one, or timeout.
func awaitNotification(t *testing.T, ch <-chan model.FileNotification, timeout time.Duration, pred func(model.FileNotification) bool) model.FileNotification {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case n, ok := <-ch:
			if !ok {
				t.Fatal("events channel closed before matching notification arrived")
			}
			if pred(n) {
				return n
			}
		case <-deadline:
			t.Fatal("timed out waiting for matching notification")
		}
	}
}

func Test_New_RejectsMissingRoot(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "does-not-exist"), nil, zerolog.Nop())
	require.Error(t, err)
}

func Test_New_RejectsNonDirectory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	_, err := New(file, nil, zerolog.Nop())
	require.Error(t, err)
}

// Scenario 1 (partial): file creation is observed and classified Created.
func Test_CreateFile_EmitsCreated(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, nil, zerolog.Nop())
	require.NoError(t, err)
	defer w.Close()
	go w.Start()

	target := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(target, []byte("hello world"), 0644))

	n := awaitNotification(t, w.Events(), 2*time.Second, func(n model.FileNotification) bool {
		return n.Path == target
	})
	require.Equal(t, model.Created, n.Kind)
}

// Scenario 4: subdirectory back-fill. A file created inside a brand new
// subdirectory must eventually be observed as Created, even though the
// watch key for the subdirectory may not be registered yet when the
// file is written.
func Test_SubdirBackfill_EmitsCreatedForNewFile(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, nil, zerolog.Nop())
	require.NoError(t, err)
	defer w.Close()
	go w.Start()

	sub := filepath.Join(dir, "s")
	require.NoError(t, os.Mkdir(sub, 0755))

	target := filepath.Join(sub, "x.txt")
	require.NoError(t, os.WriteFile(target, []byte("alpha"), 0644))

	n := awaitNotification(t, w.Events(), 5*time.Second, func(n model.FileNotification) bool {
		return n.Path == target
	})
	require.Equal(t, model.Created, n.Kind)
}

// Scenario 5 (watcher side): deleting a file is observed as Deleted, not
// misclassified as a directory deletion.
func Test_DeleteFile_EmitsDeleted(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(target, []byte("hello world"), 0644))

	w, err := New(dir, nil, zerolog.Nop())
	require.NoError(t, err)
	defer w.Close()
	go w.Start()

	require.NoError(t, os.Remove(target))

	n := awaitNotification(t, w.Events(), 2*time.Second, func(n model.FileNotification) bool {
		return n.Path == target
	})
	require.Equal(t, model.Deleted, n.Kind)
}

// Directory deletion must never be forwarded as a FileNotification.
func Test_DeleteSubdirectory_NeverForwarded(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "s")
	require.NoError(t, os.Mkdir(sub, 0755))

	w, err := New(dir, nil, zerolog.Nop())
	require.NoError(t, err)
	defer w.Close()
	go w.Start()

	require.NoError(t, os.Remove(sub))

	// Give the watcher a moment, then create an unrelated sentinel file
	// and confirm it's the first (and only kind of) event delivered.
	sentinel := filepath.Join(dir, "sentinel.txt")
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(sentinel, []byte("ok"), 0644))

	n := awaitNotification(t, w.Events(), 2*time.Second, func(n model.FileNotification) bool {
		return n.Path == sentinel || n.Path == sub
	})
	require.NotEqual(t, sub, n.Path)
	require.Equal(t, model.Created, n.Kind)
}

type denyListIgnore struct{ names map[string]bool }

func (d denyListIgnore) ShouldIgnoreDir(path string) bool {
	return d.names[filepath.Base(path)]
}
func (d denyListIgnore) ShouldIgnore(path string) bool {
	return d.names[filepath.Base(path)]
}

func Test_IgnoredDirectory_NeverRegistered(t *testing.T) {
	dir := t.TempDir()
	ignored := filepath.Join(dir, "vendor")
	require.NoError(t, os.Mkdir(ignored, 0755))

	w, err := New(dir, denyListIgnore{names: map[string]bool{"vendor": true}}, zerolog.Nop())
	require.NoError(t, err)
	defer w.Close()

	_, watched := w.watchedFolders[ignored]
	require.False(t, watched)
}

func Test_Close_StopsEventDelivery(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, nil, zerolog.Nop())
	require.NoError(t, err)
	go w.Start()
	require.NoError(t, w.Close())

	select {
	case _, ok := <-w.Events():
		require.False(t, ok, "events channel should be closed after Close")
	case <-time.After(2 * time.Second):
		t.Fatal("events channel did not close after Close")
	}
}
