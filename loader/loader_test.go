package loader

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/kepler-labs/filedex/model"
	"github.com/kepler-labs/filedex/watcher"
)

func newTestLoader(t *testing.T, dir string) *Loader {
	t.Helper()
	w, err := watcher.New(dir, nil, zerolog.Nop())
	require.NoError(t, err)
	l := New(w, Config{DelayBeforeRead: 50 * time.Millisecond}, zerolog.Nop())
	go l.Start()
	t.Cleanup(func() { l.Close() })
	return l
}

func awaitLoaded(t *testing.T, ch <-chan model.LoadedFileNotification, timeout time.Duration, pred func(model.LoadedFileNotification) bool) model.LoadedFileNotification {
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
			t.Fatal("timed out waiting for matching loaded notification")
		}
	}
}

// Scenario 1 / P2: a settled write is eventually reflected with the
// correct text.
func Test_CreateFile_EmitsCreatedWithText(t *testing.T) {
	dir := t.TempDir()
	l := newTestLoader(t, dir)

	target := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(target, []byte("hello world"), 0644))

	n := awaitLoaded(t, l.Events(), 3*time.Second, func(n model.LoadedFileNotification) bool {
		return n.Path == target
	})
	require.Equal(t, model.Created, n.Kind)
	require.Equal(t, "hello world", n.Text)
	require.False(t, n.TextTimestamp.IsZero())
}

// Scenario 5: deletion is emitted immediately, with no text.
func Test_DeleteFile_EmitsDeletedWithNoText(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0644))

	l := newTestLoader(t, dir)
	require.NoError(t, os.Remove(target))

	n := awaitLoaded(t, l.Events(), 3*time.Second, func(n model.LoadedFileNotification) bool {
		return n.Path == target
	})
	require.Equal(t, model.Deleted, n.Kind)
	require.Empty(t, n.Text)
	require.True(t, n.TextTimestamp.IsZero())
}

// P6 (end-to-end): rapid create+rewrite within the coalescing window
// settles to a single Created carrying the final contents.
func Test_RapidRewriteWithinWindow_SettlesToSingleCreatedWithFinalText(t *testing.T) {
	dir := t.TempDir()
	l := newTestLoader(t, dir)

	target := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(target, []byte("v1"), 0644))
	require.NoError(t, os.WriteFile(target, []byte("v2-final"), 0644))

	n := awaitLoaded(t, l.Events(), 3*time.Second, func(n model.LoadedFileNotification) bool {
		return n.Path == target
	})
	require.Equal(t, model.Created, n.Kind)
	require.Equal(t, "v2-final", n.Text)
}

// Non-UTF-8 contents are dropped silently: no LoadedFileNotification for
// the path, ever.
func Test_NonUTF8File_NeverEmitted(t *testing.T) {
	dir := t.TempDir()
	l := newTestLoader(t, dir)

	bad := filepath.Join(dir, "bad.bin")
	require.NoError(t, os.WriteFile(bad, []byte{0xff, 0xfe, 0xfd}, 0644))

	sentinel := filepath.Join(dir, "sentinel.txt")
	require.NoError(t, os.WriteFile(sentinel, []byte("ok"), 0644))

	n := awaitLoaded(t, l.Events(), 3*time.Second, func(n model.LoadedFileNotification) bool {
		return n.Path == sentinel
	})
	require.Equal(t, "ok", n.Text)
	require.NotEqual(t, bad, n.Path)
}

// A NUL byte anywhere in the leading window marks a file as binary and
// drops it before the UTF-8 check ever runs, even though a lone NUL
// byte doesn't by itself make a byte slice invalid UTF-8.
func Test_BinaryFile_NeverEmitted(t *testing.T) {
	dir := t.TempDir()
	l := newTestLoader(t, dir)

	bin := filepath.Join(dir, "image.png")
	require.NoError(t, os.WriteFile(bin, []byte{'P', 'N', 'G', 0x00, 0x0d, 0x0a}, 0644))

	sentinel := filepath.Join(dir, "sentinel.txt")
	require.NoError(t, os.WriteFile(sentinel, []byte("ok"), 0644))

	n := awaitLoaded(t, l.Events(), 3*time.Second, func(n model.LoadedFileNotification) bool {
		return n.Path == sentinel
	})
	require.Equal(t, "ok", n.Text)
	require.NotEqual(t, bin, n.Path)
}

func Test_Close_StopsEmission(t *testing.T) {
	dir := t.TempDir()
	w, err := watcher.New(dir, nil, zerolog.Nop())
	require.NoError(t, err)
	l := New(w, Config{DelayBeforeRead: 10 * time.Millisecond}, zerolog.Nop())
	go l.Start()
	require.NoError(t, l.Close())

	select {
	case _, ok := <-l.Events():
		require.False(t, ok, "events channel should be closed after Close")
	case <-time.After(2 * time.Second):
		t.Fatal("events channel did not close after Close")
	}
}
