// Package watcher implements the recursive directory observer described
// by the core spec: it watches a root directory tree for the lifetime of
// the process and emits a FileNotification for every regular-file
// create/modify/delete it sees, re-registering subdirectories as they
// appear and disappear and back-filling synthetic Created events for
// files found inside a newly created subtree.
package watcher

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kepler-labs/filedex/fskind"
	"github.com/kepler-labs/filedex/model"
)

// IgnoreChecker lets the watcher skip whole subtrees (vendor directories,
// .git, build output) without ever placing an OS watch on them, and skip
// individual files the domain stack has decided are not interesting.
// A nil IgnoreChecker means "ignore nothing".
type IgnoreChecker interface {
	ShouldIgnoreDir(absolutePath string) bool
	ShouldIgnore(absolutePath string) bool
}

type noopIgnoreChecker struct{}

func (noopIgnoreChecker) ShouldIgnoreDir(string) bool { return false }
func (noopIgnoreChecker) ShouldIgnore(string) bool    { return false }

// Watcher recursively watches rootDir and emits FileNotification for
// every regular file change it observes beneath it.
type Watcher struct {
	id            string
	rootDir       string
	fsWatcher     *fsnotify.Watcher
	ignoreChecker IgnoreChecker
	logger        zerolog.Logger

	out chan model.FileNotification

	mu              sync.Mutex // owns watchedFolders + needsReregister; single-owner per spec §5
	watchedFolders  map[string]struct{}
	needsReregister bool

	closeOnce sync.Once
	closed    chan struct{}
}

// New constructs a Watcher rooted at rootDir. rootDir must exist and be
// a directory; otherwise New fails with a *fskind.ConfigError and starts
// nothing. The OS watch service is populated synchronously before New
// returns — Start must still be called to begin delivering events.
func New(rootDir string, ignoreChecker IgnoreChecker, logger zerolog.Logger) (*Watcher, error) {
	info, err := os.Stat(rootDir)
	if err != nil {
		return nil, &fskind.ConfigError{Path: rootDir, Err: err}
	}
	if !info.IsDir() {
		return nil, &fskind.ConfigError{Path: rootDir, Err: os.ErrInvalid}
	}

	if ignoreChecker == nil {
		ignoreChecker = noopIgnoreChecker{}
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, &fskind.ConfigError{Path: rootDir, Err: err}
	}

	w := &Watcher{
		id:             uuid.NewString(),
		rootDir:        rootDir,
		fsWatcher:      fsWatcher,
		ignoreChecker:  ignoreChecker,
		logger:         logger.With().Str("component", "watcher").Logger(),
		out:            make(chan model.FileNotification, 256),
		watchedFolders: make(map[string]struct{}),
		closed:         make(chan struct{}),
	}

	if err := w.registerTree(rootDir); err != nil {
		fsWatcher.Close()
		return nil, &fskind.ConfigError{Path: rootDir, Err: err}
	}

	return w, nil
}

// Events returns the receive-only stream of FileNotification. Directory
// create/delete and any event concerning an ignored path never reach
// this channel.
func (w *Watcher) Events() <-chan model.FileNotification {
	return w.out
}

// Close cancels the watcher: the OS watch service is closed, the worker
// loop exits, and Events() is closed. Safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.closed)
		err = w.fsWatcher.Close()
	})
	return err
}

// registerTree walks dir and registers every non-ignored subdirectory
// with the OS watch service, recording each in watchedFolders.
func (w *Watcher) registerTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && w.ignoreChecker.ShouldIgnoreDir(path) {
			return filepath.SkipDir
		}
		if addErr := w.fsWatcher.Add(path); addErr != nil {
			w.logger.Warn().Err(addErr).Str("path", path).Msg("failed to watch directory")
			return nil
		}
		w.mu.Lock()
		w.watchedFolders[path] = struct{}{}
		w.mu.Unlock()
		return nil
	})
}

// backfill synthesizes a Created FileNotification for every regular,
// non-ignored file already present under dir. Used when a new
// subdirectory appears: the watch key for it may not be active yet, so
// files written into it between creation and re-registration would
// otherwise never be observed.
func (w *Watcher) backfill(dir string) {
	_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != dir && w.ignoreChecker.ShouldIgnoreDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if w.ignoreChecker.ShouldIgnore(path) {
			return nil
		}
		info, statErr := d.Info()
		if statErr != nil {
			// Created and deleted faster than we could stat it: not an error.
			w.logger.Debug().Str("path", path).Msg("backfill: file vanished before stat")
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		w.emit(model.FileNotification{Kind: model.Created, Path: path, ModTime: info.ModTime()})
		return nil
	})
}

// Start runs the worker loop that blocks on the OS watch service and
// translates raw events into FileNotification. It is the watcher's sole
// producer on Events() and must run on its own goroutine for the
// lifetime of the watcher.
func (w *Watcher) Start() {
	defer close(w.out)

	for {
		select {
		case <-w.closed:
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				w.logger.Warn().Err(&fskind.WatchServiceFailure{Err: os.ErrClosed}).Msg("watch service closed its event channel")
				return
			}
			w.handleEvent(event)
			w.maybeReregister()

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				w.logger.Warn().Err(&fskind.WatchServiceFailure{Err: os.ErrClosed}).Msg("watch service closed its error channel")
				return
			}
			w.logger.Warn().Err(err).Msg("watch service error")
		}
	}
}

func (w *Watcher) emit(n model.FileNotification) {
	select {
	case w.out <- n:
	case <-w.closed:
	}
}

// handleEvent classifies one raw fsnotify event and either emits a
// FileNotification or, for a directory create/delete, marks
// needsReregister and (for create) kicks off a back-fill walk.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	switch {
	case event.Has(fsnotify.Create):
		w.handleCreate(path)
	case event.Has(fsnotify.Write):
		w.handleModify(path)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.handleDelete(path)
	}
}

func (w *Watcher) handleCreate(path string) {
	info, err := os.Stat(path)
	if err != nil {
		// Created and deleted before we could stat it: log and drop.
		w.logger.Debug().Str("path", path).Msg("create: file vanished before stat")
		return
	}

	if info.IsDir() {
		if w.ignoreChecker.ShouldIgnoreDir(path) {
			return
		}
		w.mu.Lock()
		w.needsReregister = true
		w.mu.Unlock()
		// Synthesize Created events for everything already inside the new
		// subtree; the watch key for it is not guaranteed active yet.
		w.backfill(path)
		return
	}

	if w.ignoreChecker.ShouldIgnore(path) {
		return
	}
	if !info.Mode().IsRegular() {
		return
	}
	w.emit(model.FileNotification{Kind: model.Created, Path: path, ModTime: info.ModTime()})
}

func (w *Watcher) handleModify(path string) {
	info, err := os.Stat(path)
	if err != nil {
		w.logger.Debug().Str("path", path).Msg("modify: file vanished before stat")
		return
	}
	if info.IsDir() {
		return
	}
	if w.ignoreChecker.ShouldIgnore(path) {
		return
	}
	if !info.Mode().IsRegular() {
		return
	}
	w.emit(model.FileNotification{Kind: model.Modified, Path: path, ModTime: info.ModTime()})
}

func (w *Watcher) handleDelete(path string) {
	w.mu.Lock()
	_, wasDir := w.watchedFolders[path]
	if wasDir {
		delete(w.watchedFolders, path)
		w.needsReregister = true
	}
	w.mu.Unlock()

	if wasDir {
		// Directory deletions are consumed internally, never forwarded.
		return
	}

	if w.ignoreChecker.ShouldIgnore(path) {
		return
	}
	w.emit(model.FileNotification{Kind: model.Deleted, Path: path})
}

// maybeReregister rebuilds the watch set from scratch when a directory
// create/delete was observed since the last pass. Cancelling and
// re-walking is simpler and safer than patching the existing set
// incrementally, and runs only when the tree shape actually changed.
func (w *Watcher) maybeReregister() {
	w.mu.Lock()
	if !w.needsReregister {
		w.mu.Unlock()
		return
	}
	w.needsReregister = false
	folders := make([]string, 0, len(w.watchedFolders))
	for f := range w.watchedFolders {
		folders = append(folders, f)
	}
	w.watchedFolders = make(map[string]struct{})
	w.mu.Unlock()

	for _, f := range folders {
		if err := w.fsWatcher.Remove(f); err != nil {
			// Already gone; fine.
			w.logger.Debug().Err(err).Str("path", f).Msg("reregister: remove failed, already gone")
		}
	}

	if err := w.registerTree(w.rootDir); err != nil {
		w.logger.Warn().Err(err).Msg("reregister: re-walk failed")
	}
}
