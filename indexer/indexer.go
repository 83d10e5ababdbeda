// Package indexer binds a Loader's output stream to an IndexDb and
// performs the initial directory scan, exactly as spec.md §4.4
// describes. It is the only writer into IndexDb and fans every update it
// makes out to zero or more Observer secondary indexes.
package indexer

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"github.com/kepler-labs/filedex/fskind"
	"github.com/kepler-labs/filedex/ignore"
	"github.com/kepler-labs/filedex/indexdb"
	"github.com/kepler-labs/filedex/language"
	"github.com/kepler-labs/filedex/loader"
	"github.com/kepler-labs/filedex/metrics"
	"github.com/kepler-labs/filedex/model"
	"github.com/kepler-labs/filedex/tokenizer"
)

// Config tunes an Indexer.
type Config struct {
	// Tokenize is the injected tokenizer. Nil selects tokenizer.Default.
	Tokenize tokenizer.Func
	// MaxConcurrentScan bounds the worker pool used by the initial scan.
	// Zero selects a small fixed default.
	MaxConcurrentScan int
	// Metrics records IndexDb writes and dispatched notification kinds.
	// A nil Metrics is a safe no-op.
	Metrics *metrics.Metrics
}

// Indexer owns a *loader.Loader, writes every update into an *indexdb.IndexDb,
// and fans the same updates out to any registered Observer.
type Indexer struct {
	rootDir       string
	loader        *loader.Loader
	db            *indexdb.IndexDb
	ignoreMatcher *ignore.Matcher
	tokenize      tokenizer.Func
	maxScan       int
	metrics       *metrics.Metrics
	logger        zerolog.Logger

	mu        sync.Mutex
	observers []Observer

	mtimeMu sync.Mutex
	mtimes  map[string]time.Time

	scanDone chan struct{}
}

// New constructs an Indexer. The Indexer takes ownership of ld: closing
// the Indexer closes ld (and cascades to its Watcher).
func New(rootDir string, ld *loader.Loader, db *indexdb.IndexDb, ignoreMatcher *ignore.Matcher, cfg Config, logger zerolog.Logger) *Indexer {
	tokenize := cfg.Tokenize
	if tokenize == nil {
		tokenize = tokenizer.Default
	}
	maxScan := cfg.MaxConcurrentScan
	if maxScan <= 0 {
		maxScan = 8
	}

	return &Indexer{
		rootDir:       rootDir,
		loader:        ld,
		db:            db,
		ignoreMatcher: ignoreMatcher,
		tokenize:      tokenize,
		maxScan:       maxScan,
		metrics:       cfg.Metrics,
		logger:        logger.With().Str("component", "indexer").Logger(),
		mtimes:        make(map[string]time.Time),
		scanDone:      make(chan struct{}),
	}
}

// RegisterObserver adds a secondary index to the fan-out list. Must be
// called before Run.
func (ix *Indexer) RegisterObserver(o Observer) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.observers = append(ix.observers, o)
}

// AwaitInitialScan blocks until the initial directory walk has
// completed, regardless of whether individual files succeeded.
func (ix *Indexer) AwaitInitialScan() {
	<-ix.scanDone
}

// Close cascades to the inner Loader (and its Watcher).
func (ix *Indexer) Close() error {
	return ix.loader.Close()
}

// Run performs the initial scan, signals completion, then consumes the
// Loader stream indefinitely. Blocks until the Loader's stream ends.
func (ix *Indexer) Run() {
	go ix.loader.Start()

	ix.initialScan()
	close(ix.scanDone)

	for n := range ix.loader.Events() {
		ix.dispatch(n)
	}
}

// initialScan walks rootDir synchronously and installs a SingleFileIndex
// for every regular, non-ignored, UTF-8 file found, via a bounded worker
// pool. Callers may query the IndexDb concurrently and will observe a
// monotonically growing partial view.
func (ix *Indexer) initialScan() {
	p := pool.New().WithMaxGoroutines(ix.maxScan)

	_ = filepath.WalkDir(ix.rootDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != ix.rootDir && ix.ignoreMatcher.ShouldIgnoreDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if ix.ignoreMatcher.ShouldIgnore(path) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		if ix.ignoreMatcher.IsFileTooLarge(info.Size()) {
			return nil
		}

		p.Go(func() { ix.scanOne(path, info.ModTime()) })
		return nil
	})

	p.Wait()
}

func (ix *Indexer) scanOne(path string, modTime time.Time) {
	text, ok := ix.readUTF8(path)
	if !ok {
		return
	}
	ix.installAndNotify(path, text, time.Now(), modTime, true)
}

// dispatch implements the Loader-event-to-IndexDb-call table from
// spec.md §4.4, extended with the ignore-file reload trigger and the
// Observer fan-out from SPEC_FULL.md §4.4.
func (ix *Indexer) dispatch(n model.LoadedFileNotification) {
	ix.metrics.RecordWatcherEvent(context.Background(), n.Kind.String())

	if n.Kind == model.Deleted {
		ix.db.DeleteFileIndex(n.Path)
		ix.metrics.RecordIndexDbWrite(context.Background(), "delete")
		ix.deleteMtime(n.Path)
		ix.notifyRemove(n.Path)
		return
	}

	if isIgnoreFile(n.Path) {
		ix.ignoreMatcher.Reload()
		ix.logger.Info().Str("path", n.Path).Msg("reloaded ignore rules")
		return
	}
	if ix.ignoreMatcher.ShouldIgnore(n.Path) {
		return
	}
	if ix.ignoreMatcher.IsFileTooLarge(int64(len(n.Text))) {
		return
	}

	ix.installAndNotify(n.Path, n.Text, n.TextTimestamp, n.ModTime, n.Kind == model.Created)
}

// installAndNotify tokenizes text, writes it into IndexDb via the
// unconditional (create) or revision-gated (modify) call, then fans the
// same update out to every registered Observer. revision is the
// wall-clock instant the read that produced text completed (what IndexDb
// stores and compares on); mtime is the filesystem modification time
// reported alongside that read, tracked separately for Reconcile to
// compare against the disk.
func (ix *Indexer) installAndNotify(path, text string, revision, mtime time.Time, create bool) {
	entry := model.SingleFileIndex{
		Tokens:   ix.toPositions(path, text),
		Revision: revision,
	}
	if create {
		ix.db.CreateFileIndex(path, entry)
		ix.metrics.RecordIndexDbWrite(context.Background(), "create")
	} else {
		ix.db.ModifyFileIndex(path, entry)
		ix.metrics.RecordIndexDbWrite(context.Background(), "modify")
	}
	ix.setMtime(path, mtime)

	relPath := ix.relativePath(path)
	lang := language.DetectLanguage(path)
	for _, obs := range ix.snapshotObservers() {
		if err := obs.IndexFile(relPath, path, text, lang, mtime); err != nil {
			ix.logger.Debug().Err(&fskind.ObserverError{Observer: "observer", Path: path, Err: err}).Msg("observer failed to absorb update")
		}
	}
}

func (ix *Indexer) notifyRemove(path string) {
	relPath := ix.relativePath(path)
	for _, obs := range ix.snapshotObservers() {
		if err := obs.RemoveFile(relPath); err != nil {
			ix.logger.Debug().Err(&fskind.ObserverError{Observer: "observer", Path: path, Err: err}).Msg("observer failed to absorb removal")
		}
	}
}

// setMtime records the filesystem mtime last observed for path,
// independent of IndexDb's Revision (which is a read-completion instant,
// not an mtime — see model.SingleFileIndex).
func (ix *Indexer) setMtime(path string, mtime time.Time) {
	ix.mtimeMu.Lock()
	defer ix.mtimeMu.Unlock()
	ix.mtimes[path] = mtime
}

func (ix *Indexer) deleteMtime(path string) {
	ix.mtimeMu.Lock()
	defer ix.mtimeMu.Unlock()
	delete(ix.mtimes, path)
}

// mtimeSnapshot returns a copy of the path -> mtime map so Reconcile can
// compare against it without holding the lock for the whole walk.
func (ix *Indexer) mtimeSnapshot() map[string]time.Time {
	ix.mtimeMu.Lock()
	defer ix.mtimeMu.Unlock()
	out := make(map[string]time.Time, len(ix.mtimes))
	for path, mtime := range ix.mtimes {
		out[path] = mtime
	}
	return out
}

func (ix *Indexer) snapshotObservers() []Observer {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	out := make([]Observer, len(ix.observers))
	copy(out, ix.observers)
	return out
}

func (ix *Indexer) relativePath(path string) string {
	rel, err := filepath.Rel(ix.rootDir, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

// readUTF8 reads path and returns its contents iff they are valid UTF-8.
// Used by the initial scan and by Reconcile; the Loader performs its own
// check for the steady-state stream.
func (ix *Indexer) readUTF8(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		ix.logger.Debug().Err(&fskind.TransientFsError{Path: path, Err: err}).Msg("scan: vanished before read")
		return "", false
	}
	if language.IsBinaryContent(data) {
		ix.logger.Debug().Err(&fskind.EncodingError{Path: path}).Msg("scan: dropping binary file")
		return "", false
	}
	if !utf8.Valid(data) {
		ix.logger.Debug().Err(&fskind.EncodingError{Path: path}).Msg("scan: dropping non-UTF-8 file")
		return "", false
	}
	return string(data), true
}

// toPositions applies ix.tokenize to text and promotes each byte range
// into a FilePosition anchored to path.
func (ix *Indexer) toPositions(path, text string) map[string][]model.FilePosition {
	raw := ix.tokenize(text)
	out := make(map[string][]model.FilePosition, len(raw))
	for token, ranges := range raw {
		positions := make([]model.FilePosition, len(ranges))
		for i, r := range ranges {
			positions[i] = model.FilePosition{FilePath: path, Start: r.Start, End: r.End}
		}
		out[token] = positions
	}
	return out
}

// Clearable is implemented by an Observer that can discard its state
// wholesale. FullReindex uses it to reset every Observer that supports
// it before rescanning; an Observer that doesn't implement it is simply
// left as-is (it will still receive the fresh IndexFile calls from the
// rescan, it just won't have had old entries removed first).
type Clearable interface {
	Clear() error
}

// FullReindex discards the current IndexDb contents and every
// Clearable Observer's state, reloads ignore rules, then performs a
// fresh initial scan. Safe to call concurrently with the steady-state
// stream; a Created/Modified event racing the scan is resolved the same
// way the initial scan and steady state always are (replace-on-write,
// revision-gated modify).
func (ix *Indexer) FullReindex() (fileCount int, duration time.Duration) {
	start := time.Now()

	ix.db.Clear()
	ix.mtimeMu.Lock()
	ix.mtimes = make(map[string]time.Time)
	ix.mtimeMu.Unlock()
	for _, obs := range ix.snapshotObservers() {
		if c, ok := obs.(Clearable); ok {
			if err := c.Clear(); err != nil {
				ix.logger.Warn().Err(err).Msg("observer failed to clear during full reindex")
			}
		}
	}
	ix.ignoreMatcher.Reload()
	ix.initialScan()

	return ix.db.FileCount(), time.Since(start)
}

// ReconcileResult holds the outcome of a single Reconcile pass.
type ReconcileResult struct {
	Missing  int // on disk but not in the index
	Stale    int // in the index but not on disk
	Modified int // on disk and indexed, but with a differing mtime
	Duration time.Duration
}

// Reconcile walks rootDir, compares it against the Indexer's record of
// indexed files and their mtimes (and, for stale entries, the paths
// IndexDb currently holds), and corrects any drift: missing and modified files are
// (re)installed via the same path as the steady-state stream, and stale
// entries are deleted. It is safe to call concurrently with Run, and is
// the self-healing counterpart to the Loader/Watcher's best-effort event
// delivery — a missed or coalesced-away event eventually gets caught
// here.
func (ix *Indexer) Reconcile() ReconcileResult {
	start := time.Now()
	var result ReconcileResult

	diskFiles := make(map[string]os.FileInfo)
	_ = filepath.WalkDir(ix.rootDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != ix.rootDir && ix.ignoreMatcher.ShouldIgnoreDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if ix.ignoreMatcher.ShouldIgnore(path) {
			return nil
		}
		info, err := d.Info()
		if err != nil || !info.Mode().IsRegular() {
			return nil
		}
		if ix.ignoreMatcher.IsFileTooLarge(info.Size()) {
			return nil
		}
		diskFiles[path] = info
		return nil
	})

	indexed := ix.db.Revisions()
	mtimes := ix.mtimeSnapshot()

	for path, info := range diskFiles {
		indexedMtime, exists := mtimes[path]
		switch {
		case !exists:
			if text, ok := ix.readUTF8(path); ok {
				ix.installAndNotify(path, text, time.Now(), info.ModTime(), true)
				ix.logger.Info().Str("path", path).Msg("reconcile: indexed missing file")
				result.Missing++
			}
		case !info.ModTime().Equal(indexedMtime):
			if text, ok := ix.readUTF8(path); ok {
				ix.installAndNotify(path, text, time.Now(), info.ModTime(), false)
				ix.logger.Info().Str("path", path).Msg("reconcile: re-indexed modified file")
				result.Modified++
			}
		}
	}

	for path := range indexed {
		if _, exists := diskFiles[path]; !exists {
			ix.db.DeleteFileIndex(path)
			ix.deleteMtime(path)
			ix.notifyRemove(path)
			ix.logger.Info().Str("path", path).Msg("reconcile: removed stale file")
			result.Stale++
		}
	}

	result.Duration = time.Since(start)
	return result
}

func isIgnoreFile(path string) bool {
	base := filepath.Base(path)
	for _, name := range ignore.IgnoreFileNames {
		if base == name {
			return true
		}
	}
	return false
}
