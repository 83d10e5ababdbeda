// Package loader turns a Watcher's raw FileNotification stream into a
// stream of LoadedFileNotification whose text, when present, is
// guaranteed to reflect file contents that were not concurrently being
// written. It owns the debounce/coalesce window and the race-free read
// protocol described alongside the Watcher.
package loader

import (
	"context"
	"os"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"github.com/kepler-labs/filedex/fskind"
	"github.com/kepler-labs/filedex/internal/invariant"
	"github.com/kepler-labs/filedex/language"
	"github.com/kepler-labs/filedex/metrics"
	"github.com/kepler-labs/filedex/model"
	"github.com/kepler-labs/filedex/watcher"
)

// DefaultDelayBeforeRead is the coalescing window and race-free-read
// pre-read delay used when Config.DelayBeforeRead is zero.
const DefaultDelayBeforeRead = 200 * time.Millisecond

// Config tunes a Loader.
type Config struct {
	// DelayBeforeRead is both the debounce window and the wait before a
	// race-free read attempt. Zero selects DefaultDelayBeforeRead.
	DelayBeforeRead time.Duration
	// MaxConcurrentReads bounds how many files are read in parallel.
	// Zero selects a small fixed default.
	MaxConcurrentReads int
	// Metrics records successful reads and discards. A nil Metrics is a
	// safe no-op.
	Metrics *metrics.Metrics
}

// Loader wraps a *watcher.Watcher, coalesces its events, and emits
// LoadedFileNotification on Events().
type Loader struct {
	watcher *watcher.Watcher
	cfg     Config
	logger  zerolog.Logger
	inv     *invariant.Handler

	debouncer *Debouncer
	out       chan model.LoadedFileNotification

	closeOnce sync.Once
	closed    chan struct{}
	done      chan struct{}
}

// New wraps an already-constructed Watcher. The Loader takes ownership:
// closing the Loader closes the Watcher.
func New(w *watcher.Watcher, cfg Config, logger zerolog.Logger) *Loader {
	if cfg.DelayBeforeRead <= 0 {
		cfg.DelayBeforeRead = DefaultDelayBeforeRead
	}
	if cfg.MaxConcurrentReads <= 0 {
		cfg.MaxConcurrentReads = 8
	}

	return &Loader{
		watcher:   w,
		cfg:       cfg,
		logger:    logger.With().Str("component", "loader").Logger(),
		inv:       invariant.New(),
		debouncer: NewDebouncer(cfg.DelayBeforeRead),
		out:       make(chan model.LoadedFileNotification, 256),
		closed:    make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Events returns the receive-only stream of LoadedFileNotification.
func (l *Loader) Events() <-chan model.LoadedFileNotification {
	return l.out
}

// Close cascades to the inner Watcher and stops emission once the
// in-flight work drains.
func (l *Loader) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.closed)
		err = l.watcher.Close()
		l.debouncer.Close()
		<-l.done
	})
	return err
}

// Start runs the Watcher and the coalescing/read pipeline. Blocks until
// the Watcher's event stream ends or Close is called.
func (l *Loader) Start() {
	go l.watcher.Start()

	feedDone := make(chan struct{})
	go func() {
		defer close(feedDone)
		for n := range l.watcher.Events() {
			l.debouncer.Add(n)
		}
	}()

	defer close(l.out)
	defer close(l.done)

	for {
		select {
		case <-l.closed:
			<-feedDone
			return
		case batch, ok := <-l.debouncer.Output():
			if !ok {
				<-feedDone
				return
			}
			l.processBatch(batch)
		}
	}
}

// processBatch dispatches the race-free read protocol for every
// notification in a coalesced batch, bounded by MaxConcurrentReads.
func (l *Loader) processBatch(batch []model.FileNotification) {
	p := pool.New().WithMaxGoroutines(l.cfg.MaxConcurrentReads)
	for _, n := range batch {
		n := n
		p.Go(func() { l.handle(n) })
	}
	p.Wait()
}

func (l *Loader) handle(n model.FileNotification) {
	if n.Kind == model.Deleted {
		l.emit(model.LoadedFileNotification{FileNotification: n})
		return
	}

	loaded, ok := l.readRaceFree(n)
	if !ok {
		return
	}
	l.emit(loaded)
}

// readRaceFree implements the stat/wait/read/re-stat protocol: a read is
// only trusted if the file's mtime did not change between the triggering
// event and the moment the read completed.
func (l *Loader) readRaceFree(n model.FileNotification) (model.LoadedFileNotification, bool) {
	select {
	case <-time.After(l.cfg.DelayBeforeRead):
	case <-l.closed:
		return model.LoadedFileNotification{}, false
	}

	data, err := os.ReadFile(n.Path)
	if err != nil {
		l.logger.Debug().Err(&fskind.TransientFsError{Path: n.Path, Err: err}).Msg("vanished before read")
		l.cfg.Metrics.RecordLoaderRead(context.Background(), "vanished")
		return model.LoadedFileNotification{}, false
	}
	readCompleted := time.Now()

	info, err := os.Stat(n.Path)
	if err != nil {
		l.logger.Debug().Err(&fskind.TransientFsError{Path: n.Path, Err: err}).Msg("vanished after read")
		l.cfg.Metrics.RecordLoaderRead(context.Background(), "vanished")
		return model.LoadedFileNotification{}, false
	}
	m1 := info.ModTime()

	if m1.After(n.ModTime) {
		l.logger.Debug().Str("path", n.Path).Msg("concurrent write detected, discarding read")
		l.cfg.Metrics.RecordLoaderRead(context.Background(), "race")
		return model.LoadedFileNotification{}, false
	}
	l.inv.Require(!m1.Before(n.ModTime), "re-stat mtime went backwards")
	if m1.Before(n.ModTime) {
		l.logger.Warn().Err(&fskind.InvariantViolation{Path: n.Path, Message: "mtime decreased between event and re-stat"}).Msg("invariant violated")
		l.cfg.Metrics.RecordLoaderRead(context.Background(), "race")
		return model.LoadedFileNotification{}, false
	}

	if language.IsBinaryContent(data) {
		l.logger.Debug().Err(&fskind.EncodingError{Path: n.Path}).Msg("dropping binary file")
		l.cfg.Metrics.RecordLoaderRead(context.Background(), "encoding")
		return model.LoadedFileNotification{}, false
	}
	if !utf8.Valid(data) {
		l.logger.Debug().Err(&fskind.EncodingError{Path: n.Path}).Msg("dropping non-UTF-8 file")
		l.cfg.Metrics.RecordLoaderRead(context.Background(), "encoding")
		return model.LoadedFileNotification{}, false
	}

	l.cfg.Metrics.RecordLoaderRead(context.Background(), "")
	return model.LoadedFileNotification{
		FileNotification: n,
		Text:             string(data),
		TextTimestamp:    readCompleted,
	}, true
}

func (l *Loader) emit(n model.LoadedFileNotification) {
	select {
	case l.out <- n:
	case <-l.closed:
	}
}
