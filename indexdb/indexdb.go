// Package indexdb implements the concurrently-readable, per-file
// revision-checked inverted index described by the core spec: a mapping
// from absolute path to the SingleFileIndex currently held for it.
package indexdb

import (
	"sync"
	"time"

	"github.com/kepler-labs/filedex/model"
)

// IndexDb stores one SingleFileIndex per path and serves token queries
// across all of them. Readers never block each other and always see a
// consistent per-file snapshot — query never observes a partially
// updated SingleFileIndex — because every write replaces a file's entry
// wholesale under the writer side of a single RWMutex; this is the fair
// reader/writer lock over the outer map the spec names as an acceptable
// implementation. Writers are serialized among themselves by the same
// lock.
type IndexDb struct {
	mu    sync.RWMutex
	files map[string]model.SingleFileIndex
}

// New returns an empty IndexDb.
func New() *IndexDb {
	return &IndexDb{files: make(map[string]model.SingleFileIndex)}
}

// CreateFileIndex installs or replaces the entry for path
// unconditionally, regardless of any existing revision.
func (db *IndexDb) CreateFileIndex(path string, entry model.SingleFileIndex) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.files[path] = entry
}

// ModifyFileIndex installs entry for path only if there is no existing
// entry, or the existing entry's revision is not strictly newer than
// entry's. A modify racing behind a newer revision already in the index
// is silently dropped.
func (db *IndexDb) ModifyFileIndex(path string, entry model.SingleFileIndex) {
	db.mu.Lock()
	defer db.mu.Unlock()

	existing, ok := db.files[path]
	if ok && existing.Revision.After(entry.Revision) {
		return
	}
	db.files[path] = entry
}

// DeleteFileIndex removes the entry for path if present; a no-op
// otherwise.
func (db *IndexDb) DeleteFileIndex(path string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.files, path)
}

// Query returns every FilePosition for the exact token needle across
// every currently indexed file, in unspecified but stable order for a
// given snapshot. Token comparison is exact string match — no case
// folding, no normalization. An empty needle returns an empty slice and
// is not an error.
func (db *IndexDb) Query(needle string) []model.FilePosition {
	if needle == "" {
		return nil
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	var results []model.FilePosition
	for _, entry := range db.files {
		if positions, ok := entry.Tokens[needle]; ok {
			results = append(results, positions...)
		}
	}
	return results
}

// FileCount returns the number of currently indexed files. Not part of
// the core spec's contract but harmless to expose and useful for status
// reporting.
func (db *IndexDb) FileCount() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.files)
}

// Clear removes every entry. Used by a full reindex to discard stale
// state before rescanning from scratch.
func (db *IndexDb) Clear() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.files = make(map[string]model.SingleFileIndex)
}

// Revisions returns a snapshot of path -> Revision for every currently
// indexed file. Used by reconciliation to diff the index against disk
// without holding the lock for the whole comparison.
func (db *IndexDb) Revisions() map[string]time.Time {
	db.mu.RLock()
	defer db.mu.RUnlock()

	out := make(map[string]time.Time, len(db.files))
	for path, entry := range db.files {
		out[path] = entry.Revision
	}
	return out
}
