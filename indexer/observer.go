package indexer

import "time"

// Observer is a secondary index fed the same file text the core IndexDb
// receives, for a different query shape (path/glob lookup, full-text
// search). It never affects IndexDb's state: errors are logged and
// elided by the Indexer, never surfaced to the caller that triggered the
// update.
type Observer interface {
	// IndexFile absorbs a Created or Modified update.
	IndexFile(relativePath, absolutePath, text, language string, modTime time.Time) error
	// RemoveFile absorbs a Deleted update.
	RemoveFile(relativePath string) error
}
