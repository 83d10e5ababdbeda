// Package model holds the value types shared by the watcher, loader,
// indexer and indexdb packages: the raw and loaded filesystem
// notifications, and the index entries built from them.
package model

import "time"

// EventKind is the closed set of filesystem changes the core pipeline
// understands. Directory create/delete never reach this type — the
// watcher consumes those internally.
type EventKind int

const (
	Created EventKind = iota
	Modified
	Deleted
)

func (k EventKind) String() string {
	switch k {
	case Created:
		return "Created"
	case Modified:
		return "Modified"
	case Deleted:
		return "Deleted"
	default:
		return "Unknown"
	}
}

// FileNotification is a raw filesystem event for a single regular file,
// already resolved to an absolute path and classified into one of the
// three EventKind variants. ModTime is the zero value for Deleted.
type FileNotification struct {
	Kind    EventKind
	Path    string
	ModTime time.Time
}

// LoadedFileNotification is a Loader output: the notification that
// triggered it, plus — for Created/Modified only — the file's full UTF-8
// text and the wall-clock instant the race-free read completed. Both are
// zero for Deleted.
type LoadedFileNotification struct {
	FileNotification
	Text          string
	TextTimestamp time.Time
}

// FilePosition is one occurrence of a token: an absolute path plus a
// half-open byte offset range [Start, End) within that file's contents at
// the revision the index currently holds. Immutable once constructed.
type FilePosition struct {
	FilePath string
	Start    int
	End      int
}

// SingleFileIndex is the complete token index for one file at one
// revision. Revision is the wall-clock instant the Loader finished
// reading the contents this index was built from — not the filesystem
// mtime — and is used by IndexDb to decide whether a Modified update is
// stale. A SingleFileIndex is never mutated in place; a modification
// always builds a brand new value and replaces the old one wholesale.
type SingleFileIndex struct {
	Tokens   map[string][]FilePosition
	Revision time.Time
}
