// Package pathindex maintains a glob-searchable, metadata-facing view of
// every file the core pipeline has seen: relative path, detected
// language, size, modification time, line count. It is a secondary
// index — an indexer.Observer — and never participates in exact-token
// query correctness.
package pathindex

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// Entry is one file's metadata as known to the path index.
type Entry struct {
	RelativePath string
	AbsolutePath string
	Language     string
	SizeBytes    int64
	ModTime      time.Time
	LineCount    int
}

// Index maintains an in-memory, glob-searchable map of indexed file
// metadata. A map gives O(1) lookup by relative path; a sorted slice
// gives stable, deterministic glob iteration order.
type Index struct {
	mu          sync.RWMutex
	files       map[string]*Entry
	sortedPaths []string
}

// New returns an empty Index.
func New() *Index {
	return &Index{
		files: make(map[string]*Entry),
	}
}

// IndexFile implements indexer.Observer: absorbs a Created/Modified
// update into the path index.
func (idx *Index) IndexFile(relativePath, absolutePath, text, language string, modTime time.Time) error {
	idx.add(&Entry{
		RelativePath: relativePath,
		AbsolutePath: absolutePath,
		Language:     language,
		SizeBytes:    int64(len(text)),
		ModTime:      modTime,
		LineCount:    strings.Count(text, "\n") + 1,
	})
	return nil
}

// RemoveFile implements indexer.Observer: absorbs a Deleted update.
func (idx *Index) RemoveFile(relativePath string) error {
	idx.remove(relativePath)
	return nil
}

func (idx *Index) add(entry *Entry) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	_, exists := idx.files[entry.RelativePath]
	idx.files[entry.RelativePath] = entry
	if !exists {
		idx.sortedPaths = append(idx.sortedPaths, entry.RelativePath)
		sort.Strings(idx.sortedPaths)
	}
}

func (idx *Index) remove(relativePath string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, exists := idx.files[relativePath]; !exists {
		return
	}
	delete(idx.files, relativePath)

	i := sort.SearchStrings(idx.sortedPaths, relativePath)
	if i < len(idx.sortedPaths) && idx.sortedPaths[i] == relativePath {
		idx.sortedPaths = append(idx.sortedPaths[:i], idx.sortedPaths[i+1:]...)
	}
}

// Get returns the Entry for relativePath, or nil if not present.
func (idx *Index) Get(relativePath string) *Entry {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.files[relativePath]
}

// FileCount returns the number of currently indexed files.
func (idx *Index) FileCount() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.files)
}

// TotalSizeBytes returns the sum of SizeBytes across all indexed files.
func (idx *Index) TotalSizeBytes() int64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var total int64
	for _, f := range idx.files {
		total += f.SizeBytes
	}
	return total
}

// LanguageCounts returns language -> file count across all indexed files.
func (idx *Index) LanguageCounts() map[string]int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	counts := make(map[string]int)
	for _, f := range idx.files {
		counts[f.Language]++
	}
	return counts
}

// SearchResult holds a single glob match.
type SearchResult struct {
	Entry *Entry
}

// SearchByGlob returns files whose relative path matches a doublestar
// glob pattern, in stable sorted-path order, capped at maxResults (a
// non-positive value selects a default cap).
func (idx *Index) SearchByGlob(pattern string, maxResults int) ([]SearchResult, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if maxResults <= 0 {
		maxResults = 50
	}

	pattern = strings.ReplaceAll(pattern, "\\", "/")
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid glob pattern: %s", pattern)
	}

	var results []SearchResult
	for _, path := range idx.sortedPaths {
		if len(results) >= maxResults {
			break
		}
		matched, err := doublestar.Match(pattern, path)
		if err != nil {
			continue
		}
		if matched {
			if entry, ok := idx.files[path]; ok {
				results = append(results, SearchResult{Entry: entry})
			}
		}
	}
	return results, nil
}

// AllFiles returns every indexed entry in sorted relative-path order.
func (idx *Index) AllFiles() []*Entry {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	result := make([]*Entry, 0, len(idx.sortedPaths))
	for _, path := range idx.sortedPaths {
		if entry, ok := idx.files[path]; ok {
			result = append(result, entry)
		}
	}
	return result
}

// Clear empties the index. Used by a full reindex to discard stale
// state before rescanning from scratch.
func (idx *Index) Clear() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.files = make(map[string]*Entry)
	idx.sortedPaths = nil
	return nil
}
