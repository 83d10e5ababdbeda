// Package contentsearch maintains a Bleve in-memory full-text index over
// every file the core pipeline has seen, supporting word, phrase and
// regex queries with glob/path filtering and line-level context. It is
// a secondary index — an indexer.Observer — and never participates in
// exact-token query correctness.
package contentsearch

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/bmatcuk/doublestar/v4"
)

// Index provides full-text search over file contents using an in-memory
// Bleve index, keyed by relative path.
type Index struct {
	mu    sync.RWMutex
	index bleve.Index
	// fileContents stores raw content for line-level result extraction;
	// Bleve itself is configured not to store the content field.
	fileContents map[string]string
}

// New creates an empty in-memory content index.
func New() (*Index, error) {
	bleveIndex, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("creating bleve index: %w", err)
	}
	return &Index{
		index:        bleveIndex,
		fileContents: make(map[string]string),
	}, nil
}

type bleveDocument struct {
	Content  string `json:"content"`
	Path     string `json:"path"`
	Language string `json:"language"`
}

func buildIndexMapping() *mapping.IndexMappingImpl {
	indexMapping := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	contentFieldMapping := bleve.NewTextFieldMapping()
	contentFieldMapping.Store = false
	contentFieldMapping.IncludeInAll = true
	docMapping.AddFieldMappingsAt("content", contentFieldMapping)

	pathFieldMapping := bleve.NewTextFieldMapping()
	pathFieldMapping.Store = true
	pathFieldMapping.IncludeInAll = false
	docMapping.AddFieldMappingsAt("path", pathFieldMapping)

	langFieldMapping := bleve.NewKeywordFieldMapping()
	langFieldMapping.Store = true
	langFieldMapping.IncludeInAll = false
	docMapping.AddFieldMappingsAt("language", langFieldMapping)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// IndexFile implements indexer.Observer: absorbs a Created/Modified
// update into the Bleve index.
func (ci *Index) IndexFile(relativePath, absolutePath, text, language string, modTime time.Time) error {
	ci.mu.Lock()
	defer ci.mu.Unlock()

	doc := bleveDocument{Content: text, Path: relativePath, Language: language}
	ci.fileContents[relativePath] = text

	if err := ci.index.Index(relativePath, doc); err != nil {
		return fmt.Errorf("indexing file %s: %w", relativePath, err)
	}
	return nil
}

// RemoveFile implements indexer.Observer: absorbs a Deleted update.
func (ci *Index) RemoveFile(relativePath string) error {
	ci.mu.Lock()
	defer ci.mu.Unlock()

	delete(ci.fileContents, relativePath)
	if err := ci.index.Delete(relativePath); err != nil {
		return fmt.Errorf("removing file %s from index: %w", relativePath, err)
	}
	return nil
}

// Result holds a search match within a file.
type Result struct {
	RelativePath string
	Matches      []LineMatch
}

// LineMatch is a single matching line plus surrounding context.
type LineMatch struct {
	LineNumber    int
	LineText      string
	ContextBefore []string
	ContextAfter  []string
}

// SearchOptions configures a content search.
type SearchOptions struct {
	Query        string
	FilePath     string // exact relative path, overrides FileGlob
	FileGlob     string
	MaxResults   int
	ContextLines int
}

// Search performs a full-text search across all indexed files.
// Query format:
//   - Plain text: word-level match query
//   - "quoted text": exact phrase query
//   - /regex/: regexp query
func (ci *Index) Search(options SearchOptions) ([]Result, int, error) {
	ci.mu.RLock()
	defer ci.mu.RUnlock()

	if options.MaxResults <= 0 {
		options.MaxResults = 50
	}
	if options.ContextLines < 0 {
		options.ContextLines = 0
	}

	bleveQuery := buildQuery(options.Query)

	searchRequest := bleve.NewSearchRequest(bleveQuery)
	searchRequest.Size = options.MaxResults * 5
	searchRequest.Fields = []string{"path", "language"}

	searchResults, err := ci.index.Search(searchRequest)
	if err != nil {
		return nil, 0, fmt.Errorf("searching index: %w", err)
	}

	resultMap := make(map[string]*Result)
	var orderedPaths []string
	totalMatches := 0

	normalizedFilePath := strings.ReplaceAll(options.FilePath, "\\", "/")

	for _, hit := range searchResults.Hits {
		relativePath := hit.ID
		content, ok := ci.fileContents[relativePath]
		if !ok {
			continue
		}

		if normalizedFilePath != "" {
			if relativePath != normalizedFilePath {
				continue
			}
		} else if options.FileGlob != "" {
			normalizedGlob := strings.ReplaceAll(options.FileGlob, "\\", "/")
			matched, matchErr := doublestar.Match(normalizedGlob, relativePath)
			if matchErr != nil || !matched {
				continue
			}
		}

		lineMatches := findMatchingLines(content, options.Query, options.ContextLines)
		if len(lineMatches) == 0 {
			continue
		}
		totalMatches += len(lineMatches)

		if _, exists := resultMap[relativePath]; !exists {
			resultMap[relativePath] = &Result{RelativePath: relativePath}
			orderedPaths = append(orderedPaths, relativePath)
		}
		resultMap[relativePath].Matches = append(resultMap[relativePath].Matches, lineMatches...)

		if len(orderedPaths) >= options.MaxResults {
			break
		}
	}

	results := make([]Result, 0, len(orderedPaths))
	for _, path := range orderedPaths {
		results = append(results, *resultMap[path])
	}
	return results, totalMatches, nil
}

func buildQuery(queryString string) query.Query {
	queryString = strings.TrimSpace(queryString)

	if strings.HasPrefix(queryString, "/") && strings.HasSuffix(queryString, "/") && len(queryString) > 2 {
		return bleve.NewRegexpQuery(queryString[1 : len(queryString)-1])
	}
	if strings.HasPrefix(queryString, "\"") && strings.HasSuffix(queryString, "\"") && len(queryString) > 2 {
		return bleve.NewMatchPhraseQuery(queryString[1 : len(queryString)-1])
	}
	return bleve.NewMatchQuery(queryString)
}

func findMatchingLines(content, queryString string, contextLines int) []LineMatch {
	lines := strings.Split(content, "\n")
	searchTermLower := strings.ToLower(extractSearchTerm(queryString))

	var matches []LineMatch
	for lineIdx, line := range lines {
		if !strings.Contains(strings.ToLower(line), searchTermLower) {
			continue
		}

		match := LineMatch{LineNumber: lineIdx + 1, LineText: line}

		if contextLines > 0 {
			startCtx := lineIdx - contextLines
			if startCtx < 0 {
				startCtx = 0
			}
			match.ContextBefore = append(match.ContextBefore, lines[startCtx:lineIdx]...)

			endCtx := lineIdx + contextLines + 1
			if endCtx > len(lines) {
				endCtx = len(lines)
			}
			match.ContextAfter = append(match.ContextAfter, lines[lineIdx+1:endCtx]...)
		}

		matches = append(matches, match)
	}
	return matches
}

func extractSearchTerm(queryString string) string {
	queryString = strings.TrimSpace(queryString)
	if strings.HasPrefix(queryString, "/") && strings.HasSuffix(queryString, "/") && len(queryString) > 2 {
		return queryString[1 : len(queryString)-1]
	}
	if strings.HasPrefix(queryString, "\"") && strings.HasSuffix(queryString, "\"") && len(queryString) > 2 {
		return queryString[1 : len(queryString)-1]
	}
	return queryString
}

// DocumentCount returns the number of documents currently in the Bleve
// index.
func (ci *Index) DocumentCount() uint64 {
	ci.mu.RLock()
	defer ci.mu.RUnlock()
	count, _ := ci.index.DocCount()
	return count
}

// Close closes the underlying Bleve index.
func (ci *Index) Close() error {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	return ci.index.Close()
}

// GetFileContent returns the raw content of an indexed file.
func (ci *Index) GetFileContent(relativePath string) (string, bool) {
	ci.mu.RLock()
	defer ci.mu.RUnlock()
	content, ok := ci.fileContents[strings.ReplaceAll(relativePath, "\\", "/")]
	return content, ok
}

// Clear removes all documents and recreates the index. Used by a full
// reindex to discard stale state before rescanning from scratch.
func (ci *Index) Clear() error {
	ci.mu.Lock()
	defer ci.mu.Unlock()

	if err := ci.index.Close(); err != nil {
		return fmt.Errorf("closing old index: %w", err)
	}
	newIndex, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return fmt.Errorf("creating new index: %w", err)
	}
	ci.index = newIndex
	ci.fileContents = make(map[string]string)
	return nil
}
