// Command filedex is the minimal reference CLI: point it at a directory
// and it watches, indexes, and prints added/changed/removed files as the
// index updates. It takes exactly one argument and does no flag parsing.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/kepler-labs/filedex/ignore"
	"github.com/kepler-labs/filedex/indexdb"
	"github.com/kepler-labs/filedex/indexer"
	"github.com/kepler-labs/filedex/loader"
	"github.com/kepler-labs/filedex/watcher"
)

const pollInterval = 2 * time.Second

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: filedex <directory>")
		os.Exit(1)
	}
	rootDir := os.Args[1]

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	info, err := os.Stat(rootDir)
	if err != nil || !info.IsDir() {
		fmt.Fprintf(os.Stderr, "filedex: %s is not a directory\n", rootDir)
		os.Exit(1)
	}

	ignoreMatcher := ignore.NewMatcher(ignore.MatcherOptions{RootDir: rootDir})

	fileWatcher, err := watcher.New(rootDir, ignoreMatcher, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "filedex: %v\n", err)
		os.Exit(1)
	}

	db := indexdb.New()
	ld := loader.New(fileWatcher, loader.Config{}, logger)
	ix := indexer.New(rootDir, ld, db, ignoreMatcher, indexer.Config{}, logger)

	go ix.Run()
	ix.AwaitInitialScan()

	fmt.Printf("watching %s (%d files indexed)\n", rootDir, db.FileCount())

	prev := db.Revisions()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for range ticker.C {
		current := db.Revisions()
		printDeltas(prev, current)
		prev = current
	}
}

// printDeltas reports files added, re-revisioned, or removed from the
// index between two successive Revisions() snapshots.
func printDeltas(prev, current map[string]time.Time) {
	for path, rev := range current {
		if old, ok := prev[path]; !ok {
			fmt.Printf("+ %s\n", path)
		} else if !old.Equal(rev) {
			fmt.Printf("~ %s\n", path)
		}
	}
	for path := range prev {
		if _, ok := current[path]; !ok {
			fmt.Printf("- %s\n", path)
		}
	}
}
