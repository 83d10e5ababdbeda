// Command filedex is the MCP server binary: it watches a directory tree,
// keeps an in-memory inverted index and two secondary indexes up to date,
// and serves filedex_* tools over MCP stdio.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/kepler-labs/filedex/config"
	"github.com/kepler-labs/filedex/contentsearch"
	"github.com/kepler-labs/filedex/ignore"
	"github.com/kepler-labs/filedex/indexdb"
	"github.com/kepler-labs/filedex/indexer"
	"github.com/kepler-labs/filedex/loader"
	"github.com/kepler-labs/filedex/metrics"
	"github.com/kepler-labs/filedex/pathindex"
	"github.com/kepler-labs/filedex/reconciler"
	"github.com/kepler-labs/filedex/register"
	"github.com/kepler-labs/filedex/server"
	"github.com/kepler-labs/filedex/tools"
	"github.com/kepler-labs/filedex/watcher"
)

// CLI defines the command-line interface.
type CLI struct {
	Serve ServeCmd `cmd:"" default:"1" help:"Watch a directory and serve filedex_* tools over MCP stdio."`

	Config string `short:"c" help:"Path to config file (default: filedex.yaml in the current directory)." type:"path"`
}

// ServeCmd starts the watcher/indexer pipeline and the MCP server.
type ServeCmd struct {
	Root             string   `short:"r" help:"Project root directory (default: current working directory)." type:"path"`
	Exclude          []string `help:"Extra ignore pattern (repeatable)."`
	MaxFileSize      int64    `name:"max-file-size" help:"Maximum file size in bytes." default:"0"`
	MaxResults       int      `name:"max-results" help:"Default max search results." default:"0"`
	LogLevel         string   `name:"log-level" help:"Log level: debug|info|warn|error."`
	LogFile          string   `name:"log-file" help:"Log file path (default: filedex.log in the root directory)." type:"path"`
	MetricsEnabled   bool     `name:"metrics" help:"Expose Prometheus metrics over HTTP."`
	MetricsPort      int      `name:"metrics-port" help:"Port for the Prometheus metrics endpoint." default:"0"`
	ReconcileSeconds int      `name:"reconcile-seconds" help:"Interval between disk/index reconciliation passes." default:"0"`

	RegisterArgs []string `arg:"" optional:"" help:"'register project [dir]' or 'register user' to install this server into an MCP client config, with optional '-- --flag ...' passthrough."`
}

func (c *ServeCmd) Run(cli *CLI) error {
	if len(c.RegisterArgs) > 0 && c.RegisterArgs[0] == "register" {
		register.Run(register.DeriveServerName(os.Args[0]), c.RegisterArgs[1:])
		return nil
	}

	cfg, err := config.Load(cli.Config)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	applyFlagOverrides(cfg, c)

	rootDir := cfg.RootDir
	if rootDir == "" || rootDir == "." {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}
		rootDir = wd
	}
	rootDir, _ = filepath.Abs(rootDir)

	logFile := cfg.LogFile
	if logFile == "" {
		logFile = filepath.Join(rootDir, "filedex.log")
	}
	logger := setupLogger(cfg.LogLevel, logFile)

	startTime := time.Now()
	logger.Info().
		Str("root", rootDir).
		Int64("maxFileSize", cfg.MaxFileSizeBytes).
		Int("maxResults", cfg.MaxResults).
		Msg("starting filedex")

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m, err = metrics.New()
		if err != nil {
			return fmt.Errorf("creating metrics: %w", err)
		}
		go serveMetrics(cfg.Metrics.Port, logger)
	}

	ignoreMatcher := ignore.NewMatcher(ignore.MatcherOptions{
		RootDir:          rootDir,
		CustomPatterns:   cfg.Excludes,
		MaxFileSizeBytes: cfg.MaxFileSizeBytes,
	})

	db := indexdb.New()
	pathIdx := pathindex.New()
	contentIdx, err := contentsearch.New()
	if err != nil {
		return fmt.Errorf("creating content index: %w", err)
	}

	fileWatcher, err := watcher.New(rootDir, ignoreMatcher, logger)
	if err != nil {
		return fmt.Errorf("starting file watcher: %w", err)
	}

	ld := loader.New(fileWatcher, loader.Config{Metrics: m}, logger)

	ix := indexer.New(rootDir, ld, db, ignoreMatcher, indexer.Config{Metrics: m}, logger)
	ix.RegisterObserver(pathIdx)
	ix.RegisterObserver(contentIdx)

	go ix.Run()
	ix.AwaitInitialScan()
	logger.Info().
		Int("files", db.FileCount()).
		Dur("duration", time.Since(startTime)).
		Msg("initial scan complete")

	recon := reconciler.New(ix, reconciler.Config{Interval: time.Duration(cfg.ReconcileSeconds) * time.Second}, logger)
	reconStop := make(chan struct{})
	go recon.Run(reconStop)
	defer close(reconStop)

	searchHandler := &tools.SearchHandler{ContentIndex: contentIdx, Logger: logger}
	filesHandler := &tools.FilesHandler{PathIndex: pathIdx, Logger: logger}
	statusHandler := &tools.StatusHandler{
		PathIndex:    pathIdx,
		ContentIndex: contentIdx,
		Db:           db,
		StartTime:    startTime,
		RootDir:      rootDir,
		Logger:       logger,
	}
	readHandler := &tools.ReadHandler{ContentIndex: contentIdx, Logger: logger}
	queryHandler := &tools.QueryHandler{Db: db, Logger: logger, Metrics: m}
	reindexHandler := &tools.ReindexHandler{
		Logger:    logger,
		DoReindex: ix.FullReindex,
	}

	mcpServer := server.Setup(searchHandler, filesHandler, statusHandler, reindexHandler, readHandler, queryHandler)

	logger.Info().Msg("MCP server starting on stdio")
	if err := mcpServer.Run(context.Background(), &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}

	return ix.Close()
}

// applyFlagOverrides lets explicit CLI flags win over config-file/env
// values loaded by config.Load, matching kong's documented precedence:
// flags > environment > config file > defaults.
func applyFlagOverrides(cfg *config.Config, c *ServeCmd) {
	if c.Root != "" {
		cfg.RootDir = c.Root
	}
	if len(c.Exclude) > 0 {
		cfg.Excludes = append(cfg.Excludes, c.Exclude...)
	}
	if c.MaxFileSize > 0 {
		cfg.MaxFileSizeBytes = c.MaxFileSize
	}
	if c.MaxResults > 0 {
		cfg.MaxResults = c.MaxResults
	}
	if c.LogLevel != "" {
		cfg.LogLevel = c.LogLevel
	}
	if c.LogFile != "" {
		cfg.LogFile = c.LogFile
	}
	if c.MetricsEnabled {
		cfg.Metrics.Enabled = true
	}
	if c.MetricsPort > 0 {
		cfg.Metrics.Port = c.MetricsPort
	}
	if c.ReconcileSeconds > 0 {
		cfg.ReconcileSeconds = c.ReconcileSeconds
	}
}

func serveMetrics(port int, logger zerolog.Logger) {
	addr := fmt.Sprintf(":%d", port)
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	logger.Info().Str("addr", addr).Msg("metrics endpoint listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error().Err(err).Msg("metrics endpoint stopped")
	}
}

// setupLogger creates a zerolog.Logger writing to stderr or a file.
// stdout is reserved for MCP stdio traffic and must never receive logs.
func setupLogger(level string, logFile string) zerolog.Logger {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}

	var writer *os.File
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cannot open log file %s: %v, falling back to stderr\n", logFile, err)
			writer = os.Stderr
		} else {
			writer = f
		}
	} else {
		writer = os.Stderr
	}

	return zerolog.New(writer).Level(parsed).With().Timestamp().Logger()
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli)
	if err := ctx.Run(&cli); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
