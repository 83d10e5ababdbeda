package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
)

// ReindexArgs defines the input parameters for the filedex_reindex tool.
type ReindexArgs struct{}

// ReindexFunc is the function signature for the full reindex operation.
// It is provided by main.go to avoid circular dependencies; in practice
// it wraps indexer.Indexer.FullReindex.
type ReindexFunc func() (fileCount int, duration time.Duration)

// ReindexHandler holds the dependencies for the reindex tool.
type ReindexHandler struct {
	DoReindex ReindexFunc
	Logger    zerolog.Logger
}

// Handle processes a filedex_reindex request.
func (h *ReindexHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args ReindexArgs) (*mcp.CallToolResult, any, error) {
	h.Logger.Info().Msg("filedex_reindex started")

	fileCount, duration := h.DoReindex()

	h.Logger.Info().
		Int("files", fileCount).
		Dur("elapsed", duration).
		Msg("filedex_reindex complete")

	output := fmt.Sprintf("reindexed: %d files in %s", fileCount, duration)

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: output}},
	}, nil, nil
}
