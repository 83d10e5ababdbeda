package tools

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/kepler-labs/filedex/indexdb"
	"github.com/kepler-labs/filedex/metrics"
)

// QueryArgs defines the input parameters for the filedex_query tool.
type QueryArgs struct {
	Token string `json:"token" jsonschema:"Exact token to look up in the inverted index (no case folding, no normalization)"`
}

// QueryHandler holds the dependencies for the exact-token query tool. It
// is the one tool backed directly by IndexDb rather than a secondary
// index, and answers with the literal byte ranges the core index holds
// for the token at the current revision.
type QueryHandler struct {
	Db      *indexdb.IndexDb
	Logger  zerolog.Logger
	Metrics *metrics.Metrics
}

// Handle processes a filedex_query request.
func (h *QueryHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args QueryArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if args.Token == "" {
		h.Logger.Warn().Msg("filedex_query called with empty token")
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "Error: token parameter is required"}},
			IsError: true,
		}, nil, nil
	}

	positions := h.Db.Query(args.Token)

	elapsed := time.Since(start)
	h.Metrics.RecordQuery(ctx, elapsed)
	h.Logger.Info().
		Str("token", args.Token).
		Int("matches", len(positions)).
		Dur("elapsed", elapsed).
		Msg("filedex_query")

	output := FormatQueryResults(args.Token, positions)

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: output}},
	}, nil, nil
}
