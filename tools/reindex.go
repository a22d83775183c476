package tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ReindexArgs defines the input parameters for the ripscout_reindex tool.
type ReindexArgs struct{}

// ReindexFunc performs a full re-enumeration. Provided by main.go to avoid
// circular dependencies.
type ReindexFunc func(ctx context.Context) (fileCount int, elapsed string, err error)

// ReindexHandler holds the dependencies for the reindex tool.
type ReindexHandler struct {
	DoReindex ReindexFunc
	Logger    *slog.Logger
}

// Handle processes a ripscout_reindex request.
func (h *ReindexHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args ReindexArgs) (*mcp.CallToolResult, any, error) {
	h.Logger.Info("ripscout_reindex started")

	fileCount, elapsed, err := h.DoReindex(ctx)
	if err != nil {
		h.Logger.Error("ripscout_reindex failed", "error", err)
		return textResult(fmt.Sprintf("Reindex error: %v", err), true), nil, nil
	}

	h.Logger.Info("ripscout_reindex complete", "files", fileCount, "elapsed", elapsed)
	return textResult(fmt.Sprintf("reindexed: %d files in %s", fileCount, elapsed), false), nil, nil
}
