package tools

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ripscout/ripscout-mcp/cache"
	"github.com/ripscout/ripscout-mcp/frecency"
	"github.com/ripscout/ripscout-mcp/index"
)

// StatusArgs defines the input parameters for the ripscout_status tool
// (none required).
type StatusArgs struct{}

// StatusHandler holds the dependencies for the status tool.
type StatusHandler struct {
	FileIndex *index.FileIndex
	Cache     *cache.SearchCache
	Usage     *frecency.Store
	StartTime time.Time
	RootDir   string
	Logger    *slog.Logger
}

// Handle processes a ripscout_status request.
func (h *StatusHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args StatusArgs) (*mcp.CallToolResult, any, error) {
	uptime := time.Since(h.StartTime)
	hits, misses := h.Cache.Stats()

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	h.Logger.Info("ripscout_status",
		"files", h.FileIndex.Len(),
		"ready", h.FileIndex.Ready(),
		"cacheHits", hits,
		"cacheMisses", misses,
		"uptime", uptime,
	)

	var builder strings.Builder
	builder.WriteString("=== ripscout-mcp Status ===\n\n")
	builder.WriteString(fmt.Sprintf("Workspace root: %s\n", h.RootDir))
	builder.WriteString(fmt.Sprintf("Uptime: %s\n", formatDuration(uptime)))

	readiness := "indexing in progress"
	if h.FileIndex.Ready() {
		readiness = "ready"
	}
	builder.WriteString(fmt.Sprintf("Index: %d files (%s)\n", h.FileIndex.Len(), readiness))
	builder.WriteString(fmt.Sprintf("Search cache: %d entries, %d hits / %d misses\n", h.Cache.Len(), hits, misses))
	builder.WriteString(fmt.Sprintf("Usage records: %d files, %d folders\n",
		h.Usage.Count(frecency.KindFile),
		h.Usage.Count(frecency.KindFolder),
	))
	builder.WriteString(fmt.Sprintf("Memory usage: %s (heap: %s)\n",
		formatFileSize(int64(memStats.Alloc)),
		formatFileSize(int64(memStats.HeapAlloc)),
	))

	return textResult(builder.String(), false), nil, nil
}
