package tools

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ripscout/ripscout-mcp/frecency"
	"github.com/ripscout/ripscout-mcp/index"
)

// FilesArgs defines the input parameters for the ripscout_files tool.
type FilesArgs struct {
	Filter     string `json:"filter,omitempty" jsonschema:"Fuzzy filter matched against relative paths (e.g. 'maingo'). Empty lists everything"`
	MaxResults int    `json:"maxResults,omitempty" jsonschema:"Maximum number of files to return (default 50)"`
}

// FilesHandler feeds the host's quick-open picker: the index snapshot,
// frecency-ordered, then fuzzy-filtered.
type FilesHandler struct {
	FileIndex  *index.FileIndex
	Usage      *frecency.Store
	MaxResults int
	Logger     *slog.Logger
}

// Handle processes a ripscout_files request.
func (h *FilesHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args FilesArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	maxResults := args.MaxResults
	if maxResults <= 0 {
		maxResults = h.MaxResults
	}

	// Rank the full candidate set before any text filter so frecency order
	// survives filtering.
	paths := h.FileIndex.Snapshot()
	records := h.Usage.All(frecency.KindFile)
	ranked := frecency.TopN(paths, records, time.Now().UnixMilli(), 0)

	rootDir := h.FileIndex.Root()
	var kept []string
	for _, path := range ranked {
		if len(kept) >= maxResults {
			break
		}
		rel, err := filepath.Rel(rootDir, path)
		if err != nil {
			continue
		}
		rel = filepath.ToSlash(rel)
		if args.Filter != "" && !fuzzy.MatchNormalizedFold(args.Filter, rel) {
			continue
		}
		kept = append(kept, rel)
	}

	h.Logger.Info("ripscout_files",
		"filter", args.Filter,
		"candidates", len(paths),
		"results", len(kept),
		"indexReady", h.FileIndex.Ready(),
		"elapsed", time.Since(start),
	)

	return textResult(FormatFileList(kept, h.FileIndex.Ready()), false), nil, nil
}
