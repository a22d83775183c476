package tools

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ripscout/ripscout-mcp/frecency"
)

// RecentArgs defines the input parameters for the ripscout_recent tool.
type RecentArgs struct {
	MaxResults int `json:"maxResults,omitempty" jsonschema:"Maximum entries per section (default 50)"`
}

// RecentHandler lists frecency-ranked recently used files and folders,
// merging the configured recent-folders list.
type RecentHandler struct {
	Usage         *frecency.Store
	RootDir       string
	ConfigFolders []string // workspace-relative folders from settings
	MaxResults    int
	Logger        *slog.Logger
}

// Handle processes a ripscout_recent request.
func (h *RecentHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args RecentArgs) (*mcp.CallToolResult, any, error) {
	maxResults := args.MaxResults
	if maxResults <= 0 {
		maxResults = h.MaxResults
	}
	nowMs := time.Now().UnixMilli()

	fileRecords := h.Usage.All(frecency.KindFile)
	filePaths := make([]string, 0, len(fileRecords))
	for path := range fileRecords {
		filePaths = append(filePaths, path)
	}
	files := frecency.TopN(filePaths, fileRecords, nowMs, maxResults)

	folderRecords := h.Usage.All(frecency.KindFolder)
	folderSet := make(map[string]struct{}, len(folderRecords))
	folderPaths := make([]string, 0, len(folderRecords))
	for path := range folderRecords {
		folderSet[path] = struct{}{}
		folderPaths = append(folderPaths, path)
	}
	// Configured folders participate even without recorded usage; they
	// score 0 and sort after used ones.
	for _, rel := range h.ConfigFolders {
		abs := filepath.Clean(filepath.Join(h.RootDir, filepath.FromSlash(rel)))
		if _, seen := folderSet[abs]; !seen {
			folderSet[abs] = struct{}{}
			folderPaths = append(folderPaths, abs)
		}
	}
	folders := frecency.TopN(folderPaths, folderRecords, nowMs, maxResults)

	h.Logger.Info("ripscout_recent", "files", len(files), "folders", len(folders))

	return textResult(FormatRecent(files, folders, h.RootDir), false), nil, nil
}
