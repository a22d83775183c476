package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ripscout/ripscout-mcp/search"
)

// SearchArgs defines the input parameters for the ripscout_search tool.
type SearchArgs struct {
	Query      string `json:"query" jsonschema:"Search text. Smart-case: lowercase matches case-insensitively"`
	Scope      string `json:"scope,omitempty" jsonschema:"Relative file or folder to restrict the search to (default: whole workspace)"`
	MaxResults int    `json:"maxResults,omitempty" jsonschema:"Maximum number of matches to return (default 50)"`
}

// SearchHandler holds the dependencies for the search tool.
type SearchHandler struct {
	Session    *search.Session
	RootDir    string
	MaxResults int
	Logger     *slog.Logger
}

// Handle processes a ripscout_search request.
func (h *SearchHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args SearchArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	scope, err := resolveScope(h.RootDir, args.Scope)
	if err != nil {
		h.Logger.Warn("ripscout_search rejected scope", "scope", args.Scope, "error", err)
		return textResult(fmt.Sprintf("Error: %v", err), true), nil, nil
	}

	matches, err := h.Session.Query(ctx, args.Query, scope)
	if errors.Is(err, search.ErrSuperseded) {
		// A newer query owns the picker now; nothing to show, nothing wrong.
		return textResult("Superseded by a newer query.", false), nil, nil
	}
	if err != nil {
		h.Logger.Error("ripscout_search failed", "query", args.Query, "error", err)
		return textResult(fmt.Sprintf("Search error: %v", err), true), nil, nil
	}

	maxResults := args.MaxResults
	if maxResults <= 0 {
		maxResults = h.MaxResults
	}

	h.Logger.Info("ripscout_search",
		"query", args.Query,
		"scope", args.Scope,
		"matches", len(matches),
		"elapsed", time.Since(start),
	)

	return textResult(FormatMatches(matches, h.RootDir, maxResults), false), nil, nil
}

// resolveScope turns a workspace-relative scope into an absolute path,
// rejecting anything that escapes the root. Empty means the whole root.
func resolveScope(rootDir string, scope string) (string, error) {
	if scope == "" {
		return rootDir, nil
	}
	abs := filepath.Clean(filepath.Join(rootDir, filepath.FromSlash(scope)))
	rel, err := filepath.Rel(rootDir, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("scope %q is outside the workspace", scope)
	}
	return abs, nil
}

// textResult builds a plain text tool result.
func textResult(text string, isError bool) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: isError,
	}
}
