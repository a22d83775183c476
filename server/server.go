// Package server wires the tool handlers into an MCP server the host
// editor drives over stdio.
package server

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ripscout/ripscout-mcp/tools"
)

// Setup creates the MCP server and registers every tool.
func Setup(
	searchHandler *tools.SearchHandler,
	filesHandler *tools.FilesHandler,
	openHandler *tools.OpenHandler,
	recentHandler *tools.RecentHandler,
	statusHandler *tools.StatusHandler,
	reindexHandler *tools.ReindexHandler,
) *mcp.Server {
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "ripscout-mcp",
			Version: "0.3.0",
		},
		&mcp.ServerOptions{
			Instructions: `This server backs the workspace's fuzzy search and file pickers. It keeps a
live file index (updated by a filesystem watcher), ranks files by how often
and how recently they were opened, and runs content searches through an
external ripgrep process with result caching.

- Use ripscout_files to feed a quick-open picker: frecency-ordered, with an
  optional fuzzy filter.
- Use ripscout_search for content search in a file or folder scope. Repeated
  queries are served from cache until the workspace changes.
- Call ripscout_open whenever the user actually opens a file so the ranking
  learns from it; it also returns a preview.
- ripscout_recent lists recently used files and folders.`,
		},
	)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "ripscout_search",
		Description: `Search file contents in a scope using the external search binary.

Smart-case: an all-lowercase query matches case-insensitively. Queries
shorter than the configured minimum clear the picker instead of searching.
Rapid successive calls are debounced; only the newest query's results are
ever published.`,
	}, searchHandler.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "ripscout_files",
		Description: `List workspace files for a quick-open picker, ordered by frecency
(frequency + recency of use), optionally narrowed by a fuzzy filter matched
against relative paths.`,
	}, filesHandler.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "ripscout_open",
		Description: "Record that a file was opened (feeding the frecency ranking) and return a short preview of it.",
	}, openHandler.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "ripscout_recent",
		Description: "List recently used files and folders, frecency-ranked, including configured recent folders.",
	}, recentHandler.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "ripscout_status",
		Description: "Show workspace root, index size and readiness, cache hit rate, usage record counts, uptime, and memory.",
	}, statusHandler.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "ripscout_reindex",
		Description: "Force a full re-enumeration of the workspace. Clears the index and the search cache, and reloads ignore rules.",
	}, reindexHandler.Handle)

	return mcpServer
}
