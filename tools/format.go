package tools

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ripscout/ripscout-mcp/ripgrep"
)

// FormatMatches renders content search matches as human-readable text,
// workspace-relative, truncated to maxResults. Line and column are shown
// 1-based.
func FormatMatches(matches []ripgrep.Match, rootDir string, maxResults int) string {
	if len(matches) == 0 {
		return "No matches found."
	}

	shown := matches
	truncated := false
	if maxResults > 0 && len(shown) > maxResults {
		shown = shown[:maxResults]
		truncated = true
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Found %d matches:\n\n", len(matches)))

	for _, match := range shown {
		if match.Err {
			builder.WriteString(fmt.Sprintf("  [!] %s\n", match.Text))
			continue
		}
		builder.WriteString(fmt.Sprintf("  %s:%d:%d: %s\n",
			relativeTo(rootDir, match.Path),
			match.Line+1,
			match.Column+1,
			strings.TrimRight(match.Text, "\r\n"),
		))
	}

	if truncated {
		builder.WriteString(fmt.Sprintf("\n(truncated to %d of %d matches)\n", maxResults, len(matches)))
	}
	return builder.String()
}

// FormatFileList renders the quick-open candidate list.
func FormatFileList(relativePaths []string, indexReady bool) string {
	var builder strings.Builder

	if len(relativePaths) == 0 {
		builder.WriteString("No files matched.")
	} else {
		builder.WriteString(fmt.Sprintf("Found %d files:\n\n", len(relativePaths)))
		for _, path := range relativePaths {
			builder.WriteString("  " + path + "\n")
		}
	}
	if !indexReady {
		builder.WriteString("\n(indexing still in progress; results may be partial)\n")
	}
	return builder.String()
}

// FormatRecent renders the frecency-ranked recents listing.
func FormatRecent(files []string, folders []string, rootDir string) string {
	if len(files) == 0 && len(folders) == 0 {
		return "No usage recorded yet."
	}

	var builder strings.Builder
	if len(files) > 0 {
		builder.WriteString("Recent files:\n")
		for _, path := range files {
			builder.WriteString("  " + relativeTo(rootDir, path) + "\n")
		}
	}
	if len(folders) > 0 {
		if builder.Len() > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString("Recent folders:\n")
		for _, path := range folders {
			builder.WriteString("  " + relativeTo(rootDir, path) + "\n")
		}
	}
	return builder.String()
}

// relativeTo renders a path workspace-relative with forward slashes,
// falling back to the input when it is not under the root.
func relativeTo(rootDir string, path string) string {
	rel, err := filepath.Rel(rootDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	totalSeconds := int(d.Seconds())
	if totalSeconds < 60 {
		return fmt.Sprintf("%ds", totalSeconds)
	}
	totalMinutes := totalSeconds / 60
	remainderSeconds := totalSeconds % 60
	if totalMinutes < 60 {
		return fmt.Sprintf("%dm%ds", totalMinutes, remainderSeconds)
	}
	hours := totalMinutes / 60
	remainderMinutes := totalMinutes % 60
	return fmt.Sprintf("%dh%dm", hours, remainderMinutes)
}

// formatFileSize formats a byte count with binary units.
func formatFileSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
