package tools

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ripscout/ripscout-mcp/frecency"
)

// OpenArgs defines the input parameters for the ripscout_open tool.
type OpenArgs struct {
	FilePath string `json:"filePath" jsonschema:"Relative path of the file being opened"`
	Line     int    `json:"line,omitempty" jsonschema:"0-based line to center the preview on (default: file head)"`
}

// OpenHandler records a usage access for a file (and its folder) and
// returns a short preview for the host's picker.
type OpenHandler struct {
	Usage        *frecency.Store
	RootDir      string
	PreviewLines int
	Logger       *slog.Logger
}

// Handle processes a ripscout_open request.
func (h *OpenHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args OpenArgs) (*mcp.CallToolResult, any, error) {
	if args.FilePath == "" {
		return textResult("Error: filePath parameter is required", true), nil, nil
	}

	abs, err := resolveScope(h.RootDir, args.FilePath)
	if err != nil {
		h.Logger.Warn("ripscout_open rejected path", "filePath", args.FilePath, "error", err)
		return textResult(fmt.Sprintf("Error: %v", err), true), nil, nil
	}

	nowMs := time.Now().UnixMilli()
	if err := h.Usage.Touch(frecency.KindFile, abs, nowMs); err != nil {
		h.Logger.Warn("failed to record file access", "path", abs, "error", err)
	}
	if folder := filepath.Dir(abs); folder != h.RootDir {
		if err := h.Usage.Touch(frecency.KindFolder, folder, nowMs); err != nil {
			h.Logger.Warn("failed to record folder access", "path", folder, "error", err)
		}
	}

	preview, err := readPreview(abs, args.Line, h.PreviewLines)
	if err != nil {
		// Access already recorded; an unreadable file degrades to no preview.
		h.Logger.Warn("ripscout_open preview failed", "path", abs, "error", err)
		return textResult(fmt.Sprintf("Opened %s (no preview: %v)", args.FilePath, err), false), nil, nil
	}

	h.Logger.Info("ripscout_open", "filePath", args.FilePath, "line", args.Line)
	return textResult(preview, false), nil, nil
}

// readPreview returns up to count numbered lines, centered on the 0-based
// line when given, otherwise from the top of the file.
func readPreview(path string, line int, count int) (string, error) {
	if count <= 0 {
		count = 10
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	startLine := 0
	if line > 0 {
		startLine = line - count/2
		if startLine < 0 {
			startLine = 0
		}
	}

	var builder strings.Builder
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	current := 0
	emitted := 0
	for scanner.Scan() && emitted < count {
		if current >= startLine {
			builder.WriteString(fmt.Sprintf("%d: %s\n", current+1, scanner.Text()))
			emitted++
		}
		current++
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	if emitted == 0 {
		return "(empty file)\n", nil
	}
	return builder.String(), nil
}
