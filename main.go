package main

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ripscout/ripscout-mcp/cache"
	"github.com/ripscout/ripscout-mcp/config"
	"github.com/ripscout/ripscout-mcp/frecency"
	"github.com/ripscout/ripscout-mcp/ignore"
	"github.com/ripscout/ripscout-mcp/index"
	"github.com/ripscout/ripscout-mcp/ripgrep"
	"github.com/ripscout/ripscout-mcp/search"
	"github.com/ripscout/ripscout-mcp/server"
	"github.com/ripscout/ripscout-mcp/tools"
	"github.com/ripscout/ripscout-mcp/watcher"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	v := viper.New()
	var rootDir string

	cmd := &cobra.Command{
		Use:           "ripscout-mcp",
		Short:         "Workspace fuzzy-search sidecar speaking MCP over stdio",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), v, rootDir)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&rootDir, "root", "", "workspace root directory (default: current working directory)")
	flags.StringArray("exclude", nil, "extra exclude glob (repeatable)")
	flags.Int64("max-file-size", 0, "maximum file size in bytes searched and indexed")
	flags.Int("max-results", 0, "default maximum results per picker")
	flags.Int("min-query-length", 0, "minimum query length before a search is issued")
	flags.Bool("hidden", false, "include hidden files")
	flags.String("rg-path", "", "path to the ripgrep-compatible binary")
	flags.String("log-level", "", "log level: debug|info|warn|error")
	flags.String("log-file", "", "log file path (default: ripscout-mcp.log in the workspace root)")

	v.BindPFlag("exclude_globs", flags.Lookup("exclude"))
	v.BindPFlag("max_file_size_bytes", flags.Lookup("max-file-size"))
	v.BindPFlag("max_results", flags.Lookup("max-results"))
	v.BindPFlag("min_query_length", flags.Lookup("min-query-length"))
	v.BindPFlag("include_hidden", flags.Lookup("hidden"))
	v.BindPFlag("ripgrep_path", flags.Lookup("rg-path"))
	v.BindPFlag("log_level", flags.Lookup("log-level"))
	v.BindPFlag("log_file", flags.Lookup("log-file"))

	return cmd
}

func run(ctx context.Context, v *viper.Viper, rootDir string) error {
	if rootDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}
		rootDir = cwd
	}
	rootDir, err := filepath.Abs(rootDir)
	if err != nil {
		return fmt.Errorf("resolving root directory: %w", err)
	}

	settings, err := config.Load(v, rootDir)
	if err != nil {
		return err
	}

	logFile := settings.LogFile
	if logFile == "" {
		logFile = filepath.Join(rootDir, "ripscout-mcp.log")
	}
	// Stdout carries the MCP stdio transport; logs go to a file or stderr.
	logger := setupLogger(settings.LogLevel, logFile)

	logger.Info("starting ripscout-mcp",
		"root", rootDir,
		"maxFileSize", settings.MaxFileSizeBytes,
		"maxResults", settings.MaxResults,
		"rg", settings.RipgrepPath,
	)
	startTime := time.Now()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	matcher := ignore.NewMatcher(ignore.MatcherOptions{
		RootDir:          rootDir,
		ExcludeGlobs:     settings.ExcludeGlobs,
		MaxFileSizeBytes: settings.MaxFileSizeBytes,
	})

	searcher := ripgrep.NewSearcher(ripgrep.Options{
		BinaryPath:       settings.RipgrepPath,
		MaxCountPerFile:  settings.MaxResults,
		MaxFileSizeBytes: settings.MaxFileSizeBytes,
		IncludeHidden:    settings.IncludeHidden,
		ExcludeGlobs:     settings.ExcludeGlobs,
	}, logger)

	fileIndex := index.NewFileIndex(rootDir, settings.MaxIndexEntries, matcher, logger)
	fileIndex.Initialize(ctx, searcher)

	usage, err := frecency.Open(usageDBPath(rootDir), logger)
	if err != nil {
		return fmt.Errorf("opening usage store: %w", err)
	}
	defer usage.Close()

	searchCache := cache.New(settings.CacheTTL(), settings.CacheCapacity)

	session := search.NewSession(searcher, searchCache, usage, search.Config{
		MinQueryLength: settings.MinQueryLength,
		Debounce:       settings.Debounce(),
		Timeout:        settings.SearchTimeout(),
	}, logger)
	defer session.Close()

	fileWatcher, err := watcher.NewWatcher(rootDir, settings.WatchDebounce(), matcher, logger)
	if err != nil {
		logger.Warn("failed to start file watcher, continuing without live updates", "error", err)
	} else {
		go fileWatcher.Start()
		go handleWatcherEvents(fileWatcher, fileIndex, matcher, searchCache, logger)
		defer fileWatcher.Close()
	}

	go fileIndex.RunPeriodicReconcile(ctx, settings.ReconcileInterval())

	searchHandler := &tools.SearchHandler{
		Session:    session,
		RootDir:    rootDir,
		MaxResults: settings.MaxResults,
		Logger:     logger,
	}
	filesHandler := &tools.FilesHandler{
		FileIndex:  fileIndex,
		Usage:      usage,
		MaxResults: settings.MaxResults,
		Logger:     logger,
	}
	openHandler := &tools.OpenHandler{
		Usage:        usage,
		RootDir:      rootDir,
		PreviewLines: settings.PreviewLines,
		Logger:       logger,
	}
	recentHandler := &tools.RecentHandler{
		Usage:         usage,
		RootDir:       rootDir,
		ConfigFolders: settings.RecentFolders,
		MaxResults:    settings.MaxResults,
		Logger:        logger,
	}
	statusHandler := &tools.StatusHandler{
		FileIndex: fileIndex,
		Cache:     searchCache,
		Usage:     usage,
		StartTime: startTime,
		RootDir:   rootDir,
		Logger:    logger,
	}
	reindexHandler := &tools.ReindexHandler{
		Logger: logger,
		DoReindex: func(reindexCtx context.Context) (int, string, error) {
			start := time.Now()
			searchCache.Clear()
			matcher.Reload()
			count, err := fileIndex.Rebuild(reindexCtx, searcher)
			if err != nil {
				return 0, "", fmt.Errorf("rebuilding index: %w", err)
			}
			return count, time.Since(start).Round(time.Millisecond).String(), nil
		},
	}

	mcpServer := server.Setup(searchHandler, filesHandler, openHandler, recentHandler, statusHandler, reindexHandler)

	logger.Info("MCP server starting on stdio")
	if err := mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil {
		logger.Error("MCP server error", "error", err)
		return err
	}
	return nil
}

// handleWatcherEvents applies debounced filesystem batches: the cache is
// wiped on every batch, the index is adjusted per event, and ignore-rule
// files trigger a matcher reload.
func handleWatcherEvents(
	fileWatcher *watcher.Watcher,
	fileIndex *index.FileIndex,
	matcher *ignore.Matcher,
	searchCache *cache.SearchCache,
	logger *slog.Logger,
) {
	for events := range fileWatcher.Events() {
		// Any change under the workspace can invalidate any cached search.
		searchCache.Clear()

		for _, event := range events {
			baseName := filepath.Base(event.Path)
			if baseName == ".gitignore" || baseName == ".rgignore" {
				matcher.Reload()
				logger.Info("reloaded ignore rules", "trigger", baseName)
				continue
			}

			switch event.Op {
			case watcher.OpRemove:
				fileIndex.OnDelete(event.Path)
				logger.Debug("removed from index", "path", event.Path)

			case watcher.OpCreate, watcher.OpChange:
				info, err := os.Stat(event.Path)
				if err != nil || info.IsDir() {
					continue
				}
				if matcher.IsFileTooLarge(info.Size()) {
					continue
				}
				if fileIndex.OnCreate(event.Path) {
					logger.Debug("added to index", "path", event.Path)
				}
			}
		}
	}
}

// usageDBPath places the per-workspace usage database outside the
// workspace so its own writes never show up as workspace events.
func usageDBPath(rootDir string) string {
	baseDir, err := os.UserCacheDir()
	if err != nil {
		baseDir = os.TempDir()
	}
	dir := filepath.Join(baseDir, "ripscout")
	if err := os.MkdirAll(dir, 0755); err != nil {
		dir = os.TempDir()
	}

	h := fnv.New64a()
	h.Write([]byte(rootDir))
	return filepath.Join(dir, fmt.Sprintf("usage-%x.db", h.Sum64()))
}

// setupLogger creates an slog.Logger writing to a file, falling back to
// stderr when the file cannot be opened.
func setupLogger(level string, logFile string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	var writer *os.File
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: cannot open log file %s: %v, falling back to stderr\n", logFile, err)
		writer = os.Stderr
	} else {
		writer = f
	}

	handler := slog.NewTextHandler(writer, &slog.HandlerOptions{Level: logLevel})
	return slog.New(handler)
}
