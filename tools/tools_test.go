package tools

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ripscout/ripscout-mcp/cache"
	"github.com/ripscout/ripscout-mcp/frecency"
	"github.com/ripscout/ripscout-mcp/ignore"
	"github.com/ripscout/ripscout-mcp/index"
	"github.com/ripscout/ripscout-mcp/ripgrep"
	"github.com/ripscout/ripscout-mcp/search"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openTestUsage(t *testing.T) *frecency.Store {
	t.Helper()
	store, err := frecency.Open(filepath.Join(t.TempDir(), "usage.db"), testLogger())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestIndex(t *testing.T, root string) *index.FileIndex {
	t.Helper()
	matcher := ignore.NewMatcher(ignore.MatcherOptions{RootDir: root})
	return index.NewFileIndex(root, 0, matcher, testLogger())
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("expected result content")
	}
	return result.Content[0].(*mcp.TextContent).Text
}

// stubRunner produces fixed matches for every query.
type stubRunner struct {
	matches []ripgrep.Match
	state   ripgrep.RunState
}

func (r *stubRunner) Run(ctx context.Context, query string, scope string, sink ripgrep.Sink) ripgrep.RunState {
	sink(r.matches, true)
	if r.state == ripgrep.StateIdle {
		return ripgrep.StateCompleted
	}
	return r.state
}

func Test_SearchHandler_ReturnsMatches(t *testing.T) {
	root := t.TempDir()
	runner := &stubRunner{matches: []ripgrep.Match{
		{Path: filepath.Join(root, "src", "main.go"), Line: 9, Column: 4, Text: "needle here"},
	}}
	session := search.NewSession(runner, nil, nil, search.Config{MinQueryLength: 2}, testLogger())

	h := &SearchHandler{Session: session, RootDir: root, MaxResults: 50, Logger: testLogger()}
	result, _, err := h.Handle(context.Background(), nil, SearchArgs{Query: "needle"})
	if err != nil {
		t.Fatal(err)
	}
	if result.IsError {
		t.Fatal("expected success")
	}

	text := resultText(t, result)
	if !strings.Contains(text, "src/main.go:10:5: needle here") {
		t.Errorf("expected 1-based relative match line, got:\n%s", text)
	}
}

func Test_SearchHandler_ShortQueryClears(t *testing.T) {
	root := t.TempDir()
	session := search.NewSession(&stubRunner{}, nil, nil, search.Config{MinQueryLength: 2}, testLogger())

	h := &SearchHandler{Session: session, RootDir: root, MaxResults: 50, Logger: testLogger()}
	result, _, err := h.Handle(context.Background(), nil, SearchArgs{Query: "a"})
	if err != nil {
		t.Fatal(err)
	}
	if result.IsError {
		t.Fatal("a short query is not an error")
	}
	if !strings.Contains(resultText(t, result), "No matches") {
		t.Errorf("expected empty result text, got:\n%s", resultText(t, result))
	}
}

func Test_SearchHandler_RejectsScopeOutsideWorkspace(t *testing.T) {
	root := t.TempDir()
	session := search.NewSession(&stubRunner{}, nil, nil, search.Config{MinQueryLength: 2}, testLogger())

	h := &SearchHandler{Session: session, RootDir: root, MaxResults: 50, Logger: testLogger()}
	result, _, err := h.Handle(context.Background(), nil, SearchArgs{Query: "needle", Scope: "../outside"})
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError {
		t.Fatal("expected IsError for scope escaping the workspace")
	}
}

func Test_SearchHandler_SyntheticErrorIsInert(t *testing.T) {
	root := t.TempDir()
	runner := &stubRunner{
		matches: []ripgrep.Match{{Path: root, Text: "search failed: binary missing", Err: true}},
		state:   ripgrep.StateErrored,
	}
	session := search.NewSession(runner, nil, nil, search.Config{MinQueryLength: 2}, testLogger())

	h := &SearchHandler{Session: session, RootDir: root, MaxResults: 50, Logger: testLogger()}
	result, _, err := h.Handle(context.Background(), nil, SearchArgs{Query: "needle"})
	if err != nil {
		t.Fatal(err)
	}
	if result.IsError {
		t.Fatal("subprocess failure surfaces as a placeholder, not a tool error")
	}
	if !strings.Contains(resultText(t, result), "search failed") {
		t.Errorf("expected placeholder text, got:\n%s", resultText(t, result))
	}
}

func Test_FilesHandler_FrecencyOrdersBeforeFilter(t *testing.T) {
	root := t.TempDir()
	fileIndex := newTestIndex(t, root)
	aPath := filepath.Join(root, "a.ts")
	bPath := filepath.Join(root, "b.ts")
	fileIndex.OnCreate(aPath)
	fileIndex.OnCreate(bPath)

	usage := openTestUsage(t)
	usage.Touch(frecency.KindFile, aPath, 1000)

	h := &FilesHandler{FileIndex: fileIndex, Usage: usage, MaxResults: 50, Logger: testLogger()}
	result, _, err := h.Handle(context.Background(), nil, FilesArgs{})
	if err != nil {
		t.Fatal(err)
	}

	text := resultText(t, result)
	aIdx := strings.Index(text, "a.ts")
	bIdx := strings.Index(text, "b.ts")
	if aIdx < 0 || bIdx < 0 {
		t.Fatalf("expected both files listed, got:\n%s", text)
	}
	if aIdx > bIdx {
		t.Errorf("expected used a.ts before unused b.ts, got:\n%s", text)
	}
}

func Test_FilesHandler_FuzzyFilter(t *testing.T) {
	root := t.TempDir()
	fileIndex := newTestIndex(t, root)
	fileIndex.OnCreate(filepath.Join(root, "src", "main.go"))
	fileIndex.OnCreate(filepath.Join(root, "README.md"))

	h := &FilesHandler{FileIndex: fileIndex, Usage: openTestUsage(t), MaxResults: 50, Logger: testLogger()}
	result, _, err := h.Handle(context.Background(), nil, FilesArgs{Filter: "srcmngo"})
	if err != nil {
		t.Fatal(err)
	}

	text := resultText(t, result)
	if !strings.Contains(text, "src/main.go") {
		t.Errorf("expected fuzzy filter to keep src/main.go, got:\n%s", text)
	}
	if strings.Contains(text, "README.md") {
		t.Errorf("expected fuzzy filter to drop README.md, got:\n%s", text)
	}
}

func Test_FilesHandler_TruncatesToMaxResults(t *testing.T) {
	root := t.TempDir()
	fileIndex := newTestIndex(t, root)
	fileIndex.OnCreate(filepath.Join(root, "a.go"))
	fileIndex.OnCreate(filepath.Join(root, "b.go"))
	fileIndex.OnCreate(filepath.Join(root, "c.go"))

	h := &FilesHandler{FileIndex: fileIndex, Usage: openTestUsage(t), MaxResults: 2, Logger: testLogger()}
	result, _, err := h.Handle(context.Background(), nil, FilesArgs{})
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(resultText(t, result), "Found 2 files") {
		t.Errorf("expected truncation to 2 files, got:\n%s", resultText(t, result))
	}
}

func Test_OpenHandler_RecordsUsageAndPreviews(t *testing.T) {
	root := t.TempDir()
	os.MkdirAll(filepath.Join(root, "src"), 0755)
	target := filepath.Join(root, "src", "main.go")
	os.WriteFile(target, []byte("package main\n\nfunc main() {}\n"), 0644)

	usage := openTestUsage(t)
	h := &OpenHandler{Usage: usage, RootDir: root, PreviewLines: 10, Logger: testLogger()}

	result, _, err := h.Handle(context.Background(), nil, OpenArgs{FilePath: "src/main.go"})
	if err != nil {
		t.Fatal(err)
	}
	if result.IsError {
		t.Fatal("expected success")
	}
	if !strings.Contains(resultText(t, result), "1: package main") {
		t.Errorf("expected numbered preview, got:\n%s", resultText(t, result))
	}

	if record, ok := usage.Get(frecency.KindFile, target); !ok || record.Frequency != 1 {
		t.Errorf("expected file access recorded, got %+v (ok=%v)", record, ok)
	}
	if _, ok := usage.Get(frecency.KindFolder, filepath.Join(root, "src")); !ok {
		t.Error("expected folder access recorded")
	}
}

func Test_OpenHandler_UnreadableFileStillRecords(t *testing.T) {
	root := t.TempDir()
	usage := openTestUsage(t)
	h := &OpenHandler{Usage: usage, RootDir: root, PreviewLines: 10, Logger: testLogger()}

	result, _, err := h.Handle(context.Background(), nil, OpenArgs{FilePath: "missing.go"})
	if err != nil {
		t.Fatal(err)
	}
	if result.IsError {
		t.Fatal("an unreadable file degrades to no preview, not an error")
	}
	if _, ok := usage.Get(frecency.KindFile, filepath.Join(root, "missing.go")); !ok {
		t.Error("expected access recorded even without a preview")
	}
}

func Test_RecentHandler_MergesConfiguredFolders(t *testing.T) {
	root := t.TempDir()
	usage := openTestUsage(t)
	usage.Touch(frecency.KindFile, filepath.Join(root, "a.go"), 1000)
	usage.Touch(frecency.KindFolder, filepath.Join(root, "src"), 1000)

	h := &RecentHandler{
		Usage:         usage,
		RootDir:       root,
		ConfigFolders: []string{"docs"},
		MaxResults:    50,
		Logger:        testLogger(),
	}
	result, _, err := h.Handle(context.Background(), nil, RecentArgs{})
	if err != nil {
		t.Fatal(err)
	}

	text := resultText(t, result)
	for _, want := range []string{"a.go", "src", "docs"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in recents, got:\n%s", want, text)
		}
	}
	// Used folder ranks above the merely-configured one.
	if strings.Index(text, "src") > strings.Index(text, "docs") {
		t.Errorf("expected used src before configured docs, got:\n%s", text)
	}
}

func Test_FormatMatches_TruncatesAndNumbers(t *testing.T) {
	matches := []ripgrep.Match{
		{Path: "/ws/a.go", Line: 0, Column: 0, Text: "one"},
		{Path: "/ws/b.go", Line: 1, Column: 2, Text: "two"},
		{Path: "/ws/c.go", Line: 2, Column: 4, Text: "three"},
	}

	text := FormatMatches(matches, "/ws", 2)
	if !strings.Contains(text, "a.go:1:1: one") {
		t.Errorf("expected 1-based rendering, got:\n%s", text)
	}
	if strings.Contains(text, "c.go") {
		t.Errorf("expected truncation before c.go, got:\n%s", text)
	}
	if !strings.Contains(text, "truncated to 2 of 3") {
		t.Errorf("expected truncation note, got:\n%s", text)
	}
}

func Test_FormatMatches_Empty(t *testing.T) {
	if got := FormatMatches(nil, "/ws", 10); got != "No matches found." {
		t.Errorf("unexpected empty rendering %q", got)
	}
}

func Test_FormatFileList_PartialIndexNote(t *testing.T) {
	text := FormatFileList([]string{"a.go"}, false)
	if !strings.Contains(text, "indexing still in progress") {
		t.Errorf("expected partial-index note, got:\n%s", text)
	}
}

func Test_StatusHandler_ReportsIndexAndCache(t *testing.T) {
	root := t.TempDir()
	fileIndex := newTestIndex(t, root)
	fileIndex.OnCreate(filepath.Join(root, "a.go"))

	searchCache := cache.New(time.Minute, 8)
	searchCache.Get("missing", root) // one miss

	h := &StatusHandler{
		FileIndex: fileIndex,
		Cache:     searchCache,
		Usage:     openTestUsage(t),
		StartTime: time.Now().Add(-65 * time.Second),
		RootDir:   root,
		Logger:    testLogger(),
	}
	result, _, err := h.Handle(context.Background(), nil, StatusArgs{})
	if err != nil {
		t.Fatal(err)
	}

	text := resultText(t, result)
	if !strings.Contains(text, "Index: 1 files") {
		t.Errorf("expected index count, got:\n%s", text)
	}
	if !strings.Contains(text, "1 misses") {
		t.Errorf("expected cache miss count, got:\n%s", text)
	}
	if !strings.Contains(text, "Uptime: 1m") {
		t.Errorf("expected minute-formatted uptime, got:\n%s", text)
	}
}

func Test_ReindexHandler_ReportsCounts(t *testing.T) {
	h := &ReindexHandler{
		Logger: testLogger(),
		DoReindex: func(ctx context.Context) (int, string, error) {
			return 42, "15ms", nil
		},
	}

	result, _, err := h.Handle(context.Background(), nil, ReindexArgs{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(resultText(t, result), "42 files in 15ms") {
		t.Errorf("unexpected reindex output:\n%s", resultText(t, result))
	}
}
