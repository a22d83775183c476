// Package ripgrep shells out to a ripgrep-compatible binary and streams its
// matches back to the caller. It owns the argument contract and the output
// line format; it does not rank, cache, or debounce.
package ripgrep

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"time"
)

// Match is one search hit. Line and Column are 0-based; ripgrep emits them
// 1-based on the wire.
type Match struct {
	Path   string
	Line   int
	Column int
	Text   string
	Score  float64 // display ordering hint filled in by the caller
	Err    bool    // synthetic placeholder produced on process failure
}

// RunState is the terminal state of a single search invocation.
type RunState int

const (
	StateIdle RunState = iota
	StateSpawned
	StateStreaming
	StateCompleted
	StateErrored
	StateKilled
)

func (s RunState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSpawned:
		return "spawned"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateErrored:
		return "errored"
	case StateKilled:
		return "killed"
	default:
		return "unknown"
	}
}

// Sink receives match batches as they arrive. final is true exactly once,
// on the last delivery of a run (which may carry an empty batch).
type Sink func(matches []Match, final bool)

// Options configures the subprocess invocation.
type Options struct {
	BinaryPath       string // defaults to "rg"
	MaxCountPerFile  int
	MaxFileSizeBytes int64
	IncludeHidden    bool
	IncludeGlobs     []string
	ExcludeGlobs     []string
	FlushInterval    time.Duration // partial-result flush cadence
}

// Searcher spawns one external process per Run call.
type Searcher struct {
	Options Options
	Logger  *slog.Logger
}

// NewSearcher creates a Searcher with defaults filled in.
func NewSearcher(options Options, logger *slog.Logger) *Searcher {
	if options.BinaryPath == "" {
		options.BinaryPath = "rg"
	}
	if options.FlushInterval <= 0 {
		options.FlushInterval = 100 * time.Millisecond
	}
	return &Searcher{Options: options, Logger: logger}
}

// buildArgs assembles the fixed argument contract: line-number + column
// output, smart case, glob includes/excludes, hidden toggle, match and file
// size caps.
func (s *Searcher) buildArgs(query string, scope string) []string {
	args := []string{
		"--line-number",
		"--column",
		"--no-heading",
		"--color", "never",
		"--smart-case",
	}
	if s.Options.MaxCountPerFile > 0 {
		args = append(args, "--max-count", strconv.Itoa(s.Options.MaxCountPerFile))
	}
	if s.Options.MaxFileSizeBytes > 0 {
		args = append(args, "--max-filesize", strconv.FormatInt(s.Options.MaxFileSizeBytes, 10))
	}
	if s.Options.IncludeHidden {
		args = append(args, "--hidden")
	}
	for _, glob := range s.Options.IncludeGlobs {
		args = append(args, "-g", glob)
	}
	for _, glob := range s.Options.ExcludeGlobs {
		args = append(args, "-g", "!"+glob)
	}
	args = append(args, "--", query, scope)
	return args
}

// Run executes one search over the given scope, streaming batches to sink.
// It never returns an error for process failures: those surface as a single
// synthetic error Match. Cancellation via ctx kills the process and counts
// as Killed, with buffered partial results flushed so the caller is not
// left blank.
func (s *Searcher) Run(ctx context.Context, query string, scope string, sink Sink) RunState {
	args := s.buildArgs(query, scope)
	cmd := exec.CommandContext(ctx, s.Options.BinaryPath, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		sink([]Match{errorMatch(scope, err)}, true)
		return StateErrored
	}

	if err := cmd.Start(); err != nil {
		s.Logger.Warn("search process failed to start", "binary", s.Options.BinaryPath, "error", err)
		sink([]Match{errorMatch(scope, err)}, true)
		return StateErrored
	}
	state := StateSpawned

	var pending []Match
	lastFlush := time.Now()

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		match, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}
		state = StateStreaming
		pending = append(pending, match)

		if time.Since(lastFlush) >= s.Options.FlushInterval {
			sink(pending, false)
			pending = nil
			lastFlush = time.Now()
		}
	}

	_ = state

	waitErr := cmd.Wait()

	if ctx.Err() != nil {
		// Superseded or timed out: flush whatever was buffered, no error
		// surfaced to the user.
		sink(pending, true)
		s.Logger.Debug("search process killed", "query", query, "scope", scope)
		return StateKilled
	}

	if waitErr != nil && !isNoMatchExit(waitErr) {
		s.Logger.Warn("search process failed", "query", query, "scope", scope, "error", waitErr)
		sink([]Match{errorMatch(scope, waitErr)}, true)
		return StateErrored
	}

	sink(pending, true)
	return StateCompleted
}

// ListFiles enumerates files under root using the search binary's file
// listing mode. Used for bulk index population; callers fall back to a
// directory walk when this fails.
func (s *Searcher) ListFiles(ctx context.Context, root string) ([]string, error) {
	args := []string{"--files"}
	if s.Options.IncludeHidden {
		args = append(args, "--hidden")
	}
	for _, glob := range s.Options.ExcludeGlobs {
		args = append(args, "-g", "!"+glob)
	}
	args = append(args, "--", root)

	cmd := exec.CommandContext(ctx, s.Options.BinaryPath, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("opening stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s --files: %w", s.Options.BinaryPath, err)
	}

	var paths []string
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			paths = append(paths, line)
		}
	}

	if err := cmd.Wait(); err != nil && !isNoMatchExit(err) {
		return nil, fmt.Errorf("%s --files: %w", s.Options.BinaryPath, err)
	}
	return paths, nil
}

// errorMatch builds the single inert placeholder surfaced on process
// failure.
func errorMatch(scope string, err error) Match {
	return Match{
		Path: scope,
		Text: fmt.Sprintf("search failed: %v", err),
		Err:  true,
	}
}

// isNoMatchExit reports whether the process exit means "no matches found"
// (exit code 1 for ripgrep), which is not a failure.
func isNoMatchExit(err error) bool {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode() == 1
	}
	return false
}
