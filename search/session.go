// Package search coordinates content searches for one logical picker:
// minimum query length, debouncing, superseding in-flight runs, caching,
// and stale-completion discard. At most one search per session is active;
// a newer query kills the older run.
package search

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ripscout/ripscout-mcp/cache"
	"github.com/ripscout/ripscout-mcp/frecency"
	"github.com/ripscout/ripscout-mcp/ripgrep"
)

// ErrSuperseded is returned to a caller whose query was replaced by a newer
// one before its results could be published. It is informational, not a
// failure.
var ErrSuperseded = errors.New("query superseded by newer input")

// ErrSessionClosed is returned after Close.
var ErrSessionClosed = errors.New("search session closed")

// Runner executes one search subprocess. Satisfied by ripgrep.Searcher.
type Runner interface {
	Run(ctx context.Context, query string, scope string, sink ripgrep.Sink) ripgrep.RunState
}

// Config tunes session behavior.
type Config struct {
	MinQueryLength int           // queries shorter than this clear results without searching
	Debounce       time.Duration // quiet period coalescing rapid query updates
	Timeout        time.Duration // per-run wall clock limit; partials are kept on expiry
}

// Session owns the mutable search state that would otherwise be
// module-level globals: the current query generation, the in-flight cancel
// handle, and the last published results.
type Session struct {
	runner Runner
	cache  *cache.SearchCache
	usage  *frecency.Store // optional; attaches display scores when present
	config Config
	logger *slog.Logger

	group singleflight.Group

	mu             sync.Mutex
	generation     uint64
	cancelInFlight context.CancelFunc
	lastQuery      string
	lastResults    []ripgrep.Match
	closed         bool

	now func() time.Time
}

// NewSession creates a session. cache and usage may be nil to disable
// memoization and scoring respectively.
func NewSession(runner Runner, resultCache *cache.SearchCache, usage *frecency.Store, config Config, logger *slog.Logger) *Session {
	if config.MinQueryLength <= 0 {
		config.MinQueryLength = 2
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	return &Session{
		runner: runner,
		cache:  resultCache,
		usage:  usage,
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// Query runs a search over scope, honoring the session's debounce and
// supersede semantics. Short queries clear results and return an empty
// list without spawning anything. A caller whose query was replaced gets
// ErrSuperseded.
func (s *Session) Query(ctx context.Context, query string, scope string) ([]ripgrep.Match, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}

	// This call is now the current query; anything older is dead.
	s.generation++
	generation := s.generation
	if s.cancelInFlight != nil {
		s.cancelInFlight()
		s.cancelInFlight = nil
	}

	if len(query) < s.config.MinQueryLength {
		s.lastQuery = query
		s.lastResults = nil
		s.mu.Unlock()
		return nil, nil
	}
	s.mu.Unlock()

	// Quiet period: rapid successive calls supersede the ones still waiting
	// here, so only the last of a burst spawns a process.
	if s.config.Debounce > 0 {
		timer := time.NewTimer(s.config.Debounce)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
		if s.currentGeneration() != generation {
			return nil, ErrSuperseded
		}
	}

	if s.cache != nil {
		if results, ok := s.cache.Get(query, scope); ok {
			return s.publish(generation, query, results)
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()
	s.mu.Lock()
	if s.generation == generation {
		s.cancelInFlight = cancel
	}
	s.mu.Unlock()

	type runOutcome struct {
		matches []ripgrep.Match
		state   ripgrep.RunState
	}

	// Identical concurrent queries share one subprocess.
	value, err, _ := s.group.Do(query+"\x00"+scope, func() (any, error) {
		var matches []ripgrep.Match
		state := s.runner.Run(runCtx, query, scope, func(batch []ripgrep.Match, final bool) {
			matches = append(matches, batch...)
		})
		return runOutcome{matches: matches, state: state}, nil
	})
	if err != nil {
		return nil, err
	}
	outcome := value.(runOutcome)

	s.logger.Debug("search run finished",
		"query", query,
		"state", outcome.state,
		"matches", len(outcome.matches),
	)

	if outcome.state == ripgrep.StateKilled && s.currentGeneration() != generation {
		// Our run was killed by a newer query; its buffered partials belong
		// to nobody.
		return nil, ErrSuperseded
	}

	s.attachScores(outcome.matches)

	if s.cache != nil && outcome.state == ripgrep.StateCompleted {
		s.cache.Set(query, scope, outcome.matches)
	}

	return s.publish(generation, query, outcome.matches)
}

// publish applies results only if this generation is still current. A stale
// completion must never overwrite a newer query's results.
func (s *Session) publish(generation uint64, query string, results []ripgrep.Match) ([]ripgrep.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.generation != generation {
		return nil, ErrSuperseded
	}
	s.lastQuery = query
	s.lastResults = results
	return results, nil
}

// Results returns the last published result list and its query.
func (s *Session) Results() (string, []ripgrep.Match) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastQuery, s.lastResults
}

// Close kills any in-flight run and rejects further queries.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.cancelInFlight != nil {
		s.cancelInFlight()
		s.cancelInFlight = nil
	}
	s.lastResults = nil
}

func (s *Session) currentGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// attachScores stamps each match with its file's frecency score and orders
// the list by score, stable so ripgrep's ordering survives for ties.
func (s *Session) attachScores(matches []ripgrep.Match) {
	if s.usage == nil || len(matches) == 0 {
		return
	}
	nowMs := s.now().UnixMilli()
	for i := range matches {
		if matches[i].Err {
			continue
		}
		record, ok := s.usage.Get(frecency.KindFile, matches[i].Path)
		matches[i].Score = frecency.Score(record, ok, nowMs)
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
}
