// Package index maintains the workspace file index: a bounded set of
// absolute paths kept in sync with filesystem events. Membership only; no
// content or metadata is stored.
package index

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Excluder filters paths at insertion time. Satisfied by ignore.Matcher.
type Excluder interface {
	ShouldIgnore(absolutePath string) bool
	ShouldIgnoreDir(absolutePath string) bool
	IsFileTooLarge(fileSize int64) bool
}

// FileLister provides bulk enumeration, normally backed by the search
// binary's --files mode.
type FileLister interface {
	ListFiles(ctx context.Context, root string) ([]string, error)
}

// FileIndex is the set of indexed workspace paths. All mutators enforce the
// workspace-root and exclusion invariants before touching the set, so the
// index can never contain a path outside the root or matching an ignore
// rule.
type FileIndex struct {
	mu         sync.RWMutex
	root       string
	paths      map[string]struct{}
	maxEntries int
	ready      bool

	excluder Excluder
	logger   *slog.Logger
}

// NewFileIndex creates an empty index rooted at root. maxEntries caps the
// set size; zero or negative means 100000.
func NewFileIndex(root string, maxEntries int, excluder Excluder, logger *slog.Logger) *FileIndex {
	if maxEntries <= 0 {
		maxEntries = 100000
	}
	return &FileIndex{
		root:       filepath.Clean(root),
		paths:      make(map[string]struct{}),
		maxEntries: maxEntries,
		excluder:   excluder,
		logger:     logger,
	}
}

// Initialize starts the bulk enumeration in the background and returns
// immediately. Callers poll Snapshot for whatever has been indexed so far.
// Enumeration failure leaves the index empty; it is logged, never fatal.
func (fi *FileIndex) Initialize(ctx context.Context, lister FileLister) {
	go func() {
		count, err := fi.Rebuild(ctx, lister)
		if err != nil {
			fi.logger.Error("bulk enumeration failed, index left empty", "error", err)
			return
		}
		fi.logger.Info("bulk enumeration complete", "files", count)
	}()
}

// Rebuild clears the index and performs one synchronous bulk enumeration,
// preferring the external lister and falling back to a directory walk when
// the lister is unavailable. Returns the number of entries indexed.
func (fi *FileIndex) Rebuild(ctx context.Context, lister FileLister) (int, error) {
	fi.Clear()

	var listed []string
	var err error
	if lister != nil {
		listed, err = lister.ListFiles(ctx, fi.root)
	}
	if lister == nil || err != nil {
		if err != nil {
			fi.logger.Warn("file listing via search binary failed, walking directory tree", "error", err)
		}
		listed, err = fi.walkFiles(ctx)
		if err != nil {
			fi.markReady()
			return 0, err
		}
	}

	added := 0
	for _, path := range listed {
		if ctx.Err() != nil {
			break
		}
		if fi.OnCreate(path) {
			added++
		}
	}
	fi.markReady()
	return added, nil
}

// OnCreate inserts a path, enforcing root containment, exclusion rules, and
// the entry cap. Idempotent: re-adding an indexed path is a no-op. Reports
// whether the path was newly inserted.
func (fi *FileIndex) OnCreate(path string) bool {
	abs := fi.absolutize(path)
	if abs == "" {
		return false
	}
	if fi.excluder != nil && fi.excluder.ShouldIgnore(abs) {
		return false
	}

	fi.mu.Lock()
	defer fi.mu.Unlock()

	if _, exists := fi.paths[abs]; exists {
		return false
	}
	if len(fi.paths) >= fi.maxEntries {
		fi.logger.Debug("index at capacity, dropping path", "path", abs, "cap", fi.maxEntries)
		return false
	}
	fi.paths[abs] = struct{}{}
	return true
}

// OnDelete removes a path. Idempotent: deleting an unknown path is a no-op.
func (fi *FileIndex) OnDelete(path string) {
	abs := fi.absolutize(path)
	if abs == "" {
		return
	}

	fi.mu.Lock()
	defer fi.mu.Unlock()
	delete(fi.paths, abs)
}

// Contains reports whether a path is currently indexed.
func (fi *FileIndex) Contains(path string) bool {
	abs := fi.absolutize(path)

	fi.mu.RLock()
	defer fi.mu.RUnlock()
	_, ok := fi.paths[abs]
	return ok
}

// Snapshot returns the current set of indexed paths, sorted. Safe to call
// while initialization is still running; the result may be partial or empty.
func (fi *FileIndex) Snapshot() []string {
	fi.mu.RLock()
	paths := make([]string, 0, len(fi.paths))
	for path := range fi.paths {
		paths = append(paths, path)
	}
	fi.mu.RUnlock()

	sort.Strings(paths)
	return paths
}

// Len returns the number of indexed paths.
func (fi *FileIndex) Len() int {
	fi.mu.RLock()
	defer fi.mu.RUnlock()
	return len(fi.paths)
}

// Ready reports whether the bulk enumeration has finished.
func (fi *FileIndex) Ready() bool {
	fi.mu.RLock()
	defer fi.mu.RUnlock()
	return fi.ready
}

// Root returns the workspace root the index is bound to.
func (fi *FileIndex) Root() string {
	return fi.root
}

// Clear empties the index and resets readiness.
func (fi *FileIndex) Clear() {
	fi.mu.Lock()
	defer fi.mu.Unlock()
	fi.paths = make(map[string]struct{})
	fi.ready = false
}

func (fi *FileIndex) markReady() {
	fi.mu.Lock()
	defer fi.mu.Unlock()
	fi.ready = true
}

// absolutize resolves a path against the root and rejects anything that
// escapes it. Returns "" for rejected paths.
func (fi *FileIndex) absolutize(path string) string {
	if path == "" {
		return ""
	}
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(fi.root, abs)
	}
	abs = filepath.Clean(abs)

	rel, err := filepath.Rel(fi.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ""
	}
	return abs
}

// walkFiles is the fallback enumeration used when the search binary cannot
// list files. Mirrors the exclusion rules the binary would apply.
func (fi *FileIndex) walkFiles(ctx context.Context) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(fi.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if ctx.Err() != nil {
			return filepath.SkipAll
		}
		if d.IsDir() {
			if path != fi.root && fi.excluder != nil && fi.excluder.ShouldIgnoreDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if fi.excluder != nil {
			if fi.excluder.ShouldIgnore(path) {
				return nil
			}
			if info, infoErr := d.Info(); infoErr == nil && fi.excluder.IsFileTooLarge(info.Size()) {
				return nil
			}
		}
		paths = append(paths, path)
		return nil
	})
	return paths, err
}
