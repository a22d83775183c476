package ignore

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/denormal/go-gitignore"
)

// Matcher decides whether a path is excluded from the file index and from
// search scopes. It layers default patterns, .gitignore, .rgignore, and
// user-configured exclude globs.
// Thread-safe: Reload() takes the write lock, the Should* methods take the
// read lock.
type Matcher struct {
	mu               sync.RWMutex
	rootDir          string
	gitIgnore        gitignore.GitIgnore
	rgIgnore         gitignore.GitIgnore
	excludeGlobs     []string
	maxFileSizeBytes int64
}

// MatcherOptions configures the matcher.
type MatcherOptions struct {
	RootDir          string
	ExcludeGlobs     []string // doublestar globs matched against relative paths
	MaxFileSizeBytes int64
}

// NewMatcher creates a matcher rooted at options.RootDir.
func NewMatcher(options MatcherOptions) *Matcher {
	m := &Matcher{
		rootDir:          options.RootDir,
		excludeGlobs:     options.ExcludeGlobs,
		maxFileSizeBytes: options.MaxFileSizeBytes,
	}
	if m.maxFileSizeBytes <= 0 {
		m.maxFileSizeBytes = 1024 * 1024
	}

	m.gitIgnore = loadIgnoreFile(filepath.Join(options.RootDir, ".gitignore"), options.RootDir)
	m.rgIgnore = loadIgnoreFile(filepath.Join(options.RootDir, ".rgignore"), options.RootDir)

	return m
}

// ShouldIgnore reports whether the given absolute path is excluded.
func (m *Matcher) ShouldIgnore(absolutePath string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	relativePath, err := filepath.Rel(m.rootDir, absolutePath)
	if err != nil || strings.HasPrefix(relativePath, "..") {
		// Outside the workspace root: always excluded.
		return true
	}
	relativePath = filepath.ToSlash(relativePath)

	if matchesDefaultPatterns(relativePath) {
		return true
	}

	isDir := false
	if info, statErr := os.Stat(absolutePath); statErr == nil {
		isDir = info.IsDir()
	}

	// Relative() matches without requiring the path to exist on disk, which
	// matters for delete events.
	if m.gitIgnore != nil {
		if match := m.gitIgnore.Relative(relativePath, isDir); match != nil && match.Ignore() {
			return true
		}
	}
	if m.rgIgnore != nil {
		if match := m.rgIgnore.Relative(relativePath, isDir); match != nil && match.Ignore() {
			return true
		}
	}

	return m.matchesExcludeGlobs(relativePath)
}

// ShouldIgnoreDir reports whether a directory subtree can be skipped
// entirely during traversal and watching.
func (m *Matcher) ShouldIgnoreDir(absolutePath string) bool {
	if _, ok := skipDirNames[filepath.Base(absolutePath)]; ok {
		return true
	}
	return m.ShouldIgnore(absolutePath)
}

// IsFileTooLarge reports whether a file exceeds the configured size limit.
func (m *Matcher) IsFileTooLarge(fileSize int64) bool {
	return fileSize > m.maxFileSizeBytes
}

// MaxFileSizeBytes returns the configured size limit.
func (m *Matcher) MaxFileSizeBytes() int64 {
	return m.maxFileSizeBytes
}

// ExcludeGlobs returns the user-configured exclude globs. The returned slice
// must not be modified.
func (m *Matcher) ExcludeGlobs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.excludeGlobs
}

// Reload re-reads .gitignore and .rgignore from disk. Called when the
// watcher sees either file change.
func (m *Matcher) Reload() {
	newGitIgnore := loadIgnoreFile(filepath.Join(m.rootDir, ".gitignore"), m.rootDir)
	newRgIgnore := loadIgnoreFile(filepath.Join(m.rootDir, ".rgignore"), m.rootDir)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.gitIgnore = newGitIgnore
	m.rgIgnore = newRgIgnore
}

// matchesDefaultPatterns checks the built-in pattern list against a relative
// path (forward slashes).
func matchesDefaultPatterns(relativePath string) bool {
	baseName := relativePath
	if idx := strings.LastIndex(relativePath, "/"); idx >= 0 {
		baseName = relativePath[idx+1:]
	}
	baseNameLower := strings.ToLower(baseName)

	for _, pattern := range DefaultExcludePatterns {
		if !strings.ContainsAny(pattern, "*?[") {
			// Bare name: match any path component.
			if baseNameLower == strings.ToLower(pattern) {
				return true
			}
			for _, part := range strings.Split(relativePath, "/") {
				if strings.EqualFold(part, pattern) {
					return true
				}
			}
			continue
		}

		if matched, err := filepath.Match(strings.ToLower(pattern), baseNameLower); err == nil && matched {
			return true
		}
	}
	return false
}

// matchesExcludeGlobs checks user-configured doublestar globs against the
// relative path and its basename.
func (m *Matcher) matchesExcludeGlobs(relativePath string) bool {
	baseName := relativePath
	if idx := strings.LastIndex(relativePath, "/"); idx >= 0 {
		baseName = relativePath[idx+1:]
	}

	for _, pattern := range m.excludeGlobs {
		pattern = strings.ReplaceAll(pattern, "\\", "/")
		if matched, err := doublestar.Match(pattern, relativePath); err == nil && matched {
			return true
		}
		if matched, err := doublestar.Match(pattern, baseName); err == nil && matched {
			return true
		}
	}
	return false
}

// loadIgnoreFile parses a gitignore-format file, returning nil if absent.
func loadIgnoreFile(filePath string, baseDir string) gitignore.GitIgnore {
	f, err := os.Open(filePath)
	if err != nil {
		return nil
	}
	defer f.Close()

	return gitignore.New(f, baseDir, nil)
}
