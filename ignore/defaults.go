package ignore

// DefaultExcludePatterns lists names and globs that are never worth indexing
// or searching. They apply on top of .gitignore, .rgignore, and any
// user-configured exclude globs.
var DefaultExcludePatterns = []string{
	// Version control
	".git",
	".svn",
	".hg",

	// Dependencies
	"node_modules",
	"vendor",
	"bower_components",
	".npm",
	".yarn",

	// Build output
	"dist",
	"build",
	"out",
	"target",
	"obj",

	// IDE / editor state
	".idea",
	".vscode",
	".vs",
	"*.swp",
	"*.swo",
	"*~",

	// OS noise
	".DS_Store",
	"Thumbs.db",
	"desktop.ini",

	// Python
	"__pycache__",
	"*.pyc",
	"*.pyo",
	".venv",
	"venv",

	// Caches and coverage
	".cache",
	".parcel-cache",
	"coverage",
	".nyc_output",

	// Binary artifacts
	"*.exe",
	"*.dll",
	"*.so",
	"*.dylib",
	"*.o",
	"*.a",
	"*.class",
	"*.jar",
	"*.war",

	// Archives and media
	"*.zip",
	"*.tar",
	"*.gz",
	"*.7z",
	"*.png",
	"*.jpg",
	"*.jpeg",
	"*.gif",
	"*.ico",
	"*.pdf",

	// Lock files
	"package-lock.json",
	"yarn.lock",
	"pnpm-lock.yaml",
	"go.sum",
	"Cargo.lock",
}

// skipDirNames are directory basenames skipped without consulting any
// ignore file. Kept separate so directory traversal can bail out fast.
var skipDirNames = map[string]struct{}{
	".git":          {},
	".svn":          {},
	".hg":           {},
	"node_modules":  {},
	"__pycache__":   {},
	".idea":         {},
	".vscode":       {},
	".vs":           {},
	".next":         {},
	".nuxt":         {},
	".cache":        {},
	".parcel-cache": {},
	"coverage":      {},
	".nyc_output":   {},
	".venv":         {},
	"venv":          {},
}
