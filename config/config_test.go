package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func Test_Load_DefaultsWithoutConfigFile(t *testing.T) {
	settings, err := Load(viper.New(), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if settings.MaxResults != 50 {
		t.Errorf("expected default max_results 50, got %d", settings.MaxResults)
	}
	if settings.MinQueryLength != 2 {
		t.Errorf("expected default min_query_length 2, got %d", settings.MinQueryLength)
	}
	if settings.CacheTTL() != 30*time.Second {
		t.Errorf("expected default cache TTL 30s, got %s", settings.CacheTTL())
	}
	if settings.RipgrepPath != "rg" {
		t.Errorf("expected default ripgrep_path rg, got %q", settings.RipgrepPath)
	}
}

func Test_Load_ReadsWorkspaceConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configYAML := `
max_results: 25
preview_lines: 5
exclude_globs:
  - "**/*.min.js"
recent_folders:
  - src
  - docs
`
	if err := os.WriteFile(filepath.Join(tmpDir, ".ripscout.yaml"), []byte(configYAML), 0644); err != nil {
		t.Fatal(err)
	}

	settings, err := Load(viper.New(), tmpDir)
	if err != nil {
		t.Fatal(err)
	}

	if settings.MaxResults != 25 {
		t.Errorf("expected max_results 25 from file, got %d", settings.MaxResults)
	}
	if settings.PreviewLines != 5 {
		t.Errorf("expected preview_lines 5 from file, got %d", settings.PreviewLines)
	}
	if len(settings.ExcludeGlobs) != 1 || settings.ExcludeGlobs[0] != "**/*.min.js" {
		t.Errorf("unexpected exclude_globs %v", settings.ExcludeGlobs)
	}
	if len(settings.RecentFolders) != 2 {
		t.Errorf("expected 2 recent folders, got %v", settings.RecentFolders)
	}
	// Untouched keys keep their defaults.
	if settings.MinQueryLength != 2 {
		t.Errorf("expected untouched min_query_length default, got %d", settings.MinQueryLength)
	}
}

func Test_Load_FlagBindingOverridesFile(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, ".ripscout.yaml"), []byte("max_results: 25\n"), 0644); err != nil {
		t.Fatal(err)
	}

	v := viper.New()
	v.Set("max_results", 10) // what a bound flag would do

	settings, err := Load(v, tmpDir)
	if err != nil {
		t.Fatal(err)
	}
	if settings.MaxResults != 10 {
		t.Errorf("expected flag override 10, got %d", settings.MaxResults)
	}
}

func Test_Load_RejectsInvalidValues(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, ".ripscout.yaml"), []byte("min_query_length: 0\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(viper.New(), tmpDir); err == nil {
		t.Fatal("expected validation error for min_query_length 0")
	}
}

func Test_Load_RejectsMalformedConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, ".ripscout.yaml"), []byte("max_results: [unclosed\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(viper.New(), tmpDir); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}
