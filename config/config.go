// Package config loads tool settings from a workspace config file,
// environment variables, and CLI flags, in ascending precedence.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Settings is the full configuration surface. Everything here is a
// read-only input to the components; nothing mutates settings at runtime.
type Settings struct {
	ExcludeGlobs     []string `mapstructure:"exclude_globs"`
	MaxFileSizeBytes int64    `mapstructure:"max_file_size_bytes"`
	MaxIndexEntries  int      `mapstructure:"max_index_entries"`
	MaxResults       int      `mapstructure:"max_results"`
	PreviewLines     int      `mapstructure:"preview_lines"`
	MinQueryLength   int      `mapstructure:"min_query_length"`
	DebounceMs       int      `mapstructure:"debounce_ms"`
	CacheTTLMs       int      `mapstructure:"cache_ttl_ms"`
	CacheCapacity    int      `mapstructure:"cache_capacity"`
	SearchTimeoutMs  int      `mapstructure:"search_timeout_ms"`
	IncludeHidden    bool     `mapstructure:"include_hidden"`
	RipgrepPath      string   `mapstructure:"ripgrep_path"`
	RecentFolders    []string `mapstructure:"recent_folders"`
	WatchDebounceMs  int      `mapstructure:"watch_debounce_ms"`
	ReconcileSec     int      `mapstructure:"reconcile_interval_sec"`
	LogLevel         string   `mapstructure:"log_level"`
	LogFile          string   `mapstructure:"log_file"`
}

// ConfigFileName is looked up in the workspace root.
const ConfigFileName = ".ripscout"

// setDefaults registers every setting's default value.
func setDefaults(v *viper.Viper) {
	v.SetDefault("exclude_globs", []string{})
	v.SetDefault("max_file_size_bytes", int64(1024*1024))
	v.SetDefault("max_index_entries", 100000)
	v.SetDefault("max_results", 50)
	v.SetDefault("preview_lines", 10)
	v.SetDefault("min_query_length", 2)
	v.SetDefault("debounce_ms", 150)
	v.SetDefault("cache_ttl_ms", 30000)
	v.SetDefault("cache_capacity", 64)
	v.SetDefault("search_timeout_ms", 10000)
	v.SetDefault("include_hidden", false)
	v.SetDefault("ripgrep_path", "rg")
	v.SetDefault("recent_folders", []string{})
	v.SetDefault("watch_debounce_ms", 100)
	v.SetDefault("reconcile_interval_sec", 300)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
}

// Load reads settings for a workspace. The config file (.ripscout.yaml in
// the workspace root) is optional; RIPSCOUT_* environment variables and any
// flags bound to v override it.
func Load(v *viper.Viper, rootDir string) (*Settings, error) {
	setDefaults(v)

	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(rootDir)

	v.SetEnvPrefix("RIPSCOUT")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := settings.validate(); err != nil {
		return nil, err
	}
	return &settings, nil
}

func (s *Settings) validate() error {
	if s.MaxFileSizeBytes <= 0 {
		return fmt.Errorf("max_file_size_bytes must be positive, got %d", s.MaxFileSizeBytes)
	}
	if s.MaxIndexEntries <= 0 {
		return fmt.Errorf("max_index_entries must be positive, got %d", s.MaxIndexEntries)
	}
	if s.MinQueryLength < 1 {
		return fmt.Errorf("min_query_length must be at least 1, got %d", s.MinQueryLength)
	}
	if s.CacheTTLMs <= 0 {
		return fmt.Errorf("cache_ttl_ms must be positive, got %d", s.CacheTTLMs)
	}
	return nil
}

// Debounce returns the query debounce interval.
func (s *Settings) Debounce() time.Duration {
	return time.Duration(s.DebounceMs) * time.Millisecond
}

// CacheTTL returns the search cache entry lifetime.
func (s *Settings) CacheTTL() time.Duration {
	return time.Duration(s.CacheTTLMs) * time.Millisecond
}

// SearchTimeout returns the per-search wall clock limit.
func (s *Settings) SearchTimeout() time.Duration {
	return time.Duration(s.SearchTimeoutMs) * time.Millisecond
}

// WatchDebounce returns the filesystem event debounce interval.
func (s *Settings) WatchDebounce() time.Duration {
	return time.Duration(s.WatchDebounceMs) * time.Millisecond
}

// ReconcileInterval returns the periodic index reconcile interval.
func (s *Settings) ReconcileInterval() time.Duration {
	return time.Duration(s.ReconcileSec) * time.Second
}
