// Package config loads the Hirmes client configuration.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete client configuration.
type Config struct {
	Version  int            `yaml:"version" json:"version"`
	Server   ServerConfig   `yaml:"server" json:"server"`
	Progress ProgressConfig `yaml:"progress" json:"progress"`
	Search   SearchConfig   `yaml:"search" json:"search"`
	Tagging  TaggingConfig  `yaml:"tagging" json:"tagging"`
	History  HistoryConfig  `yaml:"history" json:"history"`
	Watch    WatchConfig    `yaml:"watch" json:"watch"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
}

// ServerConfig locates the Hirmes service.
type ServerConfig struct {
	// URL is the service base URL (default: http://127.0.0.1:5000).
	URL string `yaml:"url" json:"url"`
	// Timeout bounds search, tagging and open-file requests.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
	// IndexTimeout bounds indexing requests. Zero means no client-side limit,
	// indexing a large tree can take minutes.
	IndexTimeout time.Duration `yaml:"index_timeout" json:"index_timeout"`
}

// ProgressConfig tunes the simulated indexing progress bar.
type ProgressConfig struct {
	Interval  time.Duration `yaml:"interval" json:"interval"`
	Ceiling   float64       `yaml:"ceiling" json:"ceiling"`
	MaxStep   float64       `yaml:"max_step" json:"max_step"`
	HideDelay time.Duration `yaml:"hide_delay" json:"hide_delay"`
}

// SearchConfig configures query submission.
type SearchConfig struct {
	// FullText is the initial state of the full-text toggle.
	FullText bool `yaml:"full_text" json:"full_text"`
	// RejectEmptyQuery stops blank queries client-side instead of letting the
	// service report them.
	RejectEmptyQuery bool `yaml:"reject_empty_query" json:"reject_empty_query"`
}

// TaggingConfig configures the optional tag enrichment column.
type TaggingConfig struct {
	// Enabled turns the capability probe on. When false the tag column is
	// never shown and no tagging requests are made.
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Concurrency is the maximum number of tag requests in flight.
	Concurrency int `yaml:"concurrency" json:"concurrency"`
	// RatePerSecond paces tag requests. Zero disables pacing.
	RatePerSecond float64 `yaml:"rate_per_second" json:"rate_per_second"`
}

// HistoryConfig configures the local query history database.
type HistoryConfig struct {
	Enabled    bool   `yaml:"enabled" json:"enabled"`
	Path       string `yaml:"path" json:"path"`
	MaxEntries int    `yaml:"max_entries" json:"max_entries"`
}

// WatchConfig configures `hirmes index --watch`.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce" json:"debounce"`
}

// LoggingConfig configures the client log file.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Server: ServerConfig{
			URL:          "http://127.0.0.1:5000",
			Timeout:      30 * time.Second,
			IndexTimeout: 0,
		},
		Progress: ProgressConfig{
			Interval:  500 * time.Millisecond,
			Ceiling:   95,
			MaxStep:   10,
			HideDelay: 800 * time.Millisecond,
		},
		Search: SearchConfig{
			FullText:         false,
			RejectEmptyQuery: false,
		},
		Tagging: TaggingConfig{
			Enabled:       true,
			Concurrency:   8,
			RatePerSecond: 0,
		},
		History: HistoryConfig{
			Enabled:    true,
			Path:       defaultHistoryPath(),
			MaxEntries: 500,
		},
		Watch: WatchConfig{
			Debounce: 2 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DataDir returns ~/.hirmes, the directory for client state.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".hirmes")
	}
	return filepath.Join(home, ".hirmes")
}

func defaultHistoryPath() string {
	return filepath.Join(DataDir(), "history.db")
}

// GetUserConfigPath returns the path to the user configuration file.
// It follows XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/hirmes/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/hirmes/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "hirmes", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "hirmes", "config.yaml")
	}
	return filepath.Join(home, ".config", "hirmes", "config.yaml")
}

// Load loads configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. The config file (explicit path, or the user config path if it exists)
//  3. Environment variables (HIRMES_*)
//
// An explicit path that does not exist is an error; a missing user config is not.
func Load(explicitPath string) (*Config, error) {
	cfg := NewConfig()

	path := explicitPath
	if path == "" {
		path = GetUserConfigPath()
		if !fileExists(path) {
			path = ""
		}
	}

	if path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadYAML decodes the file over the current values, so keys absent from the
// file keep their defaults (including booleans that default to true).
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("HIRMES_SERVER_URL"); v != "" {
		c.Server.URL = v
	}
	if v := os.Getenv("HIRMES_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.Server.Timeout = d
		}
	}
	if v := os.Getenv("HIRMES_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("HIRMES_TAGGING_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Tagging.Enabled = b
		}
	}
	if v := os.Getenv("HIRMES_REJECT_EMPTY_QUERY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Search.RejectEmptyQuery = b
		}
	}
	if v := os.Getenv("HIRMES_HISTORY_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.History.Enabled = b
		}
	}
}

// Validate checks the configuration for values the client cannot work with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.URL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("server.url must be an absolute http(s) URL, got %q", c.Server.URL)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}
	if c.Server.IndexTimeout < 0 {
		return fmt.Errorf("server.index_timeout must be non-negative, got %s", c.Server.IndexTimeout)
	}

	if c.Progress.Interval <= 0 {
		return fmt.Errorf("progress.interval must be positive, got %s", c.Progress.Interval)
	}
	if c.Progress.Ceiling <= 0 || c.Progress.Ceiling >= 100 {
		return fmt.Errorf("progress.ceiling must be between 0 and 100 (exclusive), got %.1f", c.Progress.Ceiling)
	}
	if c.Progress.MaxStep <= 0 {
		return fmt.Errorf("progress.max_step must be positive, got %.1f", c.Progress.MaxStep)
	}
	if c.Progress.HideDelay < 0 {
		return fmt.Errorf("progress.hide_delay must be non-negative, got %s", c.Progress.HideDelay)
	}

	if c.Tagging.Concurrency <= 0 {
		return fmt.Errorf("tagging.concurrency must be positive, got %d", c.Tagging.Concurrency)
	}
	if c.Tagging.RatePerSecond < 0 {
		return fmt.Errorf("tagging.rate_per_second must be non-negative, got %.2f", c.Tagging.RatePerSecond)
	}

	if c.History.Enabled && c.History.Path == "" {
		return fmt.Errorf("history.path is required when history is enabled")
	}
	if c.History.MaxEntries < 0 {
		return fmt.Errorf("history.max_entries must be non-negative, got %d", c.History.MaxEntries)
	}

	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must be non-negative, got %s", c.Watch.Debounce)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file, creating parent
// directories as needed.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
