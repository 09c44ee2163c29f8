package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the user config lookup at an empty temp dir and clears
// HIRMES_* overrides for the duration of the test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	for _, k := range []string{
		"HIRMES_SERVER_URL", "HIRMES_TIMEOUT", "HIRMES_LOG_LEVEL",
		"HIRMES_TAGGING_ENABLED", "HIRMES_REJECT_EMPTY_QUERY", "HIRMES_HISTORY_ENABLED",
	} {
		t.Setenv(k, "")
	}
	return dir
}

func TestNewConfig_ReturnsDefaults(t *testing.T) {
	cfg := NewConfig()
	require.NotNil(t, cfg)

	assert.Equal(t, "http://127.0.0.1:5000", cfg.Server.URL)
	assert.Equal(t, 30*time.Second, cfg.Server.Timeout)
	assert.Zero(t, cfg.Server.IndexTimeout)

	assert.Equal(t, 500*time.Millisecond, cfg.Progress.Interval)
	assert.Equal(t, 95.0, cfg.Progress.Ceiling)
	assert.Equal(t, 10.0, cfg.Progress.MaxStep)
	assert.Equal(t, 800*time.Millisecond, cfg.Progress.HideDelay)

	assert.False(t, cfg.Search.RejectEmptyQuery)
	assert.True(t, cfg.Tagging.Enabled)
	assert.Equal(t, 8, cfg.Tagging.Concurrency)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, "history.db", filepath.Base(cfg.History.Path))
	assert.Equal(t, "info", cfg.Logging.Level)

	require.NoError(t, cfg.Validate())
}

func TestGetUserConfigPath_XDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	assert.Equal(t, filepath.Join(dir, "hirmes", "config.yaml"), GetUserConfigPath())
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, NewConfig().Server, cfg.Server)
}

func TestLoad_UserFileOverridesDefaults(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "hirmes", "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  url: http://search.local:8080
progress:
  interval: 250ms
tagging:
  enabled: false
`), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://search.local:8080", cfg.Server.URL)
	assert.Equal(t, 250*time.Millisecond, cfg.Progress.Interval)
	assert.False(t, cfg.Tagging.Enabled)
	// Untouched keys keep defaults
	assert.Equal(t, 30*time.Second, cfg.Server.Timeout)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, 95.0, cfg.Progress.Ceiling)
}

func TestLoad_ExplicitPathMissing(t *testing.T) {
	isolate(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_MalformedYAML(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  url: http://file.local:1\n"), 0o644))

	t.Setenv("HIRMES_SERVER_URL", "http://env.local:2")
	t.Setenv("HIRMES_TIMEOUT", "5s")
	t.Setenv("HIRMES_REJECT_EMPTY_QUERY", "true")
	t.Setenv("HIRMES_TAGGING_ENABLED", "0")
	t.Setenv("HIRMES_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://env.local:2", cfg.Server.URL)
	assert.Equal(t, 5*time.Second, cfg.Server.Timeout)
	assert.True(t, cfg.Search.RejectEmptyQuery)
	assert.False(t, cfg.Tagging.Enabled)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_InvalidEnvValuesIgnored(t *testing.T) {
	isolate(t)
	t.Setenv("HIRMES_TIMEOUT", "soon")
	t.Setenv("HIRMES_TAGGING_ENABLED", "maybe")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.Server.Timeout)
	assert.True(t, cfg.Tagging.Enabled)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"relative url", func(c *Config) { c.Server.URL = "localhost:5000" }, "server.url"},
		{"ftp url", func(c *Config) { c.Server.URL = "ftp://host" }, "server.url"},
		{"zero timeout", func(c *Config) { c.Server.Timeout = 0 }, "server.timeout"},
		{"negative index timeout", func(c *Config) { c.Server.IndexTimeout = -time.Second }, "server.index_timeout"},
		{"ceiling at 100", func(c *Config) { c.Progress.Ceiling = 100 }, "progress.ceiling"},
		{"zero interval", func(c *Config) { c.Progress.Interval = 0 }, "progress.interval"},
		{"zero step", func(c *Config) { c.Progress.MaxStep = 0 }, "progress.max_step"},
		{"zero concurrency", func(c *Config) { c.Tagging.Concurrency = 0 }, "tagging.concurrency"},
		{"negative rate", func(c *Config) { c.Tagging.RatePerSecond = -1 }, "tagging.rate_per_second"},
		{"history without path", func(c *Config) { c.History.Path = "" }, "history.path"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWriteYAML_RoundTripsThroughLoad(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "out", "config.yaml")

	cfg := NewConfig()
	cfg.Server.URL = "https://hirmes.example.com"
	cfg.Progress.HideDelay = time.Second
	require.NoError(t, cfg.WriteYAML(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://hirmes.example.com", loaded.Server.URL)
	assert.Equal(t, time.Second, loaded.Progress.HideDelay)
}
