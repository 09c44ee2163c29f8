// Package ui renders the search and indexing surfaces: an interactive
// bubbletea application for terminals and a line-oriented console driver
// for pipes and CI.
package ui

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// Mode selects the renderer.
type Mode int

const (
	// ModeTUI is the full-screen interactive application.
	ModeTUI Mode = iota
	// ModePlain prints results and prompts line by line.
	ModePlain
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeTUI:
		return "tui"
	case ModePlain:
		return "plain"
	default:
		return "unknown"
	}
}

// Config configures rendering.
type Config struct {
	Output     io.Writer
	Input      io.Reader
	ForcePlain bool
	NoColor    bool
}

// ConfigOption is a function that modifies Config.
type ConfigOption func(*Config)

// WithForcePlain forces plain text output.
func WithForcePlain(force bool) ConfigOption {
	return func(c *Config) {
		c.ForcePlain = force
	}
}

// WithNoColor disables color output.
func WithNoColor(noColor bool) ConfigOption {
	return func(c *Config) {
		c.NoColor = noColor
	}
}

// WithInput sets where answers to confirmations are read from.
func WithInput(in io.Reader) ConfigOption {
	return func(c *Config) {
		c.Input = in
	}
}

// NewConfig creates a new Config with the given output and options.
func NewConfig(output io.Writer, opts ...ConfigOption) Config {
	cfg := Config{
		Output:  output,
		Input:   os.Stdin,
		NoColor: DetectNoColor(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// SelectMode picks the TUI for interactive terminals and plain output for
// CI environments, pipes, or when --no-tui is specified.
func SelectMode(cfg Config) Mode {
	if cfg.ForcePlain || !IsTTY(cfg.Output) || DetectCI() {
		return ModePlain
	}
	if f, ok := cfg.Input.(*os.File); !ok || !isatty.IsTerminal(f.Fd()) {
		return ModePlain
	}
	return ModeTUI
}

// IsTTY checks if output is a terminal.
func IsTTY(w io.Writer) bool {
	if w == nil {
		return false
	}

	// Check if it's a file that's a terminal
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}

	return false
}

// DetectNoColor checks if NO_COLOR environment variable is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// DetectCI checks if running in a CI environment.
func DetectCI() bool {
	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS"}
	for _, v := range ciVars {
		if _, exists := os.LookupEnv(v); exists {
			return true
		}
	}
	return false
}
