// Package settings persists the last-used indexing options so the next
// session can pre-fill them.
package settings

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/hirmes/hirmes/internal/config"
	herrors "github.com/hirmes/hirmes/internal/errors"
)

// Indexing holds the remembered indexing options.
type Indexing struct {
	Path            string `yaml:"path,omitempty"`
	Recursive       bool   `yaml:"recursive"`
	ReplaceFilename bool   `yaml:"replace_filename"`
}

// Settings is the persisted document.
type Settings struct {
	Indexing Indexing `yaml:"indexing"`
}

// DefaultPath returns ~/.hirmes/settings.yaml.
func DefaultPath() string {
	return filepath.Join(config.DataDir(), "settings.yaml")
}

// Store reads and writes the settings file under a cross-process lock.
type Store struct {
	path string
}

// NewStore creates a store for path. An empty path uses DefaultPath.
func NewStore(path string) *Store {
	if path == "" {
		path = DefaultPath()
	}
	return &Store{path: path}
}

// Path returns the settings file path.
func (s *Store) Path() string {
	return s.path
}

// Load returns the stored settings. A missing file yields zero settings.
func (s *Store) Load() (Settings, error) {
	l := newFileLock(s.path)
	if err := l.rlock(); err != nil {
		return Settings{}, herrors.New(herrors.ErrCodeLockFailed, "failed to lock settings", err)
	}
	defer func() { _ = l.unlock() }()

	var st Settings
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return st, nil
	}
	if err != nil {
		return st, herrors.New(herrors.ErrCodeSettingsIO, "failed to read settings", err).
			WithDetail("path", s.path)
	}
	if err := yaml.Unmarshal(data, &st); err != nil {
		return Settings{}, herrors.New(herrors.ErrCodeSettingsIO, "failed to parse settings", err).
			WithDetail("path", s.path)
	}
	return st, nil
}

// SaveIndexing replaces the remembered indexing options.
func (s *Store) SaveIndexing(opts Indexing) error {
	l := newFileLock(s.path)
	if err := l.lock(); err != nil {
		return herrors.New(herrors.ErrCodeLockFailed, "failed to lock settings", err)
	}
	defer func() { _ = l.unlock() }()

	st := Settings{Indexing: opts}
	data, err := yaml.Marshal(&st)
	if err != nil {
		return herrors.InternalError("failed to encode settings", err)
	}

	// Atomic replace.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return herrors.New(herrors.ErrCodeSettingsIO, fmt.Sprintf("failed to write %s", tmp), err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return herrors.New(herrors.ErrCodeSettingsIO, "failed to replace settings", err)
	}

	slog.Debug("settings_saved",
		slog.String("path", s.path),
		slog.Bool("recursive", opts.Recursive),
		slog.Bool("replace_filename", opts.ReplaceFilename))
	return nil
}
