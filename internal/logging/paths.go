package logging

import (
	"os"
	"path/filepath"
)

// DefaultLogDir returns the default log directory (~/.hirmes/logs/).
// Falls back to temp directory if home directory is unavailable.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".hirmes", "logs")
	}
	return filepath.Join(home, ".hirmes", "logs")
}

// DefaultLogPath returns the default client log path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "client.log")
}
