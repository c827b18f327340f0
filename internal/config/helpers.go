package config

import (
	"os"
	"path/filepath"
)

// DefaultHomeDir returns the default fedlink home directory, ~/.fedlink,
// falling back to a temporary directory if the user home cannot be
// determined.
func DefaultHomeDir() string {
	userHome, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".fedlink")
	}
	return filepath.Join(userHome, ".fedlink")
}

// DefaultConfigPath returns the default config file path for a given home
// directory.
func DefaultConfigPath(homeDir string) string {
	return filepath.Join(homeDir, "config.yaml")
}
