package init

import (
	"fmt"
	"os"
	"path/filepath"
)

// DirectoryConfig holds configuration for directory creation
type DirectoryConfig struct {
	HomeDir    string
	Dirs       []string
	Permission os.FileMode
}

// DefaultDirectories returns the standard fedlink directory structure
// created during initialization:
//   - feeds: downloaded feed snapshots kept for reload and auditing
//   - logs: application logs
//   - cache: cached data and temporary files
//   - backups: database backups
func DefaultDirectories(homeDir string) DirectoryConfig {
	return DirectoryConfig{
		HomeDir: homeDir,
		Dirs: []string{
			"feeds",
			"logs",
			"cache",
			"backups",
		},
		Permission: 0755,
	}
}

// CreateDirectories creates all directories specified in the DirectoryConfig.
// Existing directories are left alone, so the function is idempotent.
func CreateDirectories(cfg DirectoryConfig) error {
	for _, dir := range cfg.Dirs {
		fullPath := filepath.Join(cfg.HomeDir, dir)
		if err := os.MkdirAll(fullPath, cfg.Permission); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", fullPath, err)
		}
	}

	return nil
}

// ValidateDirectories checks that all required directories exist and have
// the expected permissions. Returns the missing directories and the ones
// with unexpected permissions.
func ValidateDirectories(cfg DirectoryConfig) (missing []string, badPerms []string, err error) {
	for _, dir := range cfg.Dirs {
		fullPath := filepath.Join(cfg.HomeDir, dir)

		info, statErr := os.Stat(fullPath)
		if statErr != nil {
			if os.IsNotExist(statErr) {
				missing = append(missing, fullPath)
				continue
			}
			return nil, nil, fmt.Errorf("failed to stat directory %s: %w", fullPath, statErr)
		}

		if !info.IsDir() {
			return nil, nil, fmt.Errorf("%s exists but is not a directory", fullPath)
		}

		actualPerms := info.Mode().Perm()
		if actualPerms != cfg.Permission {
			badPerms = append(badPerms, fmt.Sprintf("%s (expected %o, got %o)", fullPath, cfg.Permission, actualPerms))
		}
	}

	return missing, badPerms, nil
}
