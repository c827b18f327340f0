package init

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fedlink-ai/fedlink/internal/config"
	"github.com/fedlink-ai/fedlink/internal/database"
)

// ValidationResult contains the results of setup validation
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// ValidationError represents a validation error with context and remediation
type ValidationError struct {
	Component string // Which component failed (directories, config, database)
	Message   string // What went wrong
	Action    string // What the user should do to fix it
}

// ValidationWarning represents a non-fatal validation issue
type ValidationWarning struct {
	Component string
	Message   string
}

// ValidateSetup checks a fedlink installation:
//   - all required directories exist with correct permissions
//   - the configuration file exists and loads cleanly
//   - the database exists, opens, and has its schema applied
func ValidateSetup(homeDir string) (*ValidationResult, error) {
	result := &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationWarning{},
	}

	if err := validateHomeDir(homeDir, result); err != nil {
		return nil, err
	}

	validateDirectoryStructure(homeDir, result)
	validateConfigFile(homeDir, result)
	validateDatabase(homeDir, result)

	result.Valid = len(result.Errors) == 0

	return result, nil
}

// validateHomeDir checks that the home directory exists and is a directory
func validateHomeDir(homeDir string, result *ValidationResult) error {
	info, err := os.Stat(homeDir)
	if err != nil {
		if os.IsNotExist(err) {
			result.Errors = append(result.Errors, ValidationError{
				Component: "home_directory",
				Message:   fmt.Sprintf("home directory does not exist: %s", homeDir),
				Action:    fmt.Sprintf("run 'fedlink init' or create directory with: mkdir -p %s", homeDir),
			})
			result.Valid = false
			return nil // not fatal for validation
		}
		return fmt.Errorf("failed to stat home directory: %w", err)
	}

	if !info.IsDir() {
		result.Errors = append(result.Errors, ValidationError{
			Component: "home_directory",
			Message:   fmt.Sprintf("home path exists but is not a directory: %s", homeDir),
			Action:    fmt.Sprintf("remove the file and run 'fedlink init': rm %s && fedlink init", homeDir),
		})
		result.Valid = false
	}

	return nil
}

// validateDirectoryStructure checks that all required directories exist
func validateDirectoryStructure(homeDir string, result *ValidationResult) {
	dirCfg := DefaultDirectories(homeDir)
	missing, badPerms, err := ValidateDirectories(dirCfg)

	if err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Component: "directories",
			Message:   fmt.Sprintf("failed to validate directories: %v", err),
			Action:    "check directory permissions and run 'fedlink init'",
		})
		result.Valid = false
		return
	}

	for _, dir := range missing {
		result.Errors = append(result.Errors, ValidationError{
			Component: "directories",
			Message:   fmt.Sprintf("required directory missing: %s", dir),
			Action:    fmt.Sprintf("create directory with: mkdir -p %s", dir),
		})
		result.Valid = false
	}

	// Permission drift is a warning, not fatal
	for _, permInfo := range badPerms {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Component: "directories",
			Message:   fmt.Sprintf("incorrect permissions: %s", permInfo),
		})
	}
}

// validateConfigFile checks that the configuration file exists and is valid
func validateConfigFile(homeDir string, result *ValidationResult) {
	configPath := config.DefaultConfigPath(homeDir)

	info, err := os.Stat(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			result.Errors = append(result.Errors, ValidationError{
				Component: "config",
				Message:   fmt.Sprintf("configuration file not found: %s", configPath),
				Action:    "run 'fedlink init' to create default configuration",
			})
			result.Valid = false
			return
		}
		result.Errors = append(result.Errors, ValidationError{
			Component: "config",
			Message:   fmt.Sprintf("failed to stat config file: %v", err),
			Action:    "check file permissions and run 'fedlink init'",
		})
		result.Valid = false
		return
	}

	if info.IsDir() {
		result.Errors = append(result.Errors, ValidationError{
			Component: "config",
			Message:   fmt.Sprintf("config path is a directory: %s", configPath),
			Action:    fmt.Sprintf("remove directory and run 'fedlink init': rm -rf %s && fedlink init", configPath),
		})
		result.Valid = false
		return
	}

	loader := config.NewConfigLoader(config.NewValidator())
	cfg, err := loader.Load(configPath)
	if err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Component: "config",
			Message:   fmt.Sprintf("invalid configuration file: %v", err),
			Action:    "fix configuration file or run 'fedlink init --force' to recreate",
		})
		result.Valid = false
		return
	}

	if cfg.Core.HomeDir != homeDir {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Component: "config",
			Message:   fmt.Sprintf("config home_dir (%s) doesn't match current home (%s)", cfg.Core.HomeDir, homeDir),
		})
	}
}

// validateDatabase checks that the database exists and its schema is applied
func validateDatabase(homeDir string, result *ValidationResult) {
	dbPath := filepath.Join(homeDir, "fedlink.db")

	if _, err := os.Stat(dbPath); err != nil {
		if os.IsNotExist(err) {
			result.Errors = append(result.Errors, ValidationError{
				Component: "database",
				Message:   fmt.Sprintf("database not found: %s", dbPath),
				Action:    "run 'fedlink init' to create database",
			})
			result.Valid = false
			return
		}
		result.Errors = append(result.Errors, ValidationError{
			Component: "database",
			Message:   fmt.Sprintf("failed to stat database: %v", err),
			Action:    "check file permissions and run 'fedlink init'",
		})
		result.Valid = false
		return
	}

	db, err := database.Open(dbPath)
	if err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Component: "database",
			Message:   fmt.Sprintf("failed to open database: %v", err),
			Action:    "database may be corrupted, run 'fedlink init --force' to recreate (WARNING: will lose data)",
		})
		result.Valid = false
		return
	}
	defer db.Close()

	row := db.Conn().QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table'")
	var tableCount int
	if err := row.Scan(&tableCount); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Component: "database",
			Message:   fmt.Sprintf("database query failed: %v", err),
			Action:    "database may be corrupted, run 'fedlink init --force' to recreate",
		})
		result.Valid = false
		return
	}

	if tableCount == 0 {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Component: "database",
			Message:   "database has no tables, schema may not be applied",
		})
	}
}
