// Package init sets up a fedlink home directory: the directory tree, a
// default YAML configuration, and a migrated SQLite database. Initialization
// is idempotent unless forced, so rerunning it on an existing installation
// changes nothing.
package init

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/fedlink-ai/fedlink/internal/config"
	"github.com/fedlink-ai/fedlink/internal/database"
	"github.com/fedlink-ai/fedlink/internal/types"
)

// InitOptions configures the initialization process
type InitOptions struct {
	// HomeDir is the root directory for the fedlink installation.
	// If empty, uses the default from config.DefaultConfig().
	HomeDir string

	// Force recreates components even if they already exist.
	// WARNING: this drops the existing database.
	Force bool
}

// InitResult contains the results of the initialization process
type InitResult struct {
	// HomeDir is the final home directory used
	HomeDir string

	// DirsCreated lists all directories that were created (not pre-existing)
	DirsCreated []string

	// ConfigCreated indicates whether a new config was created
	ConfigCreated bool

	// DatabaseCreated indicates whether a new database was created
	DatabaseCreated bool

	// MigrationVersion is the schema version after initialization
	MigrationVersion int

	// Errors contains any non-fatal errors encountered
	Errors []error

	// Warnings contains any warning messages
	Warnings []string
}

// Initializer defines the interface for fedlink initialization
type Initializer interface {
	// Initialize performs the complete initialization process
	Initialize(ctx context.Context, opts InitOptions) (*InitResult, error)

	// Validate checks if an existing setup is valid
	Validate(ctx context.Context, homeDir string) (*ValidationResult, error)
}

// DefaultInitializer implements Initializer with default behavior
type DefaultInitializer struct {
	configLoader config.ConfigLoader
	dbOpener     func(path string) (*database.DB, error)
}

// NewInitializer creates a new DefaultInitializer with the provided dependencies
func NewInitializer(
	configLoader config.ConfigLoader,
	dbOpener func(path string) (*database.DB, error),
) *DefaultInitializer {
	return &DefaultInitializer{
		configLoader: configLoader,
		dbOpener:     dbOpener,
	}
}

// NewDefaultInitializer creates a new DefaultInitializer with standard dependencies
func NewDefaultInitializer() *DefaultInitializer {
	return NewInitializer(
		config.NewConfigLoader(config.NewValidator()),
		database.Open,
	)
}

// Initialize performs the complete fedlink initialization process in the
// following order:
//
//  1. Determine and create home directory
//  2. Create standard directory structure
//  3. Write or verify configuration
//  4. Create database and apply migrations
//  5. Validate the complete setup
//
// With Force=false the function is idempotent: running it multiple times on
// the same directory will not create duplicate resources or fail.
func (i *DefaultInitializer) Initialize(ctx context.Context, opts InitOptions) (*InitResult, error) {
	result := &InitResult{
		DirsCreated: []string{},
		Errors:      []error{},
		Warnings:    []string{},
	}

	// Step 1: Determine home directory
	homeDir := opts.HomeDir
	if homeDir == "" {
		homeDir = config.DefaultConfig().Core.HomeDir
	}
	result.HomeDir = homeDir

	if err := os.MkdirAll(homeDir, 0755); err != nil {
		return nil, types.WrapError(types.INIT_DIRS_FAILED, "failed to create home directory "+homeDir, err)
	}

	// Step 2: Create directory structure
	dirCfg := DefaultDirectories(homeDir)
	if err := i.createDirectoriesWithTracking(dirCfg, result); err != nil {
		return nil, types.WrapError(types.INIT_DIRS_FAILED, "failed to create directories", err)
	}

	// Step 3: Write or verify configuration
	configPath := config.DefaultConfigPath(homeDir)
	if err := i.initializeConfig(configPath, homeDir, result, opts.Force); err != nil {
		return nil, types.WrapError(types.INIT_CONFIG_FAILED, "failed to initialize configuration", err)
	}

	// Step 4: Create database and apply migrations
	dbPath := filepath.Join(homeDir, "fedlink.db")
	if err := i.initializeDatabase(ctx, dbPath, result, opts.Force); err != nil {
		return nil, types.WrapError(types.INIT_DB_FAILED, "failed to initialize database", err)
	}

	// Step 5: Validate the complete setup
	validation, err := i.Validate(ctx, homeDir)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("post-initialization validation failed: %w", err))
		return result, nil
	}
	if !validation.Valid {
		for _, verr := range validation.Errors {
			result.Errors = append(result.Errors, fmt.Errorf("%s: %s", verr.Component, verr.Message))
		}
	}
	for _, warning := range validation.Warnings {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %s", warning.Component, warning.Message))
	}

	return result, nil
}

// createDirectoriesWithTracking creates directories and tracks which ones were actually created
func (i *DefaultInitializer) createDirectoriesWithTracking(cfg DirectoryConfig, result *InitResult) error {
	for _, dir := range cfg.Dirs {
		fullPath := filepath.Join(cfg.HomeDir, dir)

		_, err := os.Stat(fullPath)
		existed := err == nil

		if err := os.MkdirAll(fullPath, cfg.Permission); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", fullPath, err)
		}

		if !existed {
			result.DirsCreated = append(result.DirsCreated, fullPath)
		}
	}

	return nil
}

// initializeConfig creates or verifies the configuration file
func (i *DefaultInitializer) initializeConfig(configPath, homeDir string, result *InitResult, force bool) error {
	_, err := os.Stat(configPath)
	configExists := err == nil

	if configExists && !force {
		// Load existing config to verify it's valid
		if _, err := i.configLoader.Load(configPath); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("existing config is invalid: %v", err))
		}
		return nil
	}

	cfg := config.DefaultConfig()
	cfg.Core.HomeDir = homeDir
	cfg.Database.Path = filepath.Join(homeDir, "fedlink.db")
	// The loader interpolates ${VAR} references at load time, so the key is
	// picked up from the environment without ever living in the file.
	cfg.Embedder.APIKey = "${OPENAI_API_KEY}"

	if err := writeConfigFile(configPath, cfg); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	result.ConfigCreated = true
	if configExists {
		result.Warnings = append(result.Warnings, "overwrote existing configuration (--force mode)")
	}

	return nil
}

// initializeDatabase creates the database and applies all pending migrations
func (i *DefaultInitializer) initializeDatabase(ctx context.Context, dbPath string, result *InitResult, force bool) error {
	_, err := os.Stat(dbPath)
	dbExists := err == nil

	if dbExists && force {
		if err := os.Remove(dbPath); err != nil {
			return fmt.Errorf("failed to remove existing database: %w", err)
		}
		result.Warnings = append(result.Warnings, "removed existing database (--force mode)")
	}

	db, err := i.dbOpener(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	migrator := database.NewMigrator(db)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, err := migrator.CurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	result.MigrationVersion = version

	if !dbExists || force {
		result.DatabaseCreated = true
	}

	return nil
}

// Validate checks if an existing fedlink installation is valid
func (i *DefaultInitializer) Validate(ctx context.Context, homeDir string) (*ValidationResult, error) {
	return ValidateSetup(homeDir)
}

// writeConfigFile renders a Config as YAML
func writeConfigFile(path string, cfg *config.Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to render config: %w", err)
	}

	header := []byte("# fedlink configuration\n# Values of the form ${VAR} are read from the environment at load time.\n")
	if err := os.WriteFile(path, append(header, data...), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
