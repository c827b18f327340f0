package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"sort"
	"strings"
)

//go:embed schema.sql
var initialSchema string

// Migrator handles database schema migrations
type Migrator interface {
	// Migrate applies all pending migrations
	Migrate(ctx context.Context) error

	// CurrentVersion returns the current schema version
	CurrentVersion(ctx context.Context) (int, error)

	// Rollback rolls back to a target version
	Rollback(ctx context.Context, targetVersion int) error

	// GetAppliedMigrations returns a list of all applied migrations
	GetAppliedMigrations(ctx context.Context) ([]MigrationInfo, error)
}

// migration represents a single database migration
type migration struct {
	version int
	name    string
	up      string
	down    string
}

// migrator implements the Migrator interface
type migrator struct {
	db         *DB
	migrations []migration
}

// NewMigrator creates a new database migrator
func NewMigrator(db *DB) Migrator {
	return &migrator{
		db:         db,
		migrations: getMigrations(),
	}
}

// getMigrations returns all available migrations in order
func getMigrations() []migration {
	migrations := []migration{
		{
			version: 1,
			name:    "initial_schema",
			up:      initialSchema,
			down:    getDownMigration1(),
		},
		// Future migrations will be added here
	}

	// Sort by version to ensure correct order
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].version < migrations[j].version
	})

	return migrations
}

// getDownMigration1 returns the rollback SQL for migration 1
func getDownMigration1() string {
	return `
-- Drop triggers
DROP TRIGGER IF EXISTS update_incidents_timestamp;
DROP TRIGGER IF EXISTS update_use_cases_timestamp;
DROP TRIGGER IF EXISTS update_fedramp_products_timestamp;
DROP TRIGGER IF EXISTS update_agency_profiles_timestamp;
DROP TRIGGER IF EXISTS update_organizations_timestamp;

-- Drop indexes
DROP INDEX IF EXISTS idx_embeddings_kind;
DROP INDEX IF EXISTS idx_matches_target;
DROP INDEX IF EXISTS idx_matches_source;
DROP INDEX IF EXISTS idx_matches_method;
DROP INDEX IF EXISTS idx_use_cases_has_llm;
DROP INDEX IF EXISTS idx_use_cases_agency_abbrev;
DROP INDEX IF EXISTS idx_ai_service_analyses_has_ai;
DROP INDEX IF EXISTS idx_fedramp_products_status;
DROP INDEX IF EXISTS idx_fedramp_products_provider;
DROP INDEX IF EXISTS idx_agency_ai_tools_type;
DROP INDEX IF EXISTS idx_agency_ai_tools_agency;
DROP INDEX IF EXISTS idx_agency_profiles_abbreviation;
DROP INDEX IF EXISTS idx_agency_profiles_status;
DROP INDEX IF EXISTS idx_organizations_abbreviation;
DROP INDEX IF EXISTS idx_organizations_level;
DROP INDEX IF EXISTS idx_organizations_parent;

-- Drop tables (do NOT drop migrations table - it's managed separately)
DROP TABLE IF EXISTS embeddings;
DROP TABLE IF EXISTS matches;
DROP TABLE IF EXISTS incidents;
DROP TABLE IF EXISTS use_cases;
DROP TABLE IF EXISTS ai_service_analyses;
DROP TABLE IF EXISTS fedramp_products;
DROP TABLE IF EXISTS agency_ai_tools;
DROP TABLE IF EXISTS agency_profiles;
DROP TABLE IF EXISTS organizations;
`
}

// Migrate applies all pending migrations
func (m *migrator) Migrate(ctx context.Context) error {
	if err := m.ensureMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	currentVersion, err := m.CurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	for _, mig := range m.migrations {
		if mig.version <= currentVersion {
			continue // Skip already applied migrations
		}

		if err := m.applyMigration(ctx, mig); err != nil {
			return fmt.Errorf("failed to apply migration %d (%s): %w", mig.version, mig.name, err)
		}
	}

	return nil
}

// CurrentVersion returns the current schema version
func (m *migrator) CurrentVersion(ctx context.Context) (int, error) {
	if err := m.ensureMigrationsTable(ctx); err != nil {
		return 0, fmt.Errorf("failed to ensure migrations table: %w", err)
	}

	var version int
	query := "SELECT COALESCE(MAX(version), 0) FROM migrations"
	err := m.db.conn.QueryRowContext(ctx, query).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to query current version: %w", err)
	}

	return version, nil
}

// Rollback rolls back to a target version
func (m *migrator) Rollback(ctx context.Context, targetVersion int) error {
	if targetVersion < 0 {
		return fmt.Errorf("invalid target version: %d", targetVersion)
	}

	currentVersion, err := m.CurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	if targetVersion > currentVersion {
		return fmt.Errorf("cannot rollback to future version %d (current: %d)", targetVersion, currentVersion)
	}

	// Rollback migrations in reverse order
	for i := len(m.migrations) - 1; i >= 0; i-- {
		mig := m.migrations[i]
		if mig.version <= targetVersion {
			break
		}
		if mig.version > currentVersion {
			continue // Skip unapplied migrations
		}

		if err := m.rollbackMigration(ctx, mig); err != nil {
			return fmt.Errorf("failed to rollback migration %d (%s): %w", mig.version, mig.name, err)
		}
	}

	return nil
}

// GetAppliedMigrations returns a list of all applied migrations
func (m *migrator) GetAppliedMigrations(ctx context.Context) ([]MigrationInfo, error) {
	if err := m.ensureMigrationsTable(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure migrations table: %w", err)
	}

	query := "SELECT version, name, applied_at FROM migrations ORDER BY version"
	rows, err := m.db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	var migrations []MigrationInfo
	for rows.Next() {
		var info MigrationInfo
		if err := rows.Scan(&info.Version, &info.Name, &info.AppliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration: %w", err)
		}
		migrations = append(migrations, info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating migrations: %w", err)
	}

	return migrations, nil
}

// MigrationInfo contains information about an applied migration
type MigrationInfo struct {
	Version   int
	Name      string
	AppliedAt string
}

// ensureMigrationsTable creates the migrations table if it doesn't exist
func (m *migrator) ensureMigrationsTable(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`

	_, err := m.db.conn.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	return nil
}

// applyMigration applies a single migration within a transaction
func (m *migrator) applyMigration(ctx context.Context, mig migration) error {
	return m.db.WithTx(ctx, func(tx *sql.Tx) error {
		// Split by semicolon to handle multiple statements
		statements := splitSQL(mig.up)
		for _, stmt := range statements {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}
			cleanStmt := removeComments(stmt)
			if cleanStmt == "" {
				continue
			}
			if _, err := tx.ExecContext(ctx, cleanStmt); err != nil {
				return fmt.Errorf("failed to execute statement: %w\nStatement: %s", err, cleanStmt)
			}
		}

		_, err := tx.ExecContext(ctx,
			"INSERT INTO migrations (version, name, applied_at) VALUES (?, ?, CURRENT_TIMESTAMP)",
			mig.version, mig.name)
		if err != nil {
			return fmt.Errorf("failed to record migration: %w", err)
		}

		return nil
	})
}

// rollbackMigration rolls back a single migration within a transaction
func (m *migrator) rollbackMigration(ctx context.Context, mig migration) error {
	return m.db.WithTx(ctx, func(tx *sql.Tx) error {
		statements := splitSQL(mig.down)
		for _, stmt := range statements {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}
			cleanStmt := removeComments(stmt)
			if cleanStmt == "" {
				continue
			}
			if _, err := tx.ExecContext(ctx, cleanStmt); err != nil {
				return fmt.Errorf("failed to execute rollback statement: %w\nStatement: %s", err, cleanStmt)
			}
		}

		_, err := tx.ExecContext(ctx, "DELETE FROM migrations WHERE version = ?", mig.version)
		if err != nil {
			return fmt.Errorf("failed to remove migration record: %w", err)
		}

		return nil
	})
}

// splitSQL splits SQL script into individual statements.
// Handles BEGIN...END blocks (for triggers) and string literals.
func splitSQL(sql string) []string {
	var statements []string
	var current strings.Builder
	inString := false
	stringChar := rune(0)
	beginEndDepth := 0

	var wordBuf strings.Builder

	for i, ch := range sql {
		switch {
		case ch == '\'' || ch == '"':
			if !inString {
				inString = true
				stringChar = ch
			} else if ch == stringChar {
				// Check if escaped
				if i > 0 && sql[i-1] != '\\' {
					inString = false
				}
			}
			current.WriteRune(ch)
			wordBuf.WriteRune(ch)

		case (ch == ' ' || ch == '\n' || ch == '\t' || ch == ';') && !inString:
			if wordBuf.Len() > 0 {
				word := strings.ToUpper(strings.TrimSpace(wordBuf.String()))

				// Track BEGIN/END depth for triggers
				if word == "BEGIN" {
					beginEndDepth++
				} else if word == "END" {
					beginEndDepth--
				}

				wordBuf.Reset()
			}

			if ch == ';' && beginEndDepth == 0 {
				// End of statement
				stmt := strings.TrimSpace(current.String())
				if stmt != "" {
					statements = append(statements, stmt)
				}
				current.Reset()
			} else {
				current.WriteRune(ch)
			}

		default:
			current.WriteRune(ch)
			wordBuf.WriteRune(ch)
		}
	}

	// Add any remaining content
	if stmt := strings.TrimSpace(current.String()); stmt != "" {
		statements = append(statements, stmt)
	}

	return statements
}

// removeComments removes SQL comment lines from a statement.
// This handles both single-line (--) and multi-line (/* */) comments.
func removeComments(sql string) string {
	var result strings.Builder
	lines := strings.Split(sql, "\n")

	inMultilineComment := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		// Handle multi-line comments
		if strings.Contains(trimmed, "/*") {
			inMultilineComment = true
		}
		if inMultilineComment {
			if strings.Contains(trimmed, "*/") {
				inMultilineComment = false
			}
			continue
		}

		// Skip lines that are ONLY comments (start with --)
		if strings.HasPrefix(trimmed, "--") {
			continue
		}

		// Remove inline comments (everything after -- on the same line)
		if idx := strings.Index(line, "--"); idx >= 0 {
			line = line[:idx]
		}

		// Keep non-empty lines
		if strings.TrimSpace(line) != "" {
			result.WriteString(line)
			result.WriteString("\n")
		}
	}

	return strings.TrimSpace(result.String())
}
