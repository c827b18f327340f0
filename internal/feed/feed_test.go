package feed

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fedlink-ai/fedlink/internal/database"
)

// setupTestDB creates a migrated database in a temp directory for loader
// tests and returns it with a cleanup function.
func setupTestDB(t *testing.T) (*database.DB, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "fedlink-feed-test-*")
	require.NoError(t, err)

	db, err := database.Open(filepath.Join(tempDir, "fedlink.db"))
	if err != nil {
		os.RemoveAll(tempDir)
		t.Fatalf("failed to open database: %v", err)
	}

	if err := database.NewMigrator(db).Migrate(context.Background()); err != nil {
		db.Close()
		os.RemoveAll(tempDir)
		t.Fatalf("failed to migrate database: %v", err)
	}

	return db, func() {
		db.Close()
		os.RemoveAll(tempDir)
	}
}

// writeFixture writes feed content to a temp file and returns its path.
func writeFixture(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestLoader(db *database.DB) *Loader {
	return NewLoader(db, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}
