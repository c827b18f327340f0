package semantic

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fedlink-ai/fedlink/internal/database"
	"github.com/fedlink-ai/fedlink/internal/types"
)

// setupTestDB creates a migrated database in a temp directory for pipeline
// tests and returns it with a cleanup function.
func setupTestDB(t *testing.T) (*database.DB, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "fedlink-semantic-test-*")
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

// seedUseCase inserts a use case and returns its minted ID as a string.
func seedUseCase(t *testing.T, db *database.DB, name, purpose string) string {
	t.Helper()

	uc := types.NewUseCase("General Services Administration", name)
	uc.AgencyAbbrev = "GSA"
	uc.PurposeText = purpose
	require.NoError(t, database.NewUseCaseDAO(db).Create(context.Background(), uc))
	return uc.ID.String()
}

// seedEmbedding stores a raw vector for an entity, bypassing the provider.
func seedEmbedding(t *testing.T, db *database.DB, kind types.EntityKind, id string, vector []float64) {
	t.Helper()

	e := &types.Embedding{
		EntityKind: kind,
		EntityID:   id,
		Model:      "test-model",
		Dimensions: len(vector),
		Vector:     vector,
	}
	require.NoError(t, database.NewEmbeddingDAO(db).Upsert(context.Background(), e))
}
