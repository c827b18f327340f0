package database

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/fedlink-ai/fedlink/internal/types"
)

// EmbeddingDAO provides database access for stored entity vectors
type EmbeddingDAO struct {
	db *DB
}

// NewEmbeddingDAO creates a new EmbeddingDAO instance
func NewEmbeddingDAO(db *DB) *EmbeddingDAO {
	return &EmbeddingDAO{db: db}
}

// Upsert stores a vector for an entity, replacing any earlier one for the
// same (kind, id) pair
func (dao *EmbeddingDAO) Upsert(ctx context.Context, embedding *types.Embedding) error {
	if err := embedding.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if embedding.CreatedAt.IsZero() {
		embedding.CreatedAt = time.Now()
	}

	blob := serializeVector(embedding.Vector)

	query := `
		INSERT INTO embeddings (
			entity_kind, entity_id, model, dimensions, vector, created_at
		) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(entity_kind, entity_id) DO UPDATE SET
			model = excluded.model,
			dimensions = excluded.dimensions,
			vector = excluded.vector,
			created_at = excluded.created_at
	`

	_, err := dao.db.ExecContext(ctx, query,
		embedding.EntityKind.String(),
		embedding.EntityID,
		embedding.Model,
		embedding.Dimensions,
		blob,
		embedding.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert embedding: %w", err)
	}

	return nil
}

// Get retrieves the stored vector for one entity
func (dao *EmbeddingDAO) Get(ctx context.Context, kind types.EntityKind, entityID string) (*types.Embedding, error) {
	query := `
		SELECT entity_kind, entity_id, model, dimensions, vector, created_at
		FROM embeddings
		WHERE entity_kind = ? AND entity_id = ?
	`

	row := dao.db.QueryRowContext(ctx, query, kind.String(), entityID)

	var e types.Embedding
	var entityKind string
	var blob []byte

	err := row.Scan(&entityKind, &e.EntityID, &e.Model, &e.Dimensions, &blob, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("embedding not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan embedding: %w", err)
	}

	e.EntityKind = types.EntityKind(entityKind)
	e.Vector, err = deserializeVector(blob, e.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("failed to decode embedding vector: %w", err)
	}

	return &e, nil
}

// ListByKind retrieves every stored vector for a kind, ordered by entity ID
// so repeated runs see candidates in the same sequence
func (dao *EmbeddingDAO) ListByKind(ctx context.Context, kind types.EntityKind) ([]*types.Embedding, error) {
	query := `
		SELECT entity_kind, entity_id, model, dimensions, vector, created_at
		FROM embeddings
		WHERE entity_kind = ?
		ORDER BY entity_id
	`

	rows, err := dao.db.QueryContext(ctx, query, kind.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %w", err)
	}
	defer rows.Close()

	var embeddings []*types.Embedding
	for rows.Next() {
		var e types.Embedding
		var entityKind string
		var blob []byte

		if err := rows.Scan(&entityKind, &e.EntityID, &e.Model, &e.Dimensions, &blob, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan embedding: %w", err)
		}

		e.EntityKind = types.EntityKind(entityKind)
		e.Vector, err = deserializeVector(blob, e.Dimensions)
		if err != nil {
			return nil, fmt.Errorf("failed to decode embedding vector: %w", err)
		}

		embeddings = append(embeddings, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating embeddings: %w", err)
	}

	return embeddings, nil
}

// MissingIDs filters candidateIDs down to those without a stored vector for
// the kind, preserving input order. The backfill uses this to skip work
// already done.
func (dao *EmbeddingDAO) MissingIDs(ctx context.Context, kind types.EntityKind, candidateIDs []string) ([]string, error) {
	query := "SELECT entity_id FROM embeddings WHERE entity_kind = ?"

	rows, err := dao.db.QueryContext(ctx, query, kind.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query embedding IDs: %w", err)
	}
	defer rows.Close()

	existing := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan embedding ID: %w", err)
		}
		existing[id] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating embedding IDs: %w", err)
	}

	var missing []string
	for _, id := range candidateIDs {
		if !existing[id] {
			missing = append(missing, id)
		}
	}

	return missing, nil
}

// CountByKind returns the number of stored vectors for a kind
func (dao *EmbeddingDAO) CountByKind(ctx context.Context, kind types.EntityKind) (int, error) {
	var count int
	err := dao.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM embeddings WHERE entity_kind = ?", kind.String()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count embeddings: %w", err)
	}
	return count, nil
}

// Count returns the total number of stored vectors
func (dao *EmbeddingDAO) Count(ctx context.Context) (int, error) {
	var count int
	err := dao.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM embeddings").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count embeddings: %w", err)
	}
	return count, nil
}

// serializeVector packs a float64 slice into 8 bytes per element,
// little-endian, for BLOB storage
func serializeVector(vector []float64) []byte {
	buf := make([]byte, len(vector)*8)
	for i, val := range vector {
		bits := math.Float64bits(val)
		offset := i * 8
		buf[offset] = byte(bits)
		buf[offset+1] = byte(bits >> 8)
		buf[offset+2] = byte(bits >> 16)
		buf[offset+3] = byte(bits >> 24)
		buf[offset+4] = byte(bits >> 32)
		buf[offset+5] = byte(bits >> 40)
		buf[offset+6] = byte(bits >> 48)
		buf[offset+7] = byte(bits >> 56)
	}
	return buf
}

// deserializeVector unpacks a BLOB produced by serializeVector
func deserializeVector(buf []byte, dims int) ([]float64, error) {
	if len(buf) != dims*8 {
		return nil, fmt.Errorf("invalid vector blob length: expected %d, got %d", dims*8, len(buf))
	}

	vector := make([]float64, dims)
	for i := 0; i < dims; i++ {
		offset := i * 8
		bits := uint64(buf[offset]) |
			uint64(buf[offset+1])<<8 |
			uint64(buf[offset+2])<<16 |
			uint64(buf[offset+3])<<24 |
			uint64(buf[offset+4])<<32 |
			uint64(buf[offset+5])<<40 |
			uint64(buf[offset+6])<<48 |
			uint64(buf[offset+7])<<56
		vector[i] = math.Float64frombits(bits)
	}

	return vector, nil
}
