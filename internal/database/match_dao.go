package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fedlink-ai/fedlink/internal/types"
)

// MatchDAO provides database access for match rows produced by the
// deterministic and semantic matchers
type MatchDAO struct {
	db *DB
}

// NewMatchDAO creates a new MatchDAO instance
func NewMatchDAO(db *DB) *MatchDAO {
	return &MatchDAO{db: db}
}

// MatchCount is one row of the per-method, per-confidence rollup
type MatchCount struct {
	Method     types.MatchMethod `json:"method"`
	Confidence types.Confidence  `json:"confidence"`
	Count      int               `json:"count"`
}

// InsertMany stores a batch of matches in one transaction. Rows that
// collide on the (method, source, target) natural key are skipped and
// counted rather than failing the batch; any other error aborts it.
func (dao *MatchDAO) InsertMany(ctx context.Context, matches []*types.Match) (inserted, skipped int, err error) {
	err = dao.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO matches (
				id, method, source_kind, source_id, target_kind, target_id,
				confidence, reason, score, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`

		for _, m := range matches {
			if err := m.Validate(); err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}

			if m.CreatedAt.IsZero() {
				m.CreatedAt = time.Now()
			}

			_, execErr := tx.ExecContext(ctx, query,
				m.ID.String(),
				m.Method.String(),
				m.SourceKind.String(),
				m.SourceID,
				m.TargetKind.String(),
				m.TargetID,
				m.Confidence.String(),
				m.Reason,
				nullableFloat(m.Score),
				m.CreatedAt,
			)
			if execErr != nil {
				if IsDuplicateKey(execErr) {
					skipped++
					continue
				}
				return fmt.Errorf("failed to insert match: %w", execErr)
			}
			inserted++
		}

		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	return inserted, skipped, nil
}

// DeleteByMethod clears every match produced by the given method,
// returning the count removed. Matchers call this before re-inserting so
// a rerun replaces its own output without touching other methods.
func (dao *MatchDAO) DeleteByMethod(ctx context.Context, method types.MatchMethod) (int64, error) {
	result, err := dao.db.ExecContext(ctx, "DELETE FROM matches WHERE method = ?", method.String())
	if err != nil {
		return 0, fmt.Errorf("failed to delete matches: %w", err)
	}
	return result.RowsAffected()
}

// ListByMethod retrieves all matches for a method in a stable order
func (dao *MatchDAO) ListByMethod(ctx context.Context, method types.MatchMethod) ([]*types.Match, error) {
	query := `
		SELECT
			id, method, source_kind, source_id, target_kind, target_id,
			confidence, reason, score, created_at
		FROM matches
		WHERE method = ?
		ORDER BY source_id, target_id
	`

	rows, err := dao.db.QueryContext(ctx, query, method.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	return dao.collectMatches(rows)
}

// ListBySource retrieves all matches originating from the given entity
func (dao *MatchDAO) ListBySource(ctx context.Context, kind types.EntityKind, id string) ([]*types.Match, error) {
	query := `
		SELECT
			id, method, source_kind, source_id, target_kind, target_id,
			confidence, reason, score, created_at
		FROM matches
		WHERE source_kind = ? AND source_id = ?
		ORDER BY method, target_id
	`

	rows, err := dao.db.QueryContext(ctx, query, kind.String(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	return dao.collectMatches(rows)
}

// ListByTarget retrieves all matches pointing at the given entity
func (dao *MatchDAO) ListByTarget(ctx context.Context, kind types.EntityKind, id string) ([]*types.Match, error) {
	query := `
		SELECT
			id, method, source_kind, source_id, target_kind, target_id,
			confidence, reason, score, created_at
		FROM matches
		WHERE target_kind = ? AND target_id = ?
		ORDER BY method, source_id
	`

	rows, err := dao.db.QueryContext(ctx, query, kind.String(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	return dao.collectMatches(rows)
}

// Count returns the total number of stored matches
func (dao *MatchDAO) Count(ctx context.Context) (int, error) {
	var count int
	err := dao.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM matches").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count matches: %w", err)
	}
	return count, nil
}

// Counts returns match totals grouped by method and confidence tier
func (dao *MatchDAO) Counts(ctx context.Context) ([]MatchCount, error) {
	query := `
		SELECT method, confidence, COUNT(*)
		FROM matches
		GROUP BY method, confidence
		ORDER BY method, confidence
	`

	rows, err := dao.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query match counts: %w", err)
	}
	defer rows.Close()

	var counts []MatchCount
	for rows.Next() {
		var mc MatchCount
		var method, confidence string
		if err := rows.Scan(&method, &confidence, &mc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan match count: %w", err)
		}
		mc.Method = types.MatchMethod(method)
		mc.Confidence = types.Confidence(confidence)
		counts = append(counts, mc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating match counts: %w", err)
	}

	return counts, nil
}

func (dao *MatchDAO) collectMatches(rows *sql.Rows) ([]*types.Match, error) {
	var matches []*types.Match
	for rows.Next() {
		m, err := dao.scanMatchFromRows(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating matches: %w", err)
	}

	return matches, nil
}

// scanMatchFromRows scans a match from sql.Rows
func (dao *MatchDAO) scanMatchFromRows(rows *sql.Rows) (*types.Match, error) {
	var m types.Match
	var id, method, sourceKind, targetKind, confidence string
	var score sql.NullFloat64

	err := rows.Scan(
		&id,
		&method,
		&sourceKind,
		&m.SourceID,
		&targetKind,
		&m.TargetID,
		&confidence,
		&m.Reason,
		&score,
		&m.CreatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to scan match: %w", err)
	}

	m.ID, err = types.ParseID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to parse match ID: %w", err)
	}

	m.Method = types.MatchMethod(method)
	m.SourceKind = types.EntityKind(sourceKind)
	m.TargetKind = types.EntityKind(targetKind)
	m.Confidence = types.Confidence(confidence)

	if score.Valid {
		s := score.Float64
		m.Score = &s
	}

	return &m, nil
}
