package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fedlink-ai/fedlink/internal/types"
)

// OrgDAO provides database access for Organization entities
type OrgDAO struct {
	db *DB
}

// NewOrgDAO creates a new OrgDAO instance
func NewOrgDAO(db *DB) *OrgDAO {
	return &OrgDAO{db: db}
}

// ReplaceAll swaps the full organization table for the given rows inside
// a single transaction. Rows must arrive parents-first so the
// self-referencing parent_id foreign key is satisfied on insert.
func (dao *OrgDAO) ReplaceAll(ctx context.Context, orgs []*types.Organization) error {
	return dao.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM organizations"); err != nil {
			return fmt.Errorf("failed to clear organizations: %w", err)
		}

		query := `
			INSERT INTO organizations (
				id, name, abbreviation, level, parent_id,
				cfo_act, cabinet, active, depth, path,
				created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`

		now := time.Now()
		for _, org := range orgs {
			if err := org.Validate(); err != nil {
				return fmt.Errorf("validation failed for %s: %w", org.ID, err)
			}

			pathJSON, err := marshalStrings(org.Path)
			if err != nil {
				return fmt.Errorf("failed to marshal path: %w", err)
			}

			if org.CreatedAt.IsZero() {
				org.CreatedAt = now
			}
			org.UpdatedAt = now

			// Roots carry a NULL parent so the FK only binds real edges.
			var parentID sql.NullString
			if !org.IsRoot() {
				parentID = sql.NullString{String: org.ParentID, Valid: true}
			}

			_, err = tx.ExecContext(ctx, query,
				org.ID,
				org.Name,
				org.Abbreviation,
				org.Level.String(),
				parentID,
				org.CFOAct,
				org.Cabinet,
				org.Active,
				org.Depth,
				pathJSON,
				org.CreatedAt,
				org.UpdatedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to insert organization %s: %w", org.ID, err)
			}
		}

		return nil
	})
}

// Get retrieves an organization by ID
func (dao *OrgDAO) Get(ctx context.Context, id string) (*types.Organization, error) {
	query := `
		SELECT
			id, name, abbreviation, level, parent_id,
			cfo_act, cabinet, active, depth, path,
			created_at, updated_at
		FROM organizations
		WHERE id = ?
	`

	row := dao.db.QueryRowContext(ctx, query, id)
	return dao.scanOrganization(row)
}

// GetByAbbreviation retrieves an organization by its abbreviation,
// matched case-insensitively
func (dao *OrgDAO) GetByAbbreviation(ctx context.Context, abbrev string) (*types.Organization, error) {
	query := `
		SELECT
			id, name, abbreviation, level, parent_id,
			cfo_act, cabinet, active, depth, path,
			created_at, updated_at
		FROM organizations
		WHERE abbreviation = ? COLLATE NOCASE
	`

	row := dao.db.QueryRowContext(ctx, query, abbrev)
	return dao.scanOrganization(row)
}

// List retrieves all organizations ordered shallowest-first, then by name
func (dao *OrgDAO) List(ctx context.Context) ([]*types.Organization, error) {
	query := `
		SELECT
			id, name, abbreviation, level, parent_id,
			cfo_act, cabinet, active, depth, path,
			created_at, updated_at
		FROM organizations
		ORDER BY depth, name
	`

	rows, err := dao.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query organizations: %w", err)
	}
	defer rows.Close()

	return dao.collectOrganizations(rows)
}

// ListByLevel retrieves organizations at the given hierarchy level
func (dao *OrgDAO) ListByLevel(ctx context.Context, level types.OrgLevel) ([]*types.Organization, error) {
	query := `
		SELECT
			id, name, abbreviation, level, parent_id,
			cfo_act, cabinet, active, depth, path,
			created_at, updated_at
		FROM organizations
		WHERE level = ?
		ORDER BY name
	`

	rows, err := dao.db.QueryContext(ctx, query, level.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query organizations: %w", err)
	}
	defer rows.Close()

	return dao.collectOrganizations(rows)
}

// ListChildren retrieves the direct children of an organization
func (dao *OrgDAO) ListChildren(ctx context.Context, parentID string) ([]*types.Organization, error) {
	query := `
		SELECT
			id, name, abbreviation, level, parent_id,
			cfo_act, cabinet, active, depth, path,
			created_at, updated_at
		FROM organizations
		WHERE parent_id = ?
		ORDER BY name
	`

	rows, err := dao.db.QueryContext(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query organizations: %w", err)
	}
	defer rows.Close()

	return dao.collectOrganizations(rows)
}

// Count returns the number of stored organizations
func (dao *OrgDAO) Count(ctx context.Context) (int, error) {
	var count int
	err := dao.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM organizations").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count organizations: %w", err)
	}
	return count, nil
}

func (dao *OrgDAO) collectOrganizations(rows *sql.Rows) ([]*types.Organization, error) {
	var orgs []*types.Organization
	for rows.Next() {
		org, err := dao.scanOrganizationFromRows(rows)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, org)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating organizations: %w", err)
	}

	return orgs, nil
}

// scanOrganization scans a single organization from a query row
func (dao *OrgDAO) scanOrganization(row *sql.Row) (*types.Organization, error) {
	var org types.Organization
	var level, pathJSON string
	var parentID sql.NullString

	err := row.Scan(
		&org.ID,
		&org.Name,
		&org.Abbreviation,
		&level,
		&parentID,
		&org.CFOAct,
		&org.Cabinet,
		&org.Active,
		&org.Depth,
		&pathJSON,
		&org.CreatedAt,
		&org.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, types.NewError(types.ORG_NOT_FOUND, "organization not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan organization: %w", err)
	}

	org.Level = types.OrgLevel(level)
	if parentID.Valid {
		org.ParentID = parentID.String
	}

	if err := json.Unmarshal([]byte(pathJSON), &org.Path); err != nil {
		return nil, fmt.Errorf("failed to unmarshal path: %w", err)
	}

	return &org, nil
}

// scanOrganizationFromRows scans an organization from sql.Rows
func (dao *OrgDAO) scanOrganizationFromRows(rows *sql.Rows) (*types.Organization, error) {
	var org types.Organization
	var level, pathJSON string
	var parentID sql.NullString

	err := rows.Scan(
		&org.ID,
		&org.Name,
		&org.Abbreviation,
		&level,
		&parentID,
		&org.CFOAct,
		&org.Cabinet,
		&org.Active,
		&org.Depth,
		&pathJSON,
		&org.CreatedAt,
		&org.UpdatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to scan organization: %w", err)
	}

	org.Level = types.OrgLevel(level)
	if parentID.Valid {
		org.ParentID = parentID.String
	}

	if err := json.Unmarshal([]byte(pathJSON), &org.Path); err != nil {
		return nil, fmt.Errorf("failed to unmarshal path: %w", err)
	}

	return &org, nil
}
