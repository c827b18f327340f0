package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/fedlink-ai/fedlink/internal/types"
)

// AgencyDAO provides database access for AgencyProfile entities and their
// attached AI tools
type AgencyDAO struct {
	db *DB
}

// NewAgencyDAO creates a new AgencyDAO instance
func NewAgencyDAO(db *DB) *AgencyDAO {
	return &AgencyDAO{db: db}
}

// Create inserts an agency profile together with its tools in one transaction
func (dao *AgencyDAO) Create(ctx context.Context, profile *types.AgencyProfile) error {
	if err := profile.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	return dao.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO agency_profiles (
				id, name, slug, abbreviation, department_name,
				parent_abbreviation, org_id, deployment_status, source_url,
				created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`

		_, err := tx.ExecContext(ctx, query,
			profile.ID.String(),
			profile.Name,
			profile.Slug,
			profile.Abbreviation,
			profile.DepartmentName,
			profile.ParentAbbreviation,
			profile.OrgID,
			profile.DeploymentStatus.String(),
			profile.SourceURL,
			profile.CreatedAt,
			profile.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert agency profile: %w", err)
		}

		for i := range profile.Tools {
			if err := dao.insertTool(ctx, tx, &profile.Tools[i]); err != nil {
				return err
			}
		}

		return nil
	})
}

// AddTool attaches a tool to an existing agency profile
func (dao *AgencyDAO) AddTool(ctx context.Context, tool *types.AgencyAiTool) error {
	if err := tool.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	return dao.db.WithTx(ctx, func(tx *sql.Tx) error {
		return dao.insertTool(ctx, tx, tool)
	})
}

func (dao *AgencyDAO) insertTool(ctx context.Context, tx *sql.Tx, tool *types.AgencyAiTool) error {
	query := `
		INSERT INTO agency_ai_tools (
			id, agency_id, name, type, availability,
			pilot, source_text, source_url, accessed_date, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	if tool.CreatedAt.IsZero() {
		tool.CreatedAt = time.Now()
	}

	_, err := tx.ExecContext(ctx, query,
		tool.ID.String(),
		tool.AgencyID.String(),
		tool.Name,
		tool.Type.String(),
		tool.Availability.String(),
		tool.Pilot,
		tool.SourceText,
		tool.SourceURL,
		nullableTime(tool.AccessedDate),
		tool.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert agency tool: %w", err)
	}

	return nil
}

// Get retrieves an agency profile by ID, tools included
func (dao *AgencyDAO) Get(ctx context.Context, id types.ID) (*types.AgencyProfile, error) {
	query := `
		SELECT
			id, name, slug, abbreviation, department_name,
			parent_abbreviation, org_id, deployment_status, source_url,
			created_at, updated_at
		FROM agency_profiles
		WHERE id = ?
	`

	row := dao.db.QueryRowContext(ctx, query, id.String())
	profile, err := dao.scanProfile(row)
	if err != nil {
		return nil, err
	}

	if err := dao.loadTools(ctx, profile); err != nil {
		return nil, err
	}

	return profile, nil
}

// GetBySlug retrieves an agency profile by its unique slug
func (dao *AgencyDAO) GetBySlug(ctx context.Context, slug string) (*types.AgencyProfile, error) {
	query := `
		SELECT
			id, name, slug, abbreviation, department_name,
			parent_abbreviation, org_id, deployment_status, source_url,
			created_at, updated_at
		FROM agency_profiles
		WHERE slug = ?
	`

	row := dao.db.QueryRowContext(ctx, query, slug)
	profile, err := dao.scanProfile(row)
	if err != nil {
		return nil, err
	}

	if err := dao.loadTools(ctx, profile); err != nil {
		return nil, err
	}

	return profile, nil
}

// GetByAbbreviation retrieves an agency profile by abbreviation, matched
// case-insensitively
func (dao *AgencyDAO) GetByAbbreviation(ctx context.Context, abbrev string) (*types.AgencyProfile, error) {
	query := `
		SELECT
			id, name, slug, abbreviation, department_name,
			parent_abbreviation, org_id, deployment_status, source_url,
			created_at, updated_at
		FROM agency_profiles
		WHERE abbreviation = ? COLLATE NOCASE
	`

	row := dao.db.QueryRowContext(ctx, query, abbrev)
	profile, err := dao.scanProfile(row)
	if err != nil {
		return nil, err
	}

	if err := dao.loadTools(ctx, profile); err != nil {
		return nil, err
	}

	return profile, nil
}

// List retrieves agency profiles with optional filtering. Tools are not
// loaded; use ListAll or Get when tool detail is needed.
func (dao *AgencyDAO) List(ctx context.Context, filter *types.AgencyFilter) ([]*types.AgencyProfile, error) {
	if filter == nil {
		filter = types.NewAgencyFilter()
	}

	query := `
		SELECT
			id, name, slug, abbreviation, department_name,
			parent_abbreviation, org_id, deployment_status, source_url,
			created_at, updated_at
		FROM agency_profiles
		WHERE 1=1
	`

	var args []interface{}
	var conditions []string

	if filter.Status != nil {
		conditions = append(conditions, "deployment_status = ?")
		args = append(args, filter.Status.String())
	}

	if filter.Department != nil {
		conditions = append(conditions, "department_name = ? COLLATE NOCASE")
		args = append(args, *filter.Department)
	}

	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY name LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	rows, err := dao.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query agency profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*types.AgencyProfile
	for rows.Next() {
		profile, err := dao.scanProfileFromRows(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating agency profiles: %w", err)
	}

	return profiles, nil
}

// ListAll retrieves every agency profile with tools attached. The tool rows
// are fetched in a single query and stitched onto their profiles.
func (dao *AgencyDAO) ListAll(ctx context.Context) ([]*types.AgencyProfile, error) {
	query := `
		SELECT
			id, name, slug, abbreviation, department_name,
			parent_abbreviation, org_id, deployment_status, source_url,
			created_at, updated_at
		FROM agency_profiles
		ORDER BY name
	`

	rows, err := dao.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query agency profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*types.AgencyProfile
	byID := make(map[string]*types.AgencyProfile)
	for rows.Next() {
		profile, err := dao.scanProfileFromRows(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
		byID[profile.ID.String()] = profile
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating agency profiles: %w", err)
	}

	toolQuery := `
		SELECT
			id, agency_id, name, type, availability,
			pilot, source_text, source_url, accessed_date, created_at
		FROM agency_ai_tools
		ORDER BY agency_id, name
	`

	toolRows, err := dao.db.QueryContext(ctx, toolQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query agency tools: %w", err)
	}
	defer toolRows.Close()

	for toolRows.Next() {
		tool, err := dao.scanToolFromRows(toolRows)
		if err != nil {
			return nil, err
		}
		if profile, ok := byID[tool.AgencyID.String()]; ok {
			profile.Tools = append(profile.Tools, *tool)
		}
	}

	if err := toolRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating agency tools: %w", err)
	}

	return profiles, nil
}

// Delete removes an agency profile; tools cascade with it
func (dao *AgencyDAO) Delete(ctx context.Context, id types.ID) error {
	query := "DELETE FROM agency_profiles WHERE id = ?"
	result, err := dao.db.ExecContext(ctx, query, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete agency profile: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("agency profile not found: %s", id)
	}

	return nil
}

// DeleteAll clears every agency profile, cascading to tools, and returns
// the count of profiles removed
func (dao *AgencyDAO) DeleteAll(ctx context.Context) (int64, error) {
	result, err := dao.db.ExecContext(ctx, "DELETE FROM agency_profiles")
	if err != nil {
		return 0, fmt.Errorf("failed to clear agency profiles: %w", err)
	}
	return result.RowsAffected()
}

// Count returns the number of stored agency profiles
func (dao *AgencyDAO) Count(ctx context.Context) (int, error) {
	var count int
	err := dao.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM agency_profiles").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count agency profiles: %w", err)
	}
	return count, nil
}

// ExistsBySlug checks if an agency profile exists with the given slug
func (dao *AgencyDAO) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	var count int
	err := dao.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM agency_profiles WHERE slug = ?", slug).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check agency slug existence: %w", err)
	}
	return count > 0, nil
}

func (dao *AgencyDAO) loadTools(ctx context.Context, profile *types.AgencyProfile) error {
	query := `
		SELECT
			id, agency_id, name, type, availability,
			pilot, source_text, source_url, accessed_date, created_at
		FROM agency_ai_tools
		WHERE agency_id = ?
		ORDER BY name
	`

	rows, err := dao.db.QueryContext(ctx, query, profile.ID.String())
	if err != nil {
		return fmt.Errorf("failed to query agency tools: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		tool, err := dao.scanToolFromRows(rows)
		if err != nil {
			return err
		}
		profile.Tools = append(profile.Tools, *tool)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating agency tools: %w", err)
	}

	return nil
}

// scanProfile scans a single agency profile from a query row
func (dao *AgencyDAO) scanProfile(row *sql.Row) (*types.AgencyProfile, error) {
	var profile types.AgencyProfile
	var id, status string

	err := row.Scan(
		&id,
		&profile.Name,
		&profile.Slug,
		&profile.Abbreviation,
		&profile.DepartmentName,
		&profile.ParentAbbreviation,
		&profile.OrgID,
		&status,
		&profile.SourceURL,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("agency profile not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan agency profile: %w", err)
	}

	profile.ID, err = types.ParseID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to parse profile ID: %w", err)
	}

	profile.DeploymentStatus = types.DeploymentStatus(status)

	return &profile, nil
}

// scanProfileFromRows scans an agency profile from sql.Rows
func (dao *AgencyDAO) scanProfileFromRows(rows *sql.Rows) (*types.AgencyProfile, error) {
	var profile types.AgencyProfile
	var id, status string

	err := rows.Scan(
		&id,
		&profile.Name,
		&profile.Slug,
		&profile.Abbreviation,
		&profile.DepartmentName,
		&profile.ParentAbbreviation,
		&profile.OrgID,
		&status,
		&profile.SourceURL,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to scan agency profile: %w", err)
	}

	profile.ID, err = types.ParseID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to parse profile ID: %w", err)
	}

	profile.DeploymentStatus = types.DeploymentStatus(status)

	return &profile, nil
}

// scanToolFromRows scans an agency tool from sql.Rows
func (dao *AgencyDAO) scanToolFromRows(rows *sql.Rows) (*types.AgencyAiTool, error) {
	var tool types.AgencyAiTool
	var id, agencyID, toolType, availability string
	var accessedDate sql.NullTime

	err := rows.Scan(
		&id,
		&agencyID,
		&tool.Name,
		&toolType,
		&availability,
		&tool.Pilot,
		&tool.SourceText,
		&tool.SourceURL,
		&accessedDate,
		&tool.CreatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to scan agency tool: %w", err)
	}

	tool.ID, err = types.ParseID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to parse tool ID: %w", err)
	}

	tool.AgencyID, err = types.ParseID(agencyID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse tool agency ID: %w", err)
	}

	tool.Type = types.ToolType(toolType)
	tool.Availability = types.ToolAvailability(availability)

	if accessedDate.Valid {
		t := accessedDate.Time
		tool.AccessedDate = &t
	}

	return &tool, nil
}
