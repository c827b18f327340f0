package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fedlink-ai/fedlink/internal/types"
)

// IncidentDAO provides database access for AI incident records
type IncidentDAO struct {
	db *DB
}

// NewIncidentDAO creates a new IncidentDAO instance
func NewIncidentDAO(db *DB) *IncidentDAO {
	return &IncidentDAO{db: db}
}

// Upsert inserts an incident or refreshes it when the external ID already
// exists, so repeated feed loads converge on the latest record
func (dao *IncidentDAO) Upsert(ctx context.Context, incident *types.Incident) error {
	if err := incident.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	developersJSON, err := marshalStrings(incident.Developers)
	if err != nil {
		return fmt.Errorf("failed to marshal developers: %w", err)
	}

	deployersJSON, err := marshalStrings(incident.Deployers)
	if err != nil {
		return fmt.Errorf("failed to marshal deployers: %w", err)
	}

	harmedJSON, err := marshalStrings(incident.HarmedParties)
	if err != nil {
		return fmt.Errorf("failed to marshal harmed parties: %w", err)
	}

	now := time.Now()
	if incident.CreatedAt.IsZero() {
		incident.CreatedAt = now
	}
	incident.UpdatedAt = now

	query := `
		INSERT INTO incidents (
			id, title, description, date, developers, deployers,
			harmed_parties, report_count, source_url, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			date = excluded.date,
			developers = excluded.developers,
			deployers = excluded.deployers,
			harmed_parties = excluded.harmed_parties,
			report_count = excluded.report_count,
			source_url = excluded.source_url,
			updated_at = excluded.updated_at
	`

	_, err = dao.db.ExecContext(ctx, query,
		incident.ID,
		incident.Title,
		incident.Description,
		nullableTime(incident.Date),
		developersJSON,
		deployersJSON,
		harmedJSON,
		incident.ReportCount,
		incident.SourceURL,
		incident.CreatedAt,
		incident.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert incident: %w", err)
	}

	return nil
}

// Get retrieves an incident by its external ID
func (dao *IncidentDAO) Get(ctx context.Context, id int) (*types.Incident, error) {
	query := `
		SELECT
			id, title, description, date, developers, deployers,
			harmed_parties, report_count, source_url, created_at, updated_at
		FROM incidents
		WHERE id = ?
	`

	row := dao.db.QueryRowContext(ctx, query, id)
	return dao.scanIncident(row)
}

// List retrieves all incidents ordered by external ID
func (dao *IncidentDAO) List(ctx context.Context) ([]*types.Incident, error) {
	query := `
		SELECT
			id, title, description, date, developers, deployers,
			harmed_parties, report_count, source_url, created_at, updated_at
		FROM incidents
		ORDER BY id
	`

	rows, err := dao.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query incidents: %w", err)
	}
	defer rows.Close()

	var incidents []*types.Incident
	for rows.Next() {
		incident, err := dao.scanIncidentFromRows(rows)
		if err != nil {
			return nil, err
		}
		incidents = append(incidents, incident)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating incidents: %w", err)
	}

	return incidents, nil
}

// Count returns the number of stored incidents
func (dao *IncidentDAO) Count(ctx context.Context) (int, error) {
	var count int
	err := dao.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM incidents").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count incidents: %w", err)
	}
	return count, nil
}

// scanIncident scans a single incident from a query row
func (dao *IncidentDAO) scanIncident(row *sql.Row) (*types.Incident, error) {
	var incident types.Incident
	var date sql.NullTime
	var developersJSON, deployersJSON, harmedJSON string

	err := row.Scan(
		&incident.ID,
		&incident.Title,
		&incident.Description,
		&date,
		&developersJSON,
		&deployersJSON,
		&harmedJSON,
		&incident.ReportCount,
		&incident.SourceURL,
		&incident.CreatedAt,
		&incident.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("incident not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan incident: %w", err)
	}

	if date.Valid {
		t := date.Time
		incident.Date = &t
	}

	if err := json.Unmarshal([]byte(developersJSON), &incident.Developers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal developers: %w", err)
	}
	if err := json.Unmarshal([]byte(deployersJSON), &incident.Deployers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal deployers: %w", err)
	}
	if err := json.Unmarshal([]byte(harmedJSON), &incident.HarmedParties); err != nil {
		return nil, fmt.Errorf("failed to unmarshal harmed parties: %w", err)
	}

	return &incident, nil
}

// scanIncidentFromRows scans an incident from sql.Rows
func (dao *IncidentDAO) scanIncidentFromRows(rows *sql.Rows) (*types.Incident, error) {
	var incident types.Incident
	var date sql.NullTime
	var developersJSON, deployersJSON, harmedJSON string

	err := rows.Scan(
		&incident.ID,
		&incident.Title,
		&incident.Description,
		&date,
		&developersJSON,
		&deployersJSON,
		&harmedJSON,
		&incident.ReportCount,
		&incident.SourceURL,
		&incident.CreatedAt,
		&incident.UpdatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to scan incident: %w", err)
	}

	if date.Valid {
		t := date.Time
		incident.Date = &t
	}

	if err := json.Unmarshal([]byte(developersJSON), &incident.Developers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal developers: %w", err)
	}
	if err := json.Unmarshal([]byte(deployersJSON), &incident.Deployers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal deployers: %w", err)
	}
	if err := json.Unmarshal([]byte(harmedJSON), &incident.HarmedParties); err != nil {
		return nil, fmt.Errorf("failed to unmarshal harmed parties: %w", err)
	}

	return &incident, nil
}
