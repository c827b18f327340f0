package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fedlink-ai/fedlink/internal/types"
)

// UseCaseDAO provides database access for federal AI use case inventory rows
type UseCaseDAO struct {
	db *DB
}

// NewUseCaseDAO creates a new UseCaseDAO instance
func NewUseCaseDAO(db *DB) *UseCaseDAO {
	return &UseCaseDAO{db: db}
}

// Create inserts a single use case
func (dao *UseCaseDAO) Create(ctx context.Context, uc *types.UseCase) error {
	if err := uc.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	return dao.db.WithTx(ctx, func(tx *sql.Tx) error {
		return dao.insert(ctx, tx, uc)
	})
}

// InsertMany inserts a batch of use cases in one transaction. Any invalid
// row aborts the whole batch.
func (dao *UseCaseDAO) InsertMany(ctx context.Context, ucs []*types.UseCase) error {
	return dao.db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, uc := range ucs {
			if err := uc.Validate(); err != nil {
				return fmt.Errorf("validation failed for %s: %w", uc.Name, err)
			}
			if err := dao.insert(ctx, tx, uc); err != nil {
				return err
			}
		}
		return nil
	})
}

func (dao *UseCaseDAO) insert(ctx context.Context, tx *sql.Tx, uc *types.UseCase) error {
	providersJSON, err := marshalStrings(uc.ProvidersDetected)
	if err != nil {
		return fmt.Errorf("failed to marshal providers: %w", err)
	}

	now := time.Now()
	if uc.CreatedAt.IsZero() {
		uc.CreatedAt = now
	}
	if uc.UpdatedAt.IsZero() {
		uc.UpdatedAt = now
	}

	query := `
		INSERT INTO use_cases (
			id, agency_name, agency_abbrev, bureau, name, topic,
			purpose_text, outputs_text, stage, has_genai, has_llm,
			has_chatbot, has_classic_ml, providers_detected,
			commercial_product, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = tx.ExecContext(ctx, query,
		uc.ID.String(),
		uc.AgencyName,
		uc.AgencyAbbrev,
		uc.Bureau,
		uc.Name,
		uc.Topic,
		uc.PurposeText,
		uc.OutputsText,
		uc.Stage,
		uc.HasGenAI,
		uc.HasLLM,
		uc.HasChatbot,
		uc.HasClassicML,
		providersJSON,
		uc.CommercialProduct,
		uc.CreatedAt,
		uc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert use case: %w", err)
	}

	return nil
}

// Get retrieves a use case by ID
func (dao *UseCaseDAO) Get(ctx context.Context, id types.ID) (*types.UseCase, error) {
	query := `
		SELECT
			id, agency_name, agency_abbrev, bureau, name, topic,
			purpose_text, outputs_text, stage, has_genai, has_llm,
			has_chatbot, has_classic_ml, providers_detected,
			commercial_product, created_at, updated_at
		FROM use_cases
		WHERE id = ?
	`

	row := dao.db.QueryRowContext(ctx, query, id.String())
	return dao.scanUseCase(row)
}

// List retrieves all use cases ordered by agency then name
func (dao *UseCaseDAO) List(ctx context.Context) ([]*types.UseCase, error) {
	query := `
		SELECT
			id, agency_name, agency_abbrev, bureau, name, topic,
			purpose_text, outputs_text, stage, has_genai, has_llm,
			has_chatbot, has_classic_ml, providers_detected,
			commercial_product, created_at, updated_at
		FROM use_cases
		ORDER BY agency_abbrev, name
	`

	rows, err := dao.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query use cases: %w", err)
	}
	defer rows.Close()

	return dao.collectUseCases(rows)
}

// ListLinkable retrieves use cases that name at least one provider or a
// commercial product, the only ones the deterministic matcher considers.
func (dao *UseCaseDAO) ListLinkable(ctx context.Context) ([]*types.UseCase, error) {
	query := `
		SELECT
			id, agency_name, agency_abbrev, bureau, name, topic,
			purpose_text, outputs_text, stage, has_genai, has_llm,
			has_chatbot, has_classic_ml, providers_detected,
			commercial_product, created_at, updated_at
		FROM use_cases
		WHERE providers_detected <> '[]' OR TRIM(commercial_product) <> ''
		ORDER BY agency_abbrev, name
	`

	rows, err := dao.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query linkable use cases: %w", err)
	}
	defer rows.Close()

	return dao.collectUseCases(rows)
}

// DeleteAll clears every use case row, returning the count removed
func (dao *UseCaseDAO) DeleteAll(ctx context.Context) (int64, error) {
	result, err := dao.db.ExecContext(ctx, "DELETE FROM use_cases")
	if err != nil {
		return 0, fmt.Errorf("failed to clear use cases: %w", err)
	}
	return result.RowsAffected()
}

// Count returns the number of stored use cases
func (dao *UseCaseDAO) Count(ctx context.Context) (int, error) {
	var count int
	err := dao.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM use_cases").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count use cases: %w", err)
	}
	return count, nil
}

func (dao *UseCaseDAO) collectUseCases(rows *sql.Rows) ([]*types.UseCase, error) {
	var ucs []*types.UseCase
	for rows.Next() {
		uc, err := dao.scanUseCaseFromRows(rows)
		if err != nil {
			return nil, err
		}
		ucs = append(ucs, uc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating use cases: %w", err)
	}

	return ucs, nil
}

// scanUseCase scans a single use case from a query row
func (dao *UseCaseDAO) scanUseCase(row *sql.Row) (*types.UseCase, error) {
	var uc types.UseCase
	var id, providersJSON string

	err := row.Scan(
		&id,
		&uc.AgencyName,
		&uc.AgencyAbbrev,
		&uc.Bureau,
		&uc.Name,
		&uc.Topic,
		&uc.PurposeText,
		&uc.OutputsText,
		&uc.Stage,
		&uc.HasGenAI,
		&uc.HasLLM,
		&uc.HasChatbot,
		&uc.HasClassicML,
		&providersJSON,
		&uc.CommercialProduct,
		&uc.CreatedAt,
		&uc.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("use case not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan use case: %w", err)
	}

	uc.ID, err = types.ParseID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to parse use case ID: %w", err)
	}

	if err := json.Unmarshal([]byte(providersJSON), &uc.ProvidersDetected); err != nil {
		return nil, fmt.Errorf("failed to unmarshal providers: %w", err)
	}

	return &uc, nil
}

// scanUseCaseFromRows scans a use case from sql.Rows
func (dao *UseCaseDAO) scanUseCaseFromRows(rows *sql.Rows) (*types.UseCase, error) {
	var uc types.UseCase
	var id, providersJSON string

	err := rows.Scan(
		&id,
		&uc.AgencyName,
		&uc.AgencyAbbrev,
		&uc.Bureau,
		&uc.Name,
		&uc.Topic,
		&uc.PurposeText,
		&uc.OutputsText,
		&uc.Stage,
		&uc.HasGenAI,
		&uc.HasLLM,
		&uc.HasChatbot,
		&uc.HasClassicML,
		&providersJSON,
		&uc.CommercialProduct,
		&uc.CreatedAt,
		&uc.UpdatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to scan use case: %w", err)
	}

	uc.ID, err = types.ParseID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to parse use case ID: %w", err)
	}

	if err := json.Unmarshal([]byte(providersJSON), &uc.ProvidersDetected); err != nil {
		return nil, fmt.Errorf("failed to unmarshal providers: %w", err)
	}

	return &uc, nil
}
