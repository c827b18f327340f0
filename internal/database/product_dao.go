package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fedlink-ai/fedlink/internal/types"
)

// ProductDAO provides database access for FedRAMP products and their AI
// service analyses
type ProductDAO struct {
	db *DB
}

// NewProductDAO creates a new ProductDAO instance
func NewProductDAO(db *DB) *ProductDAO {
	return &ProductDAO{db: db}
}

// Upsert inserts a product or updates it in place when the marketplace ID
// already exists. The update path leaves created_at alone so repeated feed
// loads stay idempotent.
func (dao *ProductDAO) Upsert(ctx context.Context, product *types.FedRAMPProduct) error {
	if err := product.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now

	query := `
		INSERT INTO fedramp_products (
			id, provider, offering, description, status,
			impact_level, authorizing_agency, authorized_date, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			provider = excluded.provider,
			offering = excluded.offering,
			description = excluded.description,
			status = excluded.status,
			impact_level = excluded.impact_level,
			authorizing_agency = excluded.authorizing_agency,
			authorized_date = excluded.authorized_date,
			updated_at = excluded.updated_at
	`

	_, err := dao.db.ExecContext(ctx, query,
		product.ID,
		product.Provider,
		product.Offering,
		product.Description,
		product.Status.String(),
		product.ImpactLevel,
		product.AuthorizingAgency,
		nullableTime(product.AuthorizedDate),
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert product: %w", err)
	}

	return nil
}

// UpsertAnalysis stores the AI classification for a product, replacing any
// earlier analysis of the same product
func (dao *ProductDAO) UpsertAnalysis(ctx context.Context, analysis *types.AIServiceAnalysis) error {
	if err := analysis.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if analysis.AnalyzedAt.IsZero() {
		analysis.AnalyzedAt = time.Now()
	}

	query := `
		INSERT INTO ai_service_analyses (
			product_id, has_ai, has_genai, has_llm, excerpt, analyzed_at
		) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(product_id) DO UPDATE SET
			has_ai = excluded.has_ai,
			has_genai = excluded.has_genai,
			has_llm = excluded.has_llm,
			excerpt = excluded.excerpt,
			analyzed_at = excluded.analyzed_at
	`

	_, err := dao.db.ExecContext(ctx, query,
		analysis.ProductID,
		analysis.HasAI,
		analysis.HasGenAI,
		analysis.HasLLM,
		analysis.Excerpt,
		analysis.AnalyzedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert analysis: %w", err)
	}

	return nil
}

// Get retrieves a product by its marketplace ID
func (dao *ProductDAO) Get(ctx context.Context, id string) (*types.FedRAMPProduct, error) {
	query := `
		SELECT
			id, provider, offering, description, status,
			impact_level, authorizing_agency, authorized_date, created_at, updated_at
		FROM fedramp_products
		WHERE id = ?
	`

	row := dao.db.QueryRowContext(ctx, query, id)
	return dao.scanProduct(row)
}

// List retrieves all products ordered by provider then offering
func (dao *ProductDAO) List(ctx context.Context) ([]*types.FedRAMPProduct, error) {
	query := `
		SELECT
			id, provider, offering, description, status,
			impact_level, authorizing_agency, authorized_date, created_at, updated_at
		FROM fedramp_products
		ORDER BY provider, offering
	`

	rows, err := dao.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []*types.FedRAMPProduct
	for rows.Next() {
		product, err := dao.scanProductFromRows(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// ListAIFlagged retrieves products whose analysis marked them as
// AI-relevant, joined with their classification flags. This is the
// candidate set the matchers work from.
func (dao *ProductDAO) ListAIFlagged(ctx context.Context) ([]*types.AIProduct, error) {
	query := `
		SELECT
			p.id, p.provider, p.offering, p.description, p.status,
			p.impact_level, p.authorizing_agency, p.authorized_date, p.created_at, p.updated_at,
			a.has_ai, a.has_genai, a.has_llm, a.excerpt
		FROM fedramp_products p
		JOIN ai_service_analyses a ON a.product_id = p.id
		WHERE a.has_ai = 1
		ORDER BY p.provider, p.offering
	`

	rows, err := dao.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query AI products: %w", err)
	}
	defer rows.Close()

	var products []*types.AIProduct
	for rows.Next() {
		var product types.AIProduct
		var status string
		var authorizedDate sql.NullTime

		err := rows.Scan(
			&product.ID,
			&product.Provider,
			&product.Offering,
			&product.Description,
			&status,
			&product.ImpactLevel,
			&product.AuthorizingAgency,
			&authorizedDate,
			&product.CreatedAt,
			&product.UpdatedAt,
			&product.HasAI,
			&product.HasGenAI,
			&product.HasLLM,
			&product.Excerpt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan AI product: %w", err)
		}

		product.Status = types.FedRAMPStatus(status)
		if authorizedDate.Valid {
			t := authorizedDate.Time
			product.AuthorizedDate = &t
		}

		products = append(products, &product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating AI products: %w", err)
	}

	return products, nil
}

// Count returns the number of stored products
func (dao *ProductDAO) Count(ctx context.Context) (int, error) {
	var count int
	err := dao.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM fedramp_products").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

// CountAnalyses returns the number of stored AI service analyses
func (dao *ProductDAO) CountAnalyses(ctx context.Context) (int, error) {
	var count int
	err := dao.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM ai_service_analyses").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count analyses: %w", err)
	}
	return count, nil
}

// scanProduct scans a single product from a query row
func (dao *ProductDAO) scanProduct(row *sql.Row) (*types.FedRAMPProduct, error) {
	var product types.FedRAMPProduct
	var status string
	var authorizedDate sql.NullTime

	err := row.Scan(
		&product.ID,
		&product.Provider,
		&product.Offering,
		&product.Description,
		&status,
		&product.ImpactLevel,
		&product.AuthorizingAgency,
		&authorizedDate,
		&product.CreatedAt,
		&product.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("product not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}

	product.Status = types.FedRAMPStatus(status)
	if authorizedDate.Valid {
		t := authorizedDate.Time
		product.AuthorizedDate = &t
	}

	return &product, nil
}

// scanProductFromRows scans a product from sql.Rows
func (dao *ProductDAO) scanProductFromRows(rows *sql.Rows) (*types.FedRAMPProduct, error) {
	var product types.FedRAMPProduct
	var status string
	var authorizedDate sql.NullTime

	err := rows.Scan(
		&product.ID,
		&product.Provider,
		&product.Offering,
		&product.Description,
		&status,
		&product.ImpactLevel,
		&product.AuthorizingAgency,
		&authorizedDate,
		&product.CreatedAt,
		&product.UpdatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}

	product.Status = types.FedRAMPStatus(status)
	if authorizedDate.Valid {
		t := authorizedDate.Time
		product.AuthorizedDate = &t
	}

	return &product, nil
}
