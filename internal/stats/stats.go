// Package stats derives summary rollups from the base tables. Every number
// is recomputed by re-scanning at call time; nothing here maintains
// incremental counters, so the rollups are correct whenever the base tables
// are.
package stats

import (
	"context"
	"log/slog"
	"time"

	"github.com/fedlink-ai/fedlink/internal/database"
	"github.com/fedlink-ai/fedlink/internal/org"
	"github.com/fedlink-ai/fedlink/internal/types"
)

// Overview is the full rollup across all entity stores.
type Overview struct {
	Organizations OrganizationStats     `json:"organizations"`
	Agencies      AgencyStats           `json:"agencies"`
	Products      ProductStats          `json:"products"`
	UseCases      UseCaseStats          `json:"use_cases"`
	Incidents     IncidentStats         `json:"incidents"`
	Matches       []database.MatchCount `json:"matches"`
	GeneratedAt   time.Time             `json:"generated_at"`
}

// OrganizationStats summarizes the loaded org chart.
type OrganizationStats struct {
	Total   int                    `json:"total"`
	Roots   int                    `json:"roots"`
	ByLevel map[types.OrgLevel]int `json:"by_level,omitempty"`
}

// AgencyStats summarizes agency AI profiles and their inventoried tools.
type AgencyStats struct {
	Total              int                            `json:"total"`
	ByDeploymentStatus map[types.DeploymentStatus]int `json:"by_deployment_status,omitempty"`
	Tools              ToolStats                      `json:"tools"`
}

// ToolStats summarizes inventoried agency AI tools. ByDepartment groups
// tool counts under each profile's hierarchy root department.
type ToolStats struct {
	Total        int                    `json:"total"`
	ByType       map[types.ToolType]int `json:"by_type,omitempty"`
	ByDepartment map[string]int         `json:"by_department,omitempty"`
}

// ProductStats summarizes the FedRAMP marketplace slice.
type ProductStats struct {
	Total     int `json:"total"`
	Analyzed  int `json:"analyzed"`
	AIFlagged int `json:"ai_flagged"`
	GenAI     int `json:"genai"`
	LLM       int `json:"llm"`
}

// UseCaseStats summarizes the use case inventory. LLMByAgency counts
// LLM-flagged use cases per agency name.
type UseCaseStats struct {
	Total       int            `json:"total"`
	GenAI       int            `json:"genai"`
	LLM         int            `json:"llm"`
	Linkable    int            `json:"linkable"`
	LLMByAgency map[string]int `json:"llm_by_agency,omitempty"`
}

// IncidentStats summarizes the incident store.
type IncidentStats struct {
	Total int `json:"total"`
}

// Reporter computes rollups over the entity stores.
type Reporter struct {
	orgs      *database.OrgDAO
	agencies  *database.AgencyDAO
	products  *database.ProductDAO
	useCases  *database.UseCaseDAO
	incidents *database.IncidentDAO
	matches   *database.MatchDAO
	logger    *slog.Logger
}

// ReporterOption is a functional option for configuring the Reporter.
type ReporterOption func(*Reporter)

// WithLogger sets the logger for rollup runs.
func WithLogger(logger *slog.Logger) ReporterOption {
	return func(r *Reporter) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewReporter creates a Reporter over the given database.
func NewReporter(db *database.DB, options ...ReporterOption) *Reporter {
	r := &Reporter{
		orgs:      database.NewOrgDAO(db),
		agencies:  database.NewAgencyDAO(db),
		products:  database.NewProductDAO(db),
		useCases:  database.NewUseCaseDAO(db),
		incidents: database.NewIncidentDAO(db),
		matches:   database.NewMatchDAO(db),
		logger:    slog.Default(),
	}

	for _, opt := range options {
		opt(r)
	}

	return r
}

// Overview recomputes the full rollup from the base tables.
func (r *Reporter) Overview(ctx context.Context) (*Overview, error) {
	o := &Overview{GeneratedAt: time.Now()}

	if err := r.collectOrganizations(ctx, o); err != nil {
		return nil, err
	}
	if err := r.collectAgencies(ctx, o); err != nil {
		return nil, err
	}
	if err := r.collectProducts(ctx, o); err != nil {
		return nil, err
	}
	if err := r.collectUseCases(ctx, o); err != nil {
		return nil, err
	}

	incidents, err := r.incidents.Count(ctx)
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to count incidents", err)
	}
	o.Incidents.Total = incidents

	counts, err := r.matches.Counts(ctx)
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to count matches", err)
	}
	o.Matches = counts

	r.logger.Debug("overview computed",
		"organizations", o.Organizations.Total,
		"agencies", o.Agencies.Total,
		"products", o.Products.Total,
		"use_cases", o.UseCases.Total,
		"incidents", o.Incidents.Total)
	return o, nil
}

func (r *Reporter) collectOrganizations(ctx context.Context, o *Overview) error {
	orgs, err := r.orgs.List(ctx)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to scan organizations", err)
	}

	o.Organizations.Total = len(orgs)
	o.Organizations.ByLevel = make(map[types.OrgLevel]int)
	for _, node := range orgs {
		o.Organizations.ByLevel[node.Level]++
		if node.IsRoot() {
			o.Organizations.Roots++
		}
	}
	return nil
}

func (r *Reporter) collectAgencies(ctx context.Context, o *Overview) error {
	profiles, err := r.agencies.ListAll(ctx)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to scan agency profiles", err)
	}
	resolver := org.NewProfileResolver(profiles, org.WithResolverLogger(r.logger))

	o.Agencies.Total = len(profiles)
	o.Agencies.ByDeploymentStatus = make(map[types.DeploymentStatus]int)
	o.Agencies.Tools.ByType = make(map[types.ToolType]int)
	o.Agencies.Tools.ByDepartment = make(map[string]int)

	for _, profile := range profiles {
		o.Agencies.ByDeploymentStatus[profile.DeploymentStatus]++
		if len(profile.Tools) == 0 {
			continue
		}
		o.Agencies.Tools.Total += len(profile.Tools)
		o.Agencies.Tools.ByDepartment[resolver.DepartmentOf(profile)] += len(profile.Tools)
		for _, tool := range profile.Tools {
			o.Agencies.Tools.ByType[tool.Type]++
		}
	}
	return nil
}

func (r *Reporter) collectProducts(ctx context.Context, o *Overview) error {
	total, err := r.products.Count(ctx)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to count products", err)
	}
	analyzed, err := r.products.CountAnalyses(ctx)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to count product analyses", err)
	}
	flagged, err := r.products.ListAIFlagged(ctx)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to scan AI-flagged products", err)
	}

	o.Products.Total = total
	o.Products.Analyzed = analyzed
	o.Products.AIFlagged = len(flagged)
	for _, p := range flagged {
		if p.HasGenAI {
			o.Products.GenAI++
		}
		if p.HasLLM {
			o.Products.LLM++
		}
	}
	return nil
}

func (r *Reporter) collectUseCases(ctx context.Context, o *Overview) error {
	ucs, err := r.useCases.List(ctx)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to scan use cases", err)
	}

	o.UseCases.Total = len(ucs)
	o.UseCases.LLMByAgency = make(map[string]int)
	for _, uc := range ucs {
		if uc.HasGenAI {
			o.UseCases.GenAI++
		}
		if uc.Linkable() {
			o.UseCases.Linkable++
		}
		if uc.HasLLM {
			o.UseCases.LLM++
			o.UseCases.LLMByAgency[uc.AgencyName]++
		}
	}
	return nil
}
