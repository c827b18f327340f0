package match

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/fedlink-ai/fedlink/internal/database"
	"github.com/fedlink-ai/fedlink/internal/types"
)

// DefaultParallelism bounds how many sources are evaluated concurrently.
const DefaultParallelism = 4

// Matcher runs the deterministic rule passes. Each Run method clears its
// own method's prior rows and bulk-inserts the fresh result, so reruns over
// unchanged data converge to the same match set.
type Matcher struct {
	useCases  *database.UseCaseDAO
	agencies  *database.AgencyDAO
	products  *database.ProductDAO
	incidents *database.IncidentDAO
	matches   *database.MatchDAO

	parallelism int
	logger      *slog.Logger
	tracer      trace.Tracer
}

// MatcherOption is a functional option for configuring the Matcher.
type MatcherOption func(*Matcher)

// WithParallelism bounds concurrent source evaluation.
func WithParallelism(n int) MatcherOption {
	return func(m *Matcher) {
		if n > 0 {
			m.parallelism = n
		}
	}
}

// WithLogger sets the logger for match runs.
func WithLogger(logger *slog.Logger) MatcherOption {
	return func(m *Matcher) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithTracer sets the OpenTelemetry tracer for match spans.
func WithTracer(tracer trace.Tracer) MatcherOption {
	return func(m *Matcher) {
		if tracer != nil {
			m.tracer = tracer
		}
	}
}

// NewMatcher creates a Matcher over the given database.
func NewMatcher(db *database.DB, options ...MatcherOption) *Matcher {
	m := &Matcher{
		useCases:    database.NewUseCaseDAO(db),
		agencies:    database.NewAgencyDAO(db),
		products:    database.NewProductDAO(db),
		incidents:   database.NewIncidentDAO(db),
		matches:     database.NewMatchDAO(db),
		parallelism: DefaultParallelism,
		logger:      slog.Default(),
		tracer:      trace.NewNoopTracerProvider().Tracer("match"),
	}

	for _, opt := range options {
		opt(m)
	}

	return m
}

// RunResult reports one deterministic match pass.
type RunResult struct {
	Method     types.MatchMethod `json:"method"`
	Sources    int               `json:"sources"`
	Candidates int               `json:"candidates"`
	Matched    int               `json:"matched"`
	Inserted   int               `json:"inserted"`
	Skipped    int               `json:"skipped"`
	Duration   time.Duration     `json:"duration"`
}

// RunAll executes every deterministic pass in a fixed order and returns the
// per-method results. The first failing pass aborts the remainder; results
// for completed passes are returned alongside the error.
func (m *Matcher) RunAll(ctx context.Context) ([]*RunResult, error) {
	passes := []func(context.Context) (*RunResult, error){
		m.RunUseCaseProducts,
		m.RunAgencyProducts,
		m.RunIncidentProducts,
		m.RunIncidentUseCases,
	}

	var results []*RunResult
	for _, pass := range passes {
		result, err := pass(ctx)
		if result != nil {
			results = append(results, result)
		}
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// RunUseCaseProducts links use cases that name a provider or a commercial
// product to AI-flagged FedRAMP products.
func (m *Matcher) RunUseCaseProducts(ctx context.Context) (*RunResult, error) {
	ctx, span := m.tracer.Start(ctx, "match.usecase_products")
	defer span.End()
	span.SetAttributes(attribute.String("method", types.MatchMethodUseCaseFedRAMP.String()))

	start := time.Now()

	sources, err := m.useCases.ListLinkable(ctx)
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to load linkable use cases", err)
	}
	targets, err := m.products.ListAIFlagged(ctx)
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to load AI products", err)
	}

	links, err := m.fanOut(ctx, len(sources), func(i int) []*types.Match {
		var out []*types.Match
		for _, p := range targets {
			if link := evalUseCaseProduct(sources[i], p); link != nil {
				out = append(out, link)
			}
		}
		return out
	})
	if err != nil {
		return nil, err
	}

	return m.store(ctx, types.MatchMethodUseCaseFedRAMP, len(sources), len(targets), links, start)
}

// RunAgencyProducts links agency AI profiles to AI-flagged FedRAMP products
// through their inventoried tools.
func (m *Matcher) RunAgencyProducts(ctx context.Context) (*RunResult, error) {
	ctx, span := m.tracer.Start(ctx, "match.agency_products")
	defer span.End()
	span.SetAttributes(attribute.String("method", types.MatchMethodAgencyFedRAMP.String()))

	start := time.Now()

	sources, err := m.agencies.ListAll(ctx)
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to load agency profiles", err)
	}
	targets, err := m.products.ListAIFlagged(ctx)
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to load AI products", err)
	}

	links, err := m.fanOut(ctx, len(sources), func(i int) []*types.Match {
		var out []*types.Match
		for _, p := range targets {
			if link := evalAgencyProduct(sources[i], p); link != nil {
				out = append(out, link)
			}
		}
		return out
	})
	if err != nil {
		return nil, err
	}

	return m.store(ctx, types.MatchMethodAgencyFedRAMP, len(sources), len(targets), links, start)
}

// RunIncidentProducts links incidents to AI-flagged FedRAMP products via
// developer and deployer names.
func (m *Matcher) RunIncidentProducts(ctx context.Context) (*RunResult, error) {
	ctx, span := m.tracer.Start(ctx, "match.incident_products")
	defer span.End()
	span.SetAttributes(attribute.String("method", types.MatchMethodIncidentProduct.String()))

	start := time.Now()

	sources, err := m.incidents.List(ctx)
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to load incidents", err)
	}
	targets, err := m.products.ListAIFlagged(ctx)
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to load AI products", err)
	}

	links, err := m.fanOut(ctx, len(sources), func(i int) []*types.Match {
		var out []*types.Match
		for _, p := range targets {
			if link := evalIncidentProduct(sources[i], p); link != nil {
				out = append(out, link)
			}
		}
		return out
	})
	if err != nil {
		return nil, err
	}

	return m.store(ctx, types.MatchMethodIncidentProduct, len(sources), len(targets), links, start)
}

// RunIncidentUseCases links incidents to use cases whose detected providers
// or named product overlap the incident's parties.
func (m *Matcher) RunIncidentUseCases(ctx context.Context) (*RunResult, error) {
	ctx, span := m.tracer.Start(ctx, "match.incident_usecases")
	defer span.End()
	span.SetAttributes(attribute.String("method", types.MatchMethodIncidentUseCase.String()))

	start := time.Now()

	sources, err := m.incidents.List(ctx)
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to load incidents", err)
	}
	targets, err := m.useCases.ListLinkable(ctx)
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to load linkable use cases", err)
	}

	links, err := m.fanOut(ctx, len(sources), func(i int) []*types.Match {
		var out []*types.Match
		for _, uc := range targets {
			if link := evalIncidentUseCase(sources[i], uc); link != nil {
				out = append(out, link)
			}
		}
		return out
	})
	if err != nil {
		return nil, err
	}

	return m.store(ctx, types.MatchMethodIncidentUseCase, len(sources), len(targets), links, start)
}

// fanOut evaluates fn for every source index with bounded parallelism and
// concatenates the per-source links in source order. Workers write disjoint
// slice elements, so no locking is needed.
func (m *Matcher) fanOut(ctx context.Context, n int, fn func(i int) []*types.Match) ([]*types.Match, error) {
	results := make([][]*types.Match, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.parallelism)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = fn(i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var links []*types.Match
	for _, r := range results {
		links = append(links, r...)
	}
	return links, nil
}

// store replaces the method's prior rows with links and logs the outcome.
// Duplicate-key insert failures are counted as skips, never fatal.
func (m *Matcher) store(ctx context.Context, method types.MatchMethod, sources, candidates int, links []*types.Match, start time.Time) (*RunResult, error) {
	result := &RunResult{
		Method:     method,
		Sources:    sources,
		Candidates: candidates,
		Matched:    len(links),
	}

	if _, err := m.matches.DeleteByMethod(ctx, method); err != nil {
		return nil, types.WrapError(types.MATCH_STORE_FAILED, "failed to clear prior matches", err)
	}

	inserted, skipped, err := m.matches.InsertMany(ctx, links)
	result.Inserted = inserted
	result.Skipped = skipped
	if err != nil {
		result.Duration = time.Since(start)
		return result, types.WrapError(types.MATCH_STORE_FAILED, "failed to insert matches", err)
	}
	if skipped > 0 {
		m.logger.Warn("skipped duplicate matches during insert",
			"method", method.String(), "skipped", skipped)
	}

	result.Duration = time.Since(start)
	m.logger.Info("deterministic match run complete",
		"method", method.String(),
		"sources", result.Sources,
		"candidates", result.Candidates,
		"matched", result.Matched,
		"inserted", result.Inserted,
		"skipped", result.Skipped,
		"duration", result.Duration)

	return result, nil
}
