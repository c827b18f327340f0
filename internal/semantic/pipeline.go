package semantic

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/fedlink-ai/fedlink/internal/database"
	"github.com/fedlink-ai/fedlink/internal/semantic/embedder"
)

// Pipeline defaults.
const (
	// DefaultBatchSize is how many texts go to the provider per request.
	DefaultBatchSize = 64

	// DefaultTopK bounds how many semantic matches each source keeps.
	DefaultTopK = 5

	// DefaultMinScore is the cosine similarity floor below which no link
	// is recorded.
	DefaultMinScore = 0.40

	// DefaultMaxInputChars bounds the text sent to the embedding provider,
	// keeping requests under the model's input limit.
	DefaultMaxInputChars = 8000
)

// Pipeline runs the two embedding batch jobs: backfilling vectors for
// entities that lack one, and linking two entity pools by cosine similarity.
// Both jobs are rerunnable; the backfill skips stored vectors and the linker
// clears its own prior output before inserting.
type Pipeline struct {
	embedder   embedder.Embedder
	embeddings *database.EmbeddingDAO
	useCases   *database.UseCaseDAO
	products   *database.ProductDAO
	incidents  *database.IncidentDAO
	matches    *database.MatchDAO

	batchSize     int
	topK          int
	minScore      float64
	maxInputChars int
	logger        *slog.Logger
	tracer        trace.Tracer
}

// PipelineOption is a functional option for configuring the Pipeline.
type PipelineOption func(*Pipeline)

// WithBatchSize sets how many texts are sent per embedding request.
func WithBatchSize(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

// WithTopK sets the per-source cap on recorded semantic matches.
func WithTopK(k int) PipelineOption {
	return func(p *Pipeline) {
		if k > 0 {
			p.topK = k
		}
	}
}

// WithMinScore sets the similarity floor for recording a link.
func WithMinScore(score float64) PipelineOption {
	return func(p *Pipeline) {
		if score >= 0 && score <= 1 {
			p.minScore = score
		}
	}
}

// WithMaxInputChars sets the byte cap on the text built for each entity
// before it is sent to the provider.
func WithMaxInputChars(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxInputChars = n
		}
	}
}

// WithLogger sets the logger for pipeline operations.
func WithLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithTracer sets the OpenTelemetry tracer for pipeline spans.
func WithTracer(tracer trace.Tracer) PipelineOption {
	return func(p *Pipeline) {
		if tracer != nil {
			p.tracer = tracer
		}
	}
}

// NewPipeline creates a Pipeline over the given database and embedder.
func NewPipeline(db *database.DB, emb embedder.Embedder, options ...PipelineOption) *Pipeline {
	p := &Pipeline{
		embedder:      emb,
		embeddings:    database.NewEmbeddingDAO(db),
		useCases:      database.NewUseCaseDAO(db),
		products:      database.NewProductDAO(db),
		incidents:     database.NewIncidentDAO(db),
		matches:       database.NewMatchDAO(db),
		batchSize:     DefaultBatchSize,
		topK:          DefaultTopK,
		minScore:      DefaultMinScore,
		maxInputChars: DefaultMaxInputChars,
		logger:        slog.Default(),
		tracer:        trace.NewNoopTracerProvider().Tracer("semantic"),
	}

	for _, opt := range options {
		opt(p)
	}

	return p
}
