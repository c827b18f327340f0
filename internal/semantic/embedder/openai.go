package embedder

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"

	"github.com/fedlink-ai/fedlink/internal/types"
)

// retryBaseDelay is the step for the linear backoff between retry attempts.
const retryBaseDelay = 500 * time.Millisecond

// modelDimensions maps known OpenAI embedding models to their output width.
var modelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// OpenAIEmbedder generates embeddings through the OpenAI embeddings API.
// Requests are throttled by a token-bucket limiter and retried on transient
// failures before the batch is declared failed.
type OpenAIEmbedder struct {
	client     *openai.LLM
	model      string
	dimensions int
	maxRetries int
	limiter    *rate.Limiter
}

// NewOpenAIEmbedder creates an OpenAI-backed embedder from config. The API
// key falls back to the OPENAI_API_KEY environment variable.
func NewOpenAIEmbedder(cfg Config) (*OpenAIEmbedder, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, types.NewError(types.CONFIG_VALIDATION_FAILED,
			"OpenAI embedder requires api_key (or OPENAI_API_KEY environment variable)")
	}

	model := cfg.Model
	if model == "" {
		model = "text-embedding-3-small"
	}

	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithEmbeddingModel(model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, types.WrapError(types.EMBED_PROVIDER_UNAVAILABLE,
			"failed to create OpenAI client", err)
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		perSecond := float64(cfg.RequestsPerMinute) / 60.0
		limiter = rate.NewLimiter(rate.Limit(perSecond), cfg.RequestsPerMinute)
	}

	return &OpenAIEmbedder{
		client:     client,
		model:      model,
		dimensions: dimensionsForModel(model),
		maxRetries: cfg.MaxRetries,
		limiter:    limiter,
	}, nil
}

// Embed generates an embedding vector for a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for multiple texts in one API request.
// A short response or an empty vector for a non-empty input is treated as
// malformed provider output, not as a missing embedding.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}

	var vectors [][]float32
	var lastErr error

	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * retryBaseDelay
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		vectors, lastErr = e.client.CreateEmbedding(ctx, texts)
		if lastErr == nil {
			break
		}
		if ctx.Err() != nil {
			return nil, lastErr
		}
	}

	if lastErr != nil {
		return nil, types.WrapError(types.EMBED_PROVIDER_FAILED,
			fmt.Sprintf("embedding request failed after %d attempts", e.maxRetries+1), lastErr)
	}

	if len(vectors) != len(texts) {
		return nil, types.NewError(types.EMBED_PROVIDER_FAILED,
			fmt.Sprintf("provider returned %d vectors for %d texts", len(vectors), len(texts)))
	}

	result := make([][]float64, len(vectors))
	for i, vec := range vectors {
		if len(vec) == 0 {
			return nil, types.NewError(types.EMBED_PROVIDER_FAILED,
				fmt.Sprintf("provider returned empty vector for text %d", i))
		}
		converted := make([]float64, len(vec))
		for j, v := range vec {
			converted[j] = float64(v)
		}
		result[i] = converted
	}

	return result, nil
}

// Dimensions returns the dimensionality of embedding vectors.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

// Model returns the name of the embedding model being used.
func (e *OpenAIEmbedder) Model() string {
	return e.model
}

// Health probes the API with a minimal embedding request.
func (e *OpenAIEmbedder) Health(ctx context.Context) types.HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := e.Embed(ctx, "health check"); err != nil {
		return types.Unhealthy(err.Error())
	}
	return types.Healthy(fmt.Sprintf("openai embedder operational (model: %s)", e.model))
}

// dimensionsForModel returns the vector width of a known model, defaulting
// to the small model's width for unknown names.
func dimensionsForModel(model string) int {
	if dims, ok := modelDimensions[model]; ok {
		return dims
	}
	return 1536
}
