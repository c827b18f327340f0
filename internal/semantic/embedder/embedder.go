package embedder

import (
	"context"

	"github.com/fedlink-ai/fedlink/internal/types"
)

// Embedder generates embedding vectors from text content.
// Implementations must be thread-safe for concurrent access.
type Embedder interface {
	// Embed generates an embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float64, error)

	// EmbedBatch generates embeddings for multiple texts in one request.
	// The result has exactly one vector per input text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)

	// Dimensions returns the dimensionality of embedding vectors.
	Dimensions() int

	// Model returns the name of the embedding model being used.
	Model() string

	// Health returns the health status of the embedder.
	Health(ctx context.Context) types.HealthStatus
}

// Config holds configuration for embedding providers.
type Config struct {
	// Provider specifies which embedder implementation to use.
	// Options: "openai", "mock"
	Provider string `yaml:"provider" json:"provider" mapstructure:"provider"`

	// Model is the specific embedding model to use.
	// For OpenAI: "text-embedding-3-small" (1536 dims) or "text-embedding-3-large" (3072 dims)
	Model string `yaml:"model" json:"model" mapstructure:"model"`

	// APIKey is the API key for the embedding provider.
	// Can also be provided via environment variable (e.g., OPENAI_API_KEY)
	APIKey string `yaml:"api_key" json:"api_key" mapstructure:"api_key"`

	// BaseURL is the base URL for the embedding API.
	// For OpenAI, this defaults to "https://api.openai.com/v1"
	BaseURL string `yaml:"base_url" json:"base_url" mapstructure:"base_url"`

	// MaxRetries is the maximum number of retry attempts for transient failures.
	MaxRetries int `yaml:"max_retries" json:"max_retries" mapstructure:"max_retries"`

	// RequestsPerMinute throttles calls to the provider. Zero disables
	// throttling.
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// Validate checks if the Config is valid.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "embedder provider cannot be empty")
	}

	if c.Model == "" {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "embedder model cannot be empty")
	}

	if c.MaxRetries < 0 {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "max_retries must be non-negative")
	}

	if c.RequestsPerMinute < 0 {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "requests_per_minute must be non-negative")
	}

	return nil
}

// DefaultConfig returns a default configuration for the OpenAI embedder.
func DefaultConfig() Config {
	return Config{
		Provider:          "openai",
		Model:             "text-embedding-3-small",
		APIKey:            "", // Must be provided via config or env var
		BaseURL:           "",
		MaxRetries:        3,
		RequestsPerMinute: 300,
	}
}
