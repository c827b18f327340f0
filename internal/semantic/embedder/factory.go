package embedder

import (
	"fmt"

	"github.com/fedlink-ai/fedlink/internal/types"
)

// Provider names accepted by New.
const (
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
)

// New creates an embedder for the configured provider.
//
// Supported providers:
//   - "openai": OpenAI embeddings API (requires API key)
//   - "mock": deterministic in-process vectors, for tests and dry runs
func New(cfg Config) (Embedder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Provider {
	case ProviderOpenAI:
		return NewOpenAIEmbedder(cfg)

	case ProviderMock:
		return NewMockEmbedder(), nil

	default:
		return nil, types.NewError(types.CONFIG_VALIDATION_FAILED,
			fmt.Sprintf("unknown embedder provider '%s' - must be 'openai' or 'mock'", cfg.Provider))
	}
}
