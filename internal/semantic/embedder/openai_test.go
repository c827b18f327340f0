package embedder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenAIEmbedder_Defaults(t *testing.T) {
	cfg := Config{
		Provider: ProviderOpenAI,
		APIKey:   "test-key",
	}

	emb, err := NewOpenAIEmbedder(cfg)
	require.NoError(t, err)

	assert.Equal(t, "text-embedding-3-small", emb.Model())
	assert.Equal(t, 1536, emb.Dimensions())
	assert.Nil(t, emb.limiter, "zero requests_per_minute should disable throttling")
}

func TestNewOpenAIEmbedder_LargeModel(t *testing.T) {
	cfg := Config{
		Provider:          ProviderOpenAI,
		Model:             "text-embedding-3-large",
		APIKey:            "test-key",
		RequestsPerMinute: 60,
	}

	emb, err := NewOpenAIEmbedder(cfg)
	require.NoError(t, err)

	assert.Equal(t, 3072, emb.Dimensions())
	assert.NotNil(t, emb.limiter)
}

func TestNewOpenAIEmbedder_EnvKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")

	emb, err := NewOpenAIEmbedder(Config{Provider: ProviderOpenAI, Model: "text-embedding-3-small"})
	require.NoError(t, err)
	assert.NotNil(t, emb)
}

func TestDimensionsForModel(t *testing.T) {
	tests := []struct {
		model    string
		expected int
	}{
		{"text-embedding-3-small", 1536},
		{"text-embedding-3-large", 3072},
		{"text-embedding-ada-002", 1536},
		{"something-unknown", 1536},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.expected, dimensionsForModel(tt.model))
		})
	}
}

func TestOpenAIEmbedder_EmptyBatch(t *testing.T) {
	emb, err := NewOpenAIEmbedder(Config{Provider: ProviderOpenAI, APIKey: "test-key"})
	require.NoError(t, err)

	// No texts means no API call and no error
	vectors, err := emb.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
}
