package embedder

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fedlink-ai/fedlink/internal/types"
)

func TestNew_MockProvider(t *testing.T) {
	cfg := Config{
		Provider: ProviderMock,
		Model:    "mock-embedder",
	}

	emb, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, "mock-embedder", emb.Model())

	_, ok := emb.(*MockEmbedder)
	assert.True(t, ok, "mock provider should return a MockEmbedder")
}

func TestNew_UnknownProvider(t *testing.T) {
	cfg := Config{
		Provider: "neural-net-3000",
		Model:    "x",
	}

	_, err := New(cfg)
	require.Error(t, err)

	var fedErr *types.FedlinkError
	require.True(t, errors.As(err, &fedErr))
	assert.Equal(t, types.CONFIG_VALIDATION_FAILED, fedErr.Code)
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"empty provider", Config{Model: "m"}},
		{"empty model", Config{Provider: ProviderMock}},
		{"negative retries", Config{Provider: ProviderMock, Model: "m", MaxRetries: -1}},
		{"negative rate", Config{Provider: ProviderMock, Model: "m", RequestsPerMinute: -5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestNew_OpenAIRequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	cfg := Config{
		Provider: ProviderOpenAI,
		Model:    "text-embedding-3-small",
	}

	_, err := New(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_key")
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, "text-embedding-3-small", cfg.Model)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 300, cfg.RequestsPerMinute)
	assert.NoError(t, cfg.Validate())
}
