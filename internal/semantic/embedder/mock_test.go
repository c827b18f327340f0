package embedder

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fedlink-ai/fedlink/internal/types"
)

func TestMockEmbedder_Deterministic(t *testing.T) {
	ctx := context.Background()
	mock := NewMockEmbedder()

	first, err := mock.Embed(ctx, "grid anomaly detection")
	require.NoError(t, err)

	second, err := mock.Embed(ctx, "grid anomaly detection")
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i], second[i], "vector should be deterministic at index %d", i)
	}
}

func TestMockEmbedder_DifferentTexts(t *testing.T) {
	ctx := context.Background()
	mock := NewMockEmbedder()

	first, err := mock.Embed(ctx, "claims triage assistant")
	require.NoError(t, err)

	second, err := mock.Embed(ctx, "contract clause finder")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "different texts should produce different vectors")
}

func TestMockEmbedder_UnitLength(t *testing.T) {
	ctx := context.Background()
	mock := NewMockEmbedder()

	vector, err := mock.Embed(ctx, "some text")
	require.NoError(t, err)

	var sum float64
	for _, v := range vector {
		sum += v * v
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-9, "mock vectors should be unit length")
}

func TestMockEmbedder_Dimensions(t *testing.T) {
	mock := NewMockEmbedder()
	assert.Equal(t, 64, mock.Dimensions())

	mock.SetDimensions(8)
	assert.Equal(t, 8, mock.Dimensions())

	vector, err := mock.Embed(context.Background(), "test")
	require.NoError(t, err)
	assert.Len(t, vector, 8)
}

func TestMockEmbedder_BatchMatchesSingle(t *testing.T) {
	ctx := context.Background()
	mock := NewMockEmbedder()

	texts := []string{"one", "two", "three"}
	batch, err := mock.EmbedBatch(ctx, texts)
	require.NoError(t, err)
	require.Len(t, batch, 3)

	for i, text := range texts {
		single, err := mock.Embed(ctx, text)
		require.NoError(t, err)
		assert.Equal(t, single, batch[i], "batch vector %d should match single embed", i)
	}
}

func TestMockEmbedder_RecordsBatches(t *testing.T) {
	ctx := context.Background()
	mock := NewMockEmbedder()

	_, err := mock.EmbedBatch(ctx, []string{"a", "b"})
	require.NoError(t, err)
	_, err = mock.EmbedBatch(ctx, []string{"c"})
	require.NoError(t, err)

	assert.Equal(t, 2, mock.BatchCount())
	assert.Equal(t, []string{"a", "b", "c"}, mock.EmbeddedTexts())

	mock.Reset()
	assert.Equal(t, 0, mock.BatchCount())
}

func TestMockEmbedder_ErrorInjection(t *testing.T) {
	ctx := context.Background()
	mock := NewMockEmbedder()

	injected := errors.New("provider down")
	mock.SetBatchError(injected)

	_, err := mock.EmbedBatch(ctx, []string{"a"})
	assert.ErrorIs(t, err, injected)

	// The failed call is still recorded
	assert.Equal(t, 1, mock.BatchCount())

	mock.Reset()
	_, err = mock.EmbedBatch(ctx, []string{"a"})
	assert.NoError(t, err)
}

func TestMockEmbedder_ErrorAfterCalls(t *testing.T) {
	ctx := context.Background()
	mock := NewMockEmbedder()

	injected := errors.New("provider down")
	mock.SetBatchErrorAfter(2, injected)

	_, err := mock.EmbedBatch(ctx, []string{"a"})
	assert.NoError(t, err)
	_, err = mock.EmbedBatch(ctx, []string{"b"})
	assert.NoError(t, err)
	_, err = mock.EmbedBatch(ctx, []string{"c"})
	assert.ErrorIs(t, err, injected)

	assert.Equal(t, 3, mock.BatchCount())
}

func TestMockEmbedder_Health(t *testing.T) {
	mock := NewMockEmbedder()
	assert.True(t, mock.Health(context.Background()).IsHealthy())

	mock.SetHealth(types.Unhealthy("drained"))
	assert.False(t, mock.Health(context.Background()).IsHealthy())
}
