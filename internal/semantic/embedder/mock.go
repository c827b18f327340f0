package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"math/rand"
	"sync"

	"github.com/fedlink-ai/fedlink/internal/types"
)

// MockEmbedder is a deterministic Embedder for tests. The same text always
// produces the same vector, so backfill idempotence can be asserted without
// a live provider. Batch inputs are recorded for call-count assertions.
type MockEmbedder struct {
	mu         sync.RWMutex
	dimensions int
	model      string
	batches    [][]string
	embedErr   error
	batchErr   error
	failAfter  int
	health     types.HealthStatus
}

// NewMockEmbedder creates a mock embedder with a small default vector width.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{
		dimensions: 64,
		model:      "mock-embedder",
		health:     types.Healthy("mock embedder"),
	}
}

// Embed generates a deterministic embedding for a single text.
func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.generate(text), nil
}

// EmbedBatch generates deterministic embeddings for multiple texts and
// records the batch.
func (m *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	recorded := make([]string, len(texts))
	copy(recorded, texts)
	m.batches = append(m.batches, recorded)

	if m.batchErr != nil && len(m.batches) > m.failAfter {
		return nil, m.batchErr
	}

	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		vectors[i] = m.generate(text)
	}
	return vectors, nil
}

// generate derives a unit-length vector from a SHA256 hash of the text, so
// repeated calls with the same input agree exactly.
func (m *MockEmbedder) generate(text string) []float64 {
	hash := sha256.Sum256([]byte(text))
	seed := int64(binary.BigEndian.Uint64(hash[:8]))
	rng := rand.New(rand.NewSource(seed))

	vector := make([]float64, m.dimensions)
	for i := range vector {
		vector[i] = (rng.Float64() * 2) - 1
	}
	return normalize(vector)
}

// Dimensions returns the configured vector width.
func (m *MockEmbedder) Dimensions() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dimensions
}

// Model returns the mock model name.
func (m *MockEmbedder) Model() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.model
}

// Health returns the configured health status.
func (m *MockEmbedder) Health(ctx context.Context) types.HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.health
}

// SetDimensions changes the vector width for subsequent calls.
func (m *MockEmbedder) SetDimensions(dims int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dimensions = dims
}

// SetEmbedError makes Embed fail with the given error.
func (m *MockEmbedder) SetEmbedError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embedErr = err
}

// SetBatchError makes every EmbedBatch call fail with the given error.
func (m *MockEmbedder) SetBatchError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchErr = err
	m.failAfter = 0
}

// SetBatchErrorAfter lets the first calls EmbedBatch invocations succeed
// and fails every one after them with the given error.
func (m *MockEmbedder) SetBatchErrorAfter(calls int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchErr = err
	m.failAfter = calls
}

// SetHealth overrides what Health reports.
func (m *MockEmbedder) SetHealth(status types.HealthStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.health = status
}

// BatchCount returns how many EmbedBatch calls were made.
func (m *MockEmbedder) BatchCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.batches)
}

// EmbeddedTexts returns every text passed to EmbedBatch, in call order.
func (m *MockEmbedder) EmbeddedTexts() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var texts []string
	for _, batch := range m.batches {
		texts = append(texts, batch...)
	}
	return texts
}

// Reset clears recorded batches and injected errors.
func (m *MockEmbedder) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = nil
	m.embedErr = nil
	m.batchErr = nil
	m.failAfter = 0
}

// normalize scales a vector to unit length.
func normalize(v []float64) []float64 {
	var sum float64
	for _, val := range v {
		sum += val * val
	}
	if sum == 0 {
		return v
	}

	norm := math.Sqrt(sum)
	scaled := make([]float64, len(v))
	for i, val := range v {
		scaled[i] = val / norm
	}
	return scaled
}
