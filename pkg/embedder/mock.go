package embedder

import (
	"context"
	"hash/fnv"
	"math"
	"sync/atomic"
)

// MockClient is a deterministic test double for Client. Identical text
// always produces an identical unit vector, which preserves the engine's
// idempotence guarantees in tests and offline setups.
type MockClient struct {
	// EmbedFunc overrides Embed when set.
	EmbedFunc func(ctx context.Context, texts []string) ([][]float32, error)

	dimensions int
	callCount  atomic.Int64
}

// NewMockClient creates a mock embedder with the given dimension.
func NewMockClient(dimensions int) *MockClient {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &MockClient{dimensions: dimensions}
}

// Embed generates deterministic embeddings from text hashes.
func (m *MockClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	m.callCount.Add(1)
	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, texts)
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = deterministicVector(text, m.dimensions)
	}
	return vectors, nil
}

// EmbedSingle generates a deterministic embedding for one text.
func (m *MockClient) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	vectors, err := m.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// Dimensions returns the configured vector dimension.
func (m *MockClient) Dimensions() int { return m.dimensions }

// Close implements Client.
func (m *MockClient) Close() error { return nil }

// CallCount returns how many times Embed was invoked.
func (m *MockClient) CallCount() int { return int(m.callCount.Load()) }

// deterministicVector derives a unit vector from an FNV hash of the text,
// expanded through an LCG.
func deterministicVector(text string, dim int) []float32 {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	v := make([]float32, dim)
	for i := range v {
		seed = seed*6364136223846793005 + 1442695040888963407
		v[i] = float32(int64(seed>>33)%2000-1000) / 1000.0
	}

	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum > 0 {
		inv := float32(1 / math.Sqrt(sum))
		for i := range v {
			v[i] *= inv
		}
	}
	return v
}
