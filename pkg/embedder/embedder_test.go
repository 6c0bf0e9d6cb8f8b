package embedder

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockClientDeterminism(t *testing.T) {
	t.Parallel()

	m := NewMockClient(64)
	ctx := context.Background()

	a, err := m.EmbedSingle(ctx, "the same text")
	require.NoError(t, err)
	b, err := m.EmbedSingle(ctx, "the same text")
	require.NoError(t, err)
	assert.Equal(t, a, b, "identical text must embed identically")

	c, err := m.EmbedSingle(ctx, "different text")
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestMockClientUnitVectors(t *testing.T) {
	t.Parallel()

	m := NewMockClient(128)
	v, err := m.EmbedSingle(context.Background(), "some text")
	require.NoError(t, err)
	require.Len(t, v, 128)

	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, sum, 1e-3, "mock vectors are L2 normalized")
}

func TestMockClientBatchOrder(t *testing.T) {
	t.Parallel()

	m := NewMockClient(32)
	ctx := context.Background()

	batch, err := m.Embed(ctx, []string{"one", "two"})
	require.NoError(t, err)
	require.Len(t, batch, 2)

	one, err := m.EmbedSingle(ctx, "one")
	require.NoError(t, err)
	assert.Equal(t, one, batch[0], "batch preserves input order")
}

func TestNewOpenAIClientDefaults(t *testing.T) {
	t.Parallel()

	c := NewOpenAIClient(Config{APIKey: "test-key"})
	assert.Equal(t, 1536, c.Dimensions())

	large := NewOpenAIClient(Config{APIKey: "test-key", Model: "text-embedding-3-large"})
	assert.Equal(t, 3072, large.Dimensions())

	custom := NewOpenAIClient(Config{APIKey: "test-key", Model: "custom", Dimensions: 768})
	assert.Equal(t, 768, custom.Dimensions())
}

func TestL2Normalize(t *testing.T) {
	t.Parallel()

	v := []float32{3, 4}
	l2Normalize(v)
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)

	zero := []float32{0, 0}
	l2Normalize(zero)
	assert.Equal(t, []float32{0, 0}, zero)
}

func TestBreakerPassesThroughAndOpens(t *testing.T) {
	t.Parallel()

	failing := NewMockClient(8)
	boom := errors.New("backend down")
	failing.EmbedFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, boom
	}

	cfg := DefaultBreakerConfig()
	wrapped := WithBreaker(failing, cfg, "test-embedder")
	ctx := context.Background()

	// Enough consecutive failures to trip the breaker.
	for i := 0; i < 5; i++ {
		_, err := wrapped.Embed(ctx, []string{"x"})
		require.Error(t, err)
	}
	_, err := wrapped.Embed(ctx, []string{"x"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, boom, "open breaker rejects without calling the backend")
}

func TestBreakerDisabledReturnsClient(t *testing.T) {
	t.Parallel()

	m := NewMockClient(8)
	cfg := BreakerConfig{Enabled: false}
	assert.Same(t, Client(m), WithBreaker(m, cfg, "noop"))
}
