package vectorindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphfuse/graphfuse/pkg/types"
)

func openIndexes(t *testing.T) map[string]Index {
	t.Helper()

	badgerIdx, err := OpenBadgerIndex(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { badgerIdx.Close() })

	return map[string]Index{
		"memory": NewMemoryIndex(),
		"badger": badgerIdx,
	}
}

func TestIndexSearchOrdering(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for name, idx := range openIndexes(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, idx.Insert(ctx, "exact", []float32{1, 0, 0}))
			require.NoError(t, idx.Insert(ctx, "close", []float32{0.9, 0.1, 0}))
			require.NoError(t, idx.Insert(ctx, "orthogonal", []float32{0, 1, 0}))
			require.NoError(t, idx.Insert(ctx, "opposite", []float32{-1, 0, 0}))

			hits, err := idx.Search(ctx, []float32{1, 0, 0}, 4)
			require.NoError(t, err)
			require.Len(t, hits, 4)

			assert.Equal(t, "exact", hits[0].ID)
			assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
			assert.Equal(t, "close", hits[1].ID)
			assert.Equal(t, "orthogonal", hits[2].ID)
			assert.Equal(t, "opposite", hits[3].ID)
			assert.InDelta(t, -1.0, hits[3].Score, 1e-6)
		})
	}
}

func TestIndexTopKTruncation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for name, idx := range openIndexes(t) {
		t.Run(name, func(t *testing.T) {
			for i, v := range [][]float32{{1, 0}, {0.5, 0.5}, {0, 1}} {
				require.NoError(t, idx.Insert(ctx, string(rune('a'+i)), v))
			}
			hits, err := idx.Search(ctx, []float32{1, 0}, 2)
			require.NoError(t, err)
			assert.Len(t, hits, 2)
		})
	}
}

func TestIndexEmptyReturnsNoHits(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for name, idx := range openIndexes(t) {
		t.Run(name, func(t *testing.T) {
			hits, err := idx.Search(ctx, []float32{1, 0}, 5)
			require.NoError(t, err, "empty index is not an error")
			assert.Empty(t, hits)
		})
	}
}

func TestIndexRejectsNonPositiveK(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for name, idx := range openIndexes(t) {
		t.Run(name, func(t *testing.T) {
			_, err := idx.Search(ctx, []float32{1, 0}, 0)
			var verr *types.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "k", verr.Field)
		})
	}
}

func TestIndexInsertIsUpsert(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for name, idx := range openIndexes(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, idx.Insert(ctx, "a", []float32{1, 0}))
			require.NoError(t, idx.Insert(ctx, "a", []float32{0, 1}))

			count, err := idx.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, count)

			hits, err := idx.Search(ctx, []float32{0, 1}, 1)
			require.NoError(t, err)
			require.Len(t, hits, 1)
			assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
		})
	}
}

func TestIndexDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for name, idx := range openIndexes(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, idx.Insert(ctx, "a", []float32{1, 0}))
			require.NoError(t, idx.Delete(ctx, "a"))
			require.NoError(t, idx.Delete(ctx, "absent"), "deleting an absent id is a no-op")

			count, err := idx.Count(ctx)
			require.NoError(t, err)
			assert.Zero(t, count)
		})
	}
}

func TestMemoryIndexDimensionMismatch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	idx := NewMemoryIndex()
	require.NoError(t, idx.Insert(ctx, "a", []float32{1, 0, 0}))
	assert.Error(t, idx.Insert(ctx, "b", []float32{1, 0}))
}

func TestCosine(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.0, Cosine([]float32{1, 2}, []float32{2, 4}), 1e-6)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.InDelta(t, -1.0, Cosine([]float32{1, 0}, []float32{-1, 0}), 1e-6)
	assert.Zero(t, Cosine([]float32{1, 0}, []float32{1}), "length mismatch scores zero")
	assert.Zero(t, Cosine([]float32{0, 0}, []float32{1, 0}), "zero vector scores zero")
}

func TestVectorCodecRoundTrip(t *testing.T) {
	t.Parallel()

	v := []float32{0.1, -2.5, 3.75, 0}
	assert.Equal(t, v, decodeVector(encodeVector(v)))
}
