// Package vectorindex provides the dense vector collaborator of the hybrid
// retrieval engine: insert, cosine top-k search, and delete, keyed by chunk
// ID. Two implementations are provided: an in-memory index for tests and
// embedded use, and a Badger-backed index that survives process restarts.
package vectorindex

import (
	"context"
	"math"

	"github.com/graphfuse/graphfuse/pkg/types"
)

// Hit is one nearest-neighbor result.
type Hit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"` // cosine similarity in [-1, 1]
}

// Index stores fixed-dimension vectors and answers top-k cosine queries.
// Implementations must be safe for concurrent use.
type Index interface {
	// Insert stores or replaces the vector for an ID.
	Insert(ctx context.Context, id string, vector []float32) error

	// Search returns up to k hits ordered by similarity, descending.
	// An empty index yields an empty result, not an error. k <= 0 is a
	// usage error.
	Search(ctx context.Context, vector []float32, k int) ([]Hit, error)

	// Delete removes an ID. Deleting an absent ID is a no-op.
	Delete(ctx context.Context, id string) error

	// Count returns the number of stored vectors.
	Count(ctx context.Context) (int, error)

	// Close releases resources held by the index.
	Close() error
}

// Cosine computes the cosine similarity of two equal-length vectors.
// Mismatched or zero vectors score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func validateQuery(vector []float32, k int) error {
	if k <= 0 {
		return types.NewValidationError("k", "must be positive")
	}
	if len(vector) == 0 {
		return types.NewValidationError("vector", "must not be empty")
	}
	return nil
}
