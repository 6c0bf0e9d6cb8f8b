package vectorindex

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryIndex is a brute-force in-memory cosine index. Suitable for tests
// and small embedded deployments; every query scans all vectors.
type MemoryIndex struct {
	mu        sync.RWMutex
	vectors   map[string][]float32
	dimension int
}

// NewMemoryIndex creates an empty in-memory index. The dimension is fixed
// by the first inserted vector.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{vectors: make(map[string][]float32)}
}

// Insert stores or replaces the vector for an ID.
func (m *MemoryIndex) Insert(ctx context.Context, id string, vector []float32) error {
	if id == "" {
		return fmt.Errorf("vector id must not be empty")
	}
	if len(vector) == 0 {
		return fmt.Errorf("vector must not be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.dimension == 0 {
		m.dimension = len(vector)
	} else if len(vector) != m.dimension {
		return fmt.Errorf("dimension mismatch: index holds %d, got %d", m.dimension, len(vector))
	}

	stored := make([]float32, len(vector))
	copy(stored, vector)
	m.vectors[id] = stored
	return nil
}

// Search returns the k nearest vectors by cosine similarity.
func (m *MemoryIndex) Search(ctx context.Context, vector []float32, k int) ([]Hit, error) {
	if err := validateQuery(vector, k); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	hits := make([]Hit, 0, len(m.vectors))
	for id, v := range m.vectors {
		hits = append(hits, Hit{ID: id, Score: Cosine(vector, v)})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Delete removes an ID from the index.
func (m *MemoryIndex) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.vectors, id)
	return nil
}

// Count returns the number of stored vectors.
func (m *MemoryIndex) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vectors), nil
}

// Close implements Index.
func (m *MemoryIndex) Close() error { return nil }
