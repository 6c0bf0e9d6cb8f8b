// Package search implements the engine's two retrieval branches and their
// fusion: cosine top-k over the vector index, decayed multi-path
// connectivity over the graph, and the weighted-sum hybrid ranker.
package search

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/graphfuse/graphfuse/pkg/embedder"
	"github.com/graphfuse/graphfuse/pkg/types"
	"github.com/graphfuse/graphfuse/pkg/vectorindex"
)

// VectorSearcher embeds a query and retrieves its nearest chunks.
type VectorSearcher struct {
	embedder embedder.Client
	index    vectorindex.Index
	logger   *slog.Logger
}

// NewVectorSearcher creates the vector branch.
func NewVectorSearcher(emb embedder.Client, index vectorindex.Index, logger *slog.Logger) *VectorSearcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &VectorSearcher{embedder: emb, index: index, logger: logger}
}

// Search returns the k nearest chunks to the query text, descending by
// cosine similarity. An empty index yields an empty result.
func (s *VectorSearcher) Search(ctx context.Context, query string, k int) ([]vectorindex.Hit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, types.NewValidationError("query", "must not be empty")
	}
	if k <= 0 {
		return nil, types.NewValidationError("k", "must be positive")
	}

	vector, err := s.embedder.EmbedSingle(ctx, query)
	if err != nil {
		return nil, types.NewDependencyError("embedder", err)
	}

	hits, err := s.index.Search(ctx, vector, k)
	if err != nil {
		var verr *types.ValidationError
		if errors.As(err, &verr) {
			return nil, err
		}
		return nil, types.NewDependencyError("vector_index", err)
	}

	s.logger.Debug("vector search complete", "query_len", len(query), "k", k, "hits", len(hits))
	return hits, nil
}
