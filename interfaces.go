package graphfuse

import (
	"context"

	"github.com/graphfuse/graphfuse/pkg/types"
)

// This file defines focused interfaces over the Engine. Consumers should
// depend on the smallest interface that meets their needs.

// Ingestor provides write operations on the corpus.
type Ingestor interface {
	// IngestDocument runs the full pipeline for one document: chunking,
	// embedding, entity extraction, graph linking and vector indexing.
	// Re-ingesting identical content is a recognized no-op.
	IngestDocument(ctx context.Context, title, rawText string) (*IngestResult, error)

	// DeleteDocument removes a document, its chunks and its vectors.
	// Entity nodes survive: they may be referenced by other documents.
	DeleteDocument(ctx context.Context, documentID string) error
}

// Querier provides read-only retrieval operations.
type Querier interface {
	// Search ranks indexed content against the query. A nil config selects
	// the engine defaults.
	Search(ctx context.Context, query string, config *types.SearchConfig) (*types.SearchResults, error)

	// Neighborhood returns the subgraph around a node up to the given depth.
	Neighborhood(ctx context.Context, nodeID string, depth int) (*Neighborhood, error)
}

// Admin provides maintenance operations.
type Admin interface {
	// Stats reports graph and vector index sizes.
	Stats(ctx context.Context) (*EngineStats, error)

	// CreateIndices installs graph uniqueness constraints and indices.
	CreateIndices(ctx context.Context) error

	// Close releases all collaborator resources.
	Close(ctx context.Context) error
}

// Compile-time check that Engine satisfies every focused interface.
var _ interface {
	Ingestor
	Querier
	Admin
} = (*Engine)(nil)
