package graphfuse

import (
	"log/slog"
	"runtime"

	"github.com/panjf2000/ants/v2"

	"github.com/graphfuse/graphfuse/pkg/chunker"
	"github.com/graphfuse/graphfuse/pkg/embedder"
	"github.com/graphfuse/graphfuse/pkg/extractor"
	"github.com/graphfuse/graphfuse/pkg/graphstore"
	"github.com/graphfuse/graphfuse/pkg/search"
	"github.com/graphfuse/graphfuse/pkg/types"
	"github.com/graphfuse/graphfuse/pkg/vectorindex"
)

// Config holds configuration for the Engine.
type Config struct {
	// Chunking controls document splitting.
	Chunking chunker.Config
	// Search provides the default search parameters, applied when a request
	// passes a nil config.
	Search *types.SearchConfig
	// SemanticThreshold is the cosine similarity above which two chunks are
	// linked with a RELATED_TO edge during ingestion. Zero disables
	// semantic linking.
	SemanticThreshold float64
	// MinMentionLength filters entity detections shorter than this many
	// characters.
	MinMentionLength int
	// Workers sizes the ingestion worker pool. Defaults to half the CPUs.
	Workers int
}

// DefaultConfig returns a Config with the suggested defaults.
func DefaultConfig() *Config {
	return &Config{
		Chunking:          chunker.DefaultConfig(),
		Search:            types.DefaultSearchConfig(),
		SemanticThreshold: 0.85,
		MinMentionLength:  extractor.DefaultMinMentionLength,
	}
}

// Engine is the main implementation of the hybrid retrieval engine. It
// composes the graph store, vector index, embedder and entity extractor
// behind the ingestion and search operations.
type Engine struct {
	graph     graphstore.Store
	index     vectorindex.Index
	embedder  embedder.Client
	extractor extractor.Client

	vector  *search.VectorSearcher
	grapher *search.GraphSearcher

	pool   *ants.Pool
	config *Config
	logger *slog.Logger
}

// New creates an Engine from its collaborators. A nil config or logger
// selects the defaults.
func New(graph graphstore.Store, index vectorindex.Index, emb embedder.Client, ext extractor.Client, config *Config, logger *slog.Logger) (*Engine, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Search == nil {
		config.Search = types.DefaultSearchConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := config.Chunking.Validate(); err != nil {
		return nil, err
	}
	if err := config.Search.Validate(); err != nil {
		return nil, err
	}

	workers := config.Workers
	if workers < 1 {
		workers = runtime.NumCPU() / 2
		if workers < 1 {
			workers = 1
		}
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, err
	}

	return &Engine{
		graph:     graph,
		index:     index,
		embedder:  emb,
		extractor: ext,
		vector:    search.NewVectorSearcher(emb, index, logger),
		grapher:   search.NewGraphSearcher(graph, logger),
		pool:      pool,
		config:    config,
		logger:    logger,
	}, nil
}

// GetGraphStore returns the underlying graph store.
func (e *Engine) GetGraphStore() graphstore.Store {
	return e.graph
}

// GetVectorIndex returns the underlying vector index.
func (e *Engine) GetVectorIndex() vectorindex.Index {
	return e.index
}

// GetEmbedder returns the embedding client.
func (e *Engine) GetEmbedder() embedder.Client {
	return e.embedder
}
