package graphfuse

import (
	"fmt"
	"log/slog"
	"os"

	gf "github.com/graphfuse/graphfuse"
	"github.com/graphfuse/graphfuse/pkg/chunker"
	"github.com/graphfuse/graphfuse/pkg/config"
	"github.com/graphfuse/graphfuse/pkg/embedder"
	"github.com/graphfuse/graphfuse/pkg/extractor"
	"github.com/graphfuse/graphfuse/pkg/graphstore"
	"github.com/graphfuse/graphfuse/pkg/logger"
	"github.com/graphfuse/graphfuse/pkg/telemetry"
	"github.com/graphfuse/graphfuse/pkg/types"
	"github.com/graphfuse/graphfuse/pkg/vectorindex"
)

// buildLogger constructs the process logger, wiring the parquet telemetry
// handler when a path is configured.
func buildLogger(cfg *config.Config) *slog.Logger {
	base := logger.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if cfg.Telemetry.ParquetPath == "" {
		return base
	}

	handler, err := telemetry.NewParquetHandler(base.Handler(), cfg.Telemetry.ParquetPath)
	if err != nil {
		base.Warn("telemetry disabled", "error", err)
		return base
	}
	return slog.New(handler)
}

// buildEngine assembles the engine's collaborators from configuration.
func buildEngine(cfg *config.Config, log *slog.Logger) (*gf.Engine, error) {
	graph, err := buildGraphStore(cfg)
	if err != nil {
		return nil, err
	}

	index, err := buildVectorIndex(cfg)
	if err != nil {
		return nil, err
	}

	emb, err := buildEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	ext, err := buildExtractor(cfg)
	if err != nil {
		return nil, err
	}

	engineConfig := &gf.Config{
		Chunking: chunker.Config{
			MaxChunkChars: cfg.Chunking.MaxChunkChars,
			OverlapChars:  cfg.Chunking.OverlapChars,
		},
		Search: &types.SearchConfig{
			Mode:                types.SearchModeHybrid,
			TopK:                cfg.Search.TopK,
			Alpha:               cfg.Search.Alpha,
			Beta:                cfg.Search.Beta,
			Decay:               cfg.Search.Decay,
			MaxDepth:            cfg.Search.MaxDepth,
			CandidateMultiplier: cfg.Search.CandidateMultiplier,
		},
		SemanticThreshold: cfg.Ingestion.SemanticThreshold,
		MinMentionLength:  cfg.Extractor.MinMentionLength,
		Workers:           cfg.Ingestion.Workers,
	}

	return gf.New(graph, index, emb, ext, engineConfig, log)
}

func buildGraphStore(cfg *config.Config) (graphstore.Store, error) {
	switch cfg.Graph.Driver {
	case "", "memory":
		return graphstore.NewMemoryStore(), nil
	case "neo4j":
		return graphstore.NewNeo4jStore(graphstore.Config{
			URI:      cfg.Graph.URI,
			Username: cfg.Graph.Username,
			Password: cfg.Graph.Password,
			Database: cfg.Graph.Database,
		})
	default:
		return nil, fmt.Errorf("unknown graph driver: %s", cfg.Graph.Driver)
	}
}

func buildVectorIndex(cfg *config.Config) (vectorindex.Index, error) {
	switch cfg.Vector.Driver {
	case "", "memory":
		return vectorindex.NewMemoryIndex(), nil
	case "badger":
		return vectorindex.OpenBadgerIndex(cfg.Vector.Path)
	default:
		return nil, fmt.Errorf("unknown vector driver: %s", cfg.Vector.Driver)
	}
}

func buildEmbedder(cfg *config.Config) (embedder.Client, error) {
	var client embedder.Client
	switch cfg.Embedding.Provider {
	case "", "mock":
		client = embedder.NewMockClient(cfg.Embedding.Dimensions)
	case "openai":
		client = embedder.NewOpenAIClient(embedder.Config{
			Provider:   cfg.Embedding.Provider,
			Model:      cfg.Embedding.Model,
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Dimensions: cfg.Embedding.Dimensions,
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Embedding.Provider)
	}

	breaker := embedder.BreakerConfig{
		Enabled:          cfg.CircuitBreaker.Enabled,
		MaxRequests:      cfg.CircuitBreaker.MaxRequests,
		Interval:         cfg.CircuitBreaker.Interval,
		Timeout:          cfg.CircuitBreaker.Timeout,
		ReadyToTripRatio: cfg.CircuitBreaker.ReadyToTripRatio,
	}
	return embedder.WithBreaker(client, breaker, "embedding"), nil
}

func buildExtractor(cfg *config.Config) (extractor.Client, error) {
	switch cfg.Extractor.Provider {
	case "", "mock":
		return extractor.NewMockClient(), nil
	case "openai":
		return extractor.NewOpenAIClient(extractor.Config{
			Provider:         cfg.Extractor.Provider,
			Model:            cfg.Extractor.Model,
			APIKey:           cfg.Extractor.APIKey,
			BaseURL:          cfg.Extractor.BaseURL,
			MinMentionLength: cfg.Extractor.MinMentionLength,
		}), nil
	default:
		return nil, fmt.Errorf("unknown extractor provider: %s", cfg.Extractor.Provider)
	}
}
