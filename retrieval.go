package graphfuse

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/graphfuse/graphfuse/pkg/extractor"
	"github.com/graphfuse/graphfuse/pkg/search"
	"github.com/graphfuse/graphfuse/pkg/types"
	"github.com/graphfuse/graphfuse/pkg/vectorindex"
)

// Search ranks indexed content against the query. The mode selects which
// signals participate: vector similarity, graph connectivity, or both fused
// into one ranking. A nil config selects the engine defaults.
func (e *Engine) Search(ctx context.Context, query string, config *types.SearchConfig) (*types.SearchResults, error) {
	if strings.TrimSpace(query) == "" {
		return nil, types.NewValidationError("query", "must not be empty")
	}
	if config == nil {
		config = e.config.Search
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Mode {
	case types.SearchModeVector:
		return e.searchVector(ctx, query, config)
	case types.SearchModeGraph:
		return e.searchGraph(ctx, query, config)
	default:
		return e.searchHybrid(ctx, query, config)
	}
}

func (e *Engine) searchVector(ctx context.Context, query string, config *types.SearchConfig) (*types.SearchResults, error) {
	hits, err := e.vector.Search(ctx, query, config.TopK)
	if err != nil {
		return nil, err
	}

	candidates := search.Fuse(hitScores(hits), nil, 1, 0, config.TopK)
	results, err := e.hydrate(ctx, candidates)
	if err != nil {
		return nil, err
	}
	return &types.SearchResults{Query: query, Mode: config.Mode, Results: results}, nil
}

func (e *Engine) searchGraph(ctx context.Context, query string, config *types.SearchConfig) (*types.SearchResults, error) {
	seeds := e.queryEntitySeeds(ctx, query)
	connectivity, err := e.grapher.Connectivity(ctx, seeds, config.MaxDepth, config.Decay)
	if err != nil {
		return nil, err
	}

	candidates := search.Fuse(nil, connectivity, 0, 1, config.TopK)
	results, err := e.hydrate(ctx, candidates)
	if err != nil {
		return nil, err
	}
	return &types.SearchResults{Query: query, Mode: config.Mode, Results: results}, nil
}

// searchHybrid runs the vector branch and the query entity lookup
// concurrently, derives graph seeds from both, traverses, and fuses the two
// normalized signals. When one branch fails and the config allows it, the
// request completes on the surviving signal with degradation signaled on
// the results.
func (e *Engine) searchHybrid(ctx context.Context, query string, config *types.SearchConfig) (*types.SearchResults, error) {
	var (
		hits       []vectorindex.Hit
		entitySeed []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		hits, err = e.vector.Search(gctx, query, config.TopK*config.CandidateMultiplier)
		return err
	})
	g.Go(func() error {
		entitySeed = e.queryEntitySeeds(gctx, query)
		return nil
	})
	vectorErr := g.Wait()

	if vectorErr != nil {
		var verr *types.ValidationError
		if errors.As(vectorErr, &verr) || !config.AllowDegraded {
			return nil, vectorErr
		}
		e.logger.Warn("vector branch failed, degrading to graph-only search", "error", vectorErr)
	}

	chunkIDs := make([]string, len(hits))
	for i, h := range hits {
		chunkIDs[i] = h.ID
	}

	connectivity, graphErr := e.traverse(ctx, chunkIDs, entitySeed, config)
	if graphErr != nil {
		if !config.AllowDegraded || vectorErr != nil {
			return nil, graphErr
		}
		e.logger.Warn("graph branch failed, degrading to vector-only search", "error", graphErr)

		candidates := search.Fuse(hitScores(hits), nil, config.Alpha, config.Beta, config.TopK)
		results, err := e.hydrate(ctx, candidates)
		if err != nil {
			return nil, err
		}
		return &types.SearchResults{
			Query: query, Mode: config.Mode, Results: results,
			Degraded: true, DegradedBranch: "graph",
		}, nil
	}

	candidates := search.Fuse(hitScores(hits), connectivity, config.Alpha, config.Beta, config.TopK)
	results, err := e.hydrate(ctx, candidates)
	if err != nil {
		return nil, err
	}

	out := &types.SearchResults{Query: query, Mode: config.Mode, Results: results}
	if vectorErr != nil {
		out.Degraded = true
		out.DegradedBranch = "vector"
	}
	return out, nil
}

func (e *Engine) traverse(ctx context.Context, chunkIDs, extra []string, config *types.SearchConfig) (map[string]float64, error) {
	seeds, err := e.grapher.SeedsFromChunks(ctx, chunkIDs, extra)
	if err != nil {
		return nil, err
	}
	return e.grapher.Connectivity(ctx, seeds, config.MaxDepth, config.Decay)
}

// queryEntitySeeds extracts entity mentions from the query text and maps
// them onto entity nodes that already exist in the graph. Extraction here
// is enrichment: failures are logged and yield no seeds.
func (e *Engine) queryEntitySeeds(ctx context.Context, query string) []string {
	mentions, err := e.extractor.Extract(ctx, query)
	if err != nil {
		e.logger.Warn("query entity extraction failed", "error", err)
		return nil
	}
	mentions = extractor.Normalize(mentions, e.config.MinMentionLength)

	var seeds []string
	seen := make(map[string]bool, len(mentions))
	for _, m := range mentions {
		id := types.EntityID(m.Name, m.Type)
		if seen[id] {
			continue
		}
		seen[id] = true
		if _, err := e.graph.GetNode(ctx, id); err != nil {
			continue
		}
		seeds = append(seeds, id)
	}
	return seeds
}

// hydrate resolves ranked candidate IDs into result rows. Candidates whose
// node has been deleted since indexing are dropped from the results.
func (e *Engine) hydrate(ctx context.Context, candidates []search.Candidate) ([]types.SearchResult, error) {
	results := make([]types.SearchResult, 0, len(candidates))
	for _, c := range candidates {
		node, err := e.graph.GetNode(ctx, c.ID)
		if errors.Is(err, types.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, types.NewDependencyError("graph_store", err)
		}

		result := types.SearchResult{ID: node.ID, Label: node.Label, Score: c.Score}
		if title, ok := node.Props["title"].(string); ok {
			result.Title = title
		}
		if name, ok := node.Props["name"].(string); ok && result.Title == "" {
			result.Title = name
		}
		if text, ok := node.Props["text"].(string); ok {
			result.Text = text
		}
		results = append(results, result)
	}
	return results, nil
}

func hitScores(hits []vectorindex.Hit) map[string]float64 {
	scores := make(map[string]float64, len(hits))
	for _, h := range hits {
		scores[h.ID] = h.Score
	}
	return scores
}
