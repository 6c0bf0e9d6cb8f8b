package search

import (
	"context"
	"log/slog"
	"math"

	"github.com/graphfuse/graphfuse/pkg/graphstore"
	"github.com/graphfuse/graphfuse/pkg/types"
)

// maxFrontier caps the number of live paths per traversal layer. Dense
// graphs can otherwise explode combinatorially before MaxDepth stops them.
const maxFrontier = 8192

// GraphSearcher scores nodes by decayed multi-path connectivity to a set
// of seed nodes.
type GraphSearcher struct {
	store  graphstore.Store
	logger *slog.Logger
}

// NewGraphSearcher creates the graph branch.
func NewGraphSearcher(store graphstore.Store, logger *slog.Logger) *GraphSearcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &GraphSearcher{store: store, logger: logger}
}

// pathItem is one live traversal path ending at a node. visited holds the
// node ids on this path only: a node may be revisited via a different path,
// but never within the same one, which is what terminates cycles.
type pathItem struct {
	nodeID  string
	weight  float64
	visited map[string]bool
}

// Connectivity accumulates, for every node reachable within maxDepth hops of
// the seeds, the sum over distinct paths of (product of edge weights along
// the path) * decay^length. Seeds themselves receive no self-contribution.
func (s *GraphSearcher) Connectivity(ctx context.Context, seeds []string, maxDepth int, decay float64) (map[string]float64, error) {
	scores := make(map[string]float64)
	if len(seeds) == 0 {
		return scores, nil
	}

	frontier := make([]pathItem, 0, len(seeds))
	for _, seed := range seeds {
		frontier = append(frontier, pathItem{
			nodeID:  seed,
			weight:  1.0,
			visited: map[string]bool{seed: true},
		})
	}

	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		ids := make([]string, 0, len(frontier))
		seen := make(map[string]bool, len(frontier))
		for _, item := range frontier {
			if !seen[item.nodeID] {
				seen[item.nodeID] = true
				ids = append(ids, item.nodeID)
			}
		}

		adjacency, err := s.store.Neighbors(ctx, ids)
		if err != nil {
			return nil, types.NewDependencyError("graph_store", err)
		}

		attenuation := math.Pow(decay, float64(depth))
		var next []pathItem
		for _, item := range frontier {
			for _, nb := range adjacency[item.nodeID] {
				if item.visited[nb.ID] {
					continue
				}
				pathWeight := item.weight * nb.Weight
				scores[nb.ID] += pathWeight * attenuation

				if depth < maxDepth && len(next) < maxFrontier {
					visited := make(map[string]bool, len(item.visited)+1)
					for id := range item.visited {
						visited[id] = true
					}
					visited[nb.ID] = true
					next = append(next, pathItem{nodeID: nb.ID, weight: pathWeight, visited: visited})
				}
			}
		}
		frontier = next
	}

	s.logger.Debug("connectivity traversal complete",
		"seeds", len(seeds), "max_depth", maxDepth, "scored", len(scores))
	return scores, nil
}

// SeedsFromChunks expands vector-hit chunk ids one hop outward into seed
// nodes: the chunks themselves plus the documents and entities directly
// attached to them. Extra ids (e.g. entity nodes matched from the query
// text) are appended as-is.
func (s *GraphSearcher) SeedsFromChunks(ctx context.Context, chunkIDs, extra []string) ([]string, error) {
	seedSet := make(map[string]bool, len(chunkIDs)+len(extra))
	seeds := make([]string, 0, len(chunkIDs)+len(extra))
	add := func(id string) {
		if id != "" && !seedSet[id] {
			seedSet[id] = true
			seeds = append(seeds, id)
		}
	}

	for _, id := range chunkIDs {
		add(id)
	}

	if len(chunkIDs) > 0 {
		adjacency, err := s.store.Neighbors(ctx, chunkIDs)
		if err != nil {
			return nil, types.NewDependencyError("graph_store", err)
		}
		for _, id := range chunkIDs {
			for _, nb := range adjacency[id] {
				switch nb.EdgeType {
				case types.EdgePartOf, types.EdgeMentions:
					add(nb.ID)
				}
			}
		}
	}

	for _, id := range extra {
		add(id)
	}
	return seeds, nil
}
