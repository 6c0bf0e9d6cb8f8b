package graphfuse

import (
	"context"
	"errors"
	"fmt"

	"github.com/graphfuse/graphfuse/pkg/graphstore"
	"github.com/graphfuse/graphfuse/pkg/types"
)

// GraphEdge is one edge of a neighborhood subgraph.
type GraphEdge struct {
	Type   types.EdgeType `json:"type"`
	FromID string         `json:"from_id"`
	ToID   string         `json:"to_id"`
	Weight float64        `json:"weight"`
}

// Neighborhood is the subgraph around a center node.
type Neighborhood struct {
	Center *graphstore.Node   `json:"center"`
	Nodes  []*graphstore.Node `json:"nodes"`
	Edges  []GraphEdge        `json:"edges"`
}

// EngineStats reports the sizes of both stores.
type EngineStats struct {
	Graph   *graphstore.Stats `json:"graph"`
	Vectors int               `json:"vectors"`
}

// DeleteDocument removes a document, its chunks and their vectors. Entity
// nodes survive deletion: they may be mentioned by other documents, and
// their accumulated RELATED_TO weights are not unwound.
func (e *Engine) DeleteDocument(ctx context.Context, documentID string) error {
	doc, err := e.graph.GetNode(ctx, documentID)
	if errors.Is(err, types.ErrNotFound) {
		return fmt.Errorf("document %s: %w", documentID, types.ErrNotFound)
	}
	if err != nil {
		return types.NewDependencyError("graph_store", err)
	}
	if doc.Label != types.LabelDocument {
		return types.NewValidationError("document_id", "node is not a document")
	}

	adjacency, err := e.graph.Neighbors(ctx, []string{documentID})
	if err != nil {
		return types.NewDependencyError("graph_store", err)
	}

	for _, nb := range adjacency[documentID] {
		if nb.EdgeType != types.EdgePartOf || nb.Label != types.LabelChunk {
			continue
		}
		if err := e.index.Delete(ctx, nb.ID); err != nil {
			return types.NewDependencyError("vector_index", err)
		}
		if err := e.graph.DeleteNode(ctx, nb.ID); err != nil {
			return types.NewDependencyError("graph_store", err)
		}
	}

	if err := e.graph.DeleteNode(ctx, documentID); err != nil {
		return types.NewDependencyError("graph_store", err)
	}

	e.logger.Info("document deleted", "document_id", documentID)
	return nil
}

// Neighborhood returns the subgraph within depth hops of a node.
func (e *Engine) Neighborhood(ctx context.Context, nodeID string, depth int) (*Neighborhood, error) {
	if depth < 1 {
		return nil, types.NewValidationError("depth", "must be at least 1")
	}

	center, err := e.graph.GetNode(ctx, nodeID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, err
		}
		return nil, types.NewDependencyError("graph_store", err)
	}

	out := &Neighborhood{Center: center}
	visited := map[string]bool{nodeID: true}
	seenEdge := make(map[string]bool)
	frontier := []string{nodeID}

	for layer := 0; layer < depth && len(frontier) > 0; layer++ {
		adjacency, err := e.graph.Neighbors(ctx, frontier)
		if err != nil {
			return nil, types.NewDependencyError("graph_store", err)
		}

		var next []string
		for _, id := range frontier {
			for _, nb := range adjacency[id] {
				edgeKey := edgeIdentity(nb.EdgeType, id, nb.ID)
				if !seenEdge[edgeKey] {
					seenEdge[edgeKey] = true
					out.Edges = append(out.Edges, GraphEdge{
						Type: nb.EdgeType, FromID: id, ToID: nb.ID, Weight: nb.Weight,
					})
				}
				if visited[nb.ID] {
					continue
				}
				visited[nb.ID] = true
				node, err := e.graph.GetNode(ctx, nb.ID)
				if errors.Is(err, types.ErrNotFound) {
					continue
				}
				if err != nil {
					return nil, types.NewDependencyError("graph_store", err)
				}
				out.Nodes = append(out.Nodes, node)
				next = append(next, nb.ID)
			}
		}
		frontier = next
	}
	return out, nil
}

// edgeIdentity keys an undirected edge regardless of traversal direction.
func edgeIdentity(typ types.EdgeType, a, b string) string {
	if b < a {
		a, b = b, a
	}
	return string(typ) + "|" + a + "|" + b
}

// Stats reports graph and vector index sizes.
func (e *Engine) Stats(ctx context.Context) (*EngineStats, error) {
	graphStats, err := e.graph.Stats(ctx)
	if err != nil {
		return nil, types.NewDependencyError("graph_store", err)
	}
	count, err := e.index.Count(ctx)
	if err != nil {
		return nil, types.NewDependencyError("vector_index", err)
	}
	return &EngineStats{Graph: graphStats, Vectors: count}, nil
}

// CreateIndices installs graph uniqueness constraints and lookup indices.
func (e *Engine) CreateIndices(ctx context.Context) error {
	return e.graph.CreateIndices(ctx)
}

// Close releases the worker pool and every collaborator.
func (e *Engine) Close(ctx context.Context) error {
	e.pool.Release()

	var errs []error
	if err := e.extractor.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := e.embedder.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := e.index.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := e.graph.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
