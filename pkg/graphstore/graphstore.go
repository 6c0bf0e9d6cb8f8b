// Package graphstore provides the knowledge-graph collaborator of the
// hybrid retrieval engine.
//
// The Store interface is deliberately small: atomic get-or-create node
// upserts keyed by natural key, weight-delta edge upserts, and adjacency
// listing. Uniqueness on (label, natural key) is the store's contract —
// it is what prevents duplicate entity nodes when concurrent ingestions
// race to create the same entity. Path enumeration for connectivity
// scoring lives in pkg/search, on top of Neighbors.
package graphstore

import (
	"context"
	"time"

	"github.com/graphfuse/graphfuse/pkg/types"
)

// Node is a graph node. ID is the caller-derived deterministic identifier;
// Key is the natural key, unique within the label.
type Node struct {
	ID        string          `json:"id"`
	Label     types.NodeLabel `json:"label"`
	Key       string          `json:"key"`
	Props     map[string]any  `json:"props,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Edge is a weight-delta edge upsert: creating the edge sets the weight to
// WeightDelta, re-upserting increments it.
type Edge struct {
	Type        types.EdgeType `json:"type"`
	FromID      string         `json:"from_id"`
	ToID        string         `json:"to_id"`
	WeightDelta float64        `json:"weight_delta"`
}

// Neighbor is one adjacent node, seen from either edge direction.
type Neighbor struct {
	ID       string          `json:"id"`
	Label    types.NodeLabel `json:"label"`
	EdgeType types.EdgeType  `json:"edge_type"`
	Weight   float64         `json:"weight"`
}

// Stats summarizes graph contents.
type Stats struct {
	Nodes     int64 `json:"nodes"`
	Edges     int64 `json:"edges"`
	Documents int64 `json:"documents"`
	Chunks    int64 `json:"chunks"`
	Entities  int64 `json:"entities"`
}

// Store is the graph collaborator consumed by the engine. Implementations
// must be safe for concurrent use and must make UpsertNode atomic with
// respect to concurrent upserts of the same (label, key).
type Store interface {
	// UpsertNode creates the node or, when a node with the same label and
	// natural key exists, merges the props into it. The stored node keeps
	// its original ID and creation time.
	UpsertNode(ctx context.Context, node *Node) error

	// GetNode retrieves a node by ID. Returns types.ErrNotFound when absent.
	GetNode(ctx context.Context, id string) (*Node, error)

	// FindByKey retrieves a node by label and natural key. Returns
	// types.ErrNotFound when absent.
	FindByKey(ctx context.Context, label types.NodeLabel, key string) (*Node, error)

	// UpsertEdge creates the edge with weight WeightDelta, or increments
	// an existing edge's weight by it. Both endpoints must exist.
	UpsertEdge(ctx context.Context, edge Edge) error

	// EdgeWeight returns the current weight of an edge, or
	// types.ErrNotFound when the edge does not exist.
	EdgeWeight(ctx context.Context, typ types.EdgeType, fromID, toID string) (float64, error)

	// Neighbors lists the adjacency of each requested node, treating
	// edges as undirected. Unknown IDs yield empty adjacency.
	Neighbors(ctx context.Context, ids []string) (map[string][]Neighbor, error)

	// DeleteNode removes a node and all its edges. Deleting an absent
	// node is a no-op.
	DeleteNode(ctx context.Context, id string) error

	// Stats returns node and edge counts.
	Stats(ctx context.Context) (*Stats, error)

	// CreateIndices installs uniqueness constraints and lookup indices.
	CreateIndices(ctx context.Context) error

	// Close releases resources held by the store.
	Close(ctx context.Context) error
}
