package graphstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/graphfuse/graphfuse/pkg/types"
)

// MemoryStore is a mutex-guarded in-memory Store for tests and embedded
// deployments. A single lock around upserts gives the same atomic
// get-or-create guarantee a database uniqueness constraint provides.
type MemoryStore struct {
	mu    sync.RWMutex
	nodes map[string]*Node           // id -> node
	byKey map[string]string          // label|key -> id
	edges map[string]*edgeRecord     // type|from|to -> edge
	adjac map[string]map[string]bool // node id -> edge keys
}

type edgeRecord struct {
	typ    types.EdgeType
	fromID string
	toID   string
	weight float64
}

// NewMemoryStore creates an empty in-memory graph store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nodes: make(map[string]*Node),
		byKey: make(map[string]string),
		edges: make(map[string]*edgeRecord),
		adjac: make(map[string]map[string]bool),
	}
}

func keyIndex(label types.NodeLabel, key string) string {
	return string(label) + "|" + key
}

func edgeIndex(typ types.EdgeType, fromID, toID string) string {
	return string(typ) + "|" + fromID + "|" + toID
}

// UpsertNode creates or merges a node by (label, key).
func (s *MemoryStore) UpsertNode(ctx context.Context, node *Node) error {
	if node.ID == "" || node.Key == "" || node.Label == "" {
		return fmt.Errorf("node requires id, label and key")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existingID, ok := s.byKey[keyIndex(node.Label, node.Key)]; ok {
		existing := s.nodes[existingID]
		for k, v := range node.Props {
			if existing.Props == nil {
				existing.Props = make(map[string]any)
			}
			existing.Props[k] = v
		}
		return nil
	}

	stored := &Node{
		ID:        node.ID,
		Label:     node.Label,
		Key:       node.Key,
		CreatedAt: time.Now().UTC(),
		Props:     make(map[string]any, len(node.Props)),
	}
	for k, v := range node.Props {
		stored.Props[k] = v
	}
	s.nodes[node.ID] = stored
	s.byKey[keyIndex(node.Label, node.Key)] = node.ID
	return nil
}

// GetNode retrieves a node by ID.
func (s *MemoryStore) GetNode(ctx context.Context, id string) (*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node, ok := s.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node %s: %w", id, types.ErrNotFound)
	}
	return cloneNode(node), nil
}

// FindByKey retrieves a node by label and natural key.
func (s *MemoryStore) FindByKey(ctx context.Context, label types.NodeLabel, key string) (*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byKey[keyIndex(label, key)]
	if !ok {
		return nil, fmt.Errorf("%s with key %s: %w", label, key, types.ErrNotFound)
	}
	return cloneNode(s.nodes[id]), nil
}

// UpsertEdge creates or increments an edge.
func (s *MemoryStore) UpsertEdge(ctx context.Context, edge Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[edge.FromID]; !ok {
		return fmt.Errorf("edge source %s: %w", edge.FromID, types.ErrNotFound)
	}
	if _, ok := s.nodes[edge.ToID]; !ok {
		return fmt.Errorf("edge target %s: %w", edge.ToID, types.ErrNotFound)
	}

	key := edgeIndex(edge.Type, edge.FromID, edge.ToID)
	if rec, ok := s.edges[key]; ok {
		rec.weight += edge.WeightDelta
		return nil
	}

	s.edges[key] = &edgeRecord{
		typ:    edge.Type,
		fromID: edge.FromID,
		toID:   edge.ToID,
		weight: edge.WeightDelta,
	}
	for _, id := range []string{edge.FromID, edge.ToID} {
		if s.adjac[id] == nil {
			s.adjac[id] = make(map[string]bool)
		}
		s.adjac[id][key] = true
	}
	return nil
}

// EdgeWeight returns the current weight of an edge.
func (s *MemoryStore) EdgeWeight(ctx context.Context, typ types.EdgeType, fromID, toID string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.edges[edgeIndex(typ, fromID, toID)]
	if !ok {
		return 0, fmt.Errorf("edge %s %s->%s: %w", typ, fromID, toID, types.ErrNotFound)
	}
	return rec.weight, nil
}

// Neighbors lists undirected adjacency for each requested node.
func (s *MemoryStore) Neighbors(ctx context.Context, ids []string) (map[string][]Neighbor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]Neighbor, len(ids))
	for _, id := range ids {
		var neighbors []Neighbor
		for key := range s.adjac[id] {
			rec := s.edges[key]
			otherID := rec.toID
			if otherID == id {
				otherID = rec.fromID
			}
			other, ok := s.nodes[otherID]
			if !ok {
				continue
			}
			neighbors = append(neighbors, Neighbor{
				ID:       other.ID,
				Label:    other.Label,
				EdgeType: rec.typ,
				Weight:   rec.weight,
			})
		}
		out[id] = neighbors
	}
	return out, nil
}

// DeleteNode removes a node and all its edges.
func (s *MemoryStore) DeleteNode(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.nodes[id]
	if !ok {
		return nil
	}

	for key := range s.adjac[id] {
		rec := s.edges[key]
		delete(s.edges, key)
		delete(s.adjac[rec.fromID], key)
		delete(s.adjac[rec.toID], key)
	}
	delete(s.adjac, id)
	delete(s.byKey, keyIndex(node.Label, node.Key))
	delete(s.nodes, id)
	return nil
}

// Stats returns node and edge counts.
func (s *MemoryStore) Stats(ctx context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{
		Nodes: int64(len(s.nodes)),
		Edges: int64(len(s.edges)),
	}
	for _, n := range s.nodes {
		switch n.Label {
		case types.LabelDocument:
			stats.Documents++
		case types.LabelChunk:
			stats.Chunks++
		case types.LabelEntity:
			stats.Entities++
		}
	}
	return stats, nil
}

// CreateIndices is a no-op: the in-memory maps are their own indices.
func (s *MemoryStore) CreateIndices(ctx context.Context) error { return nil }

// Close implements Store.
func (s *MemoryStore) Close(ctx context.Context) error { return nil }

func cloneNode(n *Node) *Node {
	out := &Node{
		ID:        n.ID,
		Label:     n.Label,
		Key:       n.Key,
		CreatedAt: n.CreatedAt,
		Props:     make(map[string]any, len(n.Props)),
	}
	for k, v := range n.Props {
		out.Props[k] = v
	}
	return out
}
