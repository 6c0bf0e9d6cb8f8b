package graphstore

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/graphfuse/graphfuse/pkg/types"
)

// Neo4jStore implements Store on a Neo4j (or Bolt-compatible) database.
// Atomic get-or-create comes from MERGE on the natural key backed by a
// uniqueness constraint, so concurrent ingestions racing to create the
// same entity converge on one node.
type Neo4jStore struct {
	client   neo4j.DriverWithContext
	database string
}

// Config holds graph store connection settings.
type Config struct {
	Driver   string `mapstructure:"driver"` // memory, neo4j
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// NewNeo4jStore creates a Neo4j-backed graph store.
func NewNeo4jStore(cfg Config) (*Neo4jStore, error) {
	client, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	database := cfg.Database
	if database == "" {
		database = "neo4j"
	}
	return &Neo4jStore{client: client, database: database}, nil
}

func (s *Neo4jStore) session(ctx context.Context) neo4j.SessionWithContext {
	return s.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database})
}

// UpsertNode creates or merges a node by (label, key).
func (s *Neo4jStore) UpsertNode(ctx context.Context, node *Node) error {
	session := s.session(ctx)
	defer session.Close(ctx)

	// MERGE on the natural key; the id and created_at stick from the
	// first writer, props are refreshed on every upsert.
	query := fmt.Sprintf(`
		MERGE (n:%s {key: $key})
		ON CREATE SET n.id = $id, n.created_at = $created_at
		SET n += $props
		RETURN n.id
	`, node.Label)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{
			"key":        node.Key,
			"id":         node.ID,
			"created_at": time.Now().UTC().Format(time.RFC3339Nano),
			"props":      nodeProps(node),
		})
		if err != nil {
			return nil, err
		}
		return res.Single(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to upsert %s node: %w", node.Label, err)
	}
	return nil
}

// GetNode retrieves a node by ID.
func (s *Neo4jStore) GetNode(ctx context.Context, id string) (*Node, error) {
	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (n {id: $id})
			RETURN n, labels(n)[0] AS label
		`, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		return records, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get node %s: %w", id, err)
	}

	records := result.([]*neo4j.Record)
	if len(records) == 0 {
		return nil, fmt.Errorf("node %s: %w", id, types.ErrNotFound)
	}
	return nodeFromRecord(records[0])
}

// FindByKey retrieves a node by label and natural key.
func (s *Neo4jStore) FindByKey(ctx context.Context, label types.NodeLabel, key string) (*Node, error) {
	session := s.session(ctx)
	defer session.Close(ctx)

	query := fmt.Sprintf(`
		MATCH (n:%s {key: $key})
		RETURN n, labels(n)[0] AS label
	`, label)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{"key": key})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find %s by key: %w", label, err)
	}

	records := result.([]*neo4j.Record)
	if len(records) == 0 {
		return nil, fmt.Errorf("%s with key %s: %w", label, key, types.ErrNotFound)
	}
	return nodeFromRecord(records[0])
}

// UpsertEdge creates or increments an edge.
func (s *Neo4jStore) UpsertEdge(ctx context.Context, edge Edge) error {
	session := s.session(ctx)
	defer session.Close(ctx)

	query := fmt.Sprintf(`
		MATCH (a {id: $from_id})
		MATCH (b {id: $to_id})
		MERGE (a)-[r:%s]->(b)
		ON CREATE SET r.weight = $delta
		ON MATCH SET r.weight = r.weight + $delta
		RETURN r.weight
	`, edge.Type)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{
			"from_id": edge.FromID,
			"to_id":   edge.ToID,
			"delta":   edge.WeightDelta,
		})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to upsert %s edge: %w", edge.Type, err)
	}
	if len(result.([]*neo4j.Record)) == 0 {
		return fmt.Errorf("edge %s %s->%s: endpoint %w", edge.Type, edge.FromID, edge.ToID, types.ErrNotFound)
	}
	return nil
}

// EdgeWeight returns the current weight of an edge.
func (s *Neo4jStore) EdgeWeight(ctx context.Context, typ types.EdgeType, fromID, toID string) (float64, error) {
	session := s.session(ctx)
	defer session.Close(ctx)

	query := fmt.Sprintf(`
		MATCH ({id: $from_id})-[r:%s]->({id: $to_id})
		RETURN r.weight AS weight
	`, typ)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{"from_id": fromID, "to_id": toID})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to read edge weight: %w", err)
	}

	records := result.([]*neo4j.Record)
	if len(records) == 0 {
		return 0, fmt.Errorf("edge %s %s->%s: %w", typ, fromID, toID, types.ErrNotFound)
	}
	weight, _ := records[0].Get("weight")
	w, ok := weight.(float64)
	if !ok {
		return 0, fmt.Errorf("unexpected weight type %T", weight)
	}
	return w, nil
}

// Neighbors lists undirected adjacency for each requested node.
func (s *Neo4jStore) Neighbors(ctx context.Context, ids []string) (map[string][]Neighbor, error) {
	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			UNWIND $ids AS nid
			MATCH (n {id: nid})-[r]-(m)
			RETURN nid, m.id AS id, labels(m)[0] AS label, type(r) AS edge_type, r.weight AS weight
		`, map[string]any{"ids": ids})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list neighbors: %w", err)
	}

	out := make(map[string][]Neighbor, len(ids))
	for _, id := range ids {
		out[id] = nil
	}
	for _, record := range result.([]*neo4j.Record) {
		nid, _ := record.Get("nid")
		id, _ := record.Get("id")
		label, _ := record.Get("label")
		edgeType, _ := record.Get("edge_type")
		weight, _ := record.Get("weight")

		w, ok := weight.(float64)
		if !ok {
			w = 1.0
		}
		seed, _ := nid.(string)
		out[seed] = append(out[seed], Neighbor{
			ID:       id.(string),
			Label:    types.NodeLabel(label.(string)),
			EdgeType: types.EdgeType(edgeType.(string)),
			Weight:   w,
		})
	}
	return out, nil
}

// DeleteNode removes a node and all its edges.
func (s *Neo4jStore) DeleteNode(ctx context.Context, id string) error {
	session := s.session(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, `
			MATCH (n {id: $id})
			DETACH DELETE n
		`, map[string]any{"id": id})
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("failed to delete node %s: %w", id, err)
	}
	return nil
}

// Stats returns node and edge counts.
func (s *Neo4jStore) Stats(ctx context.Context) (*Stats, error) {
	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (n)
			OPTIONAL MATCH ()-[r]->()
			RETURN count(DISTINCT n) AS nodes,
			       count(DISTINCT r) AS edges,
			       count(DISTINCT CASE WHEN n:Document THEN n END) AS documents,
			       count(DISTINCT CASE WHEN n:Chunk THEN n END) AS chunks,
			       count(DISTINCT CASE WHEN n:Entity THEN n END) AS entities
		`, nil)
		if err != nil {
			return nil, err
		}
		return res.Single(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read graph stats: %w", err)
	}

	record := result.(*neo4j.Record)
	stats := &Stats{}
	for name, dst := range map[string]*int64{
		"nodes": &stats.Nodes, "edges": &stats.Edges,
		"documents": &stats.Documents, "chunks": &stats.Chunks, "entities": &stats.Entities,
	} {
		if v, ok := record.Get(name); ok {
			if n, ok := v.(int64); ok {
				*dst = n
			}
		}
	}
	return stats, nil
}

// CreateIndices installs the uniqueness constraints the upsert discipline
// relies on.
func (s *Neo4jStore) CreateIndices(ctx context.Context) error {
	session := s.session(ctx)
	defer session.Close(ctx)

	constraints := []string{
		"CREATE CONSTRAINT document_key IF NOT EXISTS FOR (n:Document) REQUIRE n.key IS UNIQUE",
		"CREATE CONSTRAINT chunk_key IF NOT EXISTS FOR (n:Chunk) REQUIRE n.key IS UNIQUE",
		"CREATE CONSTRAINT entity_key IF NOT EXISTS FOR (n:Entity) REQUIRE n.key IS UNIQUE",
		"CREATE INDEX document_id IF NOT EXISTS FOR (n:Document) ON (n.id)",
		"CREATE INDEX chunk_id IF NOT EXISTS FOR (n:Chunk) ON (n.id)",
		"CREATE INDEX entity_id IF NOT EXISTS FOR (n:Entity) ON (n.id)",
	}
	for _, c := range constraints {
		_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			_, err := tx.Run(ctx, c, nil)
			return nil, err
		})
		if err != nil {
			return fmt.Errorf("failed to create constraint: %w", err)
		}
	}
	return nil
}

// Close closes the underlying driver.
func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}

func nodeProps(node *Node) map[string]any {
	props := make(map[string]any, len(node.Props))
	for k, v := range node.Props {
		props[k] = v
	}
	return props
}

func nodeFromRecord(record *neo4j.Record) (*Node, error) {
	value, ok := record.Get("n")
	if !ok {
		return nil, fmt.Errorf("record missing node")
	}
	dbNode, ok := value.(neo4j.Node)
	if !ok {
		return nil, fmt.Errorf("unexpected node type %T", value)
	}
	labelValue, _ := record.Get("label")
	label, _ := labelValue.(string)

	node := &Node{
		Label: types.NodeLabel(label),
		Props: make(map[string]any),
	}
	for k, v := range dbNode.Props {
		switch k {
		case "id":
			node.ID, _ = v.(string)
		case "key":
			node.Key, _ = v.(string)
		case "created_at":
			if ts, ok := v.(string); ok {
				if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
					node.CreatedAt = t
				}
			}
		default:
			node.Props[k] = v
		}
	}
	return node, nil
}
