package types

// NodeLabel identifies the kind of a graph node.
type NodeLabel string

const (
	LabelDocument NodeLabel = "Document"
	LabelChunk    NodeLabel = "Chunk"
	LabelEntity   NodeLabel = "Entity"
)

// EdgeType identifies the kind of a graph relationship.
type EdgeType string

const (
	// EdgePartOf links a chunk to its owning document.
	EdgePartOf EdgeType = "PART_OF"
	// EdgeMentions links a chunk to an entity it mentions, weighted by
	// mention count within the chunk.
	EdgeMentions EdgeType = "MENTIONS"
	// EdgeRelatedTo links two entities that co-occur in a chunk, or two
	// chunks that are semantically similar. The weight accumulates and is
	// never decremented outside explicit deletion.
	EdgeRelatedTo EdgeType = "RELATED_TO"
)
