// Package graphfuse is a hybrid retrieval engine: it ingests documents into
// a knowledge graph plus a dense vector index, and answers queries by fusing
// vector similarity with graph connectivity into a single ranking.
//
// Ingestion chunks each document, embeds every chunk, extracts named
// entities, and links chunks, documents and entities in the graph. Entity
// nodes are deduplicated across all documents by their normalized
// (name, type) key, so the graph accumulates cross-document structure as the
// corpus grows. Search embeds the query, retrieves candidate chunks by
// cosine similarity, expands them through the graph with a decayed
// multi-path traversal, and ranks the union by a weighted sum of the two
// normalized signals.
//
// The Engine facade in this package composes the collaborators from the
// pkg/ subpackages; each collaborator is replaceable through its interface.
package graphfuse
