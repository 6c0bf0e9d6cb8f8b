// Package types defines the shared data model of the hybrid retrieval
// engine: documents, chunks, deduplicated entities, graph labels and edge
// types, search configuration, and the typed error taxonomy.
//
// Identifiers are deterministic: a document's ID derives from its content
// fingerprint, a chunk's from (document, ordinal), an entity's from its
// normalized (name, type) natural key. This is what makes ingestion
// idempotent and partial-write retries safe.
package types
