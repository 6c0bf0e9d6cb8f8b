package types

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Namespaces for deterministic ID derivation. IDs must be pure functions of
// their natural keys so that re-ingestion and partial-write retries converge
// on the same nodes instead of creating duplicates.
var (
	nsDocument = uuid.MustParse("9b1f5c0a-3d2e-4b8f-9c61-0f4a7d2e8b11")
	nsChunk    = uuid.MustParse("4e8a2d17-6f3b-4c9e-8a52-1b7c9e0d3f22")
	nsEntity   = uuid.MustParse("c7d94f60-2a1e-4e7d-b3c8-5a0e1f6d9c33")
)

// Document is an ingested source text. Immutable after creation.
type Document struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Fingerprint string    `json:"fingerprint"`
	RawText     string    `json:"raw_text,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Chunk is a bounded segment of a document's text, independently embedded
// and indexed. Ordinal preserves original text order within the document.
type Chunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Ordinal    int       `json:"ordinal"`
	Text       string    `json:"text"`
	Vector     []float32 `json:"vector,omitempty"`
}

// EntityType classifies a named entity.
type EntityType string

const (
	EntityPerson       EntityType = "Person"
	EntityOrganization EntityType = "Organization"
	EntityLocation     EntityType = "Location"
	EntityOther        EntityType = "Other"
)

// ParseEntityType maps extractor labels (including common NER tag sets such
// as PERSON/ORG/GPE) onto the canonical entity types. Unknown labels fold
// into EntityOther rather than failing extraction.
func ParseEntityType(label string) EntityType {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "PERSON", "PER":
		return EntityPerson
	case "ORGANIZATION", "ORG":
		return EntityOrganization
	case "LOCATION", "LOC", "GPE":
		return EntityLocation
	default:
		return EntityOther
	}
}

// Entity is a deduplicated named entity. Identity is a pure function of the
// normalized (name, type) pair: repeated mentions of the same entity across
// documents converge on one node.
type Entity struct {
	ID   string     `json:"id"`
	Name string     `json:"name"`
	Type EntityType `json:"type"`
}

// NormalizeEntityName folds an entity surface form for identity comparison:
// whitespace is collapsed and the name is lower-cased.
func NormalizeEntityName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// EntityKey returns the natural key used to deduplicate entity nodes.
func EntityKey(name string, typ EntityType) string {
	return NormalizeEntityName(name) + "|" + string(typ)
}

// Fingerprint computes the content fingerprint of a document's raw text.
// It is the document's natural key for idempotent ingestion.
func Fingerprint(rawText string) string {
	sum := sha256.Sum256([]byte(rawText))
	return hex.EncodeToString(sum[:])
}

// DocumentID derives the document identifier from its content fingerprint.
func DocumentID(fingerprint string) string {
	return uuid.NewSHA1(nsDocument, []byte(fingerprint)).String()
}

// ChunkID derives a chunk identifier from its owning document and ordinal.
func ChunkID(documentID string, ordinal int) string {
	return uuid.NewSHA1(nsChunk, []byte(fmt.Sprintf("%s/%d", documentID, ordinal))).String()
}

// EntityID derives an entity identifier from its natural key.
func EntityID(name string, typ EntityType) string {
	return uuid.NewSHA1(nsEntity, []byte(EntityKey(name, typ))).String()
}

// NewDocument builds a Document from an ingestion request.
func NewDocument(title, rawText string) *Document {
	fp := Fingerprint(rawText)
	return &Document{
		ID:          DocumentID(fp),
		Title:       title,
		Fingerprint: fp,
		RawText:     rawText,
		CreatedAt:   time.Now().UTC(),
	}
}

// NewEntity builds a deduplicated Entity from a raw mention. The stored name
// is the normalized form so that casing differences do not leak into the
// graph.
func NewEntity(name string, typ EntityType) *Entity {
	return &Entity{
		ID:   EntityID(name, typ),
		Name: NormalizeEntityName(name),
		Type: typ,
	}
}

// ContextKey is the type for context values propagated through the engine.
type ContextKey string

const (
	// ContextKeyRequestID carries the transport-level request identifier.
	ContextKeyRequestID ContextKey = "request_id"
	// ContextKeyRequestSource identifies where a request originated.
	ContextKeyRequestSource ContextKey = "request_source"
)
