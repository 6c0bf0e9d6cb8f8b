package types

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyDocument is returned when chunking an ingested document
	// yields no chunks.
	ErrEmptyDocument = errors.New("document produced no chunks")
	// ErrNotFound is returned when a node, document, or edge does not exist.
	ErrNotFound = errors.New("not found")
)

// ValidationError reports caller input that can never succeed. It is
// surfaced immediately and must not be retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for a named input field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// DependencyError reports a failure of an external collaborator (embedder,
// extractor, vector index, graph store). Callers can branch on which
// dependency failed.
type DependencyError struct {
	Dependency string
	Err        error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("dependency %s: %v", e.Dependency, e.Err)
}

func (e *DependencyError) Unwrap() error { return e.Err }

// NewDependencyError wraps an error from a named collaborator.
func NewDependencyError(dependency string, err error) *DependencyError {
	return &DependencyError{Dependency: dependency, Err: err}
}

// WriteStage names one grouped sub-write of a document's persistence.
type WriteStage string

const (
	StageDocumentNode  WriteStage = "document_node"
	StageVectors       WriteStage = "vectors"
	StageChunkNodes    WriteStage = "chunk_nodes"
	StageEntityNodes   WriteStage = "entity_nodes"
	StageMentionEdges  WriteStage = "mention_edges"
	StageRelationEdges WriteStage = "relation_edges"
	StageSemanticEdges WriteStage = "semantic_edges"
)

// PartialWriteError reports that persistence failed mid-way through a
// document's grouped writes. Completed lists the stages that finished.
// Retrying the whole ingestion is safe: nodes and vectors converge on
// their deterministic IDs, and completed edge stages are recorded on the
// document node so a resume does not re-increment their weights. Only
// edges written inside the failed stage itself can be applied twice.
type PartialWriteError struct {
	DocumentID string
	Completed  []WriteStage
	Failed     WriteStage
	Err        error
}

func (e *PartialWriteError) Error() string {
	done := make([]string, len(e.Completed))
	for i, s := range e.Completed {
		done[i] = string(s)
	}
	return fmt.Sprintf("partial write for document %s: stage %s failed after [%s]: %v",
		e.DocumentID, e.Failed, strings.Join(done, ", "), e.Err)
}

func (e *PartialWriteError) Unwrap() error { return e.Err }
