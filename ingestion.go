package graphfuse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/graphfuse/graphfuse/pkg/chunker"
	"github.com/graphfuse/graphfuse/pkg/extractor"
	"github.com/graphfuse/graphfuse/pkg/graphstore"
	"github.com/graphfuse/graphfuse/pkg/types"
)

// semanticLinkCandidates bounds how many nearest chunks are considered for
// RELATED_TO linking per newly ingested chunk.
const semanticLinkCandidates = 6

// IngestResult summarizes one ingestion.
type IngestResult struct {
	DocumentID string `json:"document_id"`
	// Skipped is set when the document's fingerprint was already fully
	// ingested and the pipeline did not run.
	Skipped  bool `json:"skipped"`
	Chunks   int  `json:"chunks"`
	Entities int  `json:"entities"`
	// Degraded is set when entity extraction failed on one or more chunks;
	// the document is still searchable by vector similarity.
	Degraded bool `json:"degraded,omitempty"`
}

// IngestDocument runs the ingestion pipeline for one document.
//
// The document's identity is a fingerprint of its raw text, so ingesting
// identical content twice is a recognized no-op. Embedding failure aborts
// the ingestion; extraction failure degrades it to vector-only coverage for
// the affected chunks. Persistence runs in a fixed stage order and reports
// a PartialWriteError naming the completed stages when a stage fails.
func (e *Engine) IngestDocument(ctx context.Context, title, rawText string) (*IngestResult, error) {
	if strings.TrimSpace(rawText) == "" {
		return nil, types.NewValidationError("raw_text", "must not be empty")
	}

	doc := types.NewDocument(title, rawText)
	logger := e.logger.With("document_id", doc.ID)

	applied := make(map[types.WriteStage]bool)
	existing, err := e.graph.FindByKey(ctx, types.LabelDocument, doc.Fingerprint)
	switch {
	case err == nil:
		if complete, _ := existing.Props["complete"].(bool); complete {
			logger.Info("document already ingested, skipping")
			return &IngestResult{DocumentID: existing.ID, Skipped: true}, nil
		}
		// A document node without the complete flag is a previous partial
		// write: fall through and re-run the pipeline, skipping the edge
		// stages the previous attempt already applied.
		applied = appliedStages(existing.Props["stages"])
		logger.Warn("resuming partially ingested document", "applied_stages", stageLedger(applied))
	case errors.Is(err, types.ErrNotFound):
	default:
		return nil, types.NewDependencyError("graph_store", err)
	}

	texts := chunker.Split(chunker.Clean(rawText), e.config.Chunking)
	if len(texts) == 0 {
		return nil, fmt.Errorf("document %s: %w", doc.ID, types.ErrEmptyDocument)
	}

	chunks := make([]*types.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = &types.Chunk{
			ID:         types.ChunkID(doc.ID, i),
			DocumentID: doc.ID,
			Ordinal:    i,
			Text:       text,
		}
	}

	mentions, degraded, err := e.enrichChunks(ctx, chunks, logger)
	if err != nil {
		return nil, err
	}

	entityCount, err := e.persist(ctx, doc, chunks, mentions, applied)
	if err != nil {
		return nil, err
	}

	logger.Info("document ingested",
		"chunks", len(chunks), "entities", entityCount, "degraded", degraded)
	return &IngestResult{
		DocumentID: doc.ID,
		Chunks:     len(chunks),
		Entities:   entityCount,
		Degraded:   degraded,
	}, nil
}

// enrichChunks runs embedding and per-chunk entity extraction concurrently
// on the worker pool. Embedding failure is fatal; extraction failures
// degrade the affected chunks to zero mentions.
func (e *Engine) enrichChunks(ctx context.Context, chunks []*types.Chunk, logger *slog.Logger) ([][]extractor.Mention, bool, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		embedErr error
		degraded bool
	)
	mentions := make([][]extractor.Mention, len(chunks))

	wg.Add(1)
	embedTask := func() {
		defer wg.Done()
		vectors, err := e.embedder.Embed(ctx, texts)
		if err != nil {
			mu.Lock()
			embedErr = err
			mu.Unlock()
			return
		}
		for i, v := range vectors {
			chunks[i].Vector = v
		}
	}
	if err := e.pool.Submit(embedTask); err != nil {
		embedTask()
	}

	for i := range chunks {
		i := i
		wg.Add(1)
		extractTask := func() {
			defer wg.Done()
			found, err := e.extractor.Extract(ctx, chunks[i].Text)
			if err != nil {
				logger.Warn("entity extraction failed, chunk degraded to vector-only",
					"chunk_ordinal", i, "error", err)
				mu.Lock()
				degraded = true
				mu.Unlock()
				return
			}
			mentions[i] = extractor.Normalize(found, e.config.MinMentionLength)
		}
		if err := e.pool.Submit(extractTask); err != nil {
			extractTask()
		}
	}
	wg.Wait()

	if embedErr != nil {
		return nil, false, types.NewDependencyError("embedder", embedErr)
	}
	return mentions, degraded, nil
}

// persist writes the document's nodes, vectors and edges in a fixed stage
// order, so that a failure can report exactly which grouped writes landed.
//
// Node and vector writes converge on their deterministic IDs, so re-running
// them is harmless. Edge writes increment weights, so each completed edge
// stage is recorded on the document node and a resume skips it via applied.
func (e *Engine) persist(ctx context.Context, doc *types.Document, chunks []*types.Chunk, mentions [][]extractor.Mention, applied map[types.WriteStage]bool) (int, error) {
	var completed []types.WriteStage
	fail := func(stage types.WriteStage, err error) error {
		return &types.PartialWriteError{
			DocumentID: doc.ID,
			Completed:  completed,
			Failed:     stage,
			Err:        err,
		}
	}
	done := func(stage types.WriteStage) {
		completed = append(completed, stage)
	}
	mark := func(stage types.WriteStage) error {
		applied[stage] = true
		return e.graph.UpsertNode(ctx, &graphstore.Node{
			ID:    doc.ID,
			Label: types.LabelDocument,
			Key:   doc.Fingerprint,
			Props: map[string]any{"stages": stageLedger(applied)},
		})
	}

	// Document node. The complete flag is only set after every other stage
	// succeeds, so a crashed ingestion is retried rather than skipped.
	if err := e.graph.UpsertNode(ctx, &graphstore.Node{
		ID:    doc.ID,
		Label: types.LabelDocument,
		Key:   doc.Fingerprint,
		Props: map[string]any{"title": doc.Title, "complete": false},
	}); err != nil {
		return 0, fail(types.StageDocumentNode, err)
	}
	done(types.StageDocumentNode)

	for _, chunk := range chunks {
		if err := e.index.Insert(ctx, chunk.ID, chunk.Vector); err != nil {
			return 0, fail(types.StageVectors, err)
		}
	}
	done(types.StageVectors)

	for _, chunk := range chunks {
		node := &graphstore.Node{
			ID:    chunk.ID,
			Label: types.LabelChunk,
			Key:   fmt.Sprintf("%s/%d", doc.ID, chunk.Ordinal),
			Props: map[string]any{"text": chunk.Text, "ordinal": chunk.Ordinal, "document_id": doc.ID},
		}
		if err := e.graph.UpsertNode(ctx, node); err != nil {
			return 0, fail(types.StageChunkNodes, err)
		}
		if err := e.graph.UpsertEdge(ctx, graphstore.Edge{
			Type: types.EdgePartOf, FromID: chunk.ID, ToID: doc.ID, WeightDelta: 1,
		}); err != nil {
			return 0, fail(types.StageChunkNodes, err)
		}
	}
	done(types.StageChunkNodes)

	entities, mentionCounts := collectEntities(mentions)
	for _, ent := range entities {
		node := &graphstore.Node{
			ID:    ent.ID,
			Label: types.LabelEntity,
			Key:   types.EntityKey(ent.Name, ent.Type),
			Props: map[string]any{"name": ent.Name, "type": string(ent.Type)},
		}
		if err := e.graph.UpsertNode(ctx, node); err != nil {
			return 0, fail(types.StageEntityNodes, err)
		}
	}
	done(types.StageEntityNodes)

	if !applied[types.StageMentionEdges] {
		for i, chunk := range chunks {
			for _, entityID := range sortedKeys(mentionCounts[i]) {
				if err := e.graph.UpsertEdge(ctx, graphstore.Edge{
					Type:        types.EdgeMentions,
					FromID:      chunk.ID,
					ToID:        entityID,
					WeightDelta: float64(mentionCounts[i][entityID]),
				}); err != nil {
					return 0, fail(types.StageMentionEdges, err)
				}
			}
		}
		if err := mark(types.StageMentionEdges); err != nil {
			return 0, fail(types.StageMentionEdges, err)
		}
	}
	done(types.StageMentionEdges)

	// Entities co-occurring in one chunk get their RELATED_TO weight bumped
	// by one per shared chunk, in a canonical direction so both orders of
	// discovery accumulate on the same edge.
	if !applied[types.StageRelationEdges] {
		for i := range chunks {
			ids := sortedKeys(mentionCounts[i])
			for a := 0; a < len(ids); a++ {
				for b := a + 1; b < len(ids); b++ {
					if err := e.graph.UpsertEdge(ctx, graphstore.Edge{
						Type: types.EdgeRelatedTo, FromID: ids[a], ToID: ids[b], WeightDelta: 1,
					}); err != nil {
						return 0, fail(types.StageRelationEdges, err)
					}
				}
			}
		}
		if err := mark(types.StageRelationEdges); err != nil {
			return 0, fail(types.StageRelationEdges, err)
		}
	}
	done(types.StageRelationEdges)

	if !applied[types.StageSemanticEdges] {
		if err := e.linkSemanticNeighbors(ctx, chunks); err != nil {
			return 0, fail(types.StageSemanticEdges, err)
		}
		if err := mark(types.StageSemanticEdges); err != nil {
			return 0, fail(types.StageSemanticEdges, err)
		}
	}
	done(types.StageSemanticEdges)

	if err := e.graph.UpsertNode(ctx, &graphstore.Node{
		ID:    doc.ID,
		Label: types.LabelDocument,
		Key:   doc.Fingerprint,
		Props: map[string]any{"complete": true, "stages": ""},
	}); err != nil {
		return 0, fail(types.StageDocumentNode, err)
	}

	return len(entities), nil
}

// linkSemanticNeighbors connects each new chunk to its nearest existing
// chunks when their similarity clears the configured threshold.
func (e *Engine) linkSemanticNeighbors(ctx context.Context, chunks []*types.Chunk) error {
	threshold := e.config.SemanticThreshold
	if threshold <= 0 {
		return nil
	}

	for _, chunk := range chunks {
		hits, err := e.index.Search(ctx, chunk.Vector, semanticLinkCandidates)
		if err != nil {
			return err
		}
		for _, hit := range hits {
			if hit.ID == chunk.ID || hit.Score < threshold {
				continue
			}
			edge := graphstore.Edge{
				Type:        types.EdgeRelatedTo,
				FromID:      chunk.ID,
				ToID:        hit.ID,
				WeightDelta: hit.Score,
			}
			err := e.graph.UpsertEdge(ctx, edge)
			if errors.Is(err, types.ErrNotFound) {
				// The hit's chunk node may be missing after a partial write
				// elsewhere; a dangling vector must not fail this document.
				continue
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// collectEntities deduplicates mentions across all chunks and counts
// per-chunk mention frequency per entity.
func collectEntities(mentions [][]extractor.Mention) (map[string]*types.Entity, []map[string]int) {
	entities := make(map[string]*types.Entity)
	counts := make([]map[string]int, len(mentions))

	for i, chunkMentions := range mentions {
		counts[i] = make(map[string]int)
		for _, m := range chunkMentions {
			ent := types.NewEntity(m.Name, m.Type)
			entities[ent.ID] = ent
			counts[i][ent.ID]++
		}
	}
	return entities, counts
}

// stageLedger serializes the applied edge stages into a document node
// property.
func stageLedger(applied map[types.WriteStage]bool) string {
	names := make([]string, 0, len(applied))
	for stage := range applied {
		names = append(names, string(stage))
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}

// appliedStages parses the stage ledger stored on a document node.
func appliedStages(v any) map[types.WriteStage]bool {
	out := make(map[types.WriteStage]bool)
	ledger, _ := v.(string)
	if ledger == "" {
		return out
	}
	for _, name := range strings.Split(ledger, ",") {
		out[types.WriteStage(name)] = true
	}
	return out
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
