package graphfuse

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphfuse/graphfuse/pkg/chunker"
	"github.com/graphfuse/graphfuse/pkg/embedder"
	"github.com/graphfuse/graphfuse/pkg/extractor"
	"github.com/graphfuse/graphfuse/pkg/graphstore"
	"github.com/graphfuse/graphfuse/pkg/types"
	"github.com/graphfuse/graphfuse/pkg/vectorindex"
)

// flakyStore wraps a Store with switchable failure injection.
type flakyStore struct {
	graphstore.Store
	failEdgeType  types.EdgeType
	failNeighbors bool
}

func (s *flakyStore) UpsertEdge(ctx context.Context, edge graphstore.Edge) error {
	if s.failEdgeType != "" && edge.Type == s.failEdgeType {
		return errors.New("injected edge failure")
	}
	return s.Store.UpsertEdge(ctx, edge)
}

func (s *flakyStore) Neighbors(ctx context.Context, ids []string) (map[string][]graphstore.Neighbor, error) {
	if s.failNeighbors {
		return nil, errors.New("injected neighbors failure")
	}
	return s.Store.Neighbors(ctx, ids)
}

type testEngine struct {
	*Engine
	store *flakyStore
	emb   *embedder.MockClient
	ext   *extractor.MockClient
}

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()

	store := &flakyStore{Store: graphstore.NewMemoryStore()}
	emb := embedder.NewMockClient(64)
	ext := extractor.NewMockClient()

	config := DefaultConfig()
	config.Workers = 2
	// Mock vectors for distinct texts are effectively orthogonal; a high
	// threshold keeps semantic links out of tests that don't want them.
	config.SemanticThreshold = 0.99

	engine, err := New(store, vectorindex.NewMemoryIndex(), emb, ext, config, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close(context.Background()) })

	return &testEngine{Engine: engine, store: store, emb: emb, ext: ext}
}

func TestIngestDocumentIsIdempotent(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	first, err := e.IngestDocument(ctx, "bio", "Marie Curie discovered radium in Paris.")
	require.NoError(t, err)
	assert.False(t, first.Skipped)
	assert.Equal(t, 1, first.Chunks)

	statsBefore, err := e.Stats(ctx)
	require.NoError(t, err)

	second, err := e.IngestDocument(ctx, "bio", "Marie Curie discovered radium in Paris.")
	require.NoError(t, err)
	assert.True(t, second.Skipped)
	assert.Equal(t, first.DocumentID, second.DocumentID)

	statsAfter, err := e.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, statsBefore, statsAfter, "re-ingestion must not grow the stores")
}

func TestIngestDocumentValidation(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	var verr *types.ValidationError
	_, err := e.IngestDocument(ctx, "t", "   \n\t ")
	assert.ErrorAs(t, err, &verr)

	_, err = e.IngestDocument(ctx, "t", "<div><span></span></div>")
	assert.ErrorIs(t, err, types.ErrEmptyDocument, "markup that cleans to nothing yields no chunks")
}

func TestEntityNodesConvergeAcrossDocuments(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	_, err := e.IngestDocument(ctx, "d1", "Marie Curie won a prize.")
	require.NoError(t, err)
	_, err = e.IngestDocument(ctx, "d2", "Marie Curie discovered radium.")
	require.NoError(t, err)

	stats, err := e.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.Graph.Entities,
		"the same entity mentioned in two documents is one node")
}

func TestCoOccurrenceWeightAccumulates(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	for i := 0; i < 3; i++ {
		text := fmt.Sprintf("Marie Curie worked with Pierre Curie on experiment number %d.", i)
		_, err := e.IngestDocument(ctx, fmt.Sprintf("d%d", i), text)
		require.NoError(t, err)
	}

	a := types.EntityID("Marie Curie", types.EntityOther)
	b := types.EntityID("Pierre Curie", types.EntityOther)
	if b < a {
		a, b = b, a
	}
	weight, err := e.store.EdgeWeight(ctx, types.EdgeRelatedTo, a, b)
	require.NoError(t, err)
	assert.Equal(t, 3.0, weight, "one co-occurring chunk per document, three documents")
}

func TestIngestEmbeddingFailureIsFatal(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	e.emb.EmbedFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("provider down")
	}

	_, err := e.IngestDocument(ctx, "t", "Some content that would otherwise ingest fine.")
	var derr *types.DependencyError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "embedder", derr.Dependency)

	stats, statsErr := e.Stats(ctx)
	require.NoError(t, statsErr)
	assert.EqualValues(t, 0, stats.Graph.Nodes, "nothing persisted on embedding failure")
}

func TestIngestExtractionFailureDegrades(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	e.ext.ExtractFunc = func(ctx context.Context, text string) ([]extractor.Mention, error) {
		return nil, errors.New("model unavailable")
	}

	text := "Plain factual content with no graph structure."
	result, err := e.IngestDocument(ctx, "t", text)
	require.NoError(t, err, "extraction failure must not fail the ingestion")
	assert.True(t, result.Degraded)
	assert.Equal(t, 0, result.Entities)

	// The document is still reachable through the vector branch.
	e.ext.ExtractFunc = nil
	results, err := e.Search(ctx, text, &types.SearchConfig{
		Mode: types.SearchModeVector, TopK: 1, Alpha: 1, Beta: 0,
		Decay: 0.5, MaxDepth: 1, CandidateMultiplier: 1,
	})
	require.NoError(t, err)
	require.Len(t, results.Results, 1)
	assert.Equal(t, text, results.Results[0].Text)
}

func TestIngestPartialWriteReportsStagesAndResumes(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	e.store.failEdgeType = types.EdgeMentions

	text := "Marie Curie studied radioactivity."
	_, err := e.IngestDocument(ctx, "bio", text)

	var perr *types.PartialWriteError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, types.StageMentionEdges, perr.Failed)
	assert.Equal(t, []types.WriteStage{
		types.StageDocumentNode,
		types.StageVectors,
		types.StageChunkNodes,
		types.StageEntityNodes,
	}, perr.Completed)

	// Retry after the fault clears: the incomplete document is resumed, not
	// skipped, and a further ingest recognizes it as done.
	e.store.failEdgeType = ""
	result, err := e.IngestDocument(ctx, "bio", text)
	require.NoError(t, err)
	assert.False(t, result.Skipped)

	again, err := e.IngestDocument(ctx, "bio", text)
	require.NoError(t, err)
	assert.True(t, again.Skipped)
}

func TestResumeDoesNotRecountEdgeWeights(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	e.store.failEdgeType = types.EdgeRelatedTo

	text := "Marie Curie worked with Pierre Curie."
	_, err := e.IngestDocument(ctx, "bio", text)

	var perr *types.PartialWriteError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, types.StageRelationEdges, perr.Failed)
	assert.Contains(t, perr.Completed, types.StageMentionEdges)

	e.store.failEdgeType = ""
	result, err := e.IngestDocument(ctx, "bio", text)
	require.NoError(t, err)
	assert.False(t, result.Skipped)

	// The mention stage landed before the failure; the resume must skip it
	// rather than add the mention counts a second time.
	chunkID := types.ChunkID(types.NewDocument("bio", text).ID, 0)
	weight, err := e.store.EdgeWeight(ctx, types.EdgeMentions, chunkID,
		types.EntityID("Marie Curie", types.EntityOther))
	require.NoError(t, err)
	assert.Equal(t, 1.0, weight, "one mention in one chunk stays weight 1 across the retry")

	a := types.EntityID("Marie Curie", types.EntityOther)
	b := types.EntityID("Pierre Curie", types.EntityOther)
	if b < a {
		a, b = b, a
	}
	relWeight, err := e.store.EdgeWeight(ctx, types.EdgeRelatedTo, a, b)
	require.NoError(t, err)
	assert.Equal(t, 1.0, relWeight, "the failed stage applies exactly once on retry")
}

func TestIngestManyChunksConcurrentlyWithDefaultMocks(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	e.config.Chunking = chunker.Config{MaxChunkChars: 80, OverlapChars: 10}

	var sb strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&sb, "Sentence number %d mentions Marie Curie and her work. ", i)
	}

	result, err := e.IngestDocument(ctx, "long", sb.String())
	require.NoError(t, err)
	assert.Greater(t, result.Chunks, 4, "the text must split into enough chunks to exercise the pool")
	assert.Equal(t, result.Chunks, e.ext.CallCount(), "one extraction per chunk")
	assert.Equal(t, 1, e.emb.CallCount(), "one batched embedding call")
}

func TestSemanticLinkingJoinsIdenticalChunks(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	shared := "An identical paragraph of text."
	for _, id := range []string{"chunk-a", "chunk-b"} {
		vec, err := e.emb.EmbedSingle(ctx, shared)
		require.NoError(t, err)
		require.NoError(t, e.index.Insert(ctx, id, vec))
		require.NoError(t, e.graph.UpsertNode(ctx, &graphstore.Node{
			ID: id, Label: types.LabelChunk, Key: id,
		}))
	}

	vec, err := e.emb.EmbedSingle(ctx, shared)
	require.NoError(t, err)
	chunk := &types.Chunk{ID: "chunk-a", Vector: vec}
	require.NoError(t, e.linkSemanticNeighbors(ctx, []*types.Chunk{chunk}))

	weight, err := e.graph.EdgeWeight(ctx, types.EdgeRelatedTo, "chunk-a", "chunk-b")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, weight, 1e-6, "identical vectors link at similarity 1.0")
}

func TestVectorSearchExactTextRanksFirst(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	text := "The quick brown fox jumps over the lazy dog."
	_, err := e.IngestDocument(ctx, "fox", text)
	require.NoError(t, err)
	_, err = e.IngestDocument(ctx, "other", "Entirely unrelated material about cooking pasta.")
	require.NoError(t, err)

	results, err := e.Search(ctx, text, &types.SearchConfig{
		Mode: types.SearchModeVector, TopK: 2, Alpha: 1, Beta: 0,
		Decay: 0.5, MaxDepth: 1, CandidateMultiplier: 1,
	})
	require.NoError(t, err)
	require.NotEmpty(t, results.Results)
	assert.Equal(t, text, results.Results[0].Text)
	assert.Equal(t, 1.0, results.Results[0].Score.NormSim)
}

func TestHybridSearchSurfacesConnectedEntities(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	_, err := e.IngestDocument(ctx, "d1", "Marie Curie discovered radium.")
	require.NoError(t, err)
	_, err = e.IngestDocument(ctx, "d2", "Marie Curie founded an institute in Paris.")
	require.NoError(t, err)

	results, err := e.Search(ctx, "Marie Curie", nil)
	require.NoError(t, err)
	require.NotEmpty(t, results.Results)
	assert.False(t, results.Degraded)

	ids := make(map[string]bool)
	for _, r := range results.Results {
		ids[r.ID] = true
		assert.LessOrEqual(t, r.Score.FinalScore, 0.7+0.3+1e-9)
	}
	assert.True(t, ids[types.EntityID("Marie Curie", types.EntityOther)],
		"the queried entity's node is reachable through the graph branch")
}

func TestHybridSearchDegradesWhenGraphFails(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	_, err := e.IngestDocument(ctx, "d1", "Some searchable content about chemistry.")
	require.NoError(t, err)

	e.store.failNeighbors = true

	cfg := types.DefaultSearchConfig()
	_, err = e.Search(ctx, "chemistry", cfg)
	var derr *types.DependencyError
	require.ErrorAs(t, err, &derr, "graph failure fails the query by default")

	cfg.AllowDegraded = true
	results, err := e.Search(ctx, "chemistry", cfg)
	require.NoError(t, err)
	assert.True(t, results.Degraded)
	assert.Equal(t, "graph", results.DegradedBranch)
	assert.NotEmpty(t, results.Results)
}

func TestSearchValidation(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	var verr *types.ValidationError
	_, err := e.Search(ctx, "  ", nil)
	assert.ErrorAs(t, err, &verr)

	_, err = e.Search(ctx, "ok", &types.SearchConfig{Mode: "bogus", TopK: 5})
	assert.ErrorAs(t, err, &verr)
}

func TestDeleteDocumentKeepsSharedEntities(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	first, err := e.IngestDocument(ctx, "d1", "Marie Curie discovered radium.")
	require.NoError(t, err)
	_, err = e.IngestDocument(ctx, "d2", "Marie Curie founded an institute.")
	require.NoError(t, err)

	require.NoError(t, e.DeleteDocument(ctx, first.DocumentID))

	stats, err := e.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.Graph.Documents)
	assert.EqualValues(t, 1, stats.Graph.Chunks)
	assert.EqualValues(t, 1, stats.Graph.Entities, "shared entity survives document deletion")
	assert.Equal(t, 1, stats.Vectors, "deleted document's vectors are gone")

	err = e.DeleteDocument(ctx, first.DocumentID)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestNeighborhood(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	result, err := e.IngestDocument(ctx, "d1", "Marie Curie discovered radium.")
	require.NoError(t, err)

	hood, err := e.Neighborhood(ctx, result.DocumentID, 2)
	require.NoError(t, err)
	assert.Equal(t, result.DocumentID, hood.Center.ID)

	labels := make(map[types.NodeLabel]int)
	for _, n := range hood.Nodes {
		labels[n.Label]++
	}
	assert.Equal(t, 1, labels[types.LabelChunk])
	assert.Equal(t, 1, labels[types.LabelEntity])
	assert.NotEmpty(t, hood.Edges)

	_, err = e.Neighborhood(ctx, "missing", 1)
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = e.Neighborhood(ctx, result.DocumentID, 0)
	var verr *types.ValidationError
	assert.ErrorAs(t, err, &verr)
}
