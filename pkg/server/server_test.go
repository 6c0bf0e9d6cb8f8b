package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphfuse/graphfuse"
	"github.com/graphfuse/graphfuse/pkg/config"
	"github.com/graphfuse/graphfuse/pkg/embedder"
	"github.com/graphfuse/graphfuse/pkg/extractor"
	"github.com/graphfuse/graphfuse/pkg/graphstore"
	"github.com/graphfuse/graphfuse/pkg/server/dto"
	"github.com/graphfuse/graphfuse/pkg/types"
	"github.com/graphfuse/graphfuse/pkg/vectorindex"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	engineConfig := graphfuse.DefaultConfig()
	engineConfig.Workers = 2
	engine, err := graphfuse.New(
		graphstore.NewMemoryStore(),
		vectorindex.NewMemoryIndex(),
		embedder.NewMockClient(64),
		extractor.NewMockClient(),
		engineConfig,
		nil,
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close(context.Background()) })

	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.Server.Mode = "test"

	srv := New(cfg, engine)
	srv.Setup()
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func ingestDocument(t *testing.T, srv *Server, title, text string) dto.IngestResponse {
	t.Helper()
	w := doJSON(t, srv, http.MethodPost, "/api/v1/ingest", dto.IngestRequest{Title: title, Text: text})
	require.Contains(t, []int{http.StatusCreated, http.StatusOK}, w.Code, w.Body.String())

	var resp dto.IngestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestIngestEndpoint(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, http.MethodPost, "/api/v1/ingest",
		dto.IngestRequest{Title: "bio", Text: "Marie Curie discovered radium."})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp dto.IngestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.DocumentID)
	assert.False(t, resp.Skipped)
	assert.Equal(t, 1, resp.Chunks)

	// Identical content is a recognized no-op, reported with 200.
	w = doJSON(t, srv, http.MethodPost, "/api/v1/ingest",
		dto.IngestRequest{Title: "bio", Text: "Marie Curie discovered radium."})
	assert.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Skipped)
}

func TestIngestEndpointRejectsEmptyText(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, http.MethodPost, "/api/v1/ingest", map[string]string{"title": "t"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, srv, http.MethodPost, "/api/v1/ingest", map[string]string{"text": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchEndpoint(t *testing.T) {
	srv := newTestServer(t)
	ingestDocument(t, srv, "bio", "Marie Curie discovered radium in Paris.")

	w := doJSON(t, srv, http.MethodPost, "/api/v1/search",
		dto.SearchRequest{Query: "Marie Curie", TopK: 5})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var results types.SearchResults
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))
	assert.Equal(t, types.SearchModeHybrid, results.Mode)
	assert.NotEmpty(t, results.Results)
}

func TestSearchEndpointRejectsInvalidMode(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, http.MethodPost, "/api/v1/search",
		dto.SearchRequest{Query: "anything", Mode: "psychic"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "invalid_request", resp.Error)
}

func TestNeighborhoodEndpoint(t *testing.T) {
	srv := newTestServer(t)
	doc := ingestDocument(t, srv, "bio", "Marie Curie discovered radium.")

	w := doJSON(t, srv, http.MethodGet, "/api/v1/graph/"+doc.DocumentID+"/neighborhood?depth=2", nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var hood graphfuse.Neighborhood
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hood))
	assert.Equal(t, doc.DocumentID, hood.Center.ID)
	assert.NotEmpty(t, hood.Nodes)

	w = doJSON(t, srv, http.MethodGet, "/api/v1/graph/no-such-node/neighborhood", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteDocumentEndpoint(t *testing.T) {
	srv := newTestServer(t)
	doc := ingestDocument(t, srv, "bio", "Marie Curie discovered radium.")

	w := doJSON(t, srv, http.MethodDelete, "/api/v1/documents/"+doc.DocumentID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, srv, http.MethodDelete, "/api/v1/documents/"+doc.DocumentID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthAndStatsEndpoints(t *testing.T) {
	srv := newTestServer(t)
	ingestDocument(t, srv, "bio", "Marie Curie discovered radium.")

	w := doJSON(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, srv, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, srv, http.MethodGet, "/api/v1/stats", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var stats graphfuse.EngineStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.EqualValues(t, 1, stats.Graph.Documents)
	assert.Equal(t, 1, stats.Vectors)
}
