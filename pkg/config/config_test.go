package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"NEO4J_URI", "GRAPH_DRIVER", "VECTOR_DRIVER", "SERVER_PORT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "memory", cfg.Graph.Driver)
	assert.Equal(t, "memory", cfg.Vector.Driver)
	assert.Equal(t, "mock", cfg.Embedding.Provider)
	assert.Equal(t, 1200, cfg.Chunking.MaxChunkChars)
	assert.Equal(t, 200, cfg.Chunking.OverlapChars)
	assert.InDelta(t, 0.7, cfg.Search.Alpha, 1e-9)
	assert.InDelta(t, 0.3, cfg.Search.Beta, 1e-9)
	assert.Equal(t, 2, cfg.Search.MaxDepth)
	assert.Equal(t, 10, cfg.Search.TopK)
	assert.InDelta(t, 0.85, cfg.Ingestion.SemanticThreshold, 1e-9)
	assert.True(t, cfg.CircuitBreaker.Enabled)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("NEO4J_URI", "bolt://graph.internal:7687")
	t.Setenv("NEO4J_USER", "svc")
	t.Setenv("NEO4J_PASSWORD", "secret")
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("VECTOR_DRIVER", "badger")
	t.Setenv("VECTOR_PATH", "/tmp/vectors")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "neo4j", cfg.Graph.Driver)
	assert.Equal(t, "bolt://graph.internal:7687", cfg.Graph.URI)
	assert.Equal(t, "svc", cfg.Graph.Username)
	assert.Equal(t, "secret", cfg.Graph.Password)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "badger", cfg.Vector.Driver)
	assert.Equal(t, "/tmp/vectors", cfg.Vector.Path)
}

func TestLoadIgnoresMalformedPort(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-port")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}
