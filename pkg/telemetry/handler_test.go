package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphfuse/graphfuse/pkg/types"
)

func newTestHandler(t *testing.T) (*ParquetHandler, *bytes.Buffer, string) {
	t.Helper()
	dir := t.TempDir()
	var buf bytes.Buffer
	next := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	h, err := NewParquetHandler(next, dir)
	require.NoError(t, err)
	return h, &buf, dir
}

func TestHandlerForwardsAllLevels(t *testing.T) {
	h, buf, _ := newTestHandler(t)
	log := slog.New(h)

	log.Info("ingestion started", "document_id", "d1")
	assert.Contains(t, buf.String(), "ingestion started")
}

func TestHandlerBuffersOnlyErrors(t *testing.T) {
	h, _, dir := newTestHandler(t)
	log := slog.New(h)

	ctx := context.WithValue(context.Background(), types.ContextKeyRequestID, "req-42")
	log.InfoContext(ctx, "not persisted")
	log.ErrorContext(ctx, "embedding failed", "document_id", "d1")

	require.NoError(t, h.Flush())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	rows, err := parquet.ReadFile[LogRecord](filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "embedding failed", rows[0].Message)
	assert.Equal(t, "req-42", rows[0].RequestID)
	assert.Contains(t, rows[0].Attributes, "d1")
}

func TestFlushEmptyBufferWritesNothing(t *testing.T) {
	h, _, dir := newTestHandler(t)
	require.NoError(t, h.Flush())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
