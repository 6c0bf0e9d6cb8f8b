package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/graphfuse/graphfuse"
	"github.com/graphfuse/graphfuse/pkg/server/dto"
)

// IngestHandler handles document ingestion requests
type IngestHandler struct {
	engine graphfuse.Ingestor
}

// NewIngestHandler creates a new ingest handler
func NewIngestHandler(engine graphfuse.Ingestor) *IngestHandler {
	return &IngestHandler{engine: engine}
}

// Ingest handles POST /api/v1/ingest
func (h *IngestHandler) Ingest(c *gin.Context) {
	var req dto.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "invalid_request", Message: err.Error(),
		})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "invalid_request", Message: err.Error(),
		})
		return
	}

	result, err := h.engine.IngestDocument(c.Request.Context(), req.Title, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusCreated
	if result.Skipped {
		status = http.StatusOK
	}
	c.JSON(status, dto.IngestResponse{
		DocumentID: result.DocumentID,
		Skipped:    result.Skipped,
		Chunks:     result.Chunks,
		Entities:   result.Entities,
		Degraded:   result.Degraded,
	})
}

// DeleteDocument handles DELETE /api/v1/documents/:id
func (h *IngestHandler) DeleteDocument(c *gin.Context) {
	if err := h.engine.DeleteDocument(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
