package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/graphfuse/graphfuse"
	"github.com/graphfuse/graphfuse/pkg/server/dto"
	"github.com/graphfuse/graphfuse/pkg/types"
)

// RetrieveHandler handles search and graph read requests
type RetrieveHandler struct {
	engine   graphfuse.Querier
	defaults *types.SearchConfig
}

// NewRetrieveHandler creates a new retrieve handler. defaults supplies the
// search parameters a request leaves unset.
func NewRetrieveHandler(engine graphfuse.Querier, defaults *types.SearchConfig) *RetrieveHandler {
	if defaults == nil {
		defaults = types.DefaultSearchConfig()
	}
	return &RetrieveHandler{engine: engine, defaults: defaults}
}

// Search handles POST /api/v1/search
func (h *RetrieveHandler) Search(c *gin.Context) {
	var req dto.SearchRequest
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

	config := h.searchConfig(&req)
	results, err := h.engine.Search(c.Request.Context(), req.Query, config)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// Neighborhood handles GET /api/v1/graph/:id/neighborhood
func (h *RetrieveHandler) Neighborhood(c *gin.Context) {
	depth := 1
	if raw := c.Query("depth"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error: "invalid_request", Message: "depth must be an integer",
			})
			return
		}
		depth = parsed
	}

	hood, err := h.engine.Neighborhood(c.Request.Context(), c.Param("id"), depth)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, hood)
}

// searchConfig merges a request onto the server defaults.
func (h *RetrieveHandler) searchConfig(req *dto.SearchRequest) *types.SearchConfig {
	config := *h.defaults
	if req.Mode != "" {
		config.Mode = types.SearchMode(req.Mode)
	}
	if req.TopK > 0 {
		config.TopK = req.TopK
	}
	if req.Alpha != nil {
		config.Alpha = *req.Alpha
	}
	if req.Beta != nil {
		config.Beta = *req.Beta
	}
	if req.Decay != nil {
		config.Decay = *req.Decay
	}
	if req.MaxDepth > 0 {
		config.MaxDepth = req.MaxDepth
	}
	config.AllowDegraded = req.AllowDegraded
	return &config
}
