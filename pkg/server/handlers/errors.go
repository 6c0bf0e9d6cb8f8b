// Package handlers implements the HTTP endpoints of the API.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/graphfuse/graphfuse/pkg/server/dto"
	"github.com/graphfuse/graphfuse/pkg/types"
)

// respondError maps engine errors onto HTTP status codes: caller mistakes
// are 4xx, collaborator failures are 502, everything else is 500.
func respondError(c *gin.Context, err error) {
	var (
		verr *types.ValidationError
		derr *types.DependencyError
		perr *types.PartialWriteError
	)
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "invalid_request", Message: verr.Error(),
		})
	case errors.Is(err, types.ErrEmptyDocument):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "empty_document", Message: err.Error(),
		})
	case errors.Is(err, types.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error: "not_found", Message: err.Error(),
		})
	case errors.As(err, &perr):
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error: "partial_write", Message: perr.Error(),
		})
	case errors.As(err, &derr):
		c.JSON(http.StatusBadGateway, dto.ErrorResponse{
			Error: "dependency_failure", Message: derr.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error: "internal_error", Message: err.Error(),
		})
	}
}
