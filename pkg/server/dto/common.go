// Package dto defines the HTTP request and response shapes of the API.
package dto

import (
	"errors"
	"strings"
)

// MaxDocumentLength bounds ingested document size to keep a single request
// from monopolizing the pipeline.
const MaxDocumentLength = 5_000_000

// ErrDocumentTooLong is returned when a document exceeds MaxDocumentLength.
var ErrDocumentTooLong = errors.New("document text exceeds maximum length")

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// IngestRequest is the body of POST /api/v1/ingest.
type IngestRequest struct {
	Title string `json:"title"`
	Text  string `json:"text" binding:"required"`
}

// Validate performs validation on IngestRequest
func (r *IngestRequest) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return errors.New("text cannot be empty")
	}
	if len(r.Text) > MaxDocumentLength {
		return ErrDocumentTooLong
	}
	return nil
}

// IngestResponse reports the outcome of one ingestion.
type IngestResponse struct {
	DocumentID string `json:"document_id"`
	Skipped    bool   `json:"skipped"`
	Chunks     int    `json:"chunks"`
	Entities   int    `json:"entities"`
	Degraded   bool   `json:"degraded,omitempty"`
}

// SearchRequest is the body of POST /api/v1/search. Unset numeric fields
// fall back to the server's configured defaults.
type SearchRequest struct {
	Query         string   `json:"query" binding:"required"`
	Mode          string   `json:"mode,omitempty"`
	TopK          int      `json:"top_k,omitempty"`
	Alpha         *float64 `json:"alpha,omitempty"`
	Beta          *float64 `json:"beta,omitempty"`
	Decay         *float64 `json:"decay,omitempty"`
	MaxDepth      int      `json:"max_depth,omitempty"`
	AllowDegraded bool     `json:"allow_degraded,omitempty"`
}

// Validate performs validation on SearchRequest
func (r *SearchRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return errors.New("query cannot be empty")
	}
	return nil
}
