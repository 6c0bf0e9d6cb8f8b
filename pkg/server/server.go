// Package server exposes the engine over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/graphfuse/graphfuse"
	"github.com/graphfuse/graphfuse/pkg/config"
	"github.com/graphfuse/graphfuse/pkg/server/handlers"
	"github.com/graphfuse/graphfuse/pkg/types"
)

// Server represents the HTTP server
type Server struct {
	config *config.Config
	router *gin.Engine
	engine *graphfuse.Engine
	server *http.Server
}

// New creates a new server instance
func New(cfg *config.Config, engine *graphfuse.Engine) *Server {
	return &Server{
		config: cfg,
		engine: engine,
	}
}

// Setup sets up the server routes and middleware
func (s *Server) Setup() {
	// Set gin mode
	gin.SetMode(s.config.Server.Mode)

	// Create router
	s.router = gin.New()

	// Add middleware
	s.router.Use(gin.Logger())
	s.router.Use(gin.Recovery())
	s.router.Use(corsMiddleware())
	s.router.Use(contextMiddleware())

	// Setup routes
	s.setupRoutes()

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
}

// setupRoutes sets up all the routes
func (s *Server) setupRoutes() {
	searchDefaults := &types.SearchConfig{
		Mode:                types.SearchModeHybrid,
		TopK:                s.config.Search.TopK,
		Alpha:               s.config.Search.Alpha,
		Beta:                s.config.Search.Beta,
		Decay:               s.config.Search.Decay,
		MaxDepth:            s.config.Search.MaxDepth,
		CandidateMultiplier: s.config.Search.CandidateMultiplier,
	}

	healthHandler := handlers.NewHealthHandler(s.engine)
	ingestHandler := handlers.NewIngestHandler(s.engine)
	retrieveHandler := handlers.NewRetrieveHandler(s.engine, searchDefaults)

	// Health endpoints
	s.router.GET("/health", healthHandler.HealthCheck)
	s.router.GET("/ready", healthHandler.ReadinessCheck)
	s.router.GET("/live", healthHandler.HealthCheck) // Kubernetes liveness probe

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/ingest", ingestHandler.Ingest)
		v1.DELETE("/documents/:id", ingestHandler.DeleteDocument)
		v1.POST("/search", retrieveHandler.Search)
		v1.GET("/graph/:id/neighborhood", retrieveHandler.Neighborhood)
		v1.GET("/stats", healthHandler.Stats)
	}
}

// Router returns the configured router, for tests and embedding.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the server
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the server gracefully
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// contextMiddleware attaches request identity to the context
func contextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		ctx = context.WithValue(ctx, types.ContextKeyRequestID, requestID)
		ctx = context.WithValue(ctx, types.ContextKeyRequestSource, "server")

		c.Header("X-Request-ID", requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
