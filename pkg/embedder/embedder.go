// Package embedder provides text embedding clients.
//
// The Client interface is the engine's only view of the embedding model: a
// black-box function from text to a fixed-dimension vector. Implementations
// must be deterministic for identical input so that re-ingestion stays
// idempotent, and safe for concurrent use.
package embedder

import "context"

// Client generates dense vector embeddings for text.
type Client interface {
	// Embed generates embeddings for the given texts, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedSingle generates an embedding for a single text.
	EmbedSingle(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the fixed dimension of produced vectors.
	Dimensions() int

	// Close releases resources held by the client.
	Close() error
}

// Config holds settings shared by embedding providers.
type Config struct {
	Provider   string `mapstructure:"provider"`
	Model      string `mapstructure:"model"`
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	Dimensions int    `mapstructure:"dimensions"`
}
