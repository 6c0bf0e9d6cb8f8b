package embedder

import (
	"context"
	"fmt"
	"math"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient implements Client using the OpenAI embeddings API (or any
// compatible endpoint via BaseURL).
type OpenAIClient struct {
	client *openai.Client
	config Config
}

// NewOpenAIClient creates an OpenAI-backed embedder.
func NewOpenAIClient(config Config) *OpenAIClient {
	if config.Model == "" {
		config.Model = string(openai.SmallEmbedding3)
	}
	if config.Dimensions == 0 {
		switch config.Model {
		case string(openai.LargeEmbedding3):
			config.Dimensions = 3072
		default:
			config.Dimensions = 1536
		}
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}
}

// Embed generates embeddings for the given texts.
func (c *OpenAIClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(c.config.Model),
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d for %d texts", len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		v := make([]float32, len(d.Embedding))
		copy(v, d.Embedding)
		l2Normalize(v)
		vectors[i] = v
	}
	return vectors, nil
}

// EmbedSingle generates an embedding for a single text.
func (c *OpenAIClient) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return vectors[0], nil
}

// Dimensions returns the embedding dimension for the configured model.
func (c *OpenAIClient) Dimensions() int {
	return c.config.Dimensions
}

// Close implements Client. The OpenAI client holds no resources.
func (c *OpenAIClient) Close() error { return nil }

// l2Normalize scales v to unit length in place. Unit vectors make inner
// product equal cosine similarity downstream.
func l2Normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
}
