package embedder

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerConfig holds circuit breaker settings for model calls.
type BreakerConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	MaxRequests      uint32  `mapstructure:"max_requests"`
	Interval         int     `mapstructure:"interval"` // seconds
	Timeout          int     `mapstructure:"timeout"`  // seconds
	ReadyToTripRatio float64 `mapstructure:"ready_to_trip_ratio"`
}

// DefaultBreakerConfig returns conservative breaker defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         60,
		Timeout:          30,
		ReadyToTripRatio: 0.6,
	}
}

// BreakerClient wraps a Client with circuit breaking so a failing embedding
// backend sheds load fast instead of stalling every ingestion.
type BreakerClient struct {
	client Client
	cb     *gobreaker.CircuitBreaker
}

// WithBreaker wraps the client. When the config is disabled the client is
// returned unwrapped.
func WithBreaker(client Client, cfg BreakerConfig, name string) Client {
	if !cfg.Enabled {
		return client
	}

	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    time.Duration(cfg.Interval) * time.Second,
		Timeout:     time.Duration(cfg.Timeout) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= cfg.ReadyToTripRatio
		},
	}

	return &BreakerClient{
		client: client,
		cb:     gobreaker.NewCircuitBreaker(st),
	}
}

// Embed implements Client.
func (c *BreakerClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	result, err := c.cb.Execute(func() (interface{}, error) {
		return c.client.Embed(ctx, texts)
	})
	if err != nil {
		return nil, err
	}
	return result.([][]float32), nil
}

// EmbedSingle implements Client.
func (c *BreakerClient) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	result, err := c.cb.Execute(func() (interface{}, error) {
		return c.client.EmbedSingle(ctx, text)
	})
	if err != nil {
		return nil, err
	}
	return result.([]float32), nil
}

// Dimensions implements Client.
func (c *BreakerClient) Dimensions() int { return c.client.Dimensions() }

// Close implements Client.
func (c *BreakerClient) Close() error { return c.client.Close() }
