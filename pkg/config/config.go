// Package config loads the engine configuration from file and environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Log configuration
	Log LogConfig `mapstructure:"log"`

	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Graph store configuration
	Graph GraphConfig `mapstructure:"graph"`

	// Vector index configuration
	Vector VectorConfig `mapstructure:"vector"`

	// Embedding configuration
	Embedding EmbeddingConfig `mapstructure:"embedding"`

	// Extractor configuration
	Extractor ExtractorConfig `mapstructure:"extractor"`

	// Chunking configuration
	Chunking ChunkingConfig `mapstructure:"chunking"`

	// Search defaults applied when a request leaves fields unset
	Search SearchConfig `mapstructure:"search"`

	// Ingestion pipeline configuration
	Ingestion IngestionConfig `mapstructure:"ingestion"`

	// Telemetry configuration
	Telemetry TelemetryConfig `mapstructure:"telemetry"`

	// CircuitBreaker configuration for the embedding provider
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

// GraphConfig holds graph store configuration
type GraphConfig struct {
	Driver   string `mapstructure:"driver"` // memory, neo4j
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// VectorConfig holds vector index configuration
type VectorConfig struct {
	Driver string `mapstructure:"driver"` // memory, badger
	Path   string `mapstructure:"path"`
}

// EmbeddingConfig holds embedding provider configuration
type EmbeddingConfig struct {
	Provider   string `mapstructure:"provider"` // openai, mock
	Model      string `mapstructure:"model"`
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	Dimensions int    `mapstructure:"dimensions"`
}

// ExtractorConfig holds entity extraction configuration
type ExtractorConfig struct {
	Provider         string `mapstructure:"provider"` // openai, mock
	Model            string `mapstructure:"model"`
	APIKey           string `mapstructure:"api_key"`
	BaseURL          string `mapstructure:"base_url"`
	MinMentionLength int    `mapstructure:"min_mention_length"`
}

// ChunkingConfig holds text splitting configuration
type ChunkingConfig struct {
	MaxChunkChars int `mapstructure:"max_chunk_chars"`
	OverlapChars  int `mapstructure:"overlap_chars"`
}

// SearchConfig holds server-side search defaults
type SearchConfig struct {
	Alpha               float64 `mapstructure:"alpha"`
	Beta                float64 `mapstructure:"beta"`
	Decay               float64 `mapstructure:"decay"`
	MaxDepth            int     `mapstructure:"max_depth"`
	TopK                int     `mapstructure:"top_k"`
	CandidateMultiplier int     `mapstructure:"candidate_multiplier"`
}

// IngestionConfig holds pipeline concurrency and linking thresholds
type IngestionConfig struct {
	// Workers sizes the embedding and extraction worker pools.
	Workers int `mapstructure:"workers"`
	// SemanticThreshold is the cosine similarity above which two chunks
	// get a RELATED_TO edge. Zero disables semantic linking.
	SemanticThreshold float64 `mapstructure:"semantic_threshold"`
}

// TelemetryConfig holds telemetry configuration
type TelemetryConfig struct {
	ParquetPath string `mapstructure:"parquet_path"`
}

// CircuitBreakerConfig holds configuration for circuit breaking
type CircuitBreakerConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	MaxRequests      uint32  `mapstructure:"max_requests"`
	Interval         int     `mapstructure:"interval"` // in seconds
	Timeout          int     `mapstructure:"timeout"`  // in seconds
	ReadyToTripRatio float64 `mapstructure:"ready_to_trip_ratio"`
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	// Set defaults
	setDefaults()

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Override with environment variables if present
	overrideWithEnv(config)

	return config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")

	// Server defaults
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")

	// Graph defaults
	viper.SetDefault("graph.driver", "memory")
	viper.SetDefault("graph.uri", "bolt://localhost:7687")
	viper.SetDefault("graph.username", "neo4j")
	viper.SetDefault("graph.password", "")
	viper.SetDefault("graph.database", "")

	// Vector defaults
	viper.SetDefault("vector.driver", "memory")
	viper.SetDefault("vector.path", "./graphfuse_vectors")

	// Embedding defaults
	viper.SetDefault("embedding.provider", "mock")
	viper.SetDefault("embedding.model", "text-embedding-3-small")
	viper.SetDefault("embedding.dimensions", 0)

	// Extractor defaults
	viper.SetDefault("extractor.provider", "mock")
	viper.SetDefault("extractor.model", "gpt-4o-mini")
	viper.SetDefault("extractor.min_mention_length", 2)

	// Chunking defaults
	viper.SetDefault("chunking.max_chunk_chars", 1200)
	viper.SetDefault("chunking.overlap_chars", 200)

	// Search defaults
	viper.SetDefault("search.alpha", 0.7)
	viper.SetDefault("search.beta", 0.3)
	viper.SetDefault("search.decay", 0.5)
	viper.SetDefault("search.max_depth", 2)
	viper.SetDefault("search.top_k", 10)
	viper.SetDefault("search.candidate_multiplier", 3)

	// Ingestion defaults
	viper.SetDefault("ingestion.workers", 4)
	viper.SetDefault("ingestion.semantic_threshold", 0.85)

	// Circuit breaker defaults
	viper.SetDefault("circuit_breaker.enabled", true)
	viper.SetDefault("circuit_breaker.max_requests", 1)
	viper.SetDefault("circuit_breaker.interval", 60)
	viper.SetDefault("circuit_breaker.timeout", 30)
	viper.SetDefault("circuit_breaker.ready_to_trip_ratio", 0.6)

	// Telemetry defaults
	home, err := os.UserHomeDir()
	if err == nil {
		defaultPath := fmt.Sprintf("%s/.graphfuse/telemetry", home)
		viper.SetDefault("telemetry.parquet_path", defaultPath)
	}
}

// overrideWithEnv overrides config with environment variables
func overrideWithEnv(config *Config) {
	// Provider credentials
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.Embedding.APIKey = apiKey
		config.Extractor.APIKey = apiKey
	}

	// Graph store credentials
	if uri := os.Getenv("NEO4J_URI"); uri != "" {
		config.Graph.Driver = "neo4j"
		config.Graph.URI = uri
	}
	if user := os.Getenv("NEO4J_USER"); user != "" {
		config.Graph.Username = user
	}
	if pass := os.Getenv("NEO4J_PASSWORD"); pass != "" {
		config.Graph.Password = pass
	}

	// Generic store settings
	if driver := os.Getenv("GRAPH_DRIVER"); driver != "" {
		config.Graph.Driver = driver
	}
	if driver := os.Getenv("VECTOR_DRIVER"); driver != "" {
		config.Vector.Driver = driver
	}
	if path := os.Getenv("VECTOR_PATH"); path != "" {
		config.Vector.Path = path
	}

	// Server settings
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	// Telemetry settings
	if path := os.Getenv("TELEMETRY_PARQUET_PATH"); path != "" {
		config.Telemetry.ParquetPath = path
	}
}
