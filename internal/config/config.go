// Package config provides configuration loading for answerd.
//
// Configuration is loaded from an optional YAML file and overridden by
// environment variables, with hardcoded defaults filling any gaps.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the complete answerd configuration.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Logging     LoggingConfig     `koanf:"logging"`
	Telemetry   TelemetryConfig   `koanf:"telemetry"`
	Embedding   EmbeddingConfig   `koanf:"embedding"`
	VectorStore VectorStoreConfig `koanf:"vectorstore"`
	Qdrant      QdrantConfig      `koanf:"qdrant"`
	Chromem     ChromemConfig     `koanf:"chromem"`
	Chat        ChatConfig        `koanf:"chat"`
	ChatLog     ChatLogConfig     `koanf:"chatlog"`
	NATS        NATSConfig        `koanf:"nats"`
	Ingest      IngestConfig      `koanf:"ingest"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	RateLimit       float64       `koanf:"rate_limit"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// TelemetryConfig holds OpenTelemetry configuration.
type TelemetryConfig struct {
	Enabled     bool    `koanf:"enabled"`
	ServiceName string  `koanf:"service_name"`
	Endpoint    string  `koanf:"endpoint"`
	Protocol    string  `koanf:"protocol"`
	Insecure    bool    `koanf:"insecure"`
	SampleRatio float64 `koanf:"sample_ratio"`
}

// EmbeddingConfig holds the Hugging Face Inference API client configuration.
type EmbeddingConfig struct {
	BaseURL      string        `koanf:"base_url"`
	Model        string        `koanf:"model"`
	APIKey       string        `koanf:"api_key"`
	WaitForModel bool          `koanf:"wait_for_model"`
	Timeout      time.Duration `koanf:"timeout"`
}

// VectorStoreConfig selects and shapes the vector store backend.
type VectorStoreConfig struct {
	Provider       string `koanf:"provider"`
	CollectionName string `koanf:"collection_name"`
	VectorSize     int    `koanf:"vector_size"`
}

// QdrantConfig holds Qdrant gRPC connection configuration.
type QdrantConfig struct {
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	UseTLS bool   `koanf:"use_tls"`
	APIKey string `koanf:"api_key"`
}

// ChromemConfig holds embedded chromem-go configuration.
type ChromemConfig struct {
	Path     string `koanf:"path"`
	Compress bool   `koanf:"compress"`
}

// ChatConfig holds the chat model configuration.
type ChatConfig struct {
	APIKey      string  `koanf:"api_key"`
	Model       string  `koanf:"model"`
	Temperature float64 `koanf:"temperature"`
}

// ChatLogConfig holds the MongoDB chat-log sink configuration.
// An empty URI disables the sink.
type ChatLogConfig struct {
	URI        string `koanf:"uri"`
	Database   string `koanf:"database"`
	Collection string `koanf:"collection"`
}

// NATSConfig holds the optional NATS connection for job lifecycle events.
// An empty URL disables event publishing.
type NATSConfig struct {
	URL string `koanf:"url"`
}

// IngestConfig holds ingestion pipeline configuration.
type IngestConfig struct {
	ChunkSize    int           `koanf:"chunk_size"`
	ChunkOverlap int           `koanf:"chunk_overlap"`
	SearchLimit  int           `koanf:"search_limit"`
	JobTimeout   time.Duration `koanf:"job_timeout"`
	JobTTL       time.Duration `koanf:"job_ttl"`
	MaxBodyBytes int64         `koanf:"max_body_bytes"`
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Server.RateLimit == 0 {
		cfg.Server.RateLimit = 20
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "answerd"
	}
	if cfg.Telemetry.Protocol == "" {
		cfg.Telemetry.Protocol = "http"
	}
	if cfg.Telemetry.SampleRatio == 0 {
		cfg.Telemetry.SampleRatio = 1.0
	}

	if cfg.Embedding.BaseURL == "" {
		cfg.Embedding.BaseURL = "https://api-inference.huggingface.co"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "sentence-transformers/all-MiniLM-L6-v2"
	}
	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = 60 * time.Second
	}

	if cfg.VectorStore.Provider == "" {
		cfg.VectorStore.Provider = "qdrant"
	}
	if cfg.VectorStore.CollectionName == "" {
		cfg.VectorStore.CollectionName = "web_embeddings"
	}
	if cfg.VectorStore.VectorSize == 0 {
		cfg.VectorStore.VectorSize = 384 // all-MiniLM-L6-v2 dimensions
	}

	if cfg.Qdrant.Host == "" {
		cfg.Qdrant.Host = "localhost"
	}
	if cfg.Qdrant.Port == 0 {
		cfg.Qdrant.Port = 6334
	}

	if cfg.Chromem.Path == "" {
		cfg.Chromem.Path = "./data/vectorstore"
	}

	if cfg.Chat.Model == "" {
		cfg.Chat.Model = "gpt-3.5-turbo"
	}
	if cfg.Chat.Temperature == 0 {
		cfg.Chat.Temperature = 0.5
	}

	if cfg.ChatLog.Database == "" {
		cfg.ChatLog.Database = "chatbot"
	}
	if cfg.ChatLog.Collection == "" {
		cfg.ChatLog.Collection = "chat_logs"
	}

	if cfg.Ingest.ChunkSize == 0 {
		cfg.Ingest.ChunkSize = 1000
	}
	if cfg.Ingest.ChunkOverlap == 0 {
		cfg.Ingest.ChunkOverlap = 100
	}
	if cfg.Ingest.SearchLimit == 0 {
		cfg.Ingest.SearchLimit = 5
	}
	if cfg.Ingest.JobTimeout == 0 {
		cfg.Ingest.JobTimeout = 5 * time.Minute
	}
	if cfg.Ingest.JobTTL == 0 {
		cfg.Ingest.JobTTL = time.Hour
	}
	if cfg.Ingest.MaxBodyBytes == 0 {
		cfg.Ingest.MaxBodyBytes = 10 * 1024 * 1024
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	if c.Server.RateLimit < 0 {
		return errors.New("rate limit must not be negative")
	}

	switch c.VectorStore.Provider {
	case "qdrant", "chromem":
	default:
		return fmt.Errorf("unsupported vectorstore provider: %s (supported: qdrant, chromem)", c.VectorStore.Provider)
	}
	if c.VectorStore.VectorSize <= 0 {
		return fmt.Errorf("vector size must be positive, got %d", c.VectorStore.VectorSize)
	}
	if c.VectorStore.CollectionName == "" {
		return errors.New("collection name cannot be empty")
	}

	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		return errors.New("telemetry endpoint required when telemetry is enabled")
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry sample ratio must be in [0, 1], got %f", c.Telemetry.SampleRatio)
	}

	if c.Ingest.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.Ingest.ChunkSize)
	}
	if c.Ingest.ChunkOverlap < 0 || c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		return fmt.Errorf("chunk overlap must be in [0, chunk size), got %d", c.Ingest.ChunkOverlap)
	}
	if c.Ingest.SearchLimit <= 0 {
		return fmt.Errorf("search limit must be positive, got %d", c.Ingest.SearchLimit)
	}

	return nil
}
