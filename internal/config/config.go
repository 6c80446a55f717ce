package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/minber-ai/minber/internal/logger"
)

// Config holds all runtime settings for the service. It is built once at
// startup and injected into each component; there is no process-wide
// mutable provider state.
type Config struct {
	// HTTP
	ListenAddr string

	// Groq (OpenAI-compatible) provider
	GroqAPIKey     string
	GroqBaseURL    string
	EmbeddingModel string
	ChatModel      string

	// Milvus
	MilvusHost   string
	MilvusPort   string
	EmbeddingDim int
	UseMockStore bool

	// Retrieval
	MatchThreshold float32
	MatchCount     int

	// Ingestion
	ChunkTargetSize  int
	IngestWorkers    int
	EmbedRatePerSec  float64
	EmbedRateBurst   int
	RequestTimeoutMS int

	// Audit
	AuditDBPath string

	LogLevel string
}

// Load reads configuration from the environment, consulting a .env file
// when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// A missing .env file is fine in containerized deployments.
		logger.Debug("No .env file loaded: %v", err)
	}

	cfg := &Config{
		ListenAddr:       getEnvWithDefault("LISTEN_ADDR", ":8080"),
		GroqAPIKey:       os.Getenv("GROQ_API_KEY"),
		GroqBaseURL:      getEnvWithDefault("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		EmbeddingModel:   getEnvWithDefault("EMBEDDING_MODEL", "nomic-embed-text-v1.5"),
		ChatModel:        getEnvWithDefault("CHAT_MODEL", "llama-3.3-70b-versatile"),
		MilvusHost:       getEnvWithDefault("MILVUS_HOST", "milvus"),
		MilvusPort:       getEnvWithDefault("MILVUS_PORT", "19530"),
		EmbeddingDim:     getEnvIntWithDefault("EMBEDDING_DIM", 768),
		UseMockStore:     getEnvBool("USE_MOCK_STORE"),
		MatchThreshold:   float32(getEnvFloatWithDefault("MATCH_THRESHOLD", 0.7)),
		MatchCount:       getEnvIntWithDefault("MATCH_COUNT", 3),
		ChunkTargetSize:  getEnvIntWithDefault("CHUNK_TARGET_SIZE", 1000),
		IngestWorkers:    getEnvIntWithDefault("INGEST_WORKERS", 4),
		EmbedRatePerSec:  getEnvFloatWithDefault("EMBED_RATE_PER_SEC", 10),
		EmbedRateBurst:   getEnvIntWithDefault("EMBED_RATE_BURST", 5),
		RequestTimeoutMS: getEnvIntWithDefault("REQUEST_TIMEOUT_MS", 30000),
		AuditDBPath:      getEnvWithDefault("AUDIT_DB_PATH", "content_filters.db"),
		LogLevel:         getEnvWithDefault("LOG_LEVEL", "info"),
	}

	if cfg.GroqAPIKey == "" {
		return nil, fmt.Errorf("GROQ_API_KEY environment variable is required")
	}
	if cfg.EmbeddingDim <= 0 {
		return nil, fmt.Errorf("EMBEDDING_DIM must be positive, got %d", cfg.EmbeddingDim)
	}

	return cfg, nil
}

// MilvusAddr returns the host:port address of the Milvus instance.
func (c *Config) MilvusAddr() string {
	return c.MilvusHost + ":" + c.MilvusPort
}

// getEnvWithDefault gets an environment variable or returns a default value.
func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

func getEnvBool(key string) bool {
	value := os.Getenv(key)
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false
	}
	return b
}
