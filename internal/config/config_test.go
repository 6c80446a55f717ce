package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "test-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.GroqBaseURL)
	assert.Equal(t, "nomic-embed-text-v1.5", cfg.EmbeddingModel)
	assert.Equal(t, "llama-3.3-70b-versatile", cfg.ChatModel)
	assert.Equal(t, "milvus:19530", cfg.MilvusAddr())
	assert.InDelta(t, 0.7, float64(cfg.MatchThreshold), 0.001)
	assert.Equal(t, 3, cfg.MatchCount)
	assert.Equal(t, 1000, cfg.ChunkTargetSize)
	assert.False(t, cfg.UseMockStore)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "test-key")
	t.Setenv("MILVUS_HOST", "localhost")
	t.Setenv("MILVUS_PORT", "29530")
	t.Setenv("MATCH_COUNT", "5")
	t.Setenv("MATCH_THRESHOLD", "0.55")
	t.Setenv("USE_MOCK_STORE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost:29530", cfg.MilvusAddr())
	assert.Equal(t, 5, cfg.MatchCount)
	assert.InDelta(t, 0.55, float64(cfg.MatchThreshold), 0.001)
	assert.True(t, cfg.UseMockStore)
}

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GROQ_API_KEY")
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "test-key")
	t.Setenv("MATCH_COUNT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.MatchCount)
}
