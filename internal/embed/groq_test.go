package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minber-ai/minber/internal/core"
)

func newTestEmbedder(url string) *GroqEmbedder {
	e := NewGroqEmbedder(Options{
		APIKey:     "test-key",
		BaseURL:    url,
		Model:      "nomic-embed-text-v1.5",
		RatePerSec: 1000,
		Burst:      1000,
	})
	// Tests should not sleep between attempts.
	e.policy.InitialInterval = 0
	return e
}

func TestEmbedText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text-v1.5", req.Model)
		assert.Equal(t, "Namaz nedir?", req.Input)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"embedding": []float32{0.1, 0.2, 0.3}, "index": 0},
			},
			"model": req.Model,
		})
	}))
	defer srv.Close()

	vector, err := newTestEmbedder(srv.URL).EmbedText(context.Background(), "Namaz nedir?")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vector)
}

func TestEmbedTextProviderFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestEmbedder(srv.URL).EmbedText(context.Background(), "text")
	require.Error(t, err)
	assert.True(t, core.IsProvider(err))
	// Two retries after the initial attempt.
	assert.Equal(t, int32(3), calls.Load())
}

func TestEmbedTextClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newTestEmbedder(srv.URL).EmbedText(context.Background(), "text")
	require.Error(t, err)
	assert.True(t, core.IsProvider(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestEmbedTextMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": []}`))
	}))
	defer srv.Close()

	_, err := newTestEmbedder(srv.URL).EmbedText(context.Background(), "text")
	require.Error(t, err)
	assert.True(t, core.IsProvider(err))
}
