package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minber-ai/minber/internal/answer"
	"github.com/minber-ai/minber/internal/ingest"
	"github.com/minber-ai/minber/internal/rag"
)

type fixedEmbedder struct{}

func (fixedEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

type fixedChat struct{}

func (fixedChat) Complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	return "Namaz günde beş vakittir. Allah daha iyi bilir.", nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *rag.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := rag.NewMemoryStore()
	pipeline := ingest.NewPipeline(fixedEmbedder{}, store, 100, 2)
	orchestrator := answer.NewOrchestrator(fixedEmbedder{}, store, fixedChat{}, nil, 0.7, 3)

	return NewRouter(NewHandler(pipeline, orchestrator, store)), store
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIngestEndpoint(t *testing.T) {
	router, store := newTestRouter(t)

	text := strings.Repeat("Namaz İslam'ın beş şartından biridir ve günde beş vakit olarak kılınması farzdır. ", 3)
	w := doJSON(t, router, http.MethodPost, "/api/v1/ingest", map[string]string{
		"documentText": text,
		"documentName": "ilmihal",
	})

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success         bool   `json:"success"`
		DocumentName    string `json:"document_name"`
		ChunksProcessed int    `json:"chunks_processed"`
		TotalChunks     int    `json:"total_chunks"`
		Message         string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "ilmihal", resp.DocumentName)
	assert.Equal(t, resp.TotalChunks, resp.ChunksProcessed)
	assert.Positive(t, resp.TotalChunks)
	assert.Contains(t, resp.Message, "başarıyla işlendi")
	assert.Equal(t, resp.TotalChunks, store.Len())
}

func TestIngestEndpointValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/ingest", map[string]string{
		"documentText": "",
		"documentName": "ilmihal",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Error)
}

func TestAskEndpoint(t *testing.T) {
	router, store := newTestRouter(t)

	// Seed two chunks of one document above the threshold.
	seed := strings.Repeat("Namaz vakitleri güneşin gökyüzündeki konumuna göre belirlenir ve beş vakittir burada. ", 3)
	w := doJSON(t, router, http.MethodPost, "/api/v1/ingest", map[string]string{
		"documentText": seed,
		"documentName": "İlmihal",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Positive(t, store.Len())

	w = doJSON(t, router, http.MethodPost, "/api/v1/ask", map[string]string{
		"message": "Sabah duaları nelerdir?",
		"userId":  "user-1",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Response string   `json:"response"`
		Blocked  bool     `json:"blocked"`
		Sources  []string `json:"sources"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Blocked)
	assert.Contains(t, resp.Response, "Namaz")
	assert.Equal(t, []string{"İlmihal"}, resp.Sources)
}

func TestAskEndpointBlocked(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/ask", map[string]string{
		"message": "What's the weather today?",
		"userId":  "user-1",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Response string `json:"response"`
		Blocked  bool   `json:"blocked"`
		Reason   string `json:"reason"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Blocked)
	assert.Equal(t, "non_religious_content", resp.Reason)
}

func TestAskEndpointValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/ask", map[string]string{
		"message": "Namaz nedir?",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDocumentsEndpoint(t *testing.T) {
	router, store := newTestRouter(t)

	seed := strings.Repeat("Oruç Ramazan ayında imsak ile iftar arasında tutulan farz bir ibadettir elbette. ", 3)
	w := doJSON(t, router, http.MethodPost, "/api/v1/ingest", map[string]string{
		"documentText": seed,
		"documentName": "Oruç Rehberi",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Positive(t, store.Len())

	w = doJSON(t, router, http.MethodGet, "/api/v1/documents", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Documents []string `json:"documents"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"Oruç Rehberi"}, resp.Documents)
}

func TestCORSHeadersAndPreflight(t *testing.T) {
	router, _ := newTestRouter(t)

	// Preflight no-op.
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/ask", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	// Regular responses carry the headers too.
	w = doJSON(t, router, http.MethodPost, "/api/v1/ask", map[string]string{
		"message": "Namaz nedir?",
		"userId":  "user-1",
	})
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Headers"))
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)
	w := doJSON(t, router, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
