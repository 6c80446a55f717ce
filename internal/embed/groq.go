// Package embed converts text into fixed-dimension vectors via the Groq
// OpenAI-compatible embeddings endpoint. The same model must be used for
// chunks at ingestion time and queries at answer time.
package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/minber-ai/minber/internal/core"
	"github.com/minber-ai/minber/internal/logger"
	"github.com/minber-ai/minber/internal/retry"
)

const providerName = "groq-embeddings"

// GroqEmbedder implements core.EmbedService against the Groq API.
type GroqEmbedder struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	limiter    *rate.Limiter
	policy     retry.Policy
}

// Options configures a GroqEmbedder.
type Options struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	// RatePerSec and Burst bound outbound calls to the provider's quota.
	RatePerSec float64
	Burst      int
}

// NewGroqEmbedder creates a new embeddings client.
func NewGroqEmbedder(opts Options) *GroqEmbedder {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RatePerSec <= 0 {
		opts.RatePerSec = 10
	}
	if opts.Burst <= 0 {
		opts.Burst = 5
	}
	return &GroqEmbedder{
		apiKey:  opts.APIKey,
		baseURL: opts.BaseURL,
		model:   opts.Model,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSec), opts.Burst),
		policy:  retry.DefaultPolicy(),
	}
}

type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
}

// EmbedText returns the embedding vector for text. Transient provider
// failures are retried with backoff; a non-2xx response or malformed
// payload surfaces as a core.ProviderError.
func (e *GroqEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("embedding rate limiter: %w", err)
	}

	return retry.DoWithResult(ctx, e.policy, func() ([]float32, error) {
		return e.embedOnce(ctx, text)
	})
}

func (e *GroqEmbedder) embedOnce(ctx context.Context, text string) ([]float32, error) {
	reqBody := embeddingRequest{
		Model: e.model,
		Input: text,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding request: %w", err)
	}

	url := e.baseURL + "/embeddings"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, &core.ProviderError{Provider: providerName, Operation: "embed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &core.ProviderError{Provider: providerName, Operation: "embed", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		logger.Error("Embedding provider returned status %d: %s", resp.StatusCode, string(body))
		return nil, &core.ProviderError{
			Provider:  providerName,
			Operation: "embed",
			Status:    resp.StatusCode,
			Err:       fmt.Errorf("unexpected status: %s", string(body)),
		}
	}

	var embResp embeddingResponse
	if err := json.Unmarshal(body, &embResp); err != nil {
		return nil, &core.ProviderError{Provider: providerName, Operation: "embed", Status: resp.StatusCode, Err: fmt.Errorf("malformed payload: %w", err)}
	}
	if len(embResp.Data) == 0 || len(embResp.Data[0].Embedding) == 0 {
		return nil, &core.ProviderError{Provider: providerName, Operation: "embed", Status: resp.StatusCode, Err: fmt.Errorf("response contained no embedding")}
	}

	logger.Debug("Created embedding vector with dimension %d", len(embResp.Data[0].Embedding))
	return embResp.Data[0].Embedding, nil
}
