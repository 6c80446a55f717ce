// Package llm talks to the Groq OpenAI-compatible chat completion API.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/minber-ai/minber/internal/core"
	"github.com/minber-ai/minber/internal/logger"
	"github.com/minber-ai/minber/internal/retry"
)

const providerName = "groq-chat"

// Generation parameters biased toward conservative, source-grounded
// phrasing.
const (
	defaultTemperature = 0.3
	defaultMaxTokens   = 1000
	defaultTopP        = 0.9
)

// GroqService implements core.ChatService against the Groq API.
type GroqService struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	policy     retry.Policy
}

// NewGroqService creates a new chat completion client.
func NewGroqService(apiKey, baseURL, model string, timeout time.Duration) *GroqService {
	if timeout <= 0 {
		// A generous timeout for LLM responses.
		timeout = 120 * time.Second
	}
	return &GroqService{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		policy: retry.DefaultPolicy(),
	}
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents a request to the chat completion API.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	TopP        float64   `json:"top_p"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		FinishReason string  `json:"finish_reason"`
		Message      Message `json:"message"`
	} `json:"choices"`
	Model string `json:"model"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// Complete sends the assembled system instruction and the raw user
// message to the model and returns the generated text.
func (s *GroqService) Complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	return retry.DoWithResult(ctx, s.policy, func() (string, error) {
		return s.completeOnce(ctx, systemPrompt, userMessage)
	})
}

func (s *GroqService) completeOnce(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	reqBody := ChatRequest{
		Model: s.model,
		Messages: []Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userMessage},
		},
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
		TopP:        defaultTopP,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	url := s.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	logger.Debug("Sending chat completion request to model %s", s.model)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", &core.ProviderError{Provider: providerName, Operation: "chat", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &core.ProviderError{Provider: providerName, Operation: "chat", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if jsonErr := json.Unmarshal(body, &apiErr); jsonErr == nil && apiErr.Error.Message != "" {
			logger.Error("Chat provider error (status %d): %s", resp.StatusCode, apiErr.Error.Message)
			return "", &core.ProviderError{
				Provider:  providerName,
				Operation: "chat",
				Status:    resp.StatusCode,
				Err:       fmt.Errorf("%s", apiErr.Error.Message),
			}
		}
		logger.Error("Chat provider returned status %d: %s", resp.StatusCode, string(body))
		return "", &core.ProviderError{
			Provider:  providerName,
			Operation: "chat",
			Status:    resp.StatusCode,
			Err:       fmt.Errorf("unexpected status: %s", string(body)),
		}
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", &core.ProviderError{Provider: providerName, Operation: "chat", Status: resp.StatusCode, Err: fmt.Errorf("malformed payload: %w", err)}
	}
	if len(chatResp.Choices) == 0 {
		return "", &core.ProviderError{Provider: providerName, Operation: "chat", Status: resp.StatusCode, Err: fmt.Errorf("response contained no choices")}
	}

	if chatResp.Usage.TotalTokens > 0 {
		logger.Debug("Chat usage - prompt: %d, completion: %d, total: %d tokens, finish reason: %s",
			chatResp.Usage.PromptTokens, chatResp.Usage.CompletionTokens,
			chatResp.Usage.TotalTokens, chatResp.Choices[0].FinishReason)
	}

	return chatResp.Choices[0].Message.Content, nil
}
