package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/expensedecoder/api/config"
	"github.com/expensedecoder/api/utils"
)

// ============================================================================
// AI GATEWAY SERVICE - OpenAI-compatible chat completions
// ============================================================================

var (
	ErrRateLimited       = errors.New("ai gateway rate limit exceeded")
	ErrPaymentRequired   = errors.New("ai gateway payment required")
	ErrMalformedResponse = errors.New("malformed ai gateway response")
	ErrGatewayKeyMissing = errors.New("AI_GATEWAY_API_KEY is not configured")
)

// GatewayError is a non-2xx reply from the gateway. 429 and 402 unwrap to
// ErrRateLimited and ErrPaymentRequired.
type GatewayError struct {
	StatusCode int
	Body       string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("AI Gateway error: %d", e.StatusCode)
}

func (e *GatewayError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusPaymentRequired:
		return ErrPaymentRequired
	}
	return nil
}

type AIGatewayService struct {
	apiKey      string
	url         string
	model       string
	temperature float64
	httpClient  *http.Client
}

type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func NewAIGatewayService(cfg *config.Config) *AIGatewayService {
	timeout := cfg.AITimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &AIGatewayService{
		apiKey:      cfg.AIGatewayAPIKey,
		url:         cfg.AIGatewayURL,
		model:       cfg.AIModel,
		temperature: cfg.AITemperature,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// Complete sends a system and a user message and returns the first choice's
// content.
func (s *AIGatewayService) Complete(ctx context.Context, system, prompt string) (string, error) {
	if s.apiKey == "" {
		return "", ErrGatewayKeyMissing
	}

	requestBody := ChatRequest{
		Model: s.model,
		Messages: []ChatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Temperature: s.temperature,
	}

	return s.executeRequest(ctx, requestBody)
}

// ============================================================================
// HELPER: EXECUTE REQUEST
// ============================================================================

func (s *AIGatewayService) executeRequest(ctx context.Context, requestBody ChatRequest) (string, error) {
	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		utils.SafeError("[AI Gateway] Status %d", resp.StatusCode)
		utils.SafeDebug("[AI Gateway] Body: %s", truncate(string(body), 500))
		return "", &GatewayError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrMalformedResponse)
	}

	utils.SafeInfo("[AI Gateway] Model: %s | Tokens: In %d / Out %d",
		chatResp.Model,
		chatResp.Usage.PromptTokens,
		chatResp.Usage.CompletionTokens,
	)

	return chatResp.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
