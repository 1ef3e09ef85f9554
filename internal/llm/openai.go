package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "gradfinder.dev/gradfinder/internal/errors"
	"gradfinder.dev/gradfinder/internal/logger"
)

var _ Completer = (*OpenAIClient)(nil)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "google/gemini-2.5-flash"

	// maxErrorBody caps how much of a failed response is kept for logs.
	maxErrorBody = 4096
	// maxResponseBody caps a successful completion; larger bodies fail to decode.
	maxResponseBody = 1 << 20
)

type OpenAIConfig struct {
	// BaseURL of an OpenAI-compatible API; "/chat/completions" is appended.
	BaseURL string
	APIKey  string
	Model   string
	// Temperature is sent as-is; zero is omitted.
	Temperature float64
	// Timeout for one request. Zero leaves the transport defaults in place.
	Timeout time.Duration
}

// OpenAIClient calls an OpenAI-compatible /chat/completions endpoint with a
// bearer credential.
type OpenAIClient struct {
	client      *http.Client
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	log         *logger.Logger
}

type chatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func NewOpenAIClient(cfg OpenAIConfig, log *logger.Logger) *OpenAIClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return &OpenAIClient{
		client:      &http.Client{Timeout: cfg.Timeout},
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		log:         log.With("service", "OpenAIClient"),
	}
}

// WithHTTPClient swaps the underlying HTTP client. Used by tests.
func (c *OpenAIClient) WithHTTPClient(hc *http.Client) *OpenAIClient {
	c.client = hc
	return c
}

func (c *OpenAIClient) Configured() bool {
	return c.apiKey != ""
}

func (c *OpenAIClient) Complete(ctx context.Context, messages []Message) (string, error) {
	if !c.Configured() {
		return "", apperrors.NewConfiguration(fmt.Errorf("AI API key is not set"))
	}

	jsonBody, err := json.Marshal(chatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", apperrors.NewInternal(fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return "", apperrors.NewInternal(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", apperrors.NewProvider(fmt.Errorf("send request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", c.statusError(resp)
	}

	var chatResp chatCompletionResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(&chatResp); err != nil {
		return "", apperrors.NewProvider(fmt.Errorf("decode response: %w", err))
	}
	if len(chatResp.Choices) == 0 {
		c.log.Warn("Chat completion returned no choices", "model", c.model)
		return "", nil
	}
	return chatResp.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) statusError(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return apperrors.NewRateLimited()
	case http.StatusPaymentRequired:
		return apperrors.NewQuotaExhausted()
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	c.log.Error("AI API error", "status", resp.StatusCode, "body", string(body))
	return apperrors.NewProvider(fmt.Errorf("status %d: %s", resp.StatusCode, body))
}
