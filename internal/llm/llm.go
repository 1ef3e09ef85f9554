// Package llm talks to the chat-completion provider that researches programs
// and writes summaries.
package llm

import (
	"context"
	"fmt"
	"time"

	"gradfinder.dev/gradfinder/internal/config"
	"gradfinder.dev/gradfinder/internal/logger"
)

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is one role-tagged chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer sends a conversation to the provider and returns the text of the
// first choice, or "" when the provider returned no choices.
//
// Errors are classified with the internal/errors package: rate limiting and
// quota exhaustion keep their own codes, everything else is a provider error.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
	// Configured reports whether a credential is present. Callers check it
	// before doing any work so a missing key fails fast.
	Configured() bool
}

// New builds the Completer selected by cfg.AIProvider.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (Completer, error) {
	var timeout time.Duration
	if cfg.AITimeoutSeconds > 0 {
		timeout = time.Duration(cfg.AITimeoutSeconds) * time.Second
	}

	switch cfg.AIProvider {
	case config.ProviderOpenAI, "":
		return NewOpenAIClient(OpenAIConfig{
			BaseURL:     cfg.AIBaseURL,
			APIKey:      cfg.AIAPIKey,
			Model:       cfg.AIModel,
			Temperature: cfg.AITemperature,
			Timeout:     timeout,
		}, log), nil
	case config.ProviderGemini:
		g, err := NewGeminiClient(ctx, GeminiConfig{
			APIKey:      cfg.AIAPIKey,
			Model:       cfg.AIModel,
			Temperature: cfg.AITemperature,
		}, log)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unsupported AI provider %q", cfg.AIProvider)
	}
}
