package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apperrors "gradfinder.dev/gradfinder/internal/errors"
	"gradfinder.dev/gradfinder/internal/logger"
)

var _ Completer = (*GeminiClient)(nil)

const defaultGeminiModel = "gemini-2.5-flash"

type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float64
}

type generateFunc func(ctx context.Context, system string, parts []genai.Part) (*genai.GenerateContentResponse, error)

// GeminiClient talks to Gemini directly through the generative-ai-go SDK
// instead of an OpenAI-compatible gateway.
type GeminiClient struct {
	client   *genai.Client
	model    string
	generate generateFunc
	log      *logger.Logger
}

// NewGeminiClient creates the SDK client. With no API key the client is
// returned unconfigured and every Complete call fails with a configuration error.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig, log *logger.Logger) (*GeminiClient, error) {
	g := &GeminiClient{
		model: geminiModelName(cfg.Model),
		log:   log.With("service", "GeminiClient"),
	}
	if cfg.APIKey == "" {
		return g, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	g.client = client

	temp := float32(cfg.Temperature)
	g.generate = func(ctx context.Context, system string, parts []genai.Part) (*genai.GenerateContentResponse, error) {
		model := client.GenerativeModel(g.model)
		if system != "" {
			model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
		}
		if temp > 0 {
			model.SetTemperature(temp)
		}
		return model.GenerateContent(ctx, parts...)
	}
	return g, nil
}

// geminiModelName strips gateway-style vendor prefixes ("google/gemini-2.5-flash").
func geminiModelName(name string) string {
	name = strings.TrimPrefix(name, "google/")
	if name == "" {
		return defaultGeminiModel
	}
	return name
}

func (g *GeminiClient) Configured() bool {
	return g.generate != nil
}

func (g *GeminiClient) Close() {
	if g.client != nil {
		if err := g.client.Close(); err != nil {
			g.log.Warn("Error closing GenAI client", "error", err)
		}
	}
}

func (g *GeminiClient) Complete(ctx context.Context, messages []Message) (string, error) {
	if !g.Configured() {
		return "", apperrors.NewConfiguration(fmt.Errorf("AI API key is not set"))
	}

	var system []string
	var parts []genai.Part
	for _, m := range messages {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		parts = append(parts, genai.Text(m.Content))
	}
	if len(parts) == 0 {
		return "", apperrors.NewInternal(fmt.Errorf("no user content to send"))
	}

	resp, err := g.generate(ctx, strings.Join(system, "\n\n"), parts)
	if err != nil {
		return "", classifyGeminiError(err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		g.log.Warn("Gemini response was empty or had no valid candidates", "model", g.model)
		return "", nil
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		} else {
			g.log.Debug("Skipping non-text Gemini response part", "type", fmt.Sprintf("%T", part))
		}
	}
	return text.String(), nil
}

// classifyGeminiError maps SDK failures onto the shared taxonomy. The SDK
// surfaces REST failures as *googleapi.Error and gRPC ones as status errors.
func classifyGeminiError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusTooManyRequests:
			return apperrors.NewRateLimited()
		case http.StatusPaymentRequired:
			return apperrors.NewQuotaExhausted()
		}
		return apperrors.NewProvider(err)
	}
	if st, ok := status.FromError(err); ok && st.Code() == codes.ResourceExhausted {
		return apperrors.NewRateLimited()
	}
	return apperrors.NewProvider(err)
}
