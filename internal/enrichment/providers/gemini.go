package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"

	"jobboard-gateway/internal/config"
	"jobboard-gateway/internal/logging"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiProvider completes prompts with Google Gemini through langchaingo
type GeminiProvider struct {
	model       llms.Model
	maxTokens   int
	temperature float64
	logger      logging.Logger
}

func NewGeminiProvider(ctx context.Context, cfg *config.Config, logger logging.Logger) (*GeminiProvider, error) {
	if cfg.LLM.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key not configured - set LLM_API_KEY environment variable")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	modelName := cfg.LLM.Model
	if modelName == "" {
		modelName = defaultGeminiModel
	}

	model, err := googleai.New(ctx,
		googleai.WithAPIKey(cfg.LLM.APIKey),
		googleai.WithDefaultModel(modelName),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return NewGeminiProviderWithModel(model, cfg.LLM.MaxTokens, float64(cfg.LLM.Temperature), logger), nil
}

// NewGeminiProviderWithModel wraps any langchaingo model
func NewGeminiProviderWithModel(model llms.Model, maxTokens int, temperature float64, logger logging.Logger) *GeminiProvider {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &GeminiProvider{
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		logger:      logger.WithField("provider", "gemini"),
	}
}

func (g *GeminiProvider) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := llms.GenerateFromSinglePrompt(ctx, g.model, prompt,
		llms.WithMaxTokens(g.maxTokens),
		llms.WithTemperature(g.temperature),
	)
	if err != nil {
		return "", fmt.Errorf("failed to call Gemini API: %w", err)
	}

	resp = strings.TrimSpace(resp)
	if resp == "" {
		return "", fmt.Errorf("empty response from Gemini")
	}
	return resp, nil
}

func (g *GeminiProvider) IsHealthy(ctx context.Context) error {
	if _, err := llms.GenerateFromSinglePrompt(ctx, g.model, "Hello", llms.WithMaxTokens(16)); err != nil {
		return fmt.Errorf("Gemini API health check failed: %w", err)
	}
	return nil
}

func (g *GeminiProvider) Name() string {
	return "gemini"
}
