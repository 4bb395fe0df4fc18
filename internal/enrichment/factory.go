package enrichment

import (
	"context"
	"fmt"

	"jobboard-gateway/internal/config"
	"jobboard-gateway/internal/enrichment/providers"
	"jobboard-gateway/internal/logging"
)

// ProviderFactory creates LLM provider instances
type ProviderFactory struct {
	config *config.Config
	logger logging.Logger
}

func NewProviderFactory(cfg *config.Config, logger logging.Logger) *ProviderFactory {
	return &ProviderFactory{config: cfg, logger: logger}
}

// CreateProvider creates an LLM provider based on cfg.LLM.Provider
func (f *ProviderFactory) CreateProvider(ctx context.Context) (Provider, error) {
	switch f.config.LLM.Provider {
	case "claude":
		return providers.NewClaudeProvider(f.config, f.logger), nil
	case "gemini":
		provider, err := providers.NewGeminiProvider(ctx, f.config, f.logger)
		if err != nil {
			return nil, err
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", f.config.LLM.Provider)
	}
}

func (f *ProviderFactory) SupportedProviders() []string {
	return []string{"claude", "gemini"}
}
