package enrichment

import (
	"context"
	"fmt"

	"jobboard-gateway/internal/config"
	"jobboard-gateway/internal/jobstore"
	"jobboard-gateway/internal/logging"
)

// NewFetcher builds the page fetcher named by cfg.Enrichment.Fetcher
func NewFetcher(cfg *config.Config, limiter *HostLimiter, logger logging.Logger) (Fetcher, error) {
	switch cfg.Enrichment.Fetcher {
	case "", "http":
		return NewHTTPFetcher(cfg, limiter, logger), nil
	case "firecrawl":
		return NewFirecrawlFetcher(cfg, limiter, logger)
	default:
		return nil, fmt.Errorf("unsupported enrichment fetcher: %s", cfg.Enrichment.Fetcher)
	}
}

// NewEnricher wires the LLM manager, fetcher and Service from cfg. When
// enrichment is disabled it returns a NoopEnricher and a nil Manager. A
// provider that fails its startup health check still yields a Service; its
// calls then fail and the store records null/false.
func NewEnricher(ctx context.Context, cfg *config.Config, logger logging.Logger) (jobstore.Enricher, *Manager, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if !cfg.Enrichment.Enabled {
		logger.Info("Enrichment disabled")
		return NoopEnricher{}, nil, nil
	}

	limiter := NewHostLimiter(cfg.Enrichment.RateLimit, logger)
	fetcher, err := NewFetcher(cfg, limiter, logger)
	if err != nil {
		return nil, nil, err
	}

	manager := NewManager(cfg, logger)
	if err := manager.Start(ctx); err != nil {
		return nil, nil, err
	}

	limiter.StartPruning(pruneInterval, pruneIdle)
	service := NewService(manager, fetcher, ServiceOptions{
		RedFlags: cfg.Enrichment.RedFlags,
		Timeout:  cfg.Enrichment.Timeout,
		Limiter:  limiter,
	}, logger)

	logger.Info("Enrichment initialized", map[string]interface{}{
		"provider": manager.ProviderName(),
		"healthy":  manager.IsHealthy(),
		"fetcher":  fetcher.Name(),
	})
	return service, manager, nil
}
