package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"jobboard-gateway/internal/config"
	"jobboard-gateway/internal/enrichment"
	"jobboard-gateway/internal/health"
	"jobboard-gateway/internal/jobstore"
	"jobboard-gateway/internal/logging"
	"jobboard-gateway/internal/storage"
)

// App holds the long-lived services shared by the server and the CLI
type App struct {
	Config   *config.Config
	Logger   logging.Logger
	Backend  jobstore.Backend
	Store    *jobstore.Store
	Enricher jobstore.Enricher
	LLM      *enrichment.Manager
	Health   *health.Checker
}

// Options tweak what Build wires
type Options struct {
	Version string
	// DisableEnrichment forces a NoopEnricher regardless of configuration
	DisableEnrichment bool
}

// Build creates the store backend, the enrichment service and the job store
func Build(ctx context.Context, cfg *config.Config, logger logging.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	backend, err := storage.New(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	var (
		enricher jobstore.Enricher = enrichment.NoopEnricher{}
		manager  *enrichment.Manager
	)
	if !opts.DisableEnrichment {
		enricher, manager, err = enrichment.NewEnricher(ctx, cfg, logger)
		if err != nil {
			closeBackend(backend, logger)
			return nil, fmt.Errorf("failed to initialize enrichment: %w", err)
		}
	}

	store := storage.NewStore(backend, enricher, cfg, logger)

	checker := health.NewChecker(opts.Version, 5*time.Second)
	checker.Register("store", true, store.Ping)
	if manager != nil {
		// A healthy provider is not re-probed; an unhealthy one is retried so it
		// can recover without a restart.
		checker.Register("llm", false, func(ctx context.Context) error {
			if manager.IsHealthy() {
				return nil
			}
			if err := manager.CheckHealth(ctx); err != nil {
				return fmt.Errorf("%s provider unavailable", manager.ProviderName())
			}
			return nil
		})
	}

	return &App{
		Config:   cfg,
		Logger:   logger,
		Backend:  backend,
		Store:    store,
		Enricher: enricher,
		LLM:      manager,
		Health:   checker,
	}, nil
}

// Close releases the LLM manager, the enrichment service and any backend connection
func (a *App) Close() {
	if a.LLM != nil {
		if err := a.LLM.Stop(); err != nil {
			a.Logger.Error("Error stopping LLM manager", map[string]interface{}{"error": err.Error()})
		}
	}
	if c, ok := a.Enricher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			a.Logger.Error("Error stopping enrichment", map[string]interface{}{"error": err.Error()})
		}
	}
	closeBackend(a.Backend, a.Logger)
}

func closeBackend(backend jobstore.Backend, logger logging.Logger) {
	if c, ok := backend.(io.Closer); ok {
		if err := c.Close(); err != nil {
			logger.Error("Error closing store backend", map[string]interface{}{"error": err.Error()})
		}
	}
}
