package storage

import (
	"context"
	"fmt"

	"jobboard-gateway/internal/config"
	"jobboard-gateway/internal/jobstore"
	"jobboard-gateway/internal/logging"
	"jobboard-gateway/internal/storage/githubfs"
	"jobboard-gateway/internal/storage/redisblob"
	"jobboard-gateway/internal/storage/spaces"
)

// New builds the backend named by cfg.Store.Backend and probes it once. An
// unreachable backend is logged, not fatal, so the service can still start
// and report itself unready.
func New(ctx context.Context, cfg *config.Config, logger logging.Logger) (jobstore.Backend, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	var (
		backend jobstore.Backend
		err     error
	)
	switch cfg.Store.Backend {
	case config.BackendGitHub:
		backend, err = githubfs.New(cfg, logger)
	case config.BackendSpaces:
		backend, err = spaces.New(cfg, logger)
	case config.BackendRedis:
		backend, err = redisblob.New(cfg, logger)
	case config.BackendMemory:
		backend = jobstore.NewMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported store backend: %q", cfg.Store.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s backend: %w", cfg.Store.Backend, err)
	}

	if p, ok := backend.(jobstore.Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			logger.Warn("Store backend is not reachable yet", map[string]interface{}{
				"backend": backend.Name(),
				"error":   err.Error(),
			})
		}
	}

	logger.Info("Store backend initialized", map[string]interface{}{
		"backend": backend.Name(),
		"path":    cfg.Store.Path,
	})
	return backend, nil
}

// NewStore wires a jobstore.Store with the retry settings from cfg
func NewStore(backend jobstore.Backend, enricher jobstore.Enricher, cfg *config.Config, logger logging.Logger) *jobstore.Store {
	return jobstore.New(backend, enricher, jobstore.Options{
		Path:         cfg.Store.Path,
		MaxAttempts:  cfg.Store.MaxAttempts,
		RetryBackoff: cfg.Store.RetryBackoff,
	}, logger)
}
