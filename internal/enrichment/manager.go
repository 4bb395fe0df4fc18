package enrichment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"jobboard-gateway/internal/config"
	"jobboard-gateway/internal/logging"
)

// Manager owns the LLM provider and tracks whether it is usable
type Manager struct {
	factory  *ProviderFactory
	provider Provider
	timeout  time.Duration
	logger   logging.Logger
	mu       sync.RWMutex
	healthy  bool
}

func NewManager(cfg *config.Config, logger logging.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Manager{
		factory: NewProviderFactory(cfg, logger),
		timeout: cfg.LLM.Timeout,
		logger:  logger.WithField("component", "llm_manager"),
	}
}

// NewManagerWithProvider wraps an already constructed provider
func NewManagerWithProvider(provider Provider, timeout time.Duration, logger logging.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Manager{
		provider: provider,
		timeout:  timeout,
		logger:   logger.WithField("component", "llm_manager"),
	}
}

// Start creates the provider (unless one was injected) and probes it. A
// failing probe disables LLM features but is not an error, so the server
// can start without them.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.provider == nil {
		provider, err := m.factory.CreateProvider(ctx)
		if err != nil {
			return fmt.Errorf("failed to create LLM provider: %w", err)
		}
		m.provider = provider
	}

	checkCtx, cancel := m.withTimeout(ctx)
	defer cancel()

	if err := m.provider.IsHealthy(checkCtx); err != nil {
		m.logger.Warn("LLM provider health check failed - LLM features will be disabled", map[string]interface{}{
			"provider": m.provider.Name(),
			"error":    err.Error(),
		})
		m.healthy = false
		return nil
	}

	m.healthy = true
	m.logger.Info("LLM manager started successfully", map[string]interface{}{"provider": m.provider.Name()})
	return nil
}

func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.Info("Stopping LLM manager")
	m.provider = nil
	m.healthy = false
	return nil
}

// Complete forwards prompt to the provider when it is healthy
func (m *Manager) Complete(ctx context.Context, prompt string) (string, error) {
	m.mu.RLock()
	provider := m.provider
	healthy := m.healthy
	m.mu.RUnlock()

	if provider == nil {
		return "", fmt.Errorf("LLM manager not started or provider not available")
	}
	if !healthy {
		return "", fmt.Errorf("LLM provider is not available - check API key configuration (set LLM_API_KEY environment variable)")
	}

	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	return provider.Complete(ctx, prompt)
}

func (m *Manager) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.healthy && m.provider != nil
}

func (m *Manager) ProviderName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.provider != nil {
		return m.provider.Name()
	}
	return "none"
}

// CheckHealth re-probes the provider and updates the cached health state
func (m *Manager) CheckHealth(ctx context.Context) error {
	m.mu.RLock()
	provider := m.provider
	m.mu.RUnlock()

	if provider == nil {
		return fmt.Errorf("LLM provider not available")
	}

	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	err := provider.IsHealthy(ctx)

	m.mu.Lock()
	m.healthy = err == nil
	m.mu.Unlock()

	return err
}

func (m *Manager) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, m.timeout)
}
