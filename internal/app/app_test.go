package app

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobboard-gateway/internal/config"
	"jobboard-gateway/internal/enrichment"
	"jobboard-gateway/internal/jobstore"
)

func TestBuild_MemoryWithoutEnrichment(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Backend = config.BackendMemory
	cfg.Enrichment.Enabled = false

	a, err := Build(context.Background(), cfg, nil, Options{Version: "test"})
	require.NoError(t, err)
	defer a.Close()

	assert.IsType(t, enrichment.NoopEnricher{}, a.Enricher)
	assert.Nil(t, a.LLM)

	job, err := a.Store.Append(context.Background(), jobstore.Draft{Title: "t", Description: "d", CompanyName: "c"}, jobstore.Identity{UserID: "1"})
	require.NoError(t, err)
	assert.Equal(t, 1, job.ID)

	report := a.Health.Check(context.Background())
	assert.True(t, report.Ready)
	assert.Equal(t, "test", a.Health.Version())
}

func TestBuild_UnhealthyLLMDegrades(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Backend = config.BackendMemory
	cfg.LLM.Provider = "claude"
	cfg.LLM.APIKey = ""

	a, err := Build(context.Background(), cfg, nil, Options{Version: "test"})
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.LLM)
	assert.False(t, a.LLM.IsHealthy())

	report := a.Health.Check(context.Background())
	assert.True(t, report.Ready)
	assert.Equal(t, "degraded", report.Status)
	assert.Equal(t, "claude provider unavailable", report.Checks["llm"])
}

func TestBuild_DisableEnrichmentOverridesConfig(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Default()
	cfg.Store.Backend = config.BackendRedis
	cfg.Redis.URL = "redis://" + mr.Addr()

	a, err := Build(context.Background(), cfg, nil, Options{DisableEnrichment: true})
	require.NoError(t, err)
	defer a.Close()

	assert.IsType(t, enrichment.NoopEnricher{}, a.Enricher)
	assert.Equal(t, "redis", a.Backend.Name())
}

func TestBuild_UnknownBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Backend = "floppy"

	_, err := Build(context.Background(), cfg, nil, Options{})
	assert.Error(t, err)
}
