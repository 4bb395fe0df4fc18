package enrichment

import (
	"context"

	"jobboard-gateway/internal/jobstore"
)

// NoopEnricher leaves every posting without a summary and not spam
type NoopEnricher struct{}

func (NoopEnricher) Summarize(context.Context, string) (*string, error) { return nil, nil }

func (NoopEnricher) ClassifySpam(context.Context, jobstore.Job) (bool, error) { return false, nil }
