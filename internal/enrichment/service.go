package enrichment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"jobboard-gateway/internal/jobstore"
	"jobboard-gateway/internal/logging"
)

// Service produces company summaries and spam verdicts for job postings.
// It implements jobstore.Enricher.
type Service struct {
	llm      Completer
	fetcher  Fetcher
	redFlags []string
	timeout  time.Duration
	limiter  *HostLimiter
	logger   logging.Logger
}

var _ jobstore.Enricher = (*Service)(nil)

// ServiceOptions configures a Service
type ServiceOptions struct {
	RedFlags []string
	Timeout  time.Duration
	// Limiter is stopped by Close
	Limiter *HostLimiter
}

func NewService(llm Completer, fetcher Fetcher, opts ServiceOptions, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Service{
		llm:      llm,
		fetcher:  fetcher,
		redFlags: opts.RedFlags,
		timeout:  opts.Timeout,
		limiter:  opts.Limiter,
		logger:   logger.WithField("component", "enrichment"),
	}
}

// Summarize fetches the company page at url and asks the LLM for a short
// description. An empty url yields no summary and no error.
func (s *Service) Summarize(ctx context.Context, url string) (*string, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	start := time.Now()

	content, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("summarize %s: %w", url, err)
	}

	reply, err := s.llm.Complete(ctx, buildSummaryPrompt(url, content))
	if err != nil {
		return nil, fmt.Errorf("summarize %s: %w", url, err)
	}

	summary := parseSummary(reply)
	s.logger.Info("Generated company summary", map[string]interface{}{
		"url":         url,
		"fetcher":     s.fetcher.Name(),
		"has_summary": summary != nil,
		"duration":    time.Since(start).String(),
	})
	return summary, nil
}

// ClassifySpam flags postings that contain a configured red-flag phrase
// without consulting the LLM; everything else is classified by the model.
func (s *Service) ClassifySpam(ctx context.Context, job jobstore.Job) (bool, error) {
	if ContainsRedFlag(job, s.redFlags) {
		s.logger.Info("Posting matched red flag", map[string]interface{}{
			"title":   job.Title,
			"company": job.CompanyName,
		})
		return true, nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	reply, err := s.llm.Complete(ctx, buildSpamPrompt(job))
	if err != nil {
		return false, fmt.Errorf("classify spam: %w", err)
	}

	spam, err := parseSpamVerdict(reply)
	if err != nil {
		return false, fmt.Errorf("classify spam: %w", err)
	}

	s.logger.Debug("Classified posting", map[string]interface{}{
		"title": job.Title,
		"spam":  spam,
	})
	return spam, nil
}

// Close stops the fetch limiter's background pruning
func (s *Service) Close() error {
	s.limiter.Stop()
	return nil
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}
