package enrichment

import (
	"context"
	"fmt"
	"time"

	"github.com/mendableai/firecrawl-go"

	"jobboard-gateway/internal/config"
	"jobboard-gateway/internal/enrichment/processors"
	"jobboard-gateway/internal/logging"
	"jobboard-gateway/pkg/utils"
)

// FirecrawlFetcher renders pages through the Firecrawl API and returns markdown
type FirecrawlFetcher struct {
	app       *firecrawl.FirecrawlApp
	formats   []string
	cleaner   *processors.HTMLCleaner
	limiter   *HostLimiter
	guard     *URLGuard
	maxLength int
	logger    logging.Logger
}

func NewFirecrawlFetcher(cfg *config.Config, limiter *HostLimiter, logger logging.Logger) (*FirecrawlFetcher, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if cfg.Firecrawl.APIKey == "" {
		return nil, fmt.Errorf("firecrawl API key is required")
	}

	app, err := firecrawl.NewFirecrawlApp(cfg.Firecrawl.APIKey, cfg.Firecrawl.APIURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firecrawl: %w", err)
	}

	formats := cfg.Firecrawl.Formats
	if len(formats) == 0 {
		formats = []string{"markdown"}
	}

	logger.Info("Firecrawl fetcher initialized", map[string]interface{}{"api_url": cfg.Firecrawl.APIURL})

	return &FirecrawlFetcher{
		app:       app,
		formats:   formats,
		cleaner:   processors.NewHTMLCleaner(),
		limiter:   limiter,
		guard:     NewURLGuard(cfg.Enrichment.AllowPrivateHosts),
		maxLength: cfg.Enrichment.MaxContentLength,
		logger:    logger.WithField("fetcher", "firecrawl"),
	}, nil
}

func (f *FirecrawlFetcher) Name() string { return "firecrawl" }

type scrapeOutcome struct {
	doc *firecrawl.FirecrawlDocument
	err error
}

// Fetch scrapes url. The SDK call takes no context, so it runs in its own
// goroutine and Fetch returns as soon as ctx is done.
func (f *FirecrawlFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := f.guard.Check(ctx, url); err != nil {
		return "", err
	}
	if err := f.limiter.Wait(ctx, url); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	start := time.Now()
	done := make(chan scrapeOutcome, 1)
	go func() {
		doc, err := f.app.ScrapeURL(url, &firecrawl.ScrapeParams{Formats: f.formats})
		done <- scrapeOutcome{doc: doc, err: err}
	}()

	var out scrapeOutcome
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("firecrawl scrape %s: %w", url, ctx.Err())
	case out = <-done:
	}

	if out.err != nil {
		return "", fmt.Errorf("firecrawl scrape %s: %w", url, out.err)
	}
	if out.doc == nil {
		return "", fmt.Errorf("no result returned from Firecrawl")
	}

	var content string
	switch {
	case out.doc.Markdown != "":
		content = out.doc.Markdown
	case out.doc.HTML != "":
		text, err := f.cleaner.ExtractCompanyContent(out.doc.HTML)
		if err != nil {
			return "", fmt.Errorf("parse firecrawl html: %w", err)
		}
		content = text
	}
	if content == "" {
		return "", ErrEmptyPage
	}

	content = utils.Truncate(content, f.maxLength)
	f.logger.Debug("Scraped page", map[string]interface{}{
		"url":            url,
		"content_length": len(content),
		"duration":       time.Since(start).String(),
	})
	return content, nil
}
