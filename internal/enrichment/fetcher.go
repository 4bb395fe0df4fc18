package enrichment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"jobboard-gateway/internal/config"
	"jobboard-gateway/internal/enrichment/processors"
	"jobboard-gateway/internal/logging"
	"jobboard-gateway/pkg/utils"
)

// maxPageBytes bounds how much of a response body is read
const maxPageBytes = 2 << 20

var ErrEmptyPage = errors.New("page has no readable content")

// HTTPFetcher downloads a page and extracts its company-related text
type HTTPFetcher struct {
	client    *http.Client
	cleaner   *processors.HTMLCleaner
	limiter   *HostLimiter
	guard     *URLGuard
	userAgent string
	maxLength int
	logger    logging.Logger
}

func NewHTTPFetcher(cfg *config.Config, limiter *HostLimiter, logger logging.Logger) *HTTPFetcher {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	guard := NewURLGuard(cfg.Enrichment.AllowPrivateHosts)

	transport := http.DefaultTransport.(*http.Transport).Clone()
	dialer := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second, Control: guard.control}
	transport.DialContext = dialer.DialContext

	client := &http.Client{
		Timeout:   cfg.Enrichment.Timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return errors.New("stopped after 5 redirects")
			}
			return guard.Check(req.Context(), req.URL.String())
		},
	}

	return &HTTPFetcher{
		client:    client,
		cleaner:   processors.NewHTMLCleaner(),
		limiter:   limiter,
		guard:     guard,
		userAgent: cfg.Enrichment.UserAgent,
		maxLength: cfg.Enrichment.MaxContentLength,
		logger:    logger.WithField("fetcher", "http"),
	}
}

func (f *HTTPFetcher) Name() string { return "http" }

// Fetch GETs url and returns the cleaned, truncated page text
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := f.guard.Check(ctx, url); err != nil {
		return "", err
	}
	if err := f.limiter.Wait(ctx, url); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", url, err)
	}

	text, err := f.cleaner.ExtractCompanyContent(string(body))
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", url, err)
	}
	if text == "" {
		return "", ErrEmptyPage
	}
	text = utils.Truncate(text, f.maxLength)

	f.logger.Debug("Fetched page", map[string]interface{}{
		"url":      url,
		"bytes":    len(body),
		"chars":    len(text),
		"tokens":   f.cleaner.EstimateTokens(text),
		"duration": time.Since(start).String(),
	})
	return text, nil
}
