package enrichment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobboard-gateway/internal/config"
)

func TestURLGuard_Check(t *testing.T) {
	guard := NewURLGuard(false)

	tests := []struct {
		name    string
		url     string
		blocked bool
	}{
		{"public ip", "https://93.184.216.34/about", false},
		{"public ip with port", "http://93.184.216.34:8080/", false},
		{"loopback", "http://127.0.0.1/", true},
		{"loopback v6", "http://[::1]:8080/", true},
		{"cloud metadata", "http://169.254.169.254/latest/meta-data/", true},
		{"private 10/8", "http://10.0.0.1/", true},
		{"private 192.168/16", "https://192.168.1.10/", true},
		{"shared address space", "http://100.64.0.1/", true},
		{"unspecified", "http://0.0.0.0/", true},
		{"localhost name", "http://localhost:3000/", true},
		{"localhost subdomain", "http://api.localhost/", true},
		{"ftp scheme", "ftp://93.184.216.34/file", true},
		{"file scheme", "file:///etc/passwd", true},
		{"no host", "http:///path", true},
		{"relative", "/careers", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := guard.Check(context.Background(), tt.url)
			if tt.blocked {
				assert.ErrorIs(t, err, ErrBlockedURL)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestURLGuard_AllowPrivateKeepsSchemeCheck(t *testing.T) {
	guard := NewURLGuard(true)

	assert.NoError(t, guard.Check(context.Background(), "http://127.0.0.1:8080/"))
	assert.NoError(t, guard.Check(context.Background(), "http://localhost/"))
	assert.ErrorIs(t, guard.Check(context.Background(), "gopher://127.0.0.1/"), ErrBlockedURL)
}

func TestURLGuard_DialControl(t *testing.T) {
	guard := NewURLGuard(false)

	assert.ErrorIs(t, guard.control("tcp", "127.0.0.1:80", nil), ErrBlockedURL)
	assert.ErrorIs(t, guard.control("tcp", "[fe80::1]:443", nil), ErrBlockedURL)
	assert.NoError(t, guard.control("tcp", "93.184.216.34:443", nil))

	assert.NoError(t, NewURLGuard(true).control("tcp", "127.0.0.1:80", nil))
}

func TestHTTPFetcher_RefusesLoopbackByDefault(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = w.Write([]byte("<html><body>internal</body></html>"))
	}))
	defer srv.Close()

	cfg := testFetcherConfig()
	cfg.Enrichment.AllowPrivateHosts = false
	fetcher := NewHTTPFetcher(cfg, nil, nil)

	_, err := fetcher.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBlockedURL)
	assert.Zero(t, hits)
}

func TestHTTPFetcher_RefusesRedirectToLoopback(t *testing.T) {
	internal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body>secret</body></html>"))
	}))
	defer internal.Close()

	public := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, internal.URL, http.StatusFound)
	}))
	defer public.Close()

	fetcher := NewHTTPFetcher(testFetcherConfig(), nil, nil)
	// both test servers are on loopback, so only redirect targets get the strict guard
	strict := NewURLGuard(false)
	fetcher.client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return strict.Check(req.Context(), req.URL.String())
	}

	_, err := fetcher.Fetch(context.Background(), public.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBlockedURL)
}

func TestConfig_AllowPrivateHostsDefaultsOff(t *testing.T) {
	assert.False(t, config.Default().Enrichment.AllowPrivateHosts)
}
