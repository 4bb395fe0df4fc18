package enrichment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobboard-gateway/internal/config"
)

const aboutPage = `<html>
<head><title>Initech</title><meta name="description" content="Initech makes TPS report software."></head>
<body>
  <nav>Products Careers</nav>
  <div class="about">Initech has been helping enterprises file their reports on time since 1989.</div>
</body>
</html>`

func testFetcherConfig() *config.Config {
	cfg := config.Default()
	cfg.Enrichment.Timeout = 5 * time.Second
	cfg.Enrichment.RateLimit = 0
	cfg.Enrichment.AllowPrivateHosts = true
	return cfg
}

func TestHTTPFetcher_ExtractsCompanyText(t *testing.T) {
	userAgent := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent <- r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(aboutPage))
	}))
	defer srv.Close()

	cfg := testFetcherConfig()
	f := NewHTTPFetcher(cfg, nil, nil)

	text, err := f.Fetch(context.Background(), srv.URL+"/about")
	require.NoError(t, err)

	assert.Contains(t, text, "Initech makes TPS report software.")
	assert.Contains(t, text, "since 1989")
	assert.NotContains(t, text, "Products Careers")
	assert.Equal(t, cfg.Enrichment.UserAgent, <-userAgent)
}

func TestHTTPFetcher_Truncates(t *testing.T) {
	long := "<html><body><main>" + strings.Repeat("Globex sells everything. ", 100) + "</main></body></html>"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(long))
	}))
	defer srv.Close()

	cfg := testFetcherConfig()
	cfg.Enrichment.MaxContentLength = 100

	text, err := NewHTTPFetcher(cfg, nil, nil).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(text), 103)
	assert.True(t, strings.HasSuffix(text, "..."))
}

func TestHTTPFetcher_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/empty" {
			_, _ = w.Write([]byte("<html><body><script>1</script></body></html>"))
			return
		}
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(testFetcherConfig(), nil, nil)

	_, err := f.Fetch(context.Background(), srv.URL+"/missing")
	assert.ErrorContains(t, err, "unexpected status 404")

	_, err = f.Fetch(context.Background(), srv.URL+"/empty")
	assert.ErrorIs(t, err, ErrEmptyPage)
}

func TestHostLimiter(t *testing.T) {
	hl := NewHostLimiter(1, nil)

	// The burst lets the first requests through immediately
	for i := 0; i < defaultBurst; i++ {
		require.NoError(t, hl.Wait(context.Background(), "https://Example.com/a"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, hl.Wait(ctx, "https://example.com/b"))

	// Other hosts have their own budget
	require.NoError(t, hl.Wait(context.Background(), "https://other.example/"))

	assert.Equal(t, 0, hl.Prune(time.Hour))
	assert.Equal(t, 2, hl.Prune(-time.Second))
}

func TestHostLimiter_PruningLoop(t *testing.T) {
	hl := NewHostLimiter(60, nil)
	require.NoError(t, hl.Wait(context.Background(), "https://a.example/"))
	require.NoError(t, hl.Wait(context.Background(), "https://b.example/"))
	require.Equal(t, 2, hl.size())

	hl.StartPruning(5*time.Millisecond, time.Millisecond)
	hl.StartPruning(5*time.Millisecond, time.Millisecond)
	assert.Eventually(t, func() bool { return hl.size() == 0 }, time.Second, 5*time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		hl.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}

	// nothing prunes once stopped
	require.NoError(t, hl.Wait(context.Background(), "https://c.example/"))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, hl.size())

	hl.Stop()
	var nilLimiter *HostLimiter
	nilLimiter.StartPruning(time.Millisecond, time.Millisecond)
	nilLimiter.Stop()
}

func TestHostLimiter_Disabled(t *testing.T) {
	var nilLimiter *HostLimiter
	assert.NoError(t, nilLimiter.Wait(context.Background(), "https://example.com"))
	assert.NoError(t, NewHostLimiter(0, nil).Wait(context.Background(), "https://example.com"))
}
