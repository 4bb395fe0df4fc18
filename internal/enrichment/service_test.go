package enrichment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobboard-gateway/internal/config"
	"jobboard-gateway/internal/jobstore"
)

type fakeCompleter struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

func (f *fakeCompleter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type fakeFetcher struct {
	content string
	err     error
	urls    []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (string, error) {
	f.urls = append(f.urls, url)
	return f.content, f.err
}

func (f *fakeFetcher) Name() string { return "fake" }

type fakeProvider struct {
	fakeCompleter
	healthErr error
}

func (p *fakeProvider) IsHealthy(context.Context) error { return p.healthErr }
func (p *fakeProvider) Name() string                    { return "fake" }

func TestSummarize_EmptyURL(t *testing.T) {
	llm := &fakeCompleter{reply: "irrelevant"}
	fetcher := &fakeFetcher{}
	svc := NewService(llm, fetcher, ServiceOptions{}, nil)

	summary, err := svc.Summarize(context.Background(), "   ")
	require.NoError(t, err)
	assert.Nil(t, summary)
	assert.Empty(t, fetcher.urls)
	assert.Zero(t, llm.calls())
}

func TestSummarize_FetchesAndPrompts(t *testing.T) {
	llm := &fakeCompleter{reply: "```\nAcme builds reusable rockets for commercial customers.\n```"}
	fetcher := &fakeFetcher{content: "Acme Rockets. We build reusable rockets."}
	svc := NewService(llm, fetcher, ServiceOptions{Timeout: time.Second}, nil)

	summary, err := svc.Summarize(context.Background(), "https://acme.example/about")
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, "Acme builds reusable rockets for commercial customers.", *summary)

	assert.Equal(t, []string{"https://acme.example/about"}, fetcher.urls)
	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "We build reusable rockets.")
	assert.Contains(t, llm.prompts[0], "https://acme.example/about")
}

func TestSummarize_UnknownReplyIsNil(t *testing.T) {
	svc := NewService(&fakeCompleter{reply: "UNKNOWN"}, &fakeFetcher{content: "x"}, ServiceOptions{}, nil)

	summary, err := svc.Summarize(context.Background(), "https://example.com")
	require.NoError(t, err)
	assert.Nil(t, summary)
}

func TestSummarize_Errors(t *testing.T) {
	boom := errors.New("boom")

	t.Run("fetch", func(t *testing.T) {
		llm := &fakeCompleter{reply: "summary"}
		svc := NewService(llm, &fakeFetcher{err: boom}, ServiceOptions{}, nil)

		summary, err := svc.Summarize(context.Background(), "https://example.com")
		assert.ErrorIs(t, err, boom)
		assert.Nil(t, summary)
		assert.Zero(t, llm.calls())
	})

	t.Run("llm", func(t *testing.T) {
		svc := NewService(&fakeCompleter{err: boom}, &fakeFetcher{content: "page"}, ServiceOptions{}, nil)

		summary, err := svc.Summarize(context.Background(), "https://example.com")
		assert.ErrorIs(t, err, boom)
		assert.Nil(t, summary)
	})
}

func TestClassifySpam_RedFlagSkipsLLM(t *testing.T) {
	llm := &fakeCompleter{reply: `{"spam": false}`}
	svc := NewService(llm, &fakeFetcher{}, ServiceOptions{RedFlags: []string{"Registration Fee"}}, nil)

	spam, err := svc.ClassifySpam(context.Background(), jobstore.Job{
		Title:       "Data entry",
		CompanyName: "Quick Cash",
		Description: "Pay a small registration fee to get started.",
	})
	require.NoError(t, err)
	assert.True(t, spam)
	assert.Zero(t, llm.calls())
}

func TestClassifySpam_ParsesVerdicts(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  bool
	}{
		{"plain json", `{"spam": true}`, true},
		{"fenced json", "```json\n{\"spam\": false}\n```", false},
		{"camel case key", `{"isSpam": true}`, true},
		{"json in prose", `Sure! Here is the result: {"spam": true, "reason": "fees"}`, true},
		{"bare word", "No.", false},
		{"loose field", `spam: true`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &fakeCompleter{reply: tt.reply}
			svc := NewService(llm, &fakeFetcher{}, ServiceOptions{}, nil)

			spam, err := svc.ClassifySpam(context.Background(), jobstore.Job{Title: "Engineer", Description: "Build things"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, spam)
			assert.Equal(t, 1, llm.calls())
		})
	}
}

func TestClassifySpam_UnparseableReply(t *testing.T) {
	svc := NewService(&fakeCompleter{reply: "I cannot decide"}, &fakeFetcher{}, ServiceOptions{}, nil)

	spam, err := svc.ClassifySpam(context.Background(), jobstore.Job{Title: "Engineer"})
	assert.Error(t, err)
	assert.False(t, spam)
}

func TestContainsRedFlag(t *testing.T) {
	job := jobstore.Job{Title: "Remote assistant", CompanyName: "Globex", Description: "Contact us on WhatsApp only."}

	assert.True(t, ContainsRedFlag(job, []string{"whatsapp only"}))
	assert.False(t, ContainsRedFlag(job, []string{"wire transfer", ""}))
	assert.False(t, ContainsRedFlag(job, nil))
}

func TestNoopEnricher(t *testing.T) {
	var e jobstore.Enricher = NoopEnricher{}

	summary, err := e.Summarize(context.Background(), "https://example.com")
	require.NoError(t, err)
	assert.Nil(t, summary)

	spam, err := e.ClassifySpam(context.Background(), jobstore.Job{})
	require.NoError(t, err)
	assert.False(t, spam)
}

func TestManager_UnhealthyProviderDisablesCompletion(t *testing.T) {
	provider := &fakeProvider{healthErr: errors.New("no key")}
	provider.reply = "hello"
	m := NewManagerWithProvider(provider, time.Second, nil)

	require.NoError(t, m.Start(context.Background()))
	assert.False(t, m.IsHealthy())
	assert.Equal(t, "fake", m.ProviderName())

	_, err := m.Complete(context.Background(), "hi")
	assert.Error(t, err)

	provider.healthErr = nil
	require.NoError(t, m.CheckHealth(context.Background()))
	assert.True(t, m.IsHealthy())

	reply, err := m.Complete(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello", reply)

	require.NoError(t, m.Stop())
	assert.Equal(t, "none", m.ProviderName())
}

func TestNewEnricher_Disabled(t *testing.T) {
	cfg := config.Default()
	cfg.Enrichment.Enabled = false

	enricher, manager, err := NewEnricher(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, NoopEnricher{}, enricher)
	assert.Nil(t, manager)
}

func TestNewEnricher_CloseStopsLimiterPruning(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.Provider = "claude"
	cfg.LLM.APIKey = ""

	enricher, manager, err := NewEnricher(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, manager)
	assert.False(t, manager.IsHealthy())

	svc, ok := enricher.(*Service)
	require.True(t, ok)
	svc.limiter.mu.Lock()
	running := svc.limiter.stopPrune != nil
	svc.limiter.mu.Unlock()
	assert.True(t, running)

	require.NoError(t, svc.Close())
	svc.limiter.mu.Lock()
	running = svc.limiter.stopPrune != nil
	svc.limiter.mu.Unlock()
	assert.False(t, running)
	require.NoError(t, svc.Close())
}

func TestNewEnricher_UnknownProvider(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.Provider = "mystery"

	_, _, err := NewEnricher(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestNewFetcher(t *testing.T) {
	cfg := config.Default()

	f, err := NewFetcher(cfg, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "http", f.Name())

	cfg.Enrichment.Fetcher = "firecrawl"
	_, err = NewFetcher(cfg, nil, nil)
	assert.Error(t, err, "firecrawl without an API key")

	cfg.Enrichment.Fetcher = "carrier-pigeon"
	_, err = NewFetcher(cfg, nil, nil)
	assert.Error(t, err)
}
