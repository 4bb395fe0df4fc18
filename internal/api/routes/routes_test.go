package routes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobboard-gateway/internal/auth"
	"jobboard-gateway/internal/config"
	"jobboard-gateway/internal/enrichment"
	"jobboard-gateway/internal/githubapi"
	"jobboard-gateway/internal/health"
	"jobboard-gateway/internal/jobstore"
	"jobboard-gateway/pkg/models"
)

// fakeGitHub serves the OAuth token endpoint and the few REST calls the
// gateway makes, recording the Authorization header of each API call
type fakeGitHub struct {
	*httptest.Server
	mu    sync.Mutex
	auths []string
}

func newFakeGitHub(t *testing.T) *fakeGitHub {
	f := &fakeGitHub{}
	mux := http.NewServeMux()

	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		w.Header().Set("Content-Type", "application/json")
		if r.PostForm.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":"bad_verification_code"}`)
			return
		}
		_, _ = io.WriteString(w, `{"access_token":"gho_user","token_type":"bearer"}`)
	})
	mux.HandleFunc("/api/user", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":583231,"login":"octocat","name":"The Octocat"}`)
	})
	mux.HandleFunc("/api/repos/acme/board/issues", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"number":7,"title":"Broken link"}`)
			return
		}
		_, _ = io.WriteString(w, `[{"number":1,"title":"First","state":"`+r.URL.Query().Get("state")+`"}]`)
	})
	mux.HandleFunc("/api/repos/acme/board/issues/404", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message":"Not Found"}`)
	})

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func (f *fakeGitHub) record(r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auths = append(f.auths, r.Header.Get("Authorization"))
}

func (f *fakeGitHub) lastAuth() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.auths) == 0 {
		return ""
	}
	return f.auths[len(f.auths)-1]
}

type stubEnricher struct{}

func (stubEnricher) Summarize(_ context.Context, url string) (*string, error) {
	if url == "" {
		return nil, nil
	}
	if strings.Contains(url, "169.254.") {
		return nil, errors.Join(errors.New("summarize "+url), enrichment.ErrBlockedURL)
	}
	s := "Summary of " + url
	return &s, nil
}

func (stubEnricher) ClassifySpam(_ context.Context, job jobstore.Job) (bool, error) {
	return strings.Contains(job.Description, "fee"), nil
}

// faultyBackend fails every Get or rejects every Put
type faultyBackend struct {
	*jobstore.MemoryBackend
	getErr   error
	conflict bool
}

func (b *faultyBackend) Get(ctx context.Context, path string) (jobstore.Blob, error) {
	if b.getErr != nil {
		return jobstore.Blob{}, b.getErr
	}
	return b.MemoryBackend.Get(ctx, path)
}

func (b *faultyBackend) Put(ctx context.Context, path string, content []byte, expected string) (string, error) {
	if b.conflict {
		return "", jobstore.ErrVersionConflict
	}
	return b.MemoryBackend.Put(ctx, path, content, expected)
}

func (b *faultyBackend) Ping(ctx context.Context) error {
	return b.getErr
}

type testServer struct {
	e      *echo.Echo
	tokens *auth.TokenIssuer
	gh     *fakeGitHub
}

func newTestServer(t *testing.T, backend jobstore.Backend) *testServer {
	t.Helper()
	gh := newFakeGitHub(t)

	cfg := config.Default()
	cfg.Auth.JWTSecret = "test-secret"
	cfg.GitHub.Token = "service-token"
	cfg.GitHub.APIBaseURL = gh.URL + "/api/"
	cfg.GitHub.TokenURL = gh.URL + "/login/oauth/access_token"
	cfg.GitHub.AuthURL = gh.URL + "/login/oauth/authorize"
	cfg.GitHub.ClientID = "client"
	cfg.GitHub.Owner = "acme"
	cfg.GitHub.Repo = "board"

	tokens, err := auth.NewTokenIssuerFromConfig(cfg)
	require.NoError(t, err)
	ghClient, err := githubapi.New(cfg, nil)
	require.NoError(t, err)

	store := jobstore.New(backend, stubEnricher{}, jobstore.Options{}, nil)
	checker := health.NewChecker("test", time.Second)
	checker.Register("store", true, store.Ping)

	e := echo.New()
	SetupRoutes(e, Dependencies{
		Config:   cfg,
		Store:    store,
		Enricher: stubEnricher{},
		OAuth:    auth.NewOAuthExchanger(cfg),
		GitHub:   ghClient,
		Tokens:   tokens,
		Health:   checker,
	})
	return &testServer{e: e, tokens: tokens, gh: gh}
}

func (s *testServer) bearer(t *testing.T, id auth.Identity) string {
	token, err := s.tokens.Issue(id)
	require.NoError(t, err)
	return "Bearer " + token
}

func (s *testServer) do(method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestJobs_CreateAndQuery(t *testing.T) {
	s := newTestServer(t, jobstore.NewMemoryBackend())
	octocat := map[string]string{"Authorization": s.bearer(t, auth.Identity{UserID: "583231", Login: "octocat"})}
	hubot := map[string]string{"Authorization": s.bearer(t, auth.Identity{UserID: "42", Login: "hubot"})}

	rec := s.do(http.MethodPost, "/api/v1/jobs",
		`{"title":"Backend Engineer","description":"Go services","companyName":"Acme","careerLink":"https://acme.example/about"}`, octocat)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var job jobstore.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	assert.Equal(t, 1, job.ID)
	assert.Equal(t, "583231", job.UserID)
	assert.Equal(t, "octocat", job.CreatedBy)
	require.NotNil(t, job.CompanySummary)
	assert.Equal(t, "Summary of https://acme.example/about", *job.CompanySummary)
	assert.False(t, job.IsSpam)

	rec = s.do(http.MethodPost, "/api/v1/jobs",
		`{"title":"Data entry","description":"Pay the registration fee","companyName":"Quick Cash"}`, hubot)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	assert.Equal(t, 2, job.ID)
	assert.True(t, job.IsSpam)
	assert.Nil(t, job.CompanySummary)

	var jobs []jobstore.Job
	rec = s.do(http.MethodGet, "/api/v1/jobs", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &jobs))
	assert.Len(t, jobs, 2)

	rec = s.do(http.MethodGet, "/api/v1/jobs?excludeSpam=true", "", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &jobs))
	require.Len(t, jobs, 1)
	assert.Equal(t, 1, jobs[0].ID)

	rec = s.do(http.MethodGet, "/api/v1/jobs?userId=42", "", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &jobs))
	require.Len(t, jobs, 1)
	assert.Equal(t, 2, jobs[0].ID)

	rec = s.do(http.MethodGet, "/api/v1/jobs/mine", "", octocat)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &jobs))
	require.Len(t, jobs, 1)
	assert.Equal(t, "Backend Engineer", jobs[0].Title)

	rec = s.do(http.MethodGet, "/api/v1/jobs/2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	assert.Equal(t, "Quick Cash", job.CompanyName)
}

func TestJobs_Errors(t *testing.T) {
	s := newTestServer(t, jobstore.NewMemoryBackend())
	user := map[string]string{"Authorization": s.bearer(t, auth.Identity{UserID: "1", Login: "u"})}

	tests := []struct {
		name    string
		method  string
		target  string
		body    string
		headers map[string]string
		status  int
		code    string
	}{
		{"create without token", http.MethodPost, "/api/v1/jobs", `{"title":"t","description":"d","companyName":"c"}`, nil, http.StatusUnauthorized, "unauthorized"},
		{"create with bad token", http.MethodPost, "/api/v1/jobs", `{"title":"t","description":"d","companyName":"c"}`, map[string]string{"Authorization": "Bearer nope"}, http.StatusUnauthorized, "unauthorized"},
		{"missing fields", http.MethodPost, "/api/v1/jobs", `{"title":"  ","description":"d"}`, user, http.StatusBadRequest, "validation_failed"},
		{"bad link", http.MethodPost, "/api/v1/jobs", `{"title":"t","description":"d","companyName":"c","applyLink":"nope"}`, user, http.StatusBadRequest, "validation_failed"},
		{"malformed json", http.MethodPost, "/api/v1/jobs", `{"title":`, user, http.StatusBadRequest, "validation_failed"},
		{"mine without token", http.MethodGet, "/api/v1/jobs/mine", "", nil, http.StatusUnauthorized, "unauthorized"},
		{"unknown id", http.MethodGet, "/api/v1/jobs/99", "", nil, http.StatusNotFound, "not_found"},
		{"non numeric id", http.MethodGet, "/api/v1/jobs/abc", "", nil, http.StatusBadRequest, "validation_failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(tt.method, tt.target, tt.body, tt.headers)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())

			resp := decodeError(t, rec)
			assert.Equal(t, tt.code, resp.Error)
			assert.NotEmpty(t, resp.RequestID)
			assert.Equal(t, rec.Header().Get(echo.HeaderXRequestID), resp.RequestID)
		})
	}
}

func TestJobs_BackendFailures(t *testing.T) {
	body := `{"title":"t","description":"d","companyName":"c"}`

	t.Run("conflicts exhaust retries", func(t *testing.T) {
		s := newTestServer(t, &faultyBackend{MemoryBackend: jobstore.NewMemoryBackend(), conflict: true})
		rec := s.do(http.MethodPost, "/api/v1/jobs", body, map[string]string{"Authorization": s.bearer(t, auth.Identity{UserID: "1"})})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "concurrent_modification", decodeError(t, rec).Error)
	})

	t.Run("backend unavailable", func(t *testing.T) {
		backend := &faultyBackend{MemoryBackend: jobstore.NewMemoryBackend(), getErr: jobstore.Unavailable("get", errors.New("dial tcp: refused"))}
		s := newTestServer(t, backend)

		rec := s.do(http.MethodGet, "/api/v1/jobs", "", nil)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, "backend_unavailable", decodeError(t, rec).Error)

		rec = s.do(http.MethodGet, "/health/ready", "", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("corrupt blob", func(t *testing.T) {
		mem := jobstore.NewMemoryBackend()
		mem.Seed(jobstore.DefaultPath, []byte(`{"not":"a list"}`))
		s := newTestServer(t, mem)

		rec := s.do(http.MethodGet, "/api/v1/jobs", "", nil)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "corrupt_store", decodeError(t, rec).Error)
	})
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, jobstore.NewMemoryBackend())

	for _, path := range []string{"/health", "/health/ready", "/health/live"} {
		rec := s.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	var resp models.HealthResponse
	rec := s.do(http.MethodGet, "/health/ready", "", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ready", resp.Status)
	assert.Equal(t, "ok", resp.Checks["store"])
}

func TestAuth_Flow(t *testing.T) {
	s := newTestServer(t, jobstore.NewMemoryBackend())

	rec := s.do(http.MethodGet, "/api/v1/auth/github/login", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var login models.LoginURLResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	assert.NotEmpty(t, login.State)
	assert.Contains(t, login.URL, "state="+login.State)

	rec = s.do(http.MethodGet, "/api/v1/auth/github/callback?code=good-code&state="+login.State, "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var authResp models.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &authResp))
	assert.Equal(t, "gho_user", authResp.AccessToken)
	assert.Equal(t, models.UserResponse{ID: "583231", Login: "octocat", Name: "The Octocat"}, authResp.User)
	assert.Equal(t, "Bearer gho_user", s.gh.lastAuth())

	id, err := s.tokens.Verify(authResp.Token)
	require.NoError(t, err)
	assert.Equal(t, "583231", id.UserID)

	rec = s.do(http.MethodGet, "/api/v1/auth/me", "", map[string]string{"Authorization": "Bearer " + authResp.Token})
	require.Equal(t, http.StatusOK, rec.Code)
	var me models.UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "octocat", me.Login)

	rec = s.do(http.MethodPost, "/api/v1/auth/github/callback", `{"code":"bad-code","state":"`+login.State+`"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/auth/github/callback", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuth_CallbackRejectsBadState(t *testing.T) {
	s := newTestServer(t, jobstore.NewMemoryBackend())
	session, err := s.tokens.Issue(auth.Identity{UserID: "583231", Login: "octocat"})
	require.NoError(t, err)

	rec := s.do(http.MethodGet, "/api/v1/auth/github/callback?code=good-code", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "state is required")

	for name, state := range map[string]string{
		"made up":       "6f1c2a9e-state",
		"session token": session,
	} {
		rec = s.do(http.MethodPost, "/api/v1/auth/github/callback", `{"code":"good-code","state":"`+state+`"}`, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, name)
	}
	assert.Empty(t, s.gh.lastAuth(), "no GitHub call is made for a rejected state")
}

func TestIssues_Proxy(t *testing.T) {
	s := newTestServer(t, jobstore.NewMemoryBackend())

	rec := s.do(http.MethodGet, "/api/v1/issues?state=closed", "", map[string]string{"X-GitHub-Token": "gho_caller"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"state":"closed"`)
	assert.Equal(t, "Bearer gho_caller", s.gh.lastAuth())

	rec = s.do(http.MethodGet, "/api/v1/issues", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Bearer service-token", s.gh.lastAuth())

	rec = s.do(http.MethodPost, "/api/v1/issues", `{"title":"Broken link","labels":["bug"]}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"number":7`)

	rec = s.do(http.MethodGet, "/api/v1/issues/404", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/issues?state=merged", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/issues", `{"body":"no title"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSummary(t *testing.T) {
	s := newTestServer(t, jobstore.NewMemoryBackend())
	user := map[string]string{"Authorization": s.bearer(t, auth.Identity{UserID: "1", Login: "u"})}

	rec := s.do(http.MethodPost, "/api/v1/enrichment/summary", `{"url":"https://acme.example"}`, user)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.SummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Summary)
	assert.Equal(t, "Summary of https://acme.example", *resp.Summary)

	rec = s.do(http.MethodPost, "/api/v1/enrichment/summary", `{"url":"https://acme.example"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/enrichment/summary", `{"url":"not a url"}`, user)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSummary_RejectsNonPublicTargets(t *testing.T) {
	s := newTestServer(t, jobstore.NewMemoryBackend())
	user := map[string]string{"Authorization": s.bearer(t, auth.Identity{UserID: "1", Login: "u"})}

	for _, body := range []string{
		`{"url":"ftp://acme.example/file"}`,
		`{"url":"file:///etc/passwd"}`,
		`{"url":"http://169.254.169.254/latest/meta-data/"}`,
	} {
		rec := s.do(http.MethodPost, "/api/v1/enrichment/summary", body, user)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}

	rec := s.do(http.MethodPost, "/api/v1/jobs",
		`{"title":"t","description":"d","companyName":"c","careerLink":"gopher://acme.example"}`, user)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequestID_IsEchoed(t *testing.T) {
	s := newTestServer(t, jobstore.NewMemoryBackend())

	rec := s.do(http.MethodGet, "/health/live", "", map[string]string{echo.HeaderXRequestID: "req-123"})
	assert.Equal(t, "req-123", rec.Header().Get(echo.HeaderXRequestID))
}

func TestBodyLimit(t *testing.T) {
	s := newTestServer(t, jobstore.NewMemoryBackend())
	user := map[string]string{"Authorization": s.bearer(t, auth.Identity{UserID: "1"})}

	huge := `{"title":"t","companyName":"c","description":"` + strings.Repeat("x", 2<<20) + `"}`
	rec := s.do(http.MethodPost, "/api/v1/jobs", huge, user)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
