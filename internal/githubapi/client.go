package githubapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"

	"jobboard-gateway/internal/config"
	"jobboard-gateway/internal/logging"
	"jobboard-gateway/pkg/utils"
)

// NewGitHubClient builds a go-github client authenticated with token. An
// empty baseURL targets api.github.com.
func NewGitHubClient(token, baseURL string, timeout time.Duration) (*github.Client, error) {
	client := github.NewClient(&http.Client{Timeout: timeout})
	if token != "" {
		client = client.WithAuthToken(token)
	}

	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API base URL: %w", err)
		}
		client.BaseURL = u
	}

	return client, nil
}

// Client proxies the issues and users endpoints on behalf of a caller
type Client struct {
	gh           *github.Client
	serviceToken string
	baseURL      string
	timeout      time.Duration
	logger       logging.Logger
}

// IssueQuery filters ListIssues
type IssueQuery struct {
	State   string
	Labels  []string
	Page    int
	PerPage int
}

// NewIssue is the payload of CreateIssue
type NewIssue struct {
	Title  string
	Body   string
	Labels []string
}

func New(cfg *config.Config, logger logging.Logger) (*Client, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	gh, err := NewGitHubClient(cfg.GitHub.Token, cfg.GitHub.APIBaseURL, cfg.GitHub.Timeout)
	if err != nil {
		return nil, err
	}

	return &Client{
		gh:           gh,
		serviceToken: cfg.GitHub.Token,
		baseURL:      cfg.GitHub.APIBaseURL,
		timeout:      cfg.GitHub.Timeout,
		logger:       logger.WithField("component", "githubapi"),
	}, nil
}

// ForToken returns a client acting as the owner of token. An empty token
// keeps the service credentials.
func (c *Client) ForToken(token string) *Client {
	if token == "" || token == c.serviceToken {
		return c
	}

	gh, err := NewGitHubClient(token, c.baseURL, c.timeout)
	if err != nil {
		// baseURL was already validated in New
		return c
	}

	clone := *c
	clone.gh = gh
	return &clone
}

func (c *Client) ListIssues(ctx context.Context, owner, repo string, q IssueQuery) ([]*github.Issue, error) {
	opts := &github.IssueListByRepoOptions{
		State:  q.State,
		Labels: q.Labels,
		ListOptions: github.ListOptions{
			Page:    q.Page,
			PerPage: q.PerPage,
		},
	}
	if opts.State == "" {
		opts.State = "open"
	}

	issues, resp, err := c.gh.Issues.ListByRepo(ctx, owner, repo, opts)
	if err != nil {
		return nil, c.mapError("list issues", resp, err)
	}
	if issues == nil {
		issues = []*github.Issue{}
	}
	return issues, nil
}

func (c *Client) GetIssue(ctx context.Context, owner, repo string, number int) (*github.Issue, error) {
	issue, resp, err := c.gh.Issues.Get(ctx, owner, repo, number)
	if err != nil {
		return nil, c.mapError(fmt.Sprintf("issue #%d", number), resp, err)
	}
	return issue, nil
}

func (c *Client) CreateIssue(ctx context.Context, owner, repo string, in NewIssue) (*github.Issue, error) {
	req := &github.IssueRequest{
		Title: github.String(in.Title),
	}
	if in.Body != "" {
		req.Body = github.String(in.Body)
	}
	if len(in.Labels) > 0 {
		labels := in.Labels
		req.Labels = &labels
	}

	issue, resp, err := c.gh.Issues.Create(ctx, owner, repo, req)
	if err != nil {
		return nil, c.mapError("create issue", resp, err)
	}

	c.logger.Info("issue created", map[string]interface{}{
		"repo":   owner + "/" + repo,
		"number": issue.GetNumber(),
	})
	return issue, nil
}

// CurrentUser returns the user that owns the client's token
func (c *Client) CurrentUser(ctx context.Context) (*github.User, error) {
	user, resp, err := c.gh.Users.Get(ctx, "")
	if err != nil {
		return nil, c.mapError("current user", resp, err)
	}
	return user, nil
}

// mapError keeps GitHub's 401/404/422 meaning and turns everything else into 502
func (c *Client) mapError(op string, resp *github.Response, err error) error {
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}

	var ghErr *github.ErrorResponse
	detail := err.Error()
	if errors.As(err, &ghErr) && ghErr.Message != "" {
		detail = ghErr.Message
	}

	switch status {
	case http.StatusNotFound:
		return &utils.CustomError{Code: http.StatusNotFound, Message: "Not found", Detail: op + ": " + detail, Err: err}
	case http.StatusUnauthorized:
		return &utils.CustomError{Code: http.StatusUnauthorized, Message: "Unauthorized", Detail: op + ": " + detail, Err: err}
	case http.StatusUnprocessableEntity:
		return &utils.CustomError{Code: http.StatusBadRequest, Message: "Validation failed", Detail: op + ": " + detail, Err: err}
	}

	c.logger.Warn("GitHub request failed", map[string]interface{}{
		"operation": op,
		"status":    status,
		"error":     err.Error(),
	})
	return utils.NewUpstreamError(op+": "+detail, err)
}
