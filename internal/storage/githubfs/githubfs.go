package githubfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/go-github/v66/github"

	"jobboard-gateway/internal/config"
	"jobboard-gateway/internal/githubapi"
	"jobboard-gateway/internal/jobstore"
	"jobboard-gateway/internal/logging"
)

// Options selects the repository file the backend commits to
type Options struct {
	Owner          string
	Repo           string
	Branch         string
	CommitterName  string
	CommitterEmail string
}

// Backend stores blobs as files in a GitHub repository through the Contents
// API. The blob SHA is the version token, and every write is a commit.
type Backend struct {
	client *github.Client
	opts   Options
	logger logging.Logger
}

func New(cfg *config.Config, logger logging.Logger) (*Backend, error) {
	client, err := githubapi.NewGitHubClient(cfg.GitHub.Token, cfg.GitHub.APIBaseURL, cfg.GitHub.Timeout)
	if err != nil {
		return nil, err
	}

	return NewWithClient(client, Options{
		Owner:          cfg.GitHub.Owner,
		Repo:           cfg.GitHub.Repo,
		Branch:         cfg.GitHub.Branch,
		CommitterName:  cfg.GitHub.CommitterName,
		CommitterEmail: cfg.GitHub.CommitterEmail,
	}, logger), nil
}

func NewWithClient(client *github.Client, opts Options, logger logging.Logger) *Backend {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Backend{
		client: client,
		opts:   opts,
		logger: logger.WithFields(map[string]interface{}{
			"backend": "github",
			"repo":    opts.Owner + "/" + opts.Repo,
		}),
	}
}

func (b *Backend) Name() string {
	return "github"
}

func (b *Backend) getOptions() *github.RepositoryContentGetOptions {
	if b.opts.Branch == "" {
		return nil
	}
	return &github.RepositoryContentGetOptions{Ref: b.opts.Branch}
}

func (b *Backend) Get(ctx context.Context, path string) (jobstore.Blob, error) {
	file, _, resp, err := b.client.Repositories.GetContents(ctx, b.opts.Owner, b.opts.Repo, path, b.getOptions())
	if err != nil {
		if statusOf(resp) == http.StatusNotFound {
			return jobstore.Blob{}, jobstore.ErrNotFound
		}
		return jobstore.Blob{}, jobstore.Unavailable("github get "+path, err)
	}
	if file == nil {
		return jobstore.Blob{}, &jobstore.DecodeError{Path: path, Err: errors.New("path is a directory")}
	}

	// files above 1 MB come back without inline content
	if file.GetEncoding() == "none" {
		content, err := b.download(ctx, path)
		if err != nil {
			return jobstore.Blob{}, err
		}
		return jobstore.Blob{Content: content, Version: file.GetSHA()}, nil
	}

	content, err := file.GetContent()
	if err != nil {
		return jobstore.Blob{}, &jobstore.DecodeError{Path: path, Err: err}
	}
	return jobstore.Blob{Content: []byte(content), Version: file.GetSHA()}, nil
}

func (b *Backend) download(ctx context.Context, path string) ([]byte, error) {
	rc, _, err := b.client.Repositories.DownloadContents(ctx, b.opts.Owner, b.opts.Repo, path, b.getOptions())
	if err != nil {
		return nil, jobstore.Unavailable("github download "+path, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, jobstore.Unavailable("github download "+path, err)
	}
	return content, nil
}

// Put commits content. An absent expected version creates the file, which
// GitHub rejects with 422 when it already exists; a stale SHA yields 409.
func (b *Backend) Put(ctx context.Context, path string, content []byte, expectedVersion string) (string, error) {
	opts := &github.RepositoryContentFileOptions{
		Message: github.String(fmt.Sprintf("Update %s", path)),
		Content: content,
	}
	if b.opts.Branch != "" {
		opts.Branch = github.String(b.opts.Branch)
	}
	if b.opts.CommitterName != "" && b.opts.CommitterEmail != "" {
		opts.Committer = &github.CommitAuthor{
			Name:  github.String(b.opts.CommitterName),
			Email: github.String(b.opts.CommitterEmail),
		}
	}

	var (
		result *github.RepositoryContentResponse
		resp   *github.Response
		err    error
	)
	if expectedVersion == jobstore.AbsentVersion {
		opts.Message = github.String(fmt.Sprintf("Create %s", path))
		result, resp, err = b.client.Repositories.CreateFile(ctx, b.opts.Owner, b.opts.Repo, path, opts)
	} else {
		opts.SHA = github.String(expectedVersion)
		result, resp, err = b.client.Repositories.UpdateFile(ctx, b.opts.Owner, b.opts.Repo, path, opts)
	}

	if err != nil {
		switch statusOf(resp) {
		case http.StatusConflict, http.StatusUnprocessableEntity:
			b.logger.Debug("GitHub rejected stale write", map[string]interface{}{
				"path":     path,
				"expected": expectedVersion,
				"status":   statusOf(resp),
			})
			return "", jobstore.ErrVersionConflict
		}
		return "", jobstore.Unavailable("github put "+path, err)
	}

	if result == nil || result.Content == nil {
		return "", jobstore.Unavailable("github put "+path, errors.New("response carried no content sha"))
	}

	b.logger.Debug("blob committed", map[string]interface{}{
		"path":   path,
		"sha":    result.Content.GetSHA(),
		"commit": result.Commit.GetSHA(),
	})
	return result.Content.GetSHA(), nil
}

// Ping checks that the repository is reachable with the configured token
func (b *Backend) Ping(ctx context.Context) error {
	_, _, err := b.client.Repositories.Get(ctx, b.opts.Owner, b.opts.Repo)
	return err
}

func statusOf(resp *github.Response) int {
	if resp == nil || resp.Response == nil {
		return 0
	}
	return resp.StatusCode
}
