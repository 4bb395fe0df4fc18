package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"jobboard-gateway/internal/api/middleware"
	"jobboard-gateway/internal/githubapi"
	"jobboard-gateway/internal/logging"
	"jobboard-gateway/pkg/models"
	"jobboard-gateway/pkg/utils"
)

// IssuesHandler proxies the issues of one repository
type IssuesHandler struct {
	github *githubapi.Client
	owner  string
	repo   string
	logger logging.Logger
}

func NewIssuesHandler(github *githubapi.Client, owner, repo string, logger logging.Logger) *IssuesHandler {
	return &IssuesHandler{github: github, owner: owner, repo: repo, logger: logger.WithField("handler", "issues")}
}

// client acts as the caller when they sent their own GitHub token
func (h *IssuesHandler) client(c echo.Context) *githubapi.Client {
	token := strings.TrimSpace(c.Request().Header.Get(middleware.HeaderGitHubToken))
	token = strings.TrimPrefix(strings.TrimPrefix(token, "token "), "Bearer ")
	return h.github.ForToken(token)
}

func (h *IssuesHandler) List(c echo.Context) error {
	var q models.ListIssuesQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return respondError(c, h.logger, utils.NewBadRequestError("Invalid query parameters"))
	}
	if err := validate.Struct(&q); err != nil {
		return respondError(c, h.logger, err)
	}

	var labels []string
	for _, l := range strings.Split(q.Labels, ",") {
		if l = strings.TrimSpace(l); l != "" {
			labels = append(labels, l)
		}
	}

	issues, err := h.client(c).ListIssues(c.Request().Context(), h.owner, h.repo, githubapi.IssueQuery{
		State:   q.State,
		Labels:  labels,
		Page:    q.Page,
		PerPage: q.PerPage,
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, issues)
}

func (h *IssuesHandler) Get(c echo.Context) error {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil || number < 1 {
		return respondError(c, h.logger, utils.NewValidationError("number must be a positive integer"))
	}

	issue, err := h.client(c).GetIssue(c.Request().Context(), h.owner, h.repo, number)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, issue)
}

func (h *IssuesHandler) Create(c echo.Context) error {
	var req models.CreateIssueRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	issue, err := h.client(c).CreateIssue(c.Request().Context(), h.owner, h.repo, githubapi.NewIssue{
		Title:  req.Title,
		Body:   req.Body,
		Labels: req.Labels,
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusCreated, issue)
}
