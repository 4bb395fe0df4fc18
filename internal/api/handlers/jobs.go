package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"jobboard-gateway/internal/api/middleware"
	"jobboard-gateway/internal/auth"
	"jobboard-gateway/internal/jobstore"
	"jobboard-gateway/internal/logging"
	"jobboard-gateway/pkg/models"
	"jobboard-gateway/pkg/utils"
)

// JobsHandler serves the job board backed by a jobstore.Store
type JobsHandler struct {
	store  *jobstore.Store
	logger logging.Logger
}

func NewJobsHandler(store *jobstore.Store, logger logging.Logger) *JobsHandler {
	return &JobsHandler{store: store, logger: logger.WithField("handler", "jobs")}
}

// List returns all jobs, optionally filtered by userId and excludeSpam
func (h *JobsHandler) List(c echo.Context) error {
	var q models.ListJobsQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return respondError(c, h.logger, utils.NewBadRequestError("Invalid query parameters"))
	}

	jobs, err := h.store.List(c.Request().Context(), jobstore.Filter{UserID: q.UserID, ExcludeSpam: q.ExcludeSpam})
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, jobs)
}

// Get returns one job by numeric id
func (h *JobsHandler) Get(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		return respondError(c, h.logger, utils.NewValidationError("id must be a positive integer"))
	}

	job, err := h.store.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, job)
}

// Mine returns the jobs posted by the authenticated caller
func (h *JobsHandler) Mine(c echo.Context) error {
	who, ok := auth.IdentityFrom(c)
	if !ok {
		return respondError(c, h.logger, auth.ErrUnauthenticated)
	}

	jobs, err := h.store.ListByUser(c.Request().Context(), who.UserID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, jobs)
}

// Create appends a job posted by the authenticated caller
func (h *JobsHandler) Create(c echo.Context) error {
	start := time.Now()
	requestID := middleware.RequestID(c)

	who, ok := auth.IdentityFrom(c)
	if !ok {
		return respondError(c, h.logger, auth.ErrUnauthenticated)
	}

	var req models.CreateJobRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	job, err := h.store.Append(c.Request().Context(), draftFrom(req), who.Attribution())
	if err != nil {
		return respondError(c, h.logger, err)
	}

	h.logger.Info("Job posted", map[string]interface{}{
		"request_id": requestID,
		"job_id":     job.ID,
		"user_id":    job.UserID,
		"is_spam":    job.IsSpam,
		"duration":   utils.FormatDuration(time.Since(start)),
	})
	return c.JSON(http.StatusCreated, job)
}

func draftFrom(req models.CreateJobRequest) jobstore.Draft {
	return jobstore.Draft{
		Title:          req.Title,
		Description:    req.Description,
		CompanyName:    req.CompanyName,
		Location:       req.Location,
		Domain:         req.Domain,
		WorkType:       req.WorkType,
		EmploymentType: req.EmploymentType,
		UserType:       req.UserType,
		SalaryRange:    req.SalaryRange,
		ApplyLink:      req.ApplyLink,
		CareerLink:     req.CareerLink,
		UserID:         req.UserID,
		CreatedBy:      req.CreatedBy,
	}
}
