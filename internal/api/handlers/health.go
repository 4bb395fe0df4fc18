package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"jobboard-gateway/internal/health"
	"jobboard-gateway/pkg/models"
)

// HealthHandler reports that the process is up, with dependency checks
func HealthHandler(checker *health.Checker) echo.HandlerFunc {
	return func(c echo.Context) error {
		report := checker.Check(c.Request().Context())

		status := "healthy"
		if report.Status != health.StatusReady {
			status = report.Status
		}

		return c.JSON(http.StatusOK, models.HealthResponse{
			Status:    status,
			Timestamp: time.Now(),
			Version:   checker.Version(),
			Uptime:    checker.Uptime(),
			Checks:    report.Checks,
		})
	}
}

// ReadinessHandler answers 503 while the job store backend is unreachable.
// An unhealthy LLM only marks the service degraded.
func ReadinessHandler(checker *health.Checker) echo.HandlerFunc {
	return func(c echo.Context) error {
		report := checker.Check(c.Request().Context())

		code := http.StatusOK
		if !report.Ready {
			code = http.StatusServiceUnavailable
		}

		return c.JSON(code, models.HealthResponse{
			Status:    report.Status,
			Timestamp: time.Now(),
			Version:   checker.Version(),
			Uptime:    checker.Uptime(),
			Checks:    report.Checks,
		})
	}
}

// LivenessHandler handles liveness probe requests
func LivenessHandler(checker *health.Checker) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, models.HealthResponse{
			Status:    "alive",
			Timestamp: time.Now(),
			Version:   checker.Version(),
			Uptime:    checker.Uptime(),
		})
	}
}
