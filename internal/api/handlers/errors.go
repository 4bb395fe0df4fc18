package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"jobboard-gateway/internal/api/middleware"
	"jobboard-gateway/internal/api/validation"
	"jobboard-gateway/internal/auth"
	"jobboard-gateway/internal/jobstore"
	"jobboard-gateway/internal/logging"
	"jobboard-gateway/pkg/models"
	"jobboard-gateway/pkg/utils"
)

// errorCodes maps HTTP statuses to the machine readable "error" field
var errorCodes = map[int]string{
	http.StatusBadRequest:            "validation_failed",
	http.StatusUnauthorized:          "unauthorized",
	http.StatusForbidden:             "forbidden",
	http.StatusNotFound:              "not_found",
	http.StatusMethodNotAllowed:      "method_not_allowed",
	http.StatusConflict:              "concurrent_modification",
	http.StatusRequestEntityTooLarge: "request_too_large",
	http.StatusServiceUnavailable:    "service_unavailable",
	http.StatusBadGateway:            "upstream_error",
	http.StatusGatewayTimeout:        "timeout",
	http.StatusInternalServerError:   "internal_error",
}

// classify decides the status, error code and message for err
func classify(err error) (int, string, string) {
	var (
		ce    *utils.CustomError
		he    *echo.HTTPError
		verrs validator.ValidationErrors
		mbe   *http.MaxBytesError
	)

	switch {
	case errors.As(err, &ce):
		return ce.Code, codeFor(ce.Code), ce.Error()
	case errors.As(err, &verrs):
		return http.StatusBadRequest, "validation_failed", validation.Describe(err)
	case errors.Is(err, jobstore.ErrInvalidDraft):
		return http.StatusBadRequest, "validation_failed", err.Error()
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthorized", "Authentication required"
	case errors.Is(err, jobstore.ErrNotFound):
		return http.StatusNotFound, "not_found", err.Error()
	case errors.Is(err, jobstore.ErrConcurrentModification):
		return http.StatusConflict, "concurrent_modification", "The job list was modified concurrently, please retry"
	case errors.Is(err, jobstore.ErrDecode):
		return http.StatusInternalServerError, "corrupt_store", "Stored job list could not be decoded"
	case errors.Is(err, jobstore.ErrBackendUnavailable):
		return http.StatusBadGateway, "backend_unavailable", "Job storage is unavailable"
	case errors.As(err, &mbe):
		return http.StatusRequestEntityTooLarge, "request_too_large", "Request body too large"
	case errors.As(err, &he):
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok && s != "" {
			msg = s
		}
		return he.Code, codeFor(he.Code), msg
	default:
		return http.StatusInternalServerError, "internal_error", "Internal server error"
	}
}

func codeFor(status int) string {
	if code, ok := errorCodes[status]; ok {
		return code
	}
	return "error"
}

// respondError logs err and renders it as models.ErrorResponse
func respondError(c echo.Context, logger logging.Logger, err error) error {
	status, code, message := classify(err)
	requestID := middleware.RequestID(c)

	fields := map[string]interface{}{
		"request_id": requestID,
		"status":     status,
		"path":       c.Path(),
		"error":      err.Error(),
	}
	if status >= 500 {
		logger.Error("Request failed", fields)
	} else {
		logger.Debug("Request rejected", fields)
	}

	return c.JSON(status, models.ErrorResponse{
		Error:     code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now(),
	})
}

// ErrorHandler renders errors returned by middleware and the router
func ErrorHandler(logger logging.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		if c.Request().Method == http.MethodHead {
			status, _, _ := classify(err)
			_ = c.NoContent(status)
			return
		}
		if rerr := respondError(c, logger, err); rerr != nil {
			logger.Error("Failed to write error response", map[string]interface{}{"error": rerr.Error()})
		}
	}
}
