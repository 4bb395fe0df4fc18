package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"jobboard-gateway/internal/enrichment"
	"jobboard-gateway/internal/jobstore"
	"jobboard-gateway/internal/logging"
	"jobboard-gateway/pkg/models"
	"jobboard-gateway/pkg/utils"
)

// SummaryHandler generates a company summary for a URL on demand
func SummaryHandler(enricher jobstore.Enricher, logger logging.Logger) echo.HandlerFunc {
	logger = logger.WithField("handler", "enrichment")

	return func(c echo.Context) error {
		var req models.SummaryRequest
		if err := bindAndValidate(c, &req); err != nil {
			return respondError(c, logger, err)
		}

		summary, err := enricher.Summarize(c.Request().Context(), req.URL)
		if errors.Is(err, enrichment.ErrBlockedURL) {
			return respondError(c, logger, utils.NewValidationError("url must point to a public http or https host"))
		}
		if err != nil {
			return respondError(c, logger, utils.NewUpstreamError("summary generation failed", err))
		}

		return c.JSON(http.StatusOK, models.SummaryResponse{URL: req.URL, Summary: summary})
	}
}
