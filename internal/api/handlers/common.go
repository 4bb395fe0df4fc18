package handlers

import (
	"github.com/labstack/echo/v4"

	"jobboard-gateway/internal/api/validation"
	"jobboard-gateway/pkg/utils"
)

var validate = validation.New()

// bindAndValidate decodes the request into dst and runs struct validation
func bindAndValidate(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return utils.NewBadRequestError("Invalid request format")
	}
	if err := validate.Struct(dst); err != nil {
		return utils.NewValidationError(validation.Describe(err))
	}
	return nil
}
