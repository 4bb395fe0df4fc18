package auth

import (
	"strings"

	"github.com/labstack/echo/v4"

	"jobboard-gateway/pkg/utils"
)

const identityContextKey = "identity"

// Verifier checks a bearer token; *TokenIssuer implements it
type Verifier interface {
	Verify(token string) (Identity, error)
}

// RequireIdentity rejects requests without a valid bearer JWT
func RequireIdentity(v Verifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if token == "" {
				return utils.NewUnauthorizedError("missing bearer token")
			}

			id, err := v.Verify(token)
			if err != nil {
				return utils.NewUnauthorizedError("invalid or expired token")
			}

			setIdentity(c, id)
			return next(c)
		}
	}
}

// OptionalIdentity attaches the caller's identity when a valid token is sent
// and otherwise lets the request through anonymously
func OptionalIdentity(v Verifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if token := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization)); token != "" {
				if id, err := v.Verify(token); err == nil {
					setIdentity(c, id)
				}
			}
			return next(c)
		}
	}
}

// IdentityFrom returns the identity set by one of the middlewares
func IdentityFrom(c echo.Context) (Identity, bool) {
	id, ok := c.Get(identityContextKey).(Identity)
	return id, ok
}

func setIdentity(c echo.Context, id Identity) {
	c.Set(identityContextKey, id)
	c.SetRequest(c.Request().WithContext(WithIdentity(c.Request().Context(), id)))
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
