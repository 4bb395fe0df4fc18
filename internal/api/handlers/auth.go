package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"golang.org/x/oauth2"

	"jobboard-gateway/internal/auth"
	"jobboard-gateway/internal/githubapi"
	"jobboard-gateway/internal/logging"
	"jobboard-gateway/pkg/models"
	"jobboard-gateway/pkg/utils"
)

// CodeExchanger is the OAuth half of the login flow; *auth.OAuthExchanger implements it
type CodeExchanger interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
}

// AuthHandler runs the GitHub login flow and issues session tokens
type AuthHandler struct {
	oauth  CodeExchanger
	github *githubapi.Client
	tokens *auth.TokenIssuer
	logger logging.Logger
}

func NewAuthHandler(oauth CodeExchanger, github *githubapi.Client, tokens *auth.TokenIssuer, logger logging.Logger) *AuthHandler {
	return &AuthHandler{oauth: oauth, github: github, tokens: tokens, logger: logger.WithField("handler", "auth")}
}

// LoginURL returns the GitHub authorize URL and the signed state the
// callback must echo back
func (h *AuthHandler) LoginURL(c echo.Context) error {
	state, err := h.tokens.IssueState()
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, models.LoginURLResponse{
		URL:   h.oauth.AuthCodeURL(state),
		State: state,
	})
}

// Callback exchanges the OAuth code, looks up the GitHub user and issues a JWT
func (h *AuthHandler) Callback(c echo.Context) error {
	var req models.OAuthCallbackRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	if err := h.tokens.VerifyState(req.State); err != nil {
		h.logger.Warn("OAuth state rejected", map[string]interface{}{"error": err.Error()})
		ce := utils.NewUnauthorizedError("invalid or expired OAuth state")
		ce.Err = err
		return respondError(c, h.logger, ce)
	}

	ctx := c.Request().Context()
	token, err := h.oauth.Exchange(ctx, req.Code)
	if err != nil {
		h.logger.Warn("OAuth code exchange failed", map[string]interface{}{"error": err.Error()})
		ce := utils.NewUnauthorizedError("GitHub rejected the authorization code")
		ce.Err = err
		return respondError(c, h.logger, ce)
	}

	user, err := h.github.ForToken(token.AccessToken).CurrentUser(ctx)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	id := auth.Identity{
		UserID: strconv.FormatInt(user.GetID(), 10),
		Login:  user.GetLogin(),
		Name:   user.GetName(),
	}

	signed, err := h.tokens.Issue(id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	h.logger.Info("User logged in", map[string]interface{}{"user_id": id.UserID, "login": id.Login})

	return c.JSON(http.StatusOK, models.AuthResponse{
		Token:       signed,
		AccessToken: token.AccessToken,
		TokenType:   "Bearer",
		User:        userResponse(id),
	})
}

// Me returns the identity carried by the caller's JWT
func (h *AuthHandler) Me(c echo.Context) error {
	id, ok := auth.IdentityFrom(c)
	if !ok {
		return respondError(c, h.logger, auth.ErrUnauthenticated)
	}
	return c.JSON(http.StatusOK, userResponse(id))
}

func userResponse(id auth.Identity) models.UserResponse {
	return models.UserResponse{ID: id.UserID, Login: id.Login, Name: id.Name}
}
