package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	githuboauth "golang.org/x/oauth2/github"

	"jobboard-gateway/internal/config"
)

// OAuthExchanger runs the GitHub OAuth web flow
type OAuthExchanger struct {
	config *oauth2.Config
}

func NewOAuthExchanger(cfg *config.Config) *OAuthExchanger {
	endpoint := githuboauth.Endpoint
	if cfg.GitHub.AuthURL != "" {
		endpoint.AuthURL = cfg.GitHub.AuthURL
	}
	if cfg.GitHub.TokenURL != "" {
		endpoint.TokenURL = cfg.GitHub.TokenURL
	}

	return &OAuthExchanger{
		config: &oauth2.Config{
			ClientID:     cfg.GitHub.ClientID,
			ClientSecret: cfg.GitHub.ClientSecret,
			RedirectURL:  cfg.GitHub.RedirectURL,
			Scopes:       cfg.GitHub.Scopes,
			Endpoint:     endpoint,
		},
	}
}

// NewState returns a random value for the OAuth state parameter
func NewState() string {
	return uuid.NewString()
}

// AuthCodeURL is the GitHub page the user is sent to
func (o *OAuthExchanger) AuthCodeURL(state string) string {
	return o.config.AuthCodeURL(state)
}

// Exchange trades an authorization code for a GitHub access token
func (o *OAuthExchanger) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if code == "" {
		return nil, errors.New("authorization code is required")
	}

	token, err := o.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange oauth code: %w", err)
	}
	if token.AccessToken == "" {
		return nil, errors.New("github returned no access token")
	}
	return token, nil
}
