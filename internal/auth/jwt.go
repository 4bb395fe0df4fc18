package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"jobboard-gateway/internal/config"
)

// Claims is the JWT payload issued after a GitHub login
type Claims struct {
	Login string `json:"login"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

const (
	stateAudience = "oauth-state"
	stateTTL      = 10 * time.Minute
)

// TokenIssuer signs and verifies HS256 session tokens
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret, issuer string, ttl time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// NewTokenIssuerFromConfig reads the auth section of cfg
func NewTokenIssuerFromConfig(cfg *config.Config) (*TokenIssuer, error) {
	return NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
}

// Issue signs a token for id
func (ti *TokenIssuer) Issue(id Identity) (string, error) {
	if id.UserID == "" {
		return "", errors.New("identity has no user id")
	}

	now := ti.now()
	claims := Claims{
		Login: id.Login,
		Name:  id.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			Issuer:    ti.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates token. Every failure wraps ErrUnauthenticated.
func (ti *TokenIssuer) Verify(token string) (Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ti.now),
	}
	if ti.issuer != "" {
		opts = append(opts, jwt.WithIssuer(ti.issuer))
	}

	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return ti.secret, nil
	}, opts...)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return Identity{}, fmt.Errorf("%w: invalid token", ErrUnauthenticated)
	}

	return Identity{UserID: claims.Subject, Login: claims.Login, Name: claims.Name}, nil
}

// IssueState signs a short-lived OAuth state value. It carries no subject,
// so Verify never accepts it as a session token.
func (ti *TokenIssuer) IssueState() (string, error) {
	now := ti.now()
	claims := jwt.RegisteredClaims{
		ID:        NewState(),
		Issuer:    ti.issuer,
		Audience:  jwt.ClaimStrings{stateAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(stateTTL)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
	if err != nil {
		return "", fmt.Errorf("sign state: %w", err)
	}
	return signed, nil
}

// VerifyState checks a state value returned by the OAuth callback.
// Failures wrap ErrUnauthenticated.
func (ti *TokenIssuer) VerifyState(state string) error {
	if state == "" {
		return fmt.Errorf("%w: missing oauth state", ErrUnauthenticated)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithAudience(stateAudience),
		jwt.WithTimeFunc(ti.now),
	}
	if ti.issuer != "" {
		opts = append(opts, jwt.WithIssuer(ti.issuer))
	}

	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(state, &claims, func(*jwt.Token) (interface{}, error) {
		return ti.secret, nil
	}, opts...)
	if err != nil {
		return fmt.Errorf("%w: oauth state: %w", ErrUnauthenticated, err)
	}
	if !parsed.Valid || claims.ID == "" {
		return fmt.Errorf("%w: invalid oauth state", ErrUnauthenticated)
	}
	return nil
}
