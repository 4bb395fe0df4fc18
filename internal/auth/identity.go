package auth

import (
	"context"
	"errors"

	"jobboard-gateway/internal/jobstore"
)

// ErrUnauthenticated is returned for a missing, malformed, expired or
// otherwise invalid credential
var ErrUnauthenticated = errors.New("unauthenticated")

// Identity is the authenticated GitHub user behind a request
type Identity struct {
	UserID string `json:"id"`
	Login  string `json:"login"`
	Name   string `json:"name,omitempty"`
}

// Attribution converts the identity into the form the job store records
func (i Identity) Attribution() jobstore.Identity {
	return jobstore.Identity{UserID: i.UserID, Login: i.Login}
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the identity stored by WithIdentity, if any
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
