// Package identity authenticates callers: bcrypt password hashes and signed bearer tokens.
package identity

import (
	"context"
	"errors"

	"github.com/talentpivot/talentpivot/pkg/models"
)

// ErrUnauthorized is returned for any missing, malformed, expired or forged credential.
var ErrUnauthorized = errors.New("unauthorized")

// Identity is an authenticated caller.
type Identity struct {
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

// Authenticator resolves a credential to the caller it identifies.
type Authenticator interface {
	Authenticate(ctx context.Context, credential string) (Identity, error)
}

type contextKey struct{}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity stored by WithIdentity.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)

	return id, ok
}
