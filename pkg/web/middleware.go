package web

import (
	"github.com/gofiber/fiber/v3"
	"github.com/talentpivot/talentpivot/pkg/identity"
)

const identityLocalKey = "identity"

// RequireIdentity rejects requests without a valid bearer token and stores the caller
// in the request locals.
func RequireIdentity(authenticator identity.Authenticator) fiber.Handler {
	return func(c fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return unauthorized(c, "missing bearer token")
		}

		id, err := authenticator.Authenticate(c.Context(), header)
		if err != nil {
			return unauthorized(c, "invalid or expired token")
		}

		c.Locals(identityLocalKey, id)

		return c.Next()
	}
}

// caller returns the identity stored by RequireIdentity.
func caller(c fiber.Ctx) (identity.Identity, bool) {
	id, ok := c.Locals(identityLocalKey).(identity.Identity)

	return id, ok
}
