package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/subnets-api/internal/service"
)

// Locals keys set by Authenticate.
const (
	LocalUserID      = "user_id"
	LocalUserEmail   = "user_email"
	LocalIdentity    = "identity"
	LocalAccessToken = "access_token"
)

// Authenticate resolves an optional bearer token. Requests without a token, or with
// one that fails verification, continue anonymously; routes that need a user are
// guarded by RequireAuth.
func Authenticate(provider service.IdentityProvider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := BearerToken(c)
		if token == "" || provider == nil {
			return c.Next()
		}
		c.Locals(LocalAccessToken, token)

		identity, err := provider.Verify(c.UserContext(), token)
		if err != nil {
			return c.Next()
		}

		c.Locals(LocalUserID, identity.UserID)
		c.Locals(LocalUserEmail, identity.Email)
		c.Locals(LocalIdentity, identity)
		return c.Next()
	}
}

// BearerToken extracts the token of an "Authorization: Bearer" header.
func BearerToken(c *fiber.Ctx) string {
	authorization := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	const bearer = "bearer "
	if len(authorization) < len(bearer) || !strings.EqualFold(authorization[:len(bearer)], bearer) {
		return ""
	}
	return strings.TrimSpace(authorization[len(bearer):])
}

// UserID returns the authenticated user id, or "" for anonymous requests.
func UserID(c *fiber.Ctx) string {
	if id, ok := c.Locals(LocalUserID).(string); ok {
		return strings.TrimSpace(id)
	}
	return ""
}

// IdentityFrom returns the verified identity bound to the request.
func IdentityFrom(c *fiber.Ctx) (service.Identity, bool) {
	identity, ok := c.Locals(LocalIdentity).(service.Identity)
	return identity, ok
}
