package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/subnets-api/internal/utils"
)

const defaultUnauthorizedMessage = "Unauthorized"

// AuthOptions configures the WithAuth helper.
type AuthOptions struct {
	RequireUser bool
	// Message replaces the default 401 message.
	Message string
}

// WithAuth wraps a handler with an authentication guard.
func WithAuth(handler fiber.Handler, opts AuthOptions) fiber.Handler {
	message := opts.Message
	if message == "" {
		message = defaultUnauthorizedMessage
	}

	return func(c *fiber.Ctx) error {
		if opts.RequireUser && UserID(c) == "" {
			return utils.Fail(c, fiber.StatusUnauthorized, message, nil)
		}
		return handler(c)
	}
}

// RequireAuth is WithAuth as a route middleware.
func RequireAuth(message string) fiber.Handler {
	return WithAuth(func(c *fiber.Ctx) error { return c.Next() }, AuthOptions{RequireUser: true, Message: message})
}
