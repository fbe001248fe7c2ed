package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/subnets-api/internal/config"
	"github.com/noah-isme/subnets-api/internal/handler"
	"github.com/noah-isme/subnets-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler         *handler.AuthHandler
	PostHandler         *handler.PostHandler
	CommentHandler      *handler.CommentHandler
	UserHandler         *handler.UserHandler
	SearchHandler       *handler.SearchHandler
	NotificationHandler *handler.NotificationHandler
	UploadHandler       *handler.UploadHandler
	SeedHandler         *handler.SeedHandler
	// AuthMiddleware resolves the optional bearer identity for every API route.
	AuthMiddleware fiber.Handler
	// RateLimiter guards sign-up, sign-in and writes that fan out notifications.
	RateLimiter fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	authMiddleware := deps.AuthMiddleware
	if authMiddleware == nil {
		authMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	api := app.Group(cfg.APIPrefix, func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	}, authMiddleware)
	api.Get("/health", handler.HealthCheck(cfg))

	if deps.SeedHandler != nil {
		deps.SeedHandler.Register(api.Group("/seed"))
	}

	if deps.AuthHandler != nil {
		deps.AuthHandler.Register(api.Group("/auth"), deps.RateLimiter)
	}

	if deps.PostHandler != nil {
		deps.PostHandler.Register(api.Group("/posts"))
	}

	if deps.CommentHandler != nil {
		deps.CommentHandler.Register(api)
	}

	if deps.SearchHandler != nil {
		deps.SearchHandler.Register(api.Group("/search"))
	}

	if deps.UserHandler != nil {
		deps.UserHandler.Register(api.Group("/users"))
	}

	if deps.NotificationHandler != nil {
		deps.NotificationHandler.Register(api.Group("/notifications"))
	}

	if deps.UploadHandler != nil {
		deps.UploadHandler.Register(api.Group("/uploads"))
	}
}
