package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/subnets-api/internal/dto"
	"github.com/noah-isme/subnets-api/internal/middleware"
	"github.com/noah-isme/subnets-api/internal/service"
	"github.com/noah-isme/subnets-api/internal/utils"
)

// AuthHandler exposes sign-up, sign-in, session and sign-out.
type AuthHandler struct {
	service service.AuthService
	logger  zerolog.Logger
}

// NewAuthHandler constructs an auth handler.
func NewAuthHandler(service service.AuthService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register wires auth routes. limiter, when set, guards the credential endpoints.
func (h *AuthHandler) Register(router fiber.Router, limiter fiber.Handler) {
	if limiter == nil {
		limiter = func(c *fiber.Ctx) error { return c.Next() }
	}
	router.Post("/signup", limiter, h.signUp)
	router.Post("/signin", limiter, h.signIn)
	router.Get("/session", h.session)
	router.Post("/signout", h.signOut)
}

func (h *AuthHandler) signUp(c *fiber.Ctx) error {
	var payload dto.SignUpRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, msgInvalidBody)
	}

	profile, err := h.service.SignUp(requestContext(c), payload)
	if err != nil {
		return writeError(c, h.logger, err, errorMessages{internal: "Internal server error during signup"})
	}

	return utils.SendSuccess(c, "User created successfully", dto.SignUpResponse{User: profile})
}

func (h *AuthHandler) signIn(c *fiber.Ctx) error {
	var payload dto.SignInRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, msgInvalidBody)
	}

	result, err := h.service.SignIn(requestContext(c), payload)
	if err != nil {
		return writeError(c, h.logger, err, errorMessages{internal: "Internal server error during signin"})
	}

	return utils.SendSuccess(c, "Signed in successfully", result)
}

func (h *AuthHandler) session(c *fiber.Ctx) error {
	session, err := h.service.Session(requestContext(c), middleware.BearerToken(c))
	if err != nil {
		return writeError(c, h.logger, err, errorMessages{internal: "Internal server error fetching session"})
	}

	message := "session active"
	if session.Session == nil {
		message = "no active session"
	}
	return utils.SendSuccess(c, message, session)
}

func (h *AuthHandler) signOut(c *fiber.Ctx) error {
	if err := h.service.SignOut(requestContext(c), middleware.BearerToken(c)); err != nil {
		return writeError(c, h.logger, err, errorMessages{internal: "Internal server error during signout"})
	}

	return utils.SendSuccess(c, "Signed out successfully", nil)
}
