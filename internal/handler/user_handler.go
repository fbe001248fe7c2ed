package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/subnets-api/internal/dto"
	"github.com/noah-isme/subnets-api/internal/middleware"
	"github.com/noah-isme/subnets-api/internal/service"
	"github.com/noah-isme/subnets-api/internal/utils"
)

// UserHandler serves public profiles and badges.
type UserHandler struct {
	service service.UserService
	logger  zerolog.Logger
}

// NewUserHandler constructs a user handler.
func NewUserHandler(service service.UserService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger.With().Str("component", "user_handler").Logger(),
	}
}

// Register wires user routes.
func (h *UserHandler) Register(router fiber.Router) {
	router.Get("/:id", h.get)
	router.Put("/:id", middleware.RequireAuth(msgUnauthorized), h.update)
	router.Get("/:id/badges", h.badges)
}

func (h *UserHandler) get(c *fiber.Ctx) error {
	profile, err := h.service.Get(requestContext(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.logger, err, errorMessages{internal: "Internal server error fetching user profile"})
	}

	return utils.SendSuccess(c, "user profile", profile)
}

func (h *UserHandler) update(c *fiber.Ctx) error {
	var payload dto.UpdateProfileRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, msgInvalidBody)
	}

	profile, err := h.service.Update(requestContext(c), middleware.UserID(c), c.Params("id"), payload)
	if err != nil {
		return writeError(c, h.logger, err, errorMessages{
			forbidden: "Forbidden - can only update own profile",
			internal:  "Internal server error updating user profile",
		})
	}

	return utils.SendSuccess(c, "Profile updated successfully", profile)
}

func (h *UserHandler) badges(c *fiber.Ctx) error {
	badges, err := h.service.Badges(requestContext(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.logger, err, errorMessages{internal: "Internal server error fetching badges"})
	}

	return utils.SendSuccess(c, "badges", dto.BadgesResponse{Badges: badges})
}
