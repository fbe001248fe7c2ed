package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/subnets-api/internal/service"
	"github.com/noah-isme/subnets-api/internal/utils"
)

// SeedHandler exposes the demo data endpoint.
type SeedHandler struct {
	service service.SeedService
	logger  zerolog.Logger
}

// NewSeedHandler constructs a seed handler.
func NewSeedHandler(service service.SeedService, logger zerolog.Logger) *SeedHandler {
	return &SeedHandler{
		service: service,
		logger:  logger.With().Str("component", "seed_handler").Logger(),
	}
}

// Register wires seed routes.
func (h *SeedHandler) Register(router fiber.Router) {
	router.Post("/", h.seed)
}

func (h *SeedHandler) seed(c *fiber.Ctx) error {
	report, err := h.service.Seed(requestContext(c), c.Get("X-Seed-Token"))
	if err != nil {
		return writeError(c, h.logger, err, errorMessages{internal: "Seed operation failed"})
	}

	message := "Database seeded successfully"
	if report.AlreadySeeded {
		message = "Demo data already present"
	}
	return utils.SendSuccess(c, message, report)
}
