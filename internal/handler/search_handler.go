package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/subnets-api/internal/dto"
	"github.com/noah-isme/subnets-api/internal/service"
	"github.com/noah-isme/subnets-api/internal/utils"
)

// SearchHandler serves GET /search.
type SearchHandler struct {
	service service.SearchService
	logger  zerolog.Logger
}

func NewSearchHandler(service service.SearchService, logger zerolog.Logger) *SearchHandler {
	return &SearchHandler{
		service: service,
		logger:  logger.With().Str("component", "search_handler").Logger(),
	}
}

func (h *SearchHandler) Register(router fiber.Router) {
	router.Get("/", h.search)
}

func (h *SearchHandler) search(c *fiber.Ctx) error {
	results, err := h.service.Search(requestContext(c), dto.SearchQuery{
		Query: c.Query("q"),
		Type:  c.Query("type"),
	})
	if err != nil {
		return writeError(c, h.logger, err, errorMessages{internal: "Internal server error during search"})
	}

	return utils.SendSuccess(c, "search results", results)
}
