package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/subnets-api/internal/dto"
	"github.com/noah-isme/subnets-api/internal/middleware"
	"github.com/noah-isme/subnets-api/internal/service"
	"github.com/noah-isme/subnets-api/internal/utils"
)

// PostHandler serves the feed and the post lifecycle.
type PostHandler struct {
	service service.PostService
	logger  zerolog.Logger
}

// NewPostHandler constructs a post handler.
func NewPostHandler(service service.PostService, logger zerolog.Logger) *PostHandler {
	return &PostHandler{
		service: service,
		logger:  logger.With().Str("component", "post_handler").Logger(),
	}
}

// Register wires post routes. The group must run middleware.Authenticate.
func (h *PostHandler) Register(router fiber.Router) {
	router.Get("/", h.list)
	router.Get("/:id", h.get)
	router.Post("/", middleware.RequireAuth("Unauthorized - must be logged in to create posts"), h.create)
	router.Put("/:id", middleware.RequireAuth(msgUnauthorized), h.update)
	router.Delete("/:id", middleware.RequireAuth(msgUnauthorized), h.delete)
	router.Post("/:id/upvote", middleware.RequireAuth("Unauthorized - must be logged in to upvote"), h.upvote)
}

func (h *PostHandler) list(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "limit must be an integer")
	}
	offset, err := parseQueryInt(c, "offset")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "offset must be an integer")
	}

	page, err := h.service.List(requestContext(c), dto.PostListQuery{
		Limit:  limit,
		Offset: offset,
		Show:   c.Query("show"),
	})
	if err != nil {
		return writeError(c, h.logger, err, errorMessages{internal: "Internal server error fetching posts"})
	}

	return utils.SendSuccess(c, "posts", page)
}

func (h *PostHandler) get(c *fiber.Ctx) error {
	post, err := h.service.Get(requestContext(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.logger, err, errorMessages{internal: "Internal server error fetching post"})
	}

	meta := dto.PostViewerMeta{HasUpvoted: post.HasUpvoted(middleware.UserID(c))}
	return utils.OK(c, post, "post", meta)
}

func (h *PostHandler) create(c *fiber.Ctx) error {
	var payload dto.CreatePostRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, msgInvalidBody)
	}

	post, err := h.service.Create(requestContext(c), middleware.UserID(c), payload)
	if err != nil {
		return writeError(c, h.logger, err, errorMessages{internal: "Internal server error creating post"})
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "Post created successfully", post)
}

func (h *PostHandler) update(c *fiber.Ctx) error {
	var payload dto.UpdatePostRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, msgInvalidBody)
	}

	post, err := h.service.Update(requestContext(c), middleware.UserID(c), c.Params("id"), payload)
	if err != nil {
		return writeError(c, h.logger, err, errorMessages{
			forbidden: "Forbidden - can only edit own posts",
			internal:  "Internal server error updating post",
		})
	}

	return utils.SendSuccess(c, "Post updated successfully", post)
}

func (h *PostHandler) delete(c *fiber.Ctx) error {
	if err := h.service.Delete(requestContext(c), middleware.UserID(c), c.Params("id")); err != nil {
		return writeError(c, h.logger, err, errorMessages{
			forbidden: "Forbidden - can only delete own posts",
			internal:  "Internal server error deleting post",
		})
	}

	return utils.SendSuccess(c, "Post deleted successfully", nil)
}

func (h *PostHandler) upvote(c *fiber.Ctx) error {
	vote, err := h.service.ToggleUpvote(requestContext(c), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.logger, err, errorMessages{internal: "Internal server error toggling upvote"})
	}

	return utils.SendSuccess(c, "Upvote toggled successfully", vote)
}
