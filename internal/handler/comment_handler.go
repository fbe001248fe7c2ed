package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/subnets-api/internal/commenttree"
	"github.com/noah-isme/subnets-api/internal/dto"
	"github.com/noah-isme/subnets-api/internal/middleware"
	"github.com/noah-isme/subnets-api/internal/service"
	"github.com/noah-isme/subnets-api/internal/utils"
)

// CommentHandler serves comment threads.
type CommentHandler struct {
	service service.CommentService
	logger  zerolog.Logger
}

// NewCommentHandler constructs a comment handler.
func NewCommentHandler(service service.CommentService, logger zerolog.Logger) *CommentHandler {
	return &CommentHandler{
		service: service,
		logger:  logger.With().Str("component", "comment_handler").Logger(),
	}
}

// Register wires comment routes on the API root since they span /posts and /comments.
func (h *CommentHandler) Register(router fiber.Router) {
	router.Get("/posts/:id/comments", h.list)
	router.Post("/posts/:id/comments", middleware.RequireAuth("Unauthorized - must be logged in to comment"), h.create)
	router.Post("/comments/:id/upvote", middleware.RequireAuth("Unauthorized - must be logged in to upvote"), h.upvote)
}

func (h *CommentHandler) list(c *fiber.Ctx) error {
	comments, err := h.service.List(requestContext(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.logger, err, errorMessages{internal: "Internal server error fetching comments"})
	}

	meta := dto.CommentsMeta{Total: commenttree.Count(comments), Depth: commenttree.Depth(comments)}
	return utils.OK(c, dto.CommentsResponse{Comments: comments}, "comments", meta)
}

func (h *CommentHandler) create(c *fiber.Ctx) error {
	var payload dto.CreateCommentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, msgInvalidBody)
	}

	comment, err := h.service.Create(requestContext(c), middleware.UserID(c), c.Params("id"), payload)
	if err != nil {
		return writeError(c, h.logger, err, errorMessages{internal: "Internal server error creating comment"})
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "Comment created successfully", comment)
}

func (h *CommentHandler) upvote(c *fiber.Ctx) error {
	result, err := h.service.ToggleUpvote(requestContext(c), middleware.UserID(c), c.Query("postId"), c.Params("id"))
	if err != nil {
		return writeError(c, h.logger, err, errorMessages{internal: "Internal server error toggling comment upvote"})
	}

	return utils.SendSuccess(c, result.Message, result)
}
