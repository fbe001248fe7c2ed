package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/subnets-api/internal/commenttree"
	"github.com/noah-isme/subnets-api/internal/dto"
	"github.com/noah-isme/subnets-api/internal/models"
	"github.com/noah-isme/subnets-api/internal/repository"
)

// CommentService exposes threaded comments on posts.
type CommentService interface {
	List(ctx context.Context, postID string) ([]models.Comment, error)
	Create(ctx context.Context, actorID, postID string, payload dto.CreateCommentRequest) (models.Comment, error)
	ToggleUpvote(ctx context.Context, actorID, postID, commentID string) (dto.CommentVoteResponse, error)
}

type commentService struct {
	comments  repository.CommentRepository
	posts     repository.PostRepository
	users     repository.UserRepository
	engine    commenttree.Engine
	notifier  Notifier
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	sanitizer textSanitizer
	now       func() time.Time
}

// NewCommentService constructs a comment service. maxDepth bounds reply nesting; 0 uses the engine default.
func NewCommentService(comments repository.CommentRepository, posts repository.PostRepository, users repository.UserRepository, notifier Notifier, maxDepth int, validate *validator.Validate, logger zerolog.Logger) CommentService {
	return &commentService{
		comments:  comments,
		posts:     posts,
		users:     users,
		engine:    commenttree.Engine{MaxDepth: maxDepth},
		notifier:  notifier,
		validator: validate,
		logger:    logger.With().Str("component", "comment_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/subnets-api/internal/service/comment"),
		sanitizer: newTextSanitizer(),
		now:       time.Now,
	}
}

// List returns the forest even when the post has been deleted.
func (s *commentService) List(ctx context.Context, postID string) ([]models.Comment, error) {
	return s.comments.List(ctx, postID)
}

func (s *commentService) Create(ctx context.Context, actorID, postID string, payload dto.CreateCommentRequest) (models.Comment, error) {
	if actorID == "" {
		return models.Comment{}, ErrUnauthenticated
	}
	payload.ParentID = strings.TrimSpace(payload.ParentID)
	if err := validate(s.validator, payload, "Content is required"); err != nil {
		return models.Comment{}, err
	}
	content := s.sanitizer.Clean(payload.Content)
	if content == "" {
		return models.Comment{}, newValidationError("Content is required", nil)
	}

	spanCtx, span := s.tracer.Start(ctx, "comments.create", trace.WithAttributes(
		attribute.String("comment.post_id", postID),
		attribute.String("comment.author_id", actorID),
		attribute.Bool("comment.is_reply", payload.ParentID != ""),
	))
	defer span.End()

	post, err := s.posts.Get(spanCtx, postID)
	if err != nil {
		return models.Comment{}, translateStoreError(err, "Post")
	}
	if post.IsDeleted {
		return models.Comment{}, notFound("Post")
	}

	author, err := s.users.Get(spanCtx, actorID)
	if err != nil {
		return models.Comment{}, translateStoreError(err, "User profile")
	}

	comment := models.NewComment(uuid.NewString(), author, content, s.now())

	var parent models.Comment
	_, err = s.comments.Update(spanCtx, postID, func(forest []models.Comment) ([]models.Comment, error) {
		if payload.ParentID != "" {
			found, ok := commenttree.Find(forest, payload.ParentID)
			if ok {
				parent = found
			}
		}
		return s.engine.Append(forest, comment, payload.ParentID)
	})
	if err != nil {
		span.RecordError(err)
		return models.Comment{}, s.treeError(err, "Parent comment")
	}

	if _, err := s.posts.Update(spanCtx, postID, func(p *models.Post) error {
		p.Reactions.Comments++
		return nil
	}); err != nil {
		// the comment is stored; the counter is a cache and tolerates lagging
		s.logger.Error().Err(err).Str("post_id", postID).Msg("failed to bump comment counter")
	}

	s.dispatchNotifications(spanCtx, author, post, parent, comment)

	s.logger.Info().Str("comment_id", comment.ID).Str("post_id", postID).Str("author_id", actorID).Msg("comment created")
	return comment, nil
}

func (s *commentService) ToggleUpvote(ctx context.Context, actorID, postID, commentID string) (dto.CommentVoteResponse, error) {
	if actorID == "" {
		return dto.CommentVoteResponse{}, ErrUnauthenticated
	}
	if strings.TrimSpace(postID) == "" {
		return dto.CommentVoteResponse{}, newValidationError("postId query parameter is required", nil)
	}

	spanCtx, span := s.tracer.Start(ctx, "comments.upvote", trace.WithAttributes(
		attribute.String("comment.post_id", postID),
		attribute.String("comment.id", commentID),
	))
	defer span.End()

	var result commenttree.Toggle
	_, err := s.comments.Update(spanCtx, postID, func(forest []models.Comment) ([]models.Comment, error) {
		updated, toggle, err := s.engine.ToggleUpvote(forest, commentID, actorID)
		if err != nil {
			return nil, err
		}
		result = toggle
		return updated, nil
	})
	if err != nil {
		span.RecordError(err)
		return dto.CommentVoteResponse{}, s.treeError(err, "Comment")
	}

	return dto.CommentVoteResponse{
		Message:    "Comment upvote toggled successfully",
		Upvotes:    result.Upvotes,
		HasUpvoted: result.HasUpvoted,
	}, nil
}

func (s *commentService) treeError(err error, missing string) error {
	switch {
	case errors.Is(err, commenttree.ErrCommentNotFound):
		return notFound(missing)
	case errors.Is(err, commenttree.ErrTreeTooDeep):
		return newValidationError("Reply is nested too deeply", err)
	default:
		return translateStoreError(err, "Comments")
	}
}

// dispatchNotifications tells the post author and, for replies, the parent author.
// Mentioned users are notified once even if they are also one of those.
func (s *commentService) dispatchNotifications(ctx context.Context, author models.UserProfile, post models.Post, parent, comment models.Comment) {
	if s.notifier == nil {
		return
	}

	actor := author.Snapshot()
	notified := make(map[string]struct{})

	send := func(recipientID string, kind models.NotificationType, message string) {
		if recipientID == "" || recipientID == author.ID {
			return
		}
		if _, done := notified[recipientID]; done {
			return
		}
		notified[recipientID] = struct{}{}
		if _, err := s.notifier.Notify(ctx, recipientID, kind, &actor, message, post.ID); err != nil {
			s.logger.Warn().Err(err).Str("user_id", recipientID).Msg("failed to publish comment notification")
		}
	}

	if parent.ID != "" {
		send(parent.Author.ID, models.NotificationComment, author.Username+" replied to your comment")
	}
	send(post.Author.ID, models.NotificationComment, author.Username+" commented on your theory about "+post.Show)

	notified[author.ID] = struct{}{}
	notifyMentions(ctx, s.users, s.notifier, s.logger, author, comment.Content, post.ID, notified)
}
