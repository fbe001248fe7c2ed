package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/subnets-api/internal/dto"
	"github.com/noah-isme/subnets-api/internal/feed"
	"github.com/noah-isme/subnets-api/internal/models"
	"github.com/noah-isme/subnets-api/internal/repository"
)

// PostService exposes the feed and post lifecycle use-cases.
type PostService interface {
	List(ctx context.Context, query dto.PostListQuery) (dto.FeedResponse, error)
	Get(ctx context.Context, postID string) (models.Post, error)
	Create(ctx context.Context, actorID string, payload dto.CreatePostRequest) (models.Post, error)
	Update(ctx context.Context, actorID, postID string, payload dto.UpdatePostRequest) (models.Post, error)
	Delete(ctx context.Context, actorID, postID string) error
	ToggleUpvote(ctx context.Context, actorID, postID string) (dto.VoteResponse, error)
}

type postService struct {
	posts     repository.PostRepository
	users     repository.UserRepository
	badges    BadgeService
	notifier  Notifier
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	sanitizer textSanitizer
	now       func() time.Time
}

// NewPostService constructs a post service. notifier may be nil.
func NewPostService(posts repository.PostRepository, users repository.UserRepository, badges BadgeService, notifier Notifier, validate *validator.Validate, logger zerolog.Logger) PostService {
	return &postService{
		posts:     posts,
		users:     users,
		badges:    badges,
		notifier:  notifier,
		validator: validate,
		logger:    logger.With().Str("component", "post_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/subnets-api/internal/service/post"),
		sanitizer: newTextSanitizer(),
		now:       time.Now,
	}
}

func (s *postService) List(ctx context.Context, query dto.PostListQuery) (dto.FeedResponse, error) {
	posts, err := s.posts.List(ctx)
	if err != nil {
		return dto.FeedResponse{}, err
	}

	page := feed.List(posts, feed.Query{Limit: query.Limit, Offset: query.Offset, Show: query.Show})
	return dto.FeedResponse{Posts: page.Posts, Total: page.Total, HasMore: page.HasMore}, nil
}

// Get treats soft-deleted posts as missing.
func (s *postService) Get(ctx context.Context, postID string) (models.Post, error) {
	post, err := s.posts.Get(ctx, postID)
	if err != nil {
		return models.Post{}, translateStoreError(err, "Post")
	}
	if post.IsDeleted {
		return models.Post{}, notFound("Post")
	}
	return post, nil
}

func (s *postService) Create(ctx context.Context, actorID string, payload dto.CreatePostRequest) (models.Post, error) {
	if actorID == "" {
		return models.Post{}, ErrUnauthenticated
	}
	if payload.Image != nil && *payload.Image == "" {
		payload.Image = nil
	}
	if err := validate(s.validator, payload, "Show and content are required"); err != nil {
		return models.Post{}, err
	}

	draft := models.PostDraft{
		Show:       s.sanitizer.Clean(payload.Show),
		Content:    s.sanitizer.Clean(payload.Content),
		HasSpoiler: payload.HasSpoiler,
		Tags:       s.cleanTags(payload.Tags),
		Image:      payload.Image,
	}
	if draft.Show == "" || draft.Content == "" {
		return models.Post{}, newValidationError("Show and content are required", nil)
	}

	spanCtx, span := s.tracer.Start(ctx, "posts.create", trace.WithAttributes(attribute.String("post.author_id", actorID)))
	defer span.End()

	author, err := s.users.Get(spanCtx, actorID)
	if err != nil {
		return models.Post{}, translateStoreError(err, "User profile")
	}

	post := models.NewPost(uuid.NewString(), author, draft, s.now())
	if err := s.posts.Create(spanCtx, post); err != nil {
		span.RecordError(err)
		return models.Post{}, err
	}

	postIDs, err := s.posts.AppendUserPost(spanCtx, actorID, post.ID)
	if err != nil {
		// the post itself is stored; only badge progress lags behind
		s.logger.Warn().Err(err).Str("post_id", post.ID).Msg("failed to index post for author")
	} else {
		s.awardBadges(spanCtx, author, len(postIDs), post.ID)
	}

	notifyMentions(spanCtx, s.users, s.notifier, s.logger, author, post.Content, post.ID, nil)

	s.logger.Info().Str("post_id", post.ID).Str("author_id", actorID).Msg("post created")
	return post, nil
}

func (s *postService) Update(ctx context.Context, actorID, postID string, payload dto.UpdatePostRequest) (models.Post, error) {
	if actorID == "" {
		return models.Post{}, ErrUnauthenticated
	}
	if err := validate(s.validator, payload, "Invalid post update"); err != nil {
		return models.Post{}, err
	}

	spanCtx, span := s.tracer.Start(ctx, "posts.update", trace.WithAttributes(attribute.String("post.id", postID)))
	defer span.End()

	updated, err := s.posts.Update(spanCtx, postID, func(post *models.Post) error {
		if err := authorizeMutation(*post, actorID); err != nil {
			return err
		}
		if payload.Show != nil {
			show := s.sanitizer.Clean(*payload.Show)
			if show == "" {
				return newValidationError("show cannot be empty", nil)
			}
			post.Show = show
		}
		if payload.Content != nil {
			content := s.sanitizer.Clean(*payload.Content)
			if content == "" {
				return newValidationError("content cannot be empty", nil)
			}
			post.Content = content
		}
		if payload.HasSpoiler != nil {
			post.HasSpoiler = *payload.HasSpoiler
		}
		if payload.Tags != nil {
			post.Tags = s.cleanTags(payload.Tags)
		}
		if payload.Image != nil {
			if *payload.Image == "" {
				post.Image = nil
			} else {
				image := *payload.Image
				post.Image = &image
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return models.Post{}, translateStoreError(err, "Post")
	}

	s.logger.Info().Str("post_id", postID).Str("author_id", actorID).Msg("post updated")
	return updated, nil
}

// Delete flags the post as deleted and keeps every other field.
func (s *postService) Delete(ctx context.Context, actorID, postID string) error {
	if actorID == "" {
		return ErrUnauthenticated
	}

	spanCtx, span := s.tracer.Start(ctx, "posts.delete", trace.WithAttributes(attribute.String("post.id", postID)))
	defer span.End()

	_, err := s.posts.Update(spanCtx, postID, func(post *models.Post) error {
		if err := authorizeMutation(*post, actorID); err != nil {
			return err
		}
		post.IsDeleted = true
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return translateStoreError(err, "Post")
	}

	s.logger.Info().Str("post_id", postID).Str("author_id", actorID).Msg("post soft deleted")
	return nil
}

func (s *postService) ToggleUpvote(ctx context.Context, actorID, postID string) (dto.VoteResponse, error) {
	if actorID == "" {
		return dto.VoteResponse{}, ErrUnauthenticated
	}

	spanCtx, span := s.tracer.Start(ctx, "posts.upvote", trace.WithAttributes(
		attribute.String("post.id", postID),
		attribute.String("post.voter_id", actorID),
	))
	defer span.End()

	var upvoted bool
	updated, err := s.posts.Update(spanCtx, postID, func(post *models.Post) error {
		if post.IsDeleted {
			return notFound("Post")
		}
		upvoted = post.ToggleUpvote(actorID)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return dto.VoteResponse{}, translateStoreError(err, "Post")
	}

	if upvoted && updated.Author.ID != actorID {
		s.notifyUpvote(spanCtx, actorID, updated)
	}

	return dto.VoteResponse{Upvotes: updated.Reactions.Upvotes, HasUpvoted: upvoted}, nil
}

// authorizeMutation reports missing posts before ownership so a stranger cannot probe deleted ids.
func authorizeMutation(post models.Post, actorID string) error {
	if post.IsDeleted {
		return notFound("Post")
	}
	if !post.OwnedBy(actorID) {
		return ErrForbidden
	}
	return nil
}

func (s *postService) cleanTags(inputs []dto.TagInput) []models.Tag {
	tags := dto.ToTags(inputs)
	out := make([]models.Tag, 0, len(tags))
	for _, tag := range tags {
		tag.Text = s.sanitizer.Clean(tag.Text)
		if tag.Text == "" {
			continue
		}
		out = append(out, tag)
	}
	return out
}

func (s *postService) notifyUpvote(ctx context.Context, actorID string, post models.Post) {
	if s.notifier == nil {
		return
	}

	voter, err := s.users.Get(ctx, actorID)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", actorID).Msg("upvote notification without voter profile")
		return
	}

	actor := voter.Snapshot()
	message := fmt.Sprintf("%s upvoted your theory about %s", voter.Username, post.Show)
	if _, err := s.notifier.Notify(ctx, post.Author.ID, models.NotificationUpvote, &actor, message, post.ID); err != nil {
		s.logger.Warn().Err(err).Str("post_id", post.ID).Msg("failed to publish upvote notification")
	}
}

func (s *postService) awardBadges(ctx context.Context, author models.UserProfile, postCount int, postID string) {
	if s.badges == nil {
		return
	}

	earned := s.badges.Earned(postCount, author.Badges)
	if len(earned) == 0 {
		return
	}

	var granted []models.BadgeDefinition
	_, err := s.users.Update(ctx, author.ID, func(profile *models.UserProfile) error {
		granted = s.badges.Earned(postCount, profile.Badges)
		for _, def := range granted {
			profile.Badges = append(profile.Badges, def.Badge.ID)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn().Err(err).Str("user_id", author.ID).Msg("failed to award badges")
		}
		return
	}

	for _, def := range granted {
		s.logger.Info().Str("user_id", author.ID).Str("badge_id", def.Badge.ID).Msg("badge unlocked")
		if s.notifier == nil {
			continue
		}
		message := fmt.Sprintf("You unlocked the %s badge", def.Badge.Name)
		if _, err := s.notifier.Notify(ctx, author.ID, models.NotificationBadge, nil, message, postID); err != nil {
			s.logger.Warn().Err(err).Str("user_id", author.ID).Msg("failed to publish badge notification")
		}
	}
}
