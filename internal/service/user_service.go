package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/subnets-api/internal/dto"
	"github.com/noah-isme/subnets-api/internal/models"
	"github.com/noah-isme/subnets-api/internal/repository"
)

// UserService exposes profile reads and self-service updates.
type UserService interface {
	Get(ctx context.Context, userID string) (models.UserProfile, error)
	Update(ctx context.Context, actorID, userID string, payload dto.UpdateProfileRequest) (models.UserProfile, error)
	Badges(ctx context.Context, userID string) ([]models.Badge, error)
}

type userService struct {
	users     repository.UserRepository
	badges    BadgeService
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	sanitizer textSanitizer
}

// NewUserService constructs the profile service.
func NewUserService(users repository.UserRepository, badges BadgeService, validate *validator.Validate, logger zerolog.Logger) UserService {
	return &userService{
		users:     users,
		badges:    badges,
		validator: validate,
		logger:    logger.With().Str("component", "user_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/subnets-api/internal/service/user"),
		sanitizer: newTextSanitizer(),
	}
}

func (s *userService) Get(ctx context.Context, userID string) (models.UserProfile, error) {
	profile, err := s.users.Get(ctx, userID)
	if err != nil {
		return models.UserProfile{}, translateStoreError(err, "User")
	}
	return profile, nil
}

func (s *userService) Update(ctx context.Context, actorID, userID string, payload dto.UpdateProfileRequest) (models.UserProfile, error) {
	if actorID == "" {
		return models.UserProfile{}, ErrUnauthenticated
	}
	if actorID != userID {
		return models.UserProfile{}, ErrForbidden
	}
	if err := validate(s.validator, payload, "Invalid profile update"); err != nil {
		return models.UserProfile{}, err
	}

	spanCtx, span := s.tracer.Start(ctx, "users.update", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	var username string
	if payload.Username != nil {
		username = strings.TrimSpace(*payload.Username)
		if username == "" {
			return models.UserProfile{}, newValidationError("username cannot be empty", nil)
		}
		taken, err := usernameTaken(spanCtx, s.users, username, userID)
		if err != nil {
			span.RecordError(err)
			return models.UserProfile{}, err
		}
		if taken {
			return models.UserProfile{}, ErrUsernameTaken
		}
	}

	updated, err := s.users.Update(spanCtx, userID, func(profile *models.UserProfile) error {
		if payload.Username != nil {
			profile.Username = username
		}
		if payload.Avatar != nil {
			profile.Avatar = strings.TrimSpace(*payload.Avatar)
		}
		if payload.Bio != nil {
			profile.Bio = s.sanitizer.Clean(*payload.Bio)
		}
		if profile.Badges == nil {
			profile.Badges = []string{}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return models.UserProfile{}, translateStoreError(err, "User")
	}

	s.logger.Info().Str("user_id", userID).Msg("profile updated")
	return updated, nil
}

func (s *userService) Badges(ctx context.Context, userID string) ([]models.Badge, error) {
	profile, err := s.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("User")
		}
		return nil, err
	}
	return s.badges.ForProfile(ctx, profile)
}
