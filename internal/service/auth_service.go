package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/subnets-api/internal/dto"
	"github.com/noah-isme/subnets-api/internal/models"
	"github.com/noah-isme/subnets-api/internal/repository"
)

// AuthService handles account creation and bearer sessions.
type AuthService interface {
	SignUp(ctx context.Context, payload dto.SignUpRequest) (models.UserProfile, error)
	SignIn(ctx context.Context, payload dto.SignInRequest) (dto.SignInResponse, error)
	Session(ctx context.Context, token string) (dto.SessionResponse, error)
	SignOut(ctx context.Context, token string) error
}

type authService struct {
	users      repository.UserRepository
	identity   IdentityProvider
	validator  *validator.Validate
	logger     zerolog.Logger
	tracer     trace.Tracer
	bcryptCost int
	now        func() time.Time
}

// NewAuthService constructs the auth service.
func NewAuthService(users repository.UserRepository, identity IdentityProvider, validate *validator.Validate, logger zerolog.Logger) AuthService {
	return &authService{
		users:      users,
		identity:   identity,
		validator:  validate,
		logger:     logger.With().Str("component", "auth_service").Logger(),
		tracer:     otel.Tracer("github.com/noah-isme/subnets-api/internal/service/auth"),
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
}

func (s *authService) SignUp(ctx context.Context, payload dto.SignUpRequest) (models.UserProfile, error) {
	payload.Email = strings.TrimSpace(payload.Email)
	payload.Username = strings.TrimSpace(payload.Username)
	if err := validate(s.validator, payload, "Email, password, and username are required"); err != nil {
		return models.UserProfile{}, err
	}

	spanCtx, span := s.tracer.Start(ctx, "auth.signup", trace.WithAttributes(attribute.String("auth.username", payload.Username)))
	defer span.End()

	taken, err := usernameTaken(spanCtx, s.users, payload.Username, "")
	if err != nil {
		span.RecordError(err)
		return models.UserProfile{}, err
	}
	if taken {
		return models.UserProfile{}, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), s.bcryptCost)
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	profile := models.NewUserProfile(uuid.NewString(), payload.Username, payload.Email, now)

	if err := s.users.ReserveEmail(spanCtx, payload.Email, profile.ID); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return models.UserProfile{}, ErrEmailTaken
		}
		span.RecordError(err)
		return models.UserProfile{}, err
	}

	credential := models.Credential{
		UserID:       profile.ID,
		Email:        repository.NormalizeEmail(payload.Email),
		PasswordHash: string(hash),
		CreatedAt:    now.UTC(),
	}
	if err := s.users.CreateCredential(spanCtx, credential); err != nil {
		s.logAbandonedSignUp(err, profile.ID, repository.UserEmailKey(payload.Email))
		if errors.Is(err, repository.ErrAlreadyExists) {
			return models.UserProfile{}, ErrEmailTaken
		}
		span.RecordError(err)
		return models.UserProfile{}, err
	}

	if err := s.users.Create(spanCtx, profile); err != nil {
		s.logAbandonedSignUp(err, profile.ID, repository.UserEmailKey(payload.Email), repository.UserCredentialsKey(payload.Email))
		span.RecordError(err)
		return models.UserProfile{}, err
	}

	s.logger.Info().Str("user_id", profile.ID).Str("username", profile.Username).Msg("user signed up")
	return profile, nil
}

// logAbandonedSignUp records the entries a failed sign-up leaves behind. The
// repository lets a later sign-up reclaim them after repository.AbandonedSignUpAfter.
func (s *authService) logAbandonedSignUp(err error, userID string, keys ...string) {
	s.logger.Warn().
		Err(err).
		Str("user_id", userID).
		Strs("orphaned_keys", keys).
		Dur("reclaimable_after", repository.AbandonedSignUpAfter).
		Msg("sign-up aborted after email reservation")
}

func (s *authService) SignIn(ctx context.Context, payload dto.SignInRequest) (dto.SignInResponse, error) {
	payload.Email = strings.TrimSpace(payload.Email)
	if err := validate(s.validator, payload, "Email and password are required"); err != nil {
		return dto.SignInResponse{}, err
	}

	credential, err := s.users.GetCredential(ctx, payload.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return dto.SignInResponse{}, ErrInvalidCredentials
		}
		return dto.SignInResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(credential.PasswordHash), []byte(payload.Password)); err != nil {
		s.logger.Debug().Str("user_id", credential.UserID).Msg("password mismatch")
		return dto.SignInResponse{}, ErrInvalidCredentials
	}

	identity, err := s.identity.Issue(ctx, credential.UserID, credential.Email)
	if err != nil {
		return dto.SignInResponse{}, err
	}

	user, err := s.userOrMinimal(ctx, credential.UserID, credential.Email)
	if err != nil {
		return dto.SignInResponse{}, err
	}

	return dto.SignInResponse{
		AccessToken: identity.Token,
		ExpiresAt:   identity.ExpiresAt,
		User:        user,
	}, nil
}

// Session never fails on a bad token; it reports an anonymous session instead.
func (s *authService) Session(ctx context.Context, token string) (dto.SessionResponse, error) {
	identity, err := s.identity.Verify(ctx, token)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return dto.SessionResponse{}, nil
		}
		return dto.SessionResponse{}, err
	}

	user, err := s.userOrMinimal(ctx, identity.UserID, identity.Email)
	if err != nil {
		return dto.SessionResponse{}, err
	}

	return dto.SessionResponse{
		User: user,
		Session: &dto.SessionInfo{
			AccessToken: identity.Token,
			UserID:      identity.UserID,
			Email:       identity.Email,
			ExpiresAt:   identity.ExpiresAt,
		},
	}, nil
}

// SignOut revokes a valid token. Invalid tokens are ignored so clients can always clear local state.
func (s *authService) SignOut(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return newValidationError("No session to sign out", nil)
	}

	identity, err := s.identity.Verify(ctx, token)
	if err != nil {
		s.logger.Debug().Err(err).Msg("sign out with unverifiable token")
		return nil
	}

	if err := s.identity.Revoke(ctx, identity); err != nil {
		s.logger.Warn().Err(err).Str("user_id", identity.UserID).Msg("failed to revoke token")
	}
	return nil
}

func (s *authService) userOrMinimal(ctx context.Context, userID, email string) (interface{}, error) {
	profile, err := s.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return dto.MinimalUser{ID: userID, Email: email}, nil
		}
		return nil, err
	}
	return profile, nil
}

// usernameTaken compares case-insensitively against every profile except excludeID.
func usernameTaken(ctx context.Context, users repository.UserRepository, username, excludeID string) (bool, error) {
	profiles, err := users.List(ctx)
	if err != nil {
		return false, err
	}
	for _, profile := range profiles {
		if profile.ID == excludeID {
			continue
		}
		if strings.EqualFold(profile.Username, username) {
			return true, nil
		}
	}
	return false, nil
}
