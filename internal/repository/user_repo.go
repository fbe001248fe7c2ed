package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/noah-isme/subnets-api/internal/models"
	"github.com/noah-isme/subnets-api/internal/store"
)

// UserRepository manages profiles, the email index and password credentials.
type UserRepository interface {
	Get(ctx context.Context, userID string) (models.UserProfile, error)
	Create(ctx context.Context, profile models.UserProfile) error
	Update(ctx context.Context, userID string, mutate func(*models.UserProfile) error) (models.UserProfile, error)
	List(ctx context.Context) ([]models.UserProfile, error)

	ReserveEmail(ctx context.Context, email, userID string) error
	LookupEmail(ctx context.Context, email string) (string, error)

	CreateCredential(ctx context.Context, credential models.Credential) error
	GetCredential(ctx context.Context, email string) (models.Credential, error)
}

type emailIndex struct {
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// AbandonedSignUpAfter is how long an email reservation or credential may exist
// without a profile before another sign-up may claim the address.
const AbandonedSignUpAfter = time.Minute

type userRepository struct {
	store store.Store
	now   func() time.Time
}

// NewUserRepository constructs a repository backed by the key-value store.
func NewUserRepository(s store.Store) UserRepository {
	return &userRepository{store: s, now: time.Now}
}

func (r *userRepository) Get(ctx context.Context, userID string) (models.UserProfile, error) {
	return store.GetJSON[models.UserProfile](ctx, r.store, UserProfileKey(userID))
}

func (r *userRepository) Create(ctx context.Context, profile models.UserProfile) error {
	if err := store.CreateJSON(ctx, r.store, UserProfileKey(profile.ID), profile); err != nil {
		return fmt.Errorf("create profile %s: %w", profile.ID, createErr(err))
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, userID string, mutate func(*models.UserProfile) error) (models.UserProfile, error) {
	return store.Update(ctx, r.store, UserProfileKey(userID), func(current *models.UserProfile, exists bool) error {
		if !exists {
			return ErrNotFound
		}
		return mutate(current)
	})
}

func (r *userRepository) List(ctx context.Context) ([]models.UserProfile, error) {
	return store.ScanJSON[models.UserProfile](ctx, r.store, UserProfilePrefix)
}

// ReserveEmail claims the address for userID. An entry left behind by a sign-up
// that never created its profile is taken over once it is AbandonedSignUpAfter old.
func (r *userRepository) ReserveEmail(ctx context.Context, email, userID string) error {
	now := r.now().UTC()
	_, err := store.Update(ctx, r.store, UserEmailKey(email), func(current *emailIndex, exists bool) error {
		if exists && !r.abandoned(ctx, current.UserID, current.CreatedAt, now) {
			return ErrAlreadyExists
		}
		*current = emailIndex{UserID: userID, CreatedAt: now}
		return nil
	})
	return createErr(err)
}

func (r *userRepository) LookupEmail(ctx context.Context, email string) (string, error) {
	index, err := store.GetJSON[emailIndex](ctx, r.store, UserEmailKey(email))
	if err != nil {
		return "", err
	}
	if index.UserID == "" {
		return "", ErrNotFound
	}
	return index.UserID, nil
}

func (r *userRepository) CreateCredential(ctx context.Context, credential models.Credential) error {
	now := r.now().UTC()
	_, err := store.Update(ctx, r.store, UserCredentialsKey(credential.Email), func(current *models.Credential, exists bool) error {
		if exists && !r.abandoned(ctx, current.UserID, current.CreatedAt, now) {
			return ErrAlreadyExists
		}
		*current = credential
		return nil
	})
	return createErr(err)
}

// abandoned reports whether an entry written at createdAt for userID belongs to a
// sign-up that failed before its profile was stored.
func (r *userRepository) abandoned(ctx context.Context, userID string, createdAt, now time.Time) bool {
	if now.Sub(createdAt) < AbandonedSignUpAfter {
		return false
	}
	_, err := r.Get(ctx, userID)
	return errors.Is(err, ErrNotFound)
}

func (r *userRepository) GetCredential(ctx context.Context, email string) (models.Credential, error) {
	credential, err := store.GetJSON[models.Credential](ctx, r.store, UserCredentialsKey(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Credential{}, ErrNotFound
		}
		return models.Credential{}, err
	}
	return credential, nil
}
