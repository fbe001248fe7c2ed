package repository

import (
	"context"
	"errors"
	"time"

	"github.com/noah-isme/subnets-api/internal/store"
)

// TokenRepository records revoked access tokens by their jti claim.
type TokenRepository interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type revokedToken struct {
	JTI       string    `json:"jti"`
	ExpiresAt time.Time `json:"expiresAt"`
	RevokedAt time.Time `json:"revokedAt"`
}

type tokenRepository struct {
	store store.Store
	now   func() time.Time
}

// NewTokenRepository constructs a revocation list stored under revoked_token:<jti>.
func NewTokenRepository(s store.Store) TokenRepository {
	return &tokenRepository{store: s, now: time.Now}
}

func (r *tokenRepository) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	record := revokedToken{JTI: jti, ExpiresAt: expiresAt.UTC(), RevokedAt: r.now().UTC()}
	return store.PutJSON(ctx, r.store, RevokedTokenKey(jti), record)
}

func (r *tokenRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	record, err := store.GetJSON[revokedToken](ctx, r.store, RevokedTokenKey(jti))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	// expired tokens are rejected by signature validation anyway
	return record.ExpiresAt.IsZero() || r.now().Before(record.ExpiresAt), nil
}
