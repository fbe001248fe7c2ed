package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/subnets-api/internal/repository"
)

// Identity is the verified subject of a bearer token.
type Identity struct {
	UserID    string
	Email     string
	TokenID   string
	Token     string
	ExpiresAt time.Time
}

// IdentityProvider issues, verifies and revokes bearer tokens.
type IdentityProvider interface {
	Issue(ctx context.Context, userID, email string) (Identity, error)
	Verify(ctx context.Context, token string) (Identity, error)
	Revoke(ctx context.Context, identity Identity) error
}

type tokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type jwtIdentityProvider struct {
	secret []byte
	issuer string
	ttl    time.Duration
	tokens repository.TokenRepository
	now    func() time.Time
}

// NewJWTIdentityProvider signs HS256 tokens with secret. Revoked token ids are kept in tokens.
func NewJWTIdentityProvider(secret, issuer string, ttl time.Duration, tokens repository.TokenRepository) IdentityProvider {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &jwtIdentityProvider{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		tokens: tokens,
		now:    time.Now,
	}
}

func (p *jwtIdentityProvider) Issue(_ context.Context, userID, email string) (Identity, error) {
	now := p.now().UTC()
	identity := Identity{
		UserID:    userID,
		Email:     email,
		TokenID:   uuid.NewString(),
		ExpiresAt: now.Add(p.ttl),
	}

	claims := tokenClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        identity.TokenID,
			Subject:   userID,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(identity.ExpiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return Identity{}, fmt.Errorf("sign token: %w", err)
	}
	identity.Token = signed
	return identity, nil
}

func (p *jwtIdentityProvider) Verify(ctx context.Context, token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, ErrInvalidToken
	}

	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return p.secret, nil
	}, jwt.WithTimeFunc(p.now))
	if err != nil || !parsed.Valid {
		return Identity{}, ErrInvalidToken
	}
	if claims.Subject == "" || claims.ID == "" {
		return Identity{}, ErrInvalidToken
	}

	if p.tokens != nil {
		revoked, err := p.tokens.IsRevoked(ctx, claims.ID)
		if err != nil {
			return Identity{}, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return Identity{}, ErrInvalidToken
		}
	}

	identity := Identity{
		UserID:  claims.Subject,
		Email:   claims.Email,
		TokenID: claims.ID,
		Token:   token,
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}
	return identity, nil
}

func (p *jwtIdentityProvider) Revoke(ctx context.Context, identity Identity) error {
	if identity.TokenID == "" {
		return errors.New("token id is required")
	}
	if p.tokens == nil {
		return nil
	}
	return p.tokens.Revoke(ctx, identity.TokenID, identity.ExpiresAt)
}
