package dto

import (
	"time"

	"github.com/noah-isme/subnets-api/internal/models"
)

// SignUpRequest is the payload of POST /auth/signup.
type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Username string `json:"username" validate:"required,min=2,max=50,excludesall=@"`
}

// SignInRequest is the payload of POST /auth/signin.
type SignInRequest struct {
	Email    string `json:"email" validate:"required,max=254"`
	Password string `json:"password" validate:"required,max=72"`
}

type SignUpResponse struct {
	User models.UserProfile `json:"user"`
}

// SignInResponse carries the bearer token and the profile, or a minimal
// {id, email} user when no profile is stored.
type SignInResponse struct {
	AccessToken string      `json:"accessToken"`
	ExpiresAt   time.Time   `json:"expiresAt"`
	User        interface{} `json:"user"`
}

// SessionInfo describes the verified bearer token.
type SessionInfo struct {
	AccessToken string    `json:"accessToken"`
	UserID      string    `json:"userId"`
	Email       string    `json:"email"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// SessionResponse has both fields null when the request carries no valid token.
type SessionResponse struct {
	User    interface{}  `json:"user"`
	Session *SessionInfo `json:"session"`
}

// MinimalUser is returned when an identity has no stored profile.
type MinimalUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
