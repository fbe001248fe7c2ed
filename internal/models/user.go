package models

import (
	"net/url"
	"time"
)

const avatarBaseURL = "https://api.dicebear.com/7.x/avataaars/svg"

// UserProfile is the public profile stored under user_profile:<id>.
type UserProfile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Avatar    string    `json:"avatar"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"createdAt"`
	Bio       string    `json:"bio"`
	Badges    []string  `json:"badges"`
}

// AuthorSnapshot is the author data copied onto posts and comments at creation time.
// It is never refreshed when the profile changes later.
type AuthorSnapshot struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	Verified bool   `json:"verified"`
}

// Credential holds the password hash used by the built-in identity provider.
type Credential struct {
	UserID       string    `json:"userId"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

// NewUserProfile builds the profile created at sign-up.
func NewUserProfile(id, username, email string, now time.Time) UserProfile {
	return UserProfile{
		ID:        id,
		Username:  username,
		Email:     email,
		Avatar:    DefaultAvatar(username),
		Verified:  false,
		CreatedAt: now.UTC(),
		Bio:       "",
		Badges:    []string{},
	}
}

// DefaultAvatar returns the generated avatar URL seeded by username.
func DefaultAvatar(username string) string {
	return avatarBaseURL + "?seed=" + url.QueryEscape(username)
}

// Snapshot copies the display fields of the profile.
func (p UserProfile) Snapshot() AuthorSnapshot {
	return AuthorSnapshot{
		ID:       p.ID,
		Username: p.Username,
		Avatar:   p.Avatar,
		Verified: p.Verified,
	}
}
