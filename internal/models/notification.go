package models

import "time"

// NotificationType enumerates the kinds of notification a user can receive.
type NotificationType string

const (
	NotificationComment    NotificationType = "comment"
	NotificationUpvote     NotificationType = "upvote"
	NotificationMention    NotificationType = "mention"
	NotificationBadge      NotificationType = "badge"
	NotificationModeration NotificationType = "moderation"
)

// Valid reports whether t is one of the known notification types.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationComment, NotificationUpvote, NotificationMention, NotificationBadge, NotificationModeration:
		return true
	default:
		return false
	}
}

// Notification is an entry of the list stored under user_notifications:<userId>.
type Notification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	User      *AuthorSnapshot  `json:"user,omitempty"`
	Content   string           `json:"content"`
	Timestamp string           `json:"timestamp"`
	CreatedAt time.Time        `json:"createdAt"`
	Read      bool             `json:"read"`
	PostID    string           `json:"postId,omitempty"`
}

// NewNotification builds an unread notification. actor may be nil for system notifications.
func NewNotification(id string, kind NotificationType, actor *AuthorSnapshot, content, postID string, now time.Time) Notification {
	return Notification{
		ID:        id,
		Type:      kind,
		User:      actor,
		Content:   content,
		Timestamp: JustNow,
		CreatedAt: now.UTC(),
		Read:      false,
		PostID:    postID,
	}
}
