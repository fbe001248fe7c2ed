package repository

import (
	"context"
	"errors"

	"github.com/noah-isme/subnets-api/internal/models"
	"github.com/noah-isme/subnets-api/internal/store"
)

// MaxStoredNotifications bounds the per-user notification list; the oldest entries are dropped.
const MaxStoredNotifications = 200

// NotificationRepository handles the per-user notification list, newest first.
type NotificationRepository interface {
	List(ctx context.Context, userID string) ([]models.Notification, error)
	Append(ctx context.Context, userID string, notification models.Notification) error
	MarkRead(ctx context.Context, userID, notificationID string) (bool, error)
	MarkAllRead(ctx context.Context, userID string) (int, error)
}

type notificationRepository struct {
	store store.Store
}

// NewNotificationRepository constructs a repository backed by the key-value store.
func NewNotificationRepository(s store.Store) NotificationRepository {
	return &notificationRepository{store: s}
}

func (r *notificationRepository) List(ctx context.Context, userID string) ([]models.Notification, error) {
	items, err := store.GetJSON[[]models.Notification](ctx, r.store, UserNotificationsKey(userID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return []models.Notification{}, nil
		}
		return nil, err
	}
	if items == nil {
		items = []models.Notification{}
	}
	return items, nil
}

func (r *notificationRepository) Append(ctx context.Context, userID string, notification models.Notification) error {
	_, err := store.Update(ctx, r.store, UserNotificationsKey(userID), func(items *[]models.Notification, _ bool) error {
		next := make([]models.Notification, 0, len(*items)+1)
		next = append(next, notification)
		next = append(next, *items...)
		if len(next) > MaxStoredNotifications {
			next = next[:MaxStoredNotifications]
		}
		*items = next
		return nil
	})
	return err
}

// MarkRead flags one notification as read. Unknown ids are ignored and reported as false.
func (r *notificationRepository) MarkRead(ctx context.Context, userID, notificationID string) (bool, error) {
	found := false
	_, err := store.Update(ctx, r.store, UserNotificationsKey(userID), func(items *[]models.Notification, _ bool) error {
		found = false
		next := make([]models.Notification, len(*items))
		copy(next, *items)
		for i := range next {
			if next[i].ID == notificationID {
				next[i].Read = true
				found = true
			}
		}
		*items = next
		return nil
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID string) (int, error) {
	changed := 0
	_, err := store.Update(ctx, r.store, UserNotificationsKey(userID), func(items *[]models.Notification, _ bool) error {
		changed = 0
		next := make([]models.Notification, len(*items))
		copy(next, *items)
		for i := range next {
			if !next[i].Read {
				next[i].Read = true
				changed++
			}
		}
		*items = next
		return nil
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}
