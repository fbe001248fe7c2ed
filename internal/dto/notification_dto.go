package dto

import "github.com/noah-isme/subnets-api/internal/models"

type NotificationsResponse struct {
	Notifications []models.Notification `json:"notifications"`
}

// NotificationEvent is the payload pushed to live subscribers and across nodes.
type NotificationEvent struct {
	UserID       string              `json:"userId"`
	Notification models.Notification `json:"notification"`
	Origin       string              `json:"origin,omitempty"`
}
