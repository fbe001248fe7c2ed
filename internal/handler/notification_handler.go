package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/subnets-api/internal/dto"
	"github.com/noah-isme/subnets-api/internal/middleware"
	"github.com/noah-isme/subnets-api/internal/models"
	"github.com/noah-isme/subnets-api/internal/service"
	"github.com/noah-isme/subnets-api/internal/utils"
)

// NotificationHandler serves the notification inbox and its live streams.
type NotificationHandler struct {
	service   service.NotificationService
	logger    zerolog.Logger
	keepAlive time.Duration
}

// NewNotificationHandler constructs a handler instance. keepAlive is the interval of
// SSE comments and websocket pings.
func NewNotificationHandler(service service.NotificationService, logger zerolog.Logger, keepAlive time.Duration) *NotificationHandler {
	if keepAlive <= 0 {
		keepAlive = 15 * time.Second
	}
	return &NotificationHandler{
		service:   service,
		logger:    logger.With().Str("component", "notification_handler").Logger(),
		keepAlive: keepAlive,
	}
}

// Register binds the notification routes. Every route requires a user.
func (h *NotificationHandler) Register(router fiber.Router) {
	router.Use(middleware.RequireAuth(msgUnauthorized))

	router.Get("/", h.list)
	router.Get("/stream", h.stream)
	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("request_ctx", requestContext(c))
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/ws", websocket.New(h.handleConnection))
	// read-all must be registered before the :id route
	router.Put("/read-all", h.markAllRead)
	router.Put("/:id", h.markRead)
}

func (h *NotificationHandler) list(c *fiber.Ctx) error {
	notifications, err := h.service.List(requestContext(c), middleware.UserID(c))
	if err != nil {
		return writeError(c, h.logger, err, errorMessages{internal: "Internal server error fetching notifications"})
	}

	return utils.SendSuccess(c, "notifications", dto.NotificationsResponse{Notifications: notifications})
}

func (h *NotificationHandler) markRead(c *fiber.Ctx) error {
	if err := h.service.MarkRead(requestContext(c), middleware.UserID(c), c.Params("id")); err != nil {
		return writeError(c, h.logger, err, errorMessages{internal: "Internal server error updating notification"})
	}

	return utils.SendSuccess(c, "Notification marked as read", nil)
}

func (h *NotificationHandler) markAllRead(c *fiber.Ctx) error {
	changed, err := h.service.MarkAllRead(requestContext(c), middleware.UserID(c))
	if err != nil {
		return writeError(c, h.logger, err, errorMessages{internal: "Internal server error updating notifications"})
	}

	return utils.SendSuccess(c, "All notifications marked as read", fiber.Map{"updated": changed})
}

func (h *NotificationHandler) stream(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	ctx, cancel := context.WithCancel(requestContext(c))
	stream, cleanup := h.service.Subscribe(userID)
	keepAlive := h.keepAlive

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer func() {
			cleanup()
			cancel()
		}()

		// an initial comment lets clients confirm the stream is open
		if err := writeKeepAlive(w); err != nil {
			return
		}

		ticker := time.NewTicker(keepAlive)
		defer ticker.Stop()

		for {
			select {
			case notification, ok := <-stream:
				if !ok {
					return
				}
				if err := writeNotificationEvent(w, notification); err != nil {
					h.logger.Debug().Err(err).Msg("failed to write notification event")
					return
				}
			case <-ticker.C:
				if err := writeKeepAlive(w); err != nil {
					h.logger.Debug().Err(err).Msg("failed to write notification keepalive")
					return
				}
			case <-ctx.Done():
				return
			}
		}
	})

	return nil
}

func (h *NotificationHandler) handleConnection(conn *websocket.Conn) {
	userID, _ := conn.Locals(middleware.LocalUserID).(string)
	if userID == "" {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unauthorized"))
		_ = conn.Close()
		return
	}

	baseCtx, _ := conn.Locals("request_ctx").(context.Context)
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	stream, cleanup := h.service.Subscribe(userID)
	defer cleanup()

	logger := h.logger.With().Str("user_id", userID).Logger()
	logger.Info().Msg("notification websocket connected")
	defer logger.Info().Msg("notification websocket disconnected")

	// the client never sends data; reading detects the close frame
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case notification, ok := <-stream:
			if !ok {
				return
			}
			if err := conn.WriteJSON(notificationEnvelope(userID, notification)); err != nil {
				logger.Debug().Err(err).Msg("failed to write websocket notification")
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func notificationEnvelope(userID string, notification models.Notification) dto.NotificationEvent {
	return dto.NotificationEvent{UserID: userID, Notification: notification}
}

func writeNotificationEvent(w *bufio.Writer, notification models.Notification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "event: notification\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "id: %s\n", notification.ID); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return err
	}
	return w.Flush()
}

func writeKeepAlive(w *bufio.Writer) error {
	if _, err := fmt.Fprintf(w, ": keep-alive %s\n\n", time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return w.Flush()
}
