package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/subnets-api/internal/dto"
	"github.com/noah-isme/subnets-api/internal/models"
	"github.com/noah-isme/subnets-api/internal/observability"
	"github.com/noah-isme/subnets-api/internal/repository"
)

const notificationBufferSize = 16

// Notifier is the subset of the notification service used by content services.
type Notifier interface {
	Notify(ctx context.Context, recipientID string, kind models.NotificationType, actor *models.AuthorSnapshot, content, postID string) (models.Notification, error)
}

// NotificationService stores notifications and streams them to connected clients.
type NotificationService interface {
	Notifier
	List(ctx context.Context, userID string) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
	Subscribe(userID string) (<-chan models.Notification, func())
	Start(ctx context.Context)
}

type notificationService struct {
	repo         repository.NotificationRepository
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
	tracer       trace.Tracer
	sanitizer    textSanitizer
	broker       *notificationBroker
	nodeID       string
	now          func() time.Time
}

type notificationBroker struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan models.Notification]struct{}
}

// NewNotificationService constructs a notification service. redisClient and natsConn
// are optional; when set, notifications are fanned out to the other API nodes.
func NewNotificationService(repo repository.NotificationRepository, redisClient *redis.Client, channelBase string, natsConn *nats.Conn, logger zerolog.Logger) NotificationService {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":notifications"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".notifications"
	}

	return &notificationService{
		repo:         repo,
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		logger:       logger.With().Str("component", "notification_service").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/subnets-api/internal/service/notification"),
		sanitizer:    newTextSanitizer(),
		broker: &notificationBroker{
			subscribers: make(map[string]map[chan models.Notification]struct{}),
		},
		nodeID: uuid.NewString(),
		now:    time.Now,
	}
}

func (s *notificationService) Start(ctx context.Context) {
	if s.redis != nil && s.redisChannel != "" {
		go s.consumeRedis(ctx)
	}
	if s.nats != nil && s.natsSubject != "" {
		go s.consumeNATS(ctx)
	}
}

func (s *notificationService) Notify(ctx context.Context, recipientID string, kind models.NotificationType, actor *models.AuthorSnapshot, content, postID string) (models.Notification, error) {
	if strings.TrimSpace(recipientID) == "" {
		return models.Notification{}, errors.New("recipient is required")
	}
	if !kind.Valid() {
		return models.Notification{}, newValidationError("unknown notification type", nil)
	}

	clean := s.sanitizer.Clean(content)
	if clean == "" {
		return models.Notification{}, newValidationError("notification content empty after sanitization", nil)
	}

	attrs := []attribute.KeyValue{
		attribute.String("notification.user_id", recipientID),
		attribute.String("notification.type", string(kind)),
	}
	spanCtx, span := s.tracer.Start(ctx, "notifications.publish", trace.WithAttributes(attrs...))
	defer span.End()

	notification := models.NewNotification(uuid.NewString(), kind, actor, clean, postID, s.now())
	if err := s.repo.Append(spanCtx, recipientID, notification); err != nil {
		span.RecordError(err)
		return models.Notification{}, translateStoreError(err, "Notifications")
	}

	s.broker.broadcast(recipientID, notification)
	if err := s.publish(spanCtx, recipientID, notification); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish notification to broker")
	}

	observability.NotificationsPublishedTotal().WithLabelValues(string(kind)).Inc()
	return notification, nil
}

func (s *notificationService) List(ctx context.Context, userID string) ([]models.Notification, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUnauthenticated
	}
	return s.repo.List(ctx, userID)
}

// MarkRead is a no-op for ids the user does not have.
func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrUnauthenticated
	}

	spanCtx, span := s.tracer.Start(ctx, "notifications.mark_read", trace.WithAttributes(attribute.String("notification.user_id", userID)))
	defer span.End()

	found, err := s.repo.MarkRead(spanCtx, userID, notificationID)
	if err != nil {
		span.RecordError(err)
		return translateStoreError(err, "Notifications")
	}
	if !found {
		s.logger.Debug().Str("user_id", userID).Str("notification_id", notificationID).Msg("mark read for unknown notification")
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) (int, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, ErrUnauthenticated
	}
	changed, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, translateStoreError(err, "Notifications")
	}
	return changed, nil
}

func (s *notificationService) Subscribe(userID string) (<-chan models.Notification, func()) {
	channel := make(chan models.Notification, notificationBufferSize)

	s.broker.subscribe(userID, channel)
	observability.NotificationSubscribers().Inc()

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			s.broker.unsubscribe(userID, channel)
			observability.NotificationSubscribers().Dec()
		})
	}

	return channel, cleanup
}

func (s *notificationService) publish(ctx context.Context, userID string, notification models.Notification) error {
	if (s.redis == nil || s.redisChannel == "") && (s.nats == nil || s.natsSubject == "") {
		return nil
	}

	payload, err := json.Marshal(dto.NotificationEvent{
		UserID:       userID,
		Notification: notification,
		Origin:       s.nodeID,
	})
	if err != nil {
		return err
	}

	if s.redis != nil && s.redisChannel != "" {
		if err := s.redis.Publish(ctx, s.redisChannel, payload).Err(); err != nil {
			return err
		}
	}

	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			return err
		}
	}

	return nil
}

func (s *notificationService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisChannel)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			s.logger.Error().Err(err).Msg("notification redis subscription closed")
			return
		}
		s.handleEvent([]byte(msg.Payload))
	}
}

func (s *notificationService) consumeNATS(ctx context.Context) {
	// every node needs every event, so a plain subscription rather than a queue group
	sub, err := s.nats.Subscribe(s.natsSubject, func(msg *nats.Msg) {
		s.handleEvent(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats notifications subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain notification nats subscription")
		}
	}()
}

func (s *notificationService) handleEvent(payload []byte) {
	var event dto.NotificationEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		s.logger.Warn().Err(err).Msg("invalid notification event payload")
		return
	}

	if event.Origin == s.nodeID || event.UserID == "" {
		return
	}

	s.broker.broadcast(event.UserID, event.Notification)
}

func (b *notificationBroker) subscribe(userID string, ch chan models.Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[userID]; !exists {
		b.subscribers[userID] = make(map[chan models.Notification]struct{})
	}
	b.subscribers[userID][ch] = struct{}{}
}

func (b *notificationBroker) unsubscribe(userID string, ch chan models.Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subscribers, ok := b.subscribers[userID]; ok {
		if _, present := subscribers[ch]; !present {
			return
		}
		delete(subscribers, ch)
		close(ch)
		if len(subscribers) == 0 {
			delete(b.subscribers, userID)
		}
	}
}

// broadcast drops the event for subscribers whose buffer is full.
func (b *notificationBroker) broadcast(userID string, notification models.Notification) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers[userID] {
		select {
		case ch <- notification:
		default:
		}
	}
}
