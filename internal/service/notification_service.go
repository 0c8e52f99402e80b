package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/alert-ticket-service/internal/config"
	"github.com/spec-kit/alert-ticket-service/internal/events"
)

// NotificationService fans ticket events out to downstream consumers: a Redis
// channel for other platform services and an optional webhook stub.
type NotificationService struct {
	dispatcher events.Dispatcher
	redis      *redis.Client
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service. A nil Redis client disables
// channel publishing.
func NewNotificationService(dispatcher events.Dispatcher, redisClient *redis.Client, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		redis:      redisClient,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleEvent)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleEvent)
	n.dispatcher.Subscribe(events.EventTicketCommentAdded, n.handleEvent)
	n.dispatcher.Subscribe(events.EventTicketSLABreached, n.handleEvent)
}

func (n *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	n.logger.Info("ticket event",
		zap.String("event_type", string(event.Type)),
		zap.String("ticket_id", event.TicketID))
	n.publishToRedis(ctx, event)
	n.sendWebhookStub(event)
	return nil
}

func (n *NotificationService) publishToRedis(ctx context.Context, event events.Event) {
	if n.redis == nil || strings.TrimSpace(n.cfg.RedisChannel) == "" {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.Warn("marshal event", zap.Error(err))
		return
	}
	if err := n.redis.Publish(ctx, n.cfg.RedisChannel, payload).Err(); err != nil {
		n.logger.Warn("publish event to redis",
			zap.String("channel", n.cfg.RedisChannel),
			zap.Error(err))
	}
}

func (n *NotificationService) sendWebhookStub(event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}
