package broadcast

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aegisguard/aegis/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Message is what subscribers of a booking channel receive: status
// changes and, while the job is in progress, guard location pings.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// RedisBroadcaster publishes to per-booking pub/sub channels. Delivery is
// best effort: publish errors are logged and never fail a lifecycle
// transition.
type RedisBroadcaster struct {
	client *redis.Client
	log    *zap.Logger
}

func NewRedisBroadcaster(cfg config.RedisConfig, log *zap.Logger) *RedisBroadcaster {
	return &RedisBroadcaster{
		client: redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		log:    log.With(zap.String("component", "broadcaster")),
	}
}

func NewRedisBroadcasterWithClient(client *redis.Client, log *zap.Logger) *RedisBroadcaster {
	return &RedisBroadcaster{client: client, log: log.With(zap.String("component", "broadcaster"))}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, bookingID uuid.UUID, eventType string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		b.log.Warn("drop broadcast: marshal payload",
			zap.String("booking_id", bookingID.String()),
			zap.String("type", eventType),
			zap.Error(err))
		return
	}
	msg, err := json.Marshal(Message{Type: eventType, Payload: raw})
	if err != nil {
		b.log.Warn("drop broadcast: marshal message", zap.Error(err))
		return
	}
	if err := b.client.Publish(ctx, bookingChannel(bookingID), msg).Err(); err != nil {
		b.log.Warn("drop broadcast: publish",
			zap.String("booking_id", bookingID.String()),
			zap.String("type", eventType),
			zap.Error(err))
	}
}

func bookingChannel(bookingID uuid.UUID) string {
	return fmt.Sprintf("booking:%s", bookingID)
}
