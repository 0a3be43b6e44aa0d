package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Broadcaster fans an event out to every subscriber of the event's thread
// room. Mutations publish through this interface regardless of which
// transport carried the request, so websocket and REST writes produce
// identical notifications.
type Broadcaster interface {
	Broadcast(ctx context.Context, event Event) error
}

const channelPrefix = "thread:"

// RedisBroadcaster publishes events to a per-thread redis channel so every
// service instance can deliver them to its local websocket clients.
type RedisBroadcaster struct {
	client    *redis.Client
	logger    *zap.Logger
	published *prometheus.CounterVec
}

// NewRedisBroadcaster creates a redis-backed broadcaster. published may be
// nil when metrics are not collected.
func NewRedisBroadcaster(client *redis.Client, logger *zap.Logger, published *prometheus.CounterVec) *RedisBroadcaster {
	return &RedisBroadcaster{client: client, logger: logger, published: published}
}

func (b *RedisBroadcaster) Broadcast(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	channel := channelPrefix + event.ContentItemID.String()
	if err := b.client.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("failed to publish event",
			zap.String("channel", channel),
			zap.String("type", event.Type),
			zap.Error(err))
		return fmt.Errorf("failed to publish event: %w", err)
	}
	if b.published != nil {
		b.published.WithLabelValues(event.Type).Inc()
	}
	return nil
}
