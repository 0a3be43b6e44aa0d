package realtime

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Hub tracks which local websocket clients subscribe to which thread rooms
// and fans events out to them. Cross-instance delivery goes through redis:
// each instance's hub subscribes to the thread channel pattern and delivers
// whatever any instance published.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[uuid.UUID]map[*Client]bool
	logger *zap.Logger
}

// NewHub creates a new hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		rooms:  make(map[uuid.UUID]map[*Client]bool),
		logger: logger,
	}
}

// Run consumes the redis backplane until the context is cancelled. Safe to
// skip entirely when running single-instance with a local broadcaster.
func (h *Hub) Run(ctx context.Context, client *redis.Client) {
	pubsub := client.PSubscribe(ctx, channelPrefix+"*")
	defer pubsub.Close()

	h.logger.Info("subscribed to thread event channels")

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-pubsub.Channel():
			if !ok {
				return
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				h.logger.Warn("dropping malformed event",
					zap.String("channel", msg.Channel),
					zap.Error(err))
				continue
			}
			if !strings.HasPrefix(msg.Channel, channelPrefix) {
				continue
			}
			h.Deliver(event)
		}
	}
}

// Deliver fans an event out to every local subscriber of its room. Slow
// clients are disconnected rather than allowed to stall the room.
func (h *Hub) Deliver(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to marshal event", zap.Error(err))
		return
	}

	h.mu.RLock()
	subscribers := make([]*Client, 0, len(h.rooms[event.ContentItemID]))
	for c := range h.rooms[event.ContentItemID] {
		subscribers = append(subscribers, c)
	}
	h.mu.RUnlock()

	for _, c := range subscribers {
		if !c.trySend(data) {
			h.logger.Warn("dropping slow client",
				zap.String("userId", c.identity.UserID.String()))
			h.unregister(c)
		}
	}
}

// RoomSize returns the number of local subscribers in a room.
func (h *Hub) RoomSize(contentItemID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[contentItemID])
}

func (h *Hub) join(c *Client, room uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]bool)
	}
	h.rooms[room][c] = true
	c.rooms[room] = true
}

func (h *Hub) leave(c *Client, room uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeFromRoom(c, room)
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	for room := range c.rooms {
		h.removeFromRoom(c, room)
	}
	h.mu.Unlock()
	c.close()
}

// removeFromRoom requires h.mu held.
func (h *Hub) removeFromRoom(c *Client, room uuid.UUID) {
	if subscribers, ok := h.rooms[room]; ok {
		delete(subscribers, c)
		if len(subscribers) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(c.rooms, room)
}

// LocalBroadcaster delivers events straight to the hub, for single-instance
// deployments without a redis backplane.
type LocalBroadcaster struct {
	hub *Hub
}

// NewLocalBroadcaster creates a broadcaster bound to one hub.
func NewLocalBroadcaster(hub *Hub) *LocalBroadcaster {
	return &LocalBroadcaster{hub: hub}
}

func (b *LocalBroadcaster) Broadcast(_ context.Context, event Event) error {
	b.hub.Deliver(event)
	return nil
}
