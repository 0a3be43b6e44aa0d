package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"thread-service/internal/domain"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisBroadcaster_PublishesToThreadChannel(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()

	itemID := uuid.New()
	pubsub := client.Subscribe(ctx, channelPrefix+itemID.String())
	t.Cleanup(func() { pubsub.Close() })
	_, err := pubsub.Receive(ctx)
	require.NoError(t, err)

	b := NewRedisBroadcaster(client, zap.NewNop(), nil)
	event, err := NewEvent(EventCommentVoted, itemID, VotedPayload{
		CommentID: uuid.New(),
		VoteScore: 4,
	})
	require.NoError(t, err)
	require.NoError(t, b.Broadcast(ctx, event))

	select {
	case msg := <-pubsub.Channel():
		var got Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, EventCommentVoted, got.Type)
		assert.Equal(t, itemID, got.ContentItemID)
		payload, err := got.VotedPayload()
		require.NoError(t, err)
		assert.Equal(t, int64(4), payload.VoteScore)
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}

func TestHubRun_DeliversRedisEventsToRoom(t *testing.T) {
	client := newTestRedis(t)
	logger := zap.NewNop()
	hub := NewHub(logger)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx, client)

	itemID := uuid.New()
	subscriber := NewClient(hub, nil, nil, domain.Identity{UserID: uuid.New()}, logger)
	hub.join(subscriber, itemID)

	b := NewRedisBroadcaster(client, logger, nil)
	event, err := NewEvent(EventCommentDeleted, itemID, DeletedPayload{CommentID: uuid.New()})
	require.NoError(t, err)

	// The pattern subscription races the first publish; retry until the
	// event lands.
	var raw []byte
	require.Eventually(t, func() bool {
		if err := b.Broadcast(ctx, event); err != nil {
			return false
		}
		select {
		case raw = <-subscriber.send:
			return true
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)

	var got Event
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, EventCommentDeleted, got.Type)
	assert.Equal(t, itemID, got.ContentItemID)
}

func TestLocalBroadcaster_DeliversDirectly(t *testing.T) {
	logger := zap.NewNop()
	hub := NewHub(logger)

	itemID := uuid.New()
	subscriber := NewClient(hub, nil, nil, domain.Identity{UserID: uuid.New()}, logger)
	hub.join(subscriber, itemID)
	outsider := NewClient(hub, nil, nil, domain.Identity{UserID: uuid.New()}, logger)
	hub.join(outsider, uuid.New())

	b := NewLocalBroadcaster(hub)
	event, err := NewEvent(EventCommentVoted, itemID, VotedPayload{CommentID: uuid.New(), VoteScore: 1})
	require.NoError(t, err)
	require.NoError(t, b.Broadcast(context.Background(), event))

	select {
	case raw := <-subscriber.send:
		var got Event
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, EventCommentVoted, got.Type)
	default:
		t.Fatal("subscriber received nothing")
	}
	assert.Empty(t, outsider.send)
}
