package reconciler

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thread-service/internal/dto"
	"thread-service/internal/realtime"
)

func mustEvent(t *testing.T, eventType string, itemID uuid.UUID, payload interface{}) realtime.Event {
	t.Helper()
	event, err := realtime.NewEvent(eventType, itemID, payload)
	require.NoError(t, err)
	return event
}

func comment(itemID uuid.UUID, parentID *uuid.UUID, content string, createdAt time.Time) dto.CommentResponse {
	return dto.CommentResponse{
		ID:            uuid.New(),
		ContentItemID: itemID,
		AuthorID:      uuid.New(),
		ParentID:      parentID,
		Content:       content,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
}

func TestThreadView_SnapshotThenEvents(t *testing.T) {
	itemID := uuid.New()
	view := NewThreadView(itemID)

	base := time.Now().UTC()
	first := comment(itemID, nil, "first", base)
	second := comment(itemID, nil, "second", base.Add(time.Minute))
	reply := comment(itemID, &first.ID, "a reply", base.Add(2*time.Minute))
	first.Replies = []dto.CommentResponse{reply}

	view.LoadSnapshot(dto.ThreadPage{Comments: []dto.CommentResponse{second, first}})
	require.Equal(t, 3, view.Len())

	third := comment(itemID, nil, "third", base.Add(3*time.Minute))
	require.NoError(t, view.Apply(mustEvent(t, realtime.EventCommentCreated, itemID, third)))

	got := view.Comments()
	require.Len(t, got, 3)
	assert.Equal(t, third.ID, got[0].ID)
	assert.Equal(t, second.ID, got[1].ID)
	assert.Equal(t, first.ID, got[2].ID)
	require.Len(t, got[2].Replies, 1)
	assert.Equal(t, reply.ID, got[2].Replies[0].ID)
}

func TestThreadView_UpdateAndVote(t *testing.T) {
	itemID := uuid.New()
	view := NewThreadView(itemID)

	c := comment(itemID, nil, "original", time.Now().UTC())
	view.LoadSnapshot(dto.ThreadPage{Comments: []dto.CommentResponse{c}})

	edited := c
	edited.Content = "edited"
	edited.IsEdited = true
	edited.UpdatedAt = c.UpdatedAt.Add(time.Minute)
	require.NoError(t, view.Apply(mustEvent(t, realtime.EventCommentUpdated, itemID, edited)))

	require.NoError(t, view.Apply(mustEvent(t, realtime.EventCommentVoted, itemID, realtime.VotedPayload{
		CommentID: c.ID,
		VoteScore: 5,
	})))

	got, ok := view.Comment(c.ID)
	require.True(t, ok)
	assert.Equal(t, "edited", got.Content)
	assert.True(t, got.IsEdited)
	assert.Equal(t, int64(5), got.VoteScore)
}

func TestThreadView_DeleteRemovesReplies(t *testing.T) {
	itemID := uuid.New()
	view := NewThreadView(itemID)

	base := time.Now().UTC()
	parent := comment(itemID, nil, "parent", base)
	reply := comment(itemID, &parent.ID, "reply", base.Add(time.Minute))
	parent.Replies = []dto.CommentResponse{reply}
	other := comment(itemID, nil, "other", base.Add(2*time.Minute))

	view.LoadSnapshot(dto.ThreadPage{Comments: []dto.CommentResponse{other, parent}})
	require.Equal(t, 3, view.Len())

	require.NoError(t, view.Apply(mustEvent(t, realtime.EventCommentDeleted, itemID, realtime.DeletedPayload{
		CommentID: parent.ID,
	})))

	assert.Equal(t, 1, view.Len())
	_, ok := view.Comment(reply.ID)
	assert.False(t, ok)
	_, ok = view.Comment(other.ID)
	assert.True(t, ok)
}

func TestThreadView_IgnoresForeignAndUnknown(t *testing.T) {
	itemID := uuid.New()
	view := NewThreadView(itemID)

	foreign := comment(uuid.New(), nil, "elsewhere", time.Now().UTC())
	require.NoError(t, view.Apply(mustEvent(t, realtime.EventCommentCreated, foreign.ContentItemID, foreign)))
	assert.Equal(t, 0, view.Len())

	// Vote and update for comments never loaded are dropped.
	require.NoError(t, view.Apply(mustEvent(t, realtime.EventCommentVoted, itemID, realtime.VotedPayload{
		CommentID: uuid.New(),
		VoteScore: 3,
	})))
	ghost := comment(itemID, nil, "ghost", time.Now().UTC())
	require.NoError(t, view.Apply(mustEvent(t, realtime.EventCommentUpdated, itemID, ghost)))
	assert.Equal(t, 0, view.Len())
}

func TestThreadView_DropsOrphanReply(t *testing.T) {
	itemID := uuid.New()
	view := NewThreadView(itemID)

	missingParent := uuid.New()
	orphan := comment(itemID, &missingParent, "orphan", time.Now().UTC())
	require.NoError(t, view.Apply(mustEvent(t, realtime.EventCommentCreated, itemID, orphan)))
	assert.Equal(t, 0, view.Len())
}

func TestThreadView_DuplicatesAndReorderingConverge(t *testing.T) {
	itemID := uuid.New()
	base := time.Now().UTC()

	parent := comment(itemID, nil, "parent", base)
	reply := comment(itemID, &parent.ID, "reply", base.Add(time.Minute))

	events := []realtime.Event{
		mustEvent(t, realtime.EventCommentCreated, itemID, parent),
		mustEvent(t, realtime.EventCommentCreated, itemID, reply),
		mustEvent(t, realtime.EventCommentVoted, itemID, realtime.VotedPayload{CommentID: parent.ID, VoteScore: 2}),
	}

	ordered := NewThreadView(itemID)
	for _, e := range events {
		require.NoError(t, ordered.Apply(e))
	}

	// Duplicate every event and replay the vote first.
	scrambled := NewThreadView(itemID)
	replay := []realtime.Event{events[2], events[0], events[0], events[1], events[2], events[1]}
	for _, e := range replay {
		require.NoError(t, scrambled.Apply(e))
	}

	assert.Equal(t, ordered.Comments(), scrambled.Comments())
}
