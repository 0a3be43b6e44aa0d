package realtime

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"thread-service/internal/dto"
)

// Event types fanned out to thread rooms.
const (
	EventCommentCreated = "created"
	EventCommentUpdated = "updated"
	EventCommentDeleted = "deleted"
	EventCommentVoted   = "voted"
	EventError          = "error"
)

// Event is the envelope broadcast to every subscriber of a thread room.
// ContentItemID selects the room; Payload shape depends on Type.
type Event struct {
	Type          string          `json:"type"`
	ContentItemID uuid.UUID       `json:"contentItemId"`
	Timestamp     time.Time       `json:"timestamp"`
	Payload       json.RawMessage `json:"payload"`
}

// DeletedPayload announces a removed comment. ParentID is set when the
// removed comment was a reply.
type DeletedPayload struct {
	CommentID uuid.UUID  `json:"commentId"`
	ParentID  *uuid.UUID `json:"parentId,omitempty"`
}

// VotedPayload announces a comment's score after a vote toggle.
type VotedPayload struct {
	CommentID uuid.UUID `json:"commentId"`
	VoteScore int64     `json:"voteScore"`
}

// ErrorPayload is delivered only to the client whose request failed.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewEvent builds an event envelope, marshalling the payload.
func NewEvent(eventType string, contentItemID uuid.UUID, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Type:          eventType,
		ContentItemID: contentItemID,
		Timestamp:     time.Now().UTC(),
		Payload:       raw,
	}, nil
}

// CommentPayload decodes a created/updated payload.
func (e Event) CommentPayload() (dto.CommentResponse, error) {
	var p dto.CommentResponse
	err := json.Unmarshal(e.Payload, &p)
	return p, err
}

// DeletedPayload decodes a deleted payload.
func (e Event) DeletedPayload() (DeletedPayload, error) {
	var p DeletedPayload
	err := json.Unmarshal(e.Payload, &p)
	return p, err
}

// VotedPayload decodes a voted payload.
func (e Event) VotedPayload() (VotedPayload, error) {
	var p VotedPayload
	err := json.Unmarshal(e.Payload, &p)
	return p, err
}
