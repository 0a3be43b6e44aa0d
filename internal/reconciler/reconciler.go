// Package reconciler maintains a client-side view of one thread by folding
// realtime events into a snapshot fetched over REST. It is the reference
// merge logic for consumers of the thread service: applying the same events
// in any order, with duplicates, converges to the same view.
package reconciler

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"thread-service/internal/dto"
	"thread-service/internal/realtime"
)

// ThreadView is the reconciled state of one content item's thread.
type ThreadView struct {
	mu            sync.RWMutex
	contentItemID uuid.UUID
	comments      map[uuid.UUID]*dto.CommentResponse
}

// NewThreadView starts an empty view for one content item.
func NewThreadView(contentItemID uuid.UUID) *ThreadView {
	return &ThreadView{
		contentItemID: contentItemID,
		comments:      make(map[uuid.UUID]*dto.CommentResponse),
	}
}

// LoadSnapshot replaces the view with a page fetched over REST. Events that
// arrived before the snapshot are superseded by it; events applied afterwards
// move the view forward again.
func (v *ThreadView) LoadSnapshot(page dto.ThreadPage) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.comments = make(map[uuid.UUID]*dto.CommentResponse)
	for i := range page.Comments {
		c := page.Comments[i]
		replies := c.Replies
		c.Replies = nil
		v.comments[c.ID] = &c
		for j := range replies {
			r := replies[j]
			r.Replies = nil
			v.comments[r.ID] = &r
		}
	}
}

// Apply folds one realtime event into the view. Unknown event types and
// events for other content items are ignored, as are updates for comments
// the view has never seen (they belong to pages not loaded).
func (v *ThreadView) Apply(event realtime.Event) error {
	if event.ContentItemID != v.contentItemID && event.Type != realtime.EventError {
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	switch event.Type {
	case realtime.EventCommentCreated:
		c, err := event.CommentPayload()
		if err != nil {
			return err
		}
		// A reply to a parent we never loaded would be unanchored in the
		// tree; skip it.
		if c.ParentID != nil {
			if _, ok := v.comments[*c.ParentID]; !ok {
				return nil
			}
		}
		c.Replies = nil
		v.comments[c.ID] = &c

	case realtime.EventCommentUpdated:
		c, err := event.CommentPayload()
		if err != nil {
			return err
		}
		existing, ok := v.comments[c.ID]
		if !ok {
			return nil
		}
		existing.Content = c.Content
		existing.IsEdited = c.IsEdited
		existing.UpdatedAt = c.UpdatedAt

	case realtime.EventCommentDeleted:
		p, err := event.DeletedPayload()
		if err != nil {
			return err
		}
		delete(v.comments, p.CommentID)
		for id, c := range v.comments {
			if c.ParentID != nil && *c.ParentID == p.CommentID {
				delete(v.comments, id)
			}
		}

	case realtime.EventCommentVoted:
		p, err := event.VotedPayload()
		if err != nil {
			return err
		}
		if existing, ok := v.comments[p.CommentID]; ok {
			existing.VoteScore = p.VoteScore
		}
	}
	return nil
}

// Comment returns a copy of one comment in the view.
func (v *ThreadView) Comment(id uuid.UUID) (dto.CommentResponse, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	c, ok := v.comments[id]
	if !ok {
		return dto.CommentResponse{}, false
	}
	out := *c
	out.Replies = nil
	return out, true
}

// Comments returns the reconciled thread: top-level comments newest first,
// each with its replies oldest first.
func (v *ThreadView) Comments() []dto.CommentResponse {
	v.mu.RLock()
	defer v.mu.RUnlock()

	replies := make(map[uuid.UUID][]dto.CommentResponse)
	var top []dto.CommentResponse
	for _, c := range v.comments {
		out := *c
		out.Replies = nil
		if c.ParentID == nil {
			top = append(top, out)
		} else {
			replies[*c.ParentID] = append(replies[*c.ParentID], out)
		}
	}

	sort.Slice(top, func(i, j int) bool {
		if !top[i].CreatedAt.Equal(top[j].CreatedAt) {
			return top[i].CreatedAt.After(top[j].CreatedAt)
		}
		return top[i].ID.String() < top[j].ID.String()
	})
	for i := range top {
		rs := replies[top[i].ID]
		sort.Slice(rs, func(a, b int) bool {
			if !rs[a].CreatedAt.Equal(rs[b].CreatedAt) {
				return rs[a].CreatedAt.Before(rs[b].CreatedAt)
			}
			return rs[a].ID.String() < rs[b].ID.String()
		})
		top[i].Replies = rs
	}
	return top
}

// Len returns the number of comments in the view, replies included.
func (v *ThreadView) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.comments)
}
