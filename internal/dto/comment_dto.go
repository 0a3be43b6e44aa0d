package dto

import (
	"time"

	"github.com/google/uuid"
)

// CreateCommentRequest creates a top-level comment (ParentID nil) or a
// single-level reply (ParentID set to a top-level comment).
type CreateCommentRequest struct {
	ContentItemID uuid.UUID  `json:"contentItemId" binding:"required"`
	ParentID      *uuid.UUID `json:"parentId,omitempty"`
	Content       string     `json:"content" binding:"required"`
}

// UpdateCommentRequest replaces a comment's content.
type UpdateCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

// VoteRequest toggles the requester's vote on a comment.
type VoteRequest struct {
	VoteType string `json:"voteType" binding:"required"`
}

// CommentResponse is the wire form of a comment. VoteScore is derived from
// the vote ledger at read time.
type CommentResponse struct {
	ID            uuid.UUID         `json:"id"`
	ContentItemID uuid.UUID         `json:"contentItemId"`
	AuthorID      uuid.UUID         `json:"authorId"`
	ParentID      *uuid.UUID        `json:"parentId"`
	Content       string            `json:"content"`
	IsEdited      bool              `json:"isEdited"`
	VoteScore     int64             `json:"voteScore"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
	Replies       []CommentResponse `json:"replies,omitempty"`
}

// ThreadPage is one page of top-level comments (newest first), each carrying
// its replies (oldest first).
type ThreadPage struct {
	Comments []CommentResponse `json:"comments"`
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize"`
	Total    int64             `json:"total"`
}

// VoteResult reports the comment's score after a vote toggle.
type VoteResult struct {
	CommentID uuid.UUID `json:"commentId"`
	VoteScore int64     `json:"voteScore"`
}
