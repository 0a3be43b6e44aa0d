package domain

import (
	"time"

	"github.com/google/uuid"
)

// BaseModel contains common fields for all domain entities
type BaseModel struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time  `gorm:"type:timestamptz;not null" json:"createdAt"`
	UpdatedAt time.Time  `gorm:"type:timestamptz;not null" json:"updatedAt"`
	DeletedAt *time.Time `gorm:"type:timestamptz;index" json:"deletedAt,omitempty"`
}

// Comment represents a comment on a content item. Nesting is capped at one
// level: a comment either has ParentID == nil (top-level) or points at a
// top-level comment on the same content item.
type Comment struct {
	BaseModel
	ContentItemID uuid.UUID  `gorm:"type:uuid;not null;index:idx_comments_content_item" json:"contentItemId"`
	AuthorID      uuid.UUID  `gorm:"type:uuid;not null;index:idx_comments_author" json:"authorId"`
	ParentID      *uuid.UUID `gorm:"type:uuid;index:idx_comments_parent" json:"parentId"`
	Content       string     `gorm:"type:text;not null" json:"content"`
	IsEdited      bool       `gorm:"default:false" json:"isEdited"`
	Replies       []Comment  `gorm:"foreignKey:ParentID" json:"replies,omitempty"`
}

// TableName specifies the table name for Comment
func (Comment) TableName() string {
	return "comments"
}

// IsTopLevel reports whether the comment can carry replies.
func (c *Comment) IsTopLevel() bool {
	return c.ParentID == nil
}

// CommentVote is one row of a comment's vote ledger. The unique index on
// (comment_id, user_id) keeps the upvoter and downvoter sets disjoint: a user
// holds at most one row per comment, with Value +1 or -1.
type CommentVote struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CommentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_comment_votes_comment_user" json:"commentId"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_comment_votes_comment_user" json:"userId"`
	Value     int       `gorm:"not null" json:"value"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"type:timestamptz;not null" json:"updatedAt"`
}

// TableName specifies the table name for CommentVote
func (CommentVote) TableName() string {
	return "comment_votes"
}
