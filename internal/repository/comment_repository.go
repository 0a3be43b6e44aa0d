package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"thread-service/internal/domain"
)

// ErrVoteConflict is returned when a vote toggle loses a race with a
// concurrent toggle by the same user.
var ErrVoteConflict = errors.New("vote state changed concurrently")

// CommentRepository persists comments and their vote ledger.
type CommentRepository interface {
	Create(comment *domain.Comment) error
	FindByID(id uuid.UUID) (*domain.Comment, error)
	FindPageByContentItem(contentItemID uuid.UUID, page, pageSize int) ([]domain.Comment, int64, error)
	Update(comment *domain.Comment) error
	DeleteWithReplies(comment *domain.Comment) (int64, error)
	ToggleVote(commentID, userID uuid.UUID, vote domain.VoteType) (int64, error)
	VoteScores(commentIDs []uuid.UUID) (map[uuid.UUID]int64, error)
	PurgeDeletedBefore(cutoff time.Time) (int64, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(comment *domain.Comment) error {
	if comment.ID == uuid.Nil {
		comment.ID = uuid.New()
	}
	return r.db.Create(comment).Error
}

func (r *commentRepository) FindByID(id uuid.UUID) (*domain.Comment, error) {
	var comment domain.Comment
	err := r.db.Where("id = ? AND deleted_at IS NULL", id).First(&comment).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// FindPageByContentItem returns one page of top-level comments (newest
// first), each with its replies loaded oldest first. Total counts top-level
// comments only.
func (r *commentRepository) FindPageByContentItem(contentItemID uuid.UUID, page, pageSize int) ([]domain.Comment, int64, error) {
	var total int64
	err := r.db.Model(&domain.Comment{}).
		Where("content_item_id = ? AND parent_id IS NULL AND deleted_at IS NULL", contentItemID).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var comments []domain.Comment
	err = r.db.
		Preload("Replies", func(db *gorm.DB) *gorm.DB {
			return db.Where("deleted_at IS NULL").Order("created_at ASC")
		}).
		Where("content_item_id = ? AND parent_id IS NULL AND deleted_at IS NULL", contentItemID).
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&comments).Error
	if err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

func (r *commentRepository) Update(comment *domain.Comment) error {
	return r.db.Model(comment).Updates(map[string]interface{}{
		"content":   comment.Content,
		"is_edited": true,
	}).Error
}

// DeleteWithReplies soft-deletes a comment and all of its replies in one
// transaction, so a reader never observes an orphaned reply. Returns the
// number of comments removed, the parent included.
func (r *commentRepository) DeleteWithReplies(comment *domain.Comment) (int64, error) {
	var removed int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()

		res := tx.Model(&domain.Comment{}).
			Where("parent_id = ? AND deleted_at IS NULL", comment.ID).
			Update("deleted_at", now)
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected

		res = tx.Model(&domain.Comment{}).
			Where("id = ? AND deleted_at IS NULL", comment.ID).
			Update("deleted_at", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		removed += res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// ToggleVote applies one vote submission to the (comment, user) ledger row
// and returns the comment's resulting score. Each write is guarded by the
// state it read, so two racing toggles cannot both apply: the loser's guarded
// statement matches no rows and the toggle fails with ErrVoteConflict.
func (r *commentRepository) ToggleVote(commentID, userID uuid.UUID, vote domain.VoteType) (int64, error) {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var existing domain.CommentVote
		err := tx.Where("comment_id = ? AND user_id = ?", commentID, userID).
			First(&existing).Error

		current := domain.VoteNone
		if err == nil {
			current = existing.Value
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		next := domain.NextVoteState(current, vote)
		switch {
		case current == domain.VoteNone:
			row := domain.CommentVote{
				ID:        uuid.New(),
				CommentID: commentID,
				UserID:    userID,
				Value:     next,
			}
			if err := tx.Create(&row).Error; err != nil {
				// The unique index on (comment_id, user_id) rejects the
				// insert when a concurrent toggle created the row first.
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return ErrVoteConflict
				}
				return err
			}
		case next == domain.VoteNone:
			res := tx.Where("comment_id = ? AND user_id = ? AND value = ?",
				commentID, userID, current).
				Delete(&domain.CommentVote{})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrVoteConflict
			}
		default:
			res := tx.Model(&domain.CommentVote{}).
				Where("comment_id = ? AND user_id = ? AND value = ?",
					commentID, userID, current).
				Update("value", next)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrVoteConflict
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return r.voteScore(commentID)
}

func (r *commentRepository) voteScore(commentID uuid.UUID) (int64, error) {
	var score int64
	err := r.db.Model(&domain.CommentVote{}).
		Where("comment_id = ?", commentID).
		Select("COALESCE(SUM(value), 0)").
		Scan(&score).Error
	return score, err
}

// VoteScores returns the derived score for each given comment. Comments with
// no votes are present with score zero.
func (r *commentRepository) VoteScores(commentIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	scores := make(map[uuid.UUID]int64, len(commentIDs))
	for _, id := range commentIDs {
		scores[id] = 0
	}
	if len(commentIDs) == 0 {
		return scores, nil
	}

	var rows []struct {
		CommentID uuid.UUID
		Score     int64
	}
	err := r.db.Model(&domain.CommentVote{}).
		Select("comment_id, COALESCE(SUM(value), 0) AS score").
		Where("comment_id IN ?", commentIDs).
		Group("comment_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		scores[row.CommentID] = row.Score
	}
	return scores, nil
}

// PurgeDeletedBefore hard-deletes comments soft-deleted before the cutoff,
// along with their vote rows.
func (r *commentRepository) PurgeDeletedBefore(cutoff time.Time) (int64, error) {
	var purged int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var ids []uuid.UUID
		err := tx.Model(&domain.Comment{}).
			Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
			Pluck("id", &ids).Error
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		if err := tx.Where("comment_id IN ?", ids).
			Delete(&domain.CommentVote{}).Error; err != nil {
			return err
		}

		res := tx.Where("id IN ?", ids).Delete(&domain.Comment{})
		if res.Error != nil {
			return res.Error
		}
		purged = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to purge deleted comments: %w", err)
	}
	return purged, nil
}
