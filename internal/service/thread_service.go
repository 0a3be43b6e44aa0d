package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"thread-service/internal/client"
	"thread-service/internal/domain"
	"thread-service/internal/dto"
	"thread-service/internal/realtime"
	"thread-service/internal/repository"
	"thread-service/internal/response"
)

// ThreadService is the single mutation path for threads. Every write is
// validated, persisted, and broadcast here, so websocket and REST requests
// behave identically.
type ThreadService interface {
	CreateComment(ctx context.Context, identity domain.Identity, req dto.CreateCommentRequest) (*dto.CommentResponse, error)
	UpdateComment(ctx context.Context, identity domain.Identity, commentID uuid.UUID, req dto.UpdateCommentRequest) (*dto.CommentResponse, error)
	DeleteComment(ctx context.Context, identity domain.Identity, commentID uuid.UUID) error
	VoteComment(ctx context.Context, identity domain.Identity, commentID uuid.UUID, req dto.VoteRequest) (*dto.VoteResult, error)
	GetThread(ctx context.Context, contentItemID uuid.UUID, page int) (*dto.ThreadPage, error)
}

type threadService struct {
	repo             repository.CommentRepository
	contentClient    client.ContentClient
	broadcaster      realtime.Broadcaster
	logger           *zap.Logger
	pageSize         int
	maxContentLength int
}

// NewThreadService creates a new thread service
func NewThreadService(
	repo repository.CommentRepository,
	contentClient client.ContentClient,
	broadcaster realtime.Broadcaster,
	logger *zap.Logger,
	pageSize int,
	maxContentLength int,
) ThreadService {
	return &threadService{
		repo:             repo,
		contentClient:    contentClient,
		broadcaster:      broadcaster,
		logger:           logger,
		pageSize:         pageSize,
		maxContentLength: maxContentLength,
	}
}

func (s *threadService) CreateComment(ctx context.Context, identity domain.Identity, req dto.CreateCommentRequest) (*dto.CommentResponse, error) {
	if err := s.validateContent(req.Content); err != nil {
		return nil, err
	}

	exists, err := s.contentClient.ContentItemExists(ctx, req.ContentItemID)
	if err != nil {
		s.logger.Error("content item lookup failed",
			zap.String("contentItemId", req.ContentItemID.String()),
			zap.Error(err))
		return nil, response.NewAppError(response.ErrCodeInternal, "failed to verify content item", err.Error())
	}
	if !exists {
		return nil, response.NewAppError(response.ErrCodeNotFound, "content item not found", "")
	}

	if req.ParentID != nil {
		parent, err := s.repo.FindByID(*req.ParentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, response.NewAppError(response.ErrCodeNotFound, "parent comment not found", "")
			}
			return nil, s.internal("failed to load parent comment", err)
		}
		if !parent.IsTopLevel() {
			return nil, response.NewAppError(response.ErrCodeValidation, "replies cannot be nested", "")
		}
		if parent.ContentItemID != req.ContentItemID {
			return nil, response.NewAppError(response.ErrCodeValidation, "parent comment belongs to a different content item", "")
		}
	}

	comment := &domain.Comment{
		ContentItemID: req.ContentItemID,
		AuthorID:      identity.UserID,
		ParentID:      req.ParentID,
		Content:       strings.TrimSpace(req.Content),
	}
	if err := s.repo.Create(comment); err != nil {
		return nil, s.internal("failed to create comment", err)
	}

	resp := toCommentResponse(comment, 0)
	s.publish(ctx, realtime.EventCommentCreated, comment.ContentItemID, resp)
	return &resp, nil
}

func (s *threadService) UpdateComment(ctx context.Context, identity domain.Identity, commentID uuid.UUID, req dto.UpdateCommentRequest) (*dto.CommentResponse, error) {
	if err := s.validateContent(req.Content); err != nil {
		return nil, err
	}

	comment, err := s.findComment(commentID)
	if err != nil {
		return nil, err
	}
	if !identity.CanModify(comment.AuthorID) {
		return nil, response.NewAppError(response.ErrCodeForbidden, "not allowed to edit this comment", "")
	}

	comment.Content = strings.TrimSpace(req.Content)
	comment.IsEdited = true
	if err := s.repo.Update(comment); err != nil {
		return nil, s.internal("failed to update comment", err)
	}

	scores, err := s.repo.VoteScores([]uuid.UUID{comment.ID})
	if err != nil {
		return nil, s.internal("failed to load vote score", err)
	}

	resp := toCommentResponse(comment, scores[comment.ID])
	s.publish(ctx, realtime.EventCommentUpdated, comment.ContentItemID, resp)
	return &resp, nil
}

func (s *threadService) DeleteComment(ctx context.Context, identity domain.Identity, commentID uuid.UUID) error {
	comment, err := s.findComment(commentID)
	if err != nil {
		return err
	}
	if !identity.CanModify(comment.AuthorID) {
		return response.NewAppError(response.ErrCodeForbidden, "not allowed to delete this comment", "")
	}

	removed, err := s.repo.DeleteWithReplies(comment)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NewAppError(response.ErrCodeNotFound, "comment not found", "")
		}
		return s.internal("failed to delete comment", err)
	}

	s.logger.Info("comment deleted",
		zap.String("commentId", comment.ID.String()),
		zap.Int64("removed", removed))

	s.publish(ctx, realtime.EventCommentDeleted, comment.ContentItemID, realtime.DeletedPayload{
		CommentID: comment.ID,
		ParentID:  comment.ParentID,
	})
	return nil
}

func (s *threadService) VoteComment(ctx context.Context, identity domain.Identity, commentID uuid.UUID, req dto.VoteRequest) (*dto.VoteResult, error) {
	vote := domain.VoteType(req.VoteType)
	if !vote.Valid() {
		return nil, response.NewAppError(response.ErrCodeValidation, "voteType must be upvote or downvote", "")
	}

	comment, err := s.findComment(commentID)
	if err != nil {
		return nil, err
	}

	score, err := s.repo.ToggleVote(comment.ID, identity.UserID, vote)
	if err != nil {
		if errors.Is(err, repository.ErrVoteConflict) {
			return nil, response.NewAppError(response.ErrCodeConflict, "vote changed concurrently, retry", "")
		}
		return nil, s.internal("failed to apply vote", err)
	}

	result := &dto.VoteResult{CommentID: comment.ID, VoteScore: score}
	s.publish(ctx, realtime.EventCommentVoted, comment.ContentItemID, realtime.VotedPayload{
		CommentID: comment.ID,
		VoteScore: score,
	})
	return result, nil
}

func (s *threadService) GetThread(ctx context.Context, contentItemID uuid.UUID, page int) (*dto.ThreadPage, error) {
	if page < 1 {
		page = 1
	}

	comments, total, err := s.repo.FindPageByContentItem(contentItemID, page, s.pageSize)
	if err != nil {
		return nil, s.internal("failed to load thread", err)
	}

	ids := make([]uuid.UUID, 0, len(comments)*2)
	for i := range comments {
		ids = append(ids, comments[i].ID)
		for j := range comments[i].Replies {
			ids = append(ids, comments[i].Replies[j].ID)
		}
	}
	scores, err := s.repo.VoteScores(ids)
	if err != nil {
		return nil, s.internal("failed to load vote scores", err)
	}

	out := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		c := toCommentResponse(&comments[i], scores[comments[i].ID])
		for j := range comments[i].Replies {
			reply := &comments[i].Replies[j]
			c.Replies = append(c.Replies, toCommentResponse(reply, scores[reply.ID]))
		}
		out = append(out, c)
	}

	return &dto.ThreadPage{
		Comments: out,
		Page:     page,
		PageSize: s.pageSize,
		Total:    total,
	}, nil
}

func (s *threadService) findComment(id uuid.UUID) (*domain.Comment, error) {
	comment, err := s.repo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewAppError(response.ErrCodeNotFound, "comment not found", "")
		}
		return nil, s.internal("failed to load comment", err)
	}
	return comment, nil
}

func (s *threadService) validateContent(content string) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return response.NewAppError(response.ErrCodeValidation, "content must not be empty", "")
	}
	if len(trimmed) > s.maxContentLength {
		return response.NewAppError(response.ErrCodeValidation,
			fmt.Sprintf("content must not exceed %d characters", s.maxContentLength), "")
	}
	return nil
}

// publish fans the event out after the mutation is already persisted.
// Delivery failures are logged, not surfaced: readers catch up through the
// REST read path.
func (s *threadService) publish(ctx context.Context, eventType string, contentItemID uuid.UUID, payload interface{}) {
	event, err := realtime.NewEvent(eventType, contentItemID, payload)
	if err != nil {
		s.logger.Error("failed to build event", zap.String("type", eventType), zap.Error(err))
		return
	}
	if err := s.broadcaster.Broadcast(ctx, event); err != nil {
		s.logger.Error("failed to broadcast event",
			zap.String("type", eventType),
			zap.String("contentItemId", contentItemID.String()),
			zap.Error(err))
	}
}

func (s *threadService) internal(msg string, err error) *response.AppError {
	s.logger.Error(msg, zap.Error(err))
	return response.NewAppError(response.ErrCodeInternal, msg, err.Error())
}

func toCommentResponse(c *domain.Comment, score int64) dto.CommentResponse {
	return dto.CommentResponse{
		ID:            c.ID,
		ContentItemID: c.ContentItemID,
		AuthorID:      c.AuthorID,
		ParentID:      c.ParentID,
		Content:       c.Content,
		IsEdited:      c.IsEdited,
		VoteScore:     score,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}
