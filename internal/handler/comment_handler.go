package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"thread-service/internal/dto"
	"thread-service/internal/metrics"
	"thread-service/internal/middleware"
	"thread-service/internal/response"
	"thread-service/internal/service"
)

// CommentHandler exposes the thread mutation and read operations over REST.
// This is the synchronous fallback for clients without a websocket: every
// mutation still produces the same room broadcast.
type CommentHandler struct {
	threads service.ThreadService
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewCommentHandler creates a new comment handler
func NewCommentHandler(threads service.ThreadService, m *metrics.Metrics, logger *zap.Logger) *CommentHandler {
	return &CommentHandler{threads: threads, metrics: m, logger: logger}
}

// GetThread godoc
// @Summary Get one page of a content item's thread
// @Tags threads
// @Produce json
// @Param contentItemId path string true "Content item ID"
// @Param page query int false "Page number (1-based)"
// @Success 200 {object} dto.ThreadPage
// @Router /items/{contentItemId}/comments [get]
func (h *CommentHandler) GetThread(c *gin.Context) {
	contentItemID, err := uuid.Parse(c.Param("contentItemId"))
	if err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "invalid content item id")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))

	thread, err := h.threads.GetThread(c.Request.Context(), contentItemID, page)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, thread)
}

// CreateComment godoc
// @Summary Create a comment or a single-level reply
// @Tags threads
// @Accept json
// @Produce json
// @Param request body dto.CreateCommentRequest true "Comment"
// @Success 201 {object} dto.CommentResponse
// @Security BearerAuth
// @Router /comments [post]
func (h *CommentHandler) CreateComment(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		response.SendError(c, http.StatusUnauthorized, response.ErrCodeUnauthorized, "authentication required")
		return
	}

	var req dto.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, err.Error())
		return
	}

	comment, err := h.threads.CreateComment(c.Request.Context(), identity, req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.CommentsTotal.WithLabelValues("created").Inc()
	}
	response.SendSuccess(c, http.StatusCreated, comment)
}

// UpdateComment godoc
// @Summary Edit a comment's content
// @Tags threads
// @Accept json
// @Produce json
// @Param commentId path string true "Comment ID"
// @Param request body dto.UpdateCommentRequest true "New content"
// @Success 200 {object} dto.CommentResponse
// @Security BearerAuth
// @Router /comments/{commentId} [put]
func (h *CommentHandler) UpdateComment(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		response.SendError(c, http.StatusUnauthorized, response.ErrCodeUnauthorized, "authentication required")
		return
	}

	commentID, err := uuid.Parse(c.Param("commentId"))
	if err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "invalid comment id")
		return
	}

	var req dto.UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, err.Error())
		return
	}

	comment, err := h.threads.UpdateComment(c.Request.Context(), identity, commentID, req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.CommentsTotal.WithLabelValues("updated").Inc()
	}
	response.SendSuccess(c, http.StatusOK, comment)
}

// DeleteComment godoc
// @Summary Delete a comment and its replies
// @Tags threads
// @Produce json
// @Param commentId path string true "Comment ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /comments/{commentId} [delete]
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		response.SendError(c, http.StatusUnauthorized, response.ErrCodeUnauthorized, "authentication required")
		return
	}

	commentID, err := uuid.Parse(c.Param("commentId"))
	if err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "invalid comment id")
		return
	}

	if err := h.threads.DeleteComment(c.Request.Context(), identity, commentID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.CommentsTotal.WithLabelValues("deleted").Inc()
	}
	response.SendSuccess(c, http.StatusOK, gin.H{"deleted": true})
}

// VoteComment godoc
// @Summary Toggle a vote on a comment
// @Tags threads
// @Accept json
// @Produce json
// @Param commentId path string true "Comment ID"
// @Param request body dto.VoteRequest true "Vote direction"
// @Success 200 {object} dto.VoteResult
// @Security BearerAuth
// @Router /comments/{commentId}/vote [post]
func (h *CommentHandler) VoteComment(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		response.SendError(c, http.StatusUnauthorized, response.ErrCodeUnauthorized, "authentication required")
		return
	}

	commentID, err := uuid.Parse(c.Param("commentId"))
	if err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "invalid comment id")
		return
	}

	var req dto.VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, err.Error())
		return
	}

	result, err := h.threads.VoteComment(c.Request.Context(), identity, commentID, req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.VotesTotal.Inc()
	}
	response.SendSuccess(c, http.StatusOK, result)
}

func (h *CommentHandler) handleServiceError(c *gin.Context, err error) {
	var appErr *response.AppError
	if !errors.As(err, &appErr) {
		h.logger.Error("unexpected error", zap.Error(err))
		response.SendError(c, http.StatusInternalServerError, response.ErrCodeInternal, "internal server error")
		return
	}

	status := http.StatusInternalServerError
	switch appErr.Code {
	case response.ErrCodeValidation:
		status = http.StatusBadRequest
	case response.ErrCodeNotFound:
		status = http.StatusNotFound
	case response.ErrCodeForbidden:
		status = http.StatusForbidden
	case response.ErrCodeUnauthorized:
		status = http.StatusUnauthorized
	case response.ErrCodeConflict:
		status = http.StatusConflict
	}
	response.SendError(c, status, appErr.Code, appErr.Message)
}
