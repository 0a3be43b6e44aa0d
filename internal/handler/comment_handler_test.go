package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"thread-service/internal/domain"
	"thread-service/internal/dto"
	"thread-service/internal/middleware"
	"thread-service/internal/response"
)

type mockThreadService struct {
	createFn func(domain.Identity, dto.CreateCommentRequest) (*dto.CommentResponse, error)
	updateFn func(domain.Identity, uuid.UUID, dto.UpdateCommentRequest) (*dto.CommentResponse, error)
	deleteFn func(domain.Identity, uuid.UUID) error
	voteFn   func(domain.Identity, uuid.UUID, dto.VoteRequest) (*dto.VoteResult, error)
	threadFn func(uuid.UUID, int) (*dto.ThreadPage, error)
}

func (m *mockThreadService) CreateComment(_ context.Context, id domain.Identity, req dto.CreateCommentRequest) (*dto.CommentResponse, error) {
	return m.createFn(id, req)
}
func (m *mockThreadService) UpdateComment(_ context.Context, id domain.Identity, commentID uuid.UUID, req dto.UpdateCommentRequest) (*dto.CommentResponse, error) {
	return m.updateFn(id, commentID, req)
}
func (m *mockThreadService) DeleteComment(_ context.Context, id domain.Identity, commentID uuid.UUID) error {
	return m.deleteFn(id, commentID)
}
func (m *mockThreadService) VoteComment(_ context.Context, id domain.Identity, commentID uuid.UUID, req dto.VoteRequest) (*dto.VoteResult, error) {
	return m.voteFn(id, commentID, req)
}
func (m *mockThreadService) GetThread(_ context.Context, itemID uuid.UUID, page int) (*dto.ThreadPage, error) {
	return m.threadFn(itemID, page)
}

type stubValidator struct {
	identity domain.Identity
}

func (s stubValidator) Validate(context.Context, string) (domain.Identity, error) {
	return s.identity, nil
}

func setupRouter(svc *mockThreadService, identity domain.Identity) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewCommentHandler(svc, nil, zap.NewNop())

	r := gin.New()
	r.GET("/items/:contentItemId/comments", h.GetThread)
	authed := r.Group("", middleware.AuthMiddleware(stubValidator{identity: identity}))
	authed.POST("/comments", h.CreateComment)
	authed.PUT("/comments/:commentId", h.UpdateComment)
	authed.DELETE("/comments/:commentId", h.DeleteComment)
	authed.POST("/comments/:commentId/vote", h.VoteComment)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer test")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateComment_Created(t *testing.T) {
	identity := domain.Identity{UserID: uuid.New(), Role: domain.RoleUser}
	svc := &mockThreadService{
		createFn: func(id domain.Identity, req dto.CreateCommentRequest) (*dto.CommentResponse, error) {
			return &dto.CommentResponse{
				ID:            uuid.New(),
				ContentItemID: req.ContentItemID,
				AuthorID:      id.UserID,
				Content:       req.Content,
			}, nil
		},
	}
	r := setupRouter(svc, identity)

	w := doJSON(t, r, http.MethodPost, "/comments", dto.CreateCommentRequest{
		ContentItemID: uuid.New(),
		Content:       "hello",
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)
	assert.Contains(t, w.Body.String(), identity.UserID.String())
}

func TestCreateComment_MissingBody(t *testing.T) {
	r := setupRouter(&mockThreadService{}, domain.Identity{UserID: uuid.New()})
	w := doJSON(t, r, http.MethodPost, "/comments", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServiceErrorStatusMapping(t *testing.T) {
	tests := []struct {
		code       string
		wantStatus int
	}{
		{response.ErrCodeValidation, http.StatusBadRequest},
		{response.ErrCodeNotFound, http.StatusNotFound},
		{response.ErrCodeForbidden, http.StatusForbidden},
		{response.ErrCodeConflict, http.StatusConflict},
		{response.ErrCodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			svc := &mockThreadService{
				deleteFn: func(domain.Identity, uuid.UUID) error {
					return response.NewAppError(tt.code, "boom", "")
				},
			}
			r := setupRouter(svc, domain.Identity{UserID: uuid.New()})

			w := doJSON(t, r, http.MethodDelete, "/comments/"+uuid.NewString(), nil)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.code)
		})
	}
}

func TestDeleteComment_InvalidID(t *testing.T) {
	r := setupRouter(&mockThreadService{}, domain.Identity{UserID: uuid.New()})
	w := doJSON(t, r, http.MethodDelete, "/comments/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVoteComment_OK(t *testing.T) {
	commentID := uuid.New()
	svc := &mockThreadService{
		voteFn: func(_ domain.Identity, id uuid.UUID, req dto.VoteRequest) (*dto.VoteResult, error) {
			return &dto.VoteResult{CommentID: id, VoteScore: 2}, nil
		},
	}
	r := setupRouter(svc, domain.Identity{UserID: uuid.New()})

	w := doJSON(t, r, http.MethodPost, "/comments/"+commentID.String()+"/vote",
		dto.VoteRequest{VoteType: "upvote"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"voteScore":2`)
}

func TestGetThread_NoAuthRequired(t *testing.T) {
	itemID := uuid.New()
	svc := &mockThreadService{
		threadFn: func(id uuid.UUID, page int) (*dto.ThreadPage, error) {
			return &dto.ThreadPage{Page: page, PageSize: 20, Total: 0}, nil
		},
	}
	r := setupRouter(svc, domain.Identity{})

	req := httptest.NewRequest(http.MethodGet, "/items/"+itemID.String()+"/comments?page=2", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"page":2`)
}

func TestGetThread_InvalidItemID(t *testing.T) {
	r := setupRouter(&mockThreadService{}, domain.Identity{})
	req := httptest.NewRequest(http.MethodGet, "/items/xyz/comments", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
