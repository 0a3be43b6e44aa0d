package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"thread-service/internal/domain"
	"thread-service/internal/dto"
	"thread-service/internal/response"
)

// Gateway applies thread mutations on behalf of connected clients. It is the
// same mutation path the REST transport uses, declared here so the transport
// depends only on what it calls.
type Gateway interface {
	CreateComment(ctx context.Context, identity domain.Identity, req dto.CreateCommentRequest) (*dto.CommentResponse, error)
	UpdateComment(ctx context.Context, identity domain.Identity, commentID uuid.UUID, req dto.UpdateCommentRequest) (*dto.CommentResponse, error)
	DeleteComment(ctx context.Context, identity domain.Identity, commentID uuid.UUID) error
	VoteComment(ctx context.Context, identity domain.Identity, commentID uuid.UUID, req dto.VoteRequest) (*dto.VoteResult, error)
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
	sendBuffer     = 64
)

// Inbound websocket actions.
const (
	ActionJoin         = "join"
	ActionLeave        = "leave"
	ActionSubmitCreate = "submit-create"
	ActionSubmitUpdate = "submit-update"
	ActionSubmitDelete = "submit-delete"
	ActionSubmitVote   = "submit-vote"
)

// Message is the inbound websocket frame.
type Message struct {
	Action        string          `json:"action"`
	ContentItemID uuid.UUID       `json:"contentItemId,omitempty"`
	Payload       json.RawMessage `json:"payload,omitempty"`
}

type mutationPayload struct {
	CommentID uuid.UUID `json:"commentId"`
	Content   string    `json:"content,omitempty"`
	VoteType  string    `json:"voteType,omitempty"`
}

// Client is one authenticated websocket connection. Mutations it submits go
// through the same service path as REST requests; only the resulting room
// broadcast reaches other subscribers, while failures come back on this
// connection alone.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	threads  Gateway
	identity domain.Identity
	logger   *zap.Logger

	send      chan []byte
	done      chan struct{}
	rooms     map[uuid.UUID]bool
	closeOnce sync.Once
	onClose   func()
}

// NewClient wraps an upgraded connection.
func NewClient(hub *Hub, conn *websocket.Conn, threads Gateway, identity domain.Identity, logger *zap.Logger) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		threads:  threads,
		identity: identity,
		logger:   logger,
		send:     make(chan []byte, sendBuffer),
		done:     make(chan struct{}),
		rooms:    make(map[uuid.UUID]bool),
	}
}

// Start runs the read and write pumps.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.onClose != nil {
			c.onClose()
		}
	})
}

// trySend queues data unless the client is shutting down or its buffer is
// full. The send channel is never closed; shutdown is signalled through done
// so a concurrent sender can never hit a closed channel.
func (c *Client) trySend(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	case <-c.done:
		return false
	default:
		return false
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error",
					zap.String("userId", c.identity.UserID.String()),
					zap.Error(err))
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.sendError(response.ErrCodeValidation, "malformed message")
			continue
		}
		c.handle(msg)
	}
}

func (c *Client) handle(msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch msg.Action {
	case ActionJoin:
		if msg.ContentItemID == uuid.Nil {
			c.sendError(response.ErrCodeValidation, "contentItemId is required")
			return
		}
		c.hub.join(c, msg.ContentItemID)
	case ActionLeave:
		c.hub.leave(c, msg.ContentItemID)
	case ActionSubmitCreate:
		var req dto.CreateCommentRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			c.sendError(response.ErrCodeValidation, "malformed payload")
			return
		}
		if _, err := c.threads.CreateComment(ctx, c.identity, req); err != nil {
			c.sendAppError(err)
		}
	case ActionSubmitUpdate:
		var p mutationPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			c.sendError(response.ErrCodeValidation, "malformed payload")
			return
		}
		req := dto.UpdateCommentRequest{Content: p.Content}
		if _, err := c.threads.UpdateComment(ctx, c.identity, p.CommentID, req); err != nil {
			c.sendAppError(err)
		}
	case ActionSubmitDelete:
		var p mutationPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			c.sendError(response.ErrCodeValidation, "malformed payload")
			return
		}
		if err := c.threads.DeleteComment(ctx, c.identity, p.CommentID); err != nil {
			c.sendAppError(err)
		}
	case ActionSubmitVote:
		var p mutationPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			c.sendError(response.ErrCodeValidation, "malformed payload")
			return
		}
		req := dto.VoteRequest{VoteType: p.VoteType}
		if _, err := c.threads.VoteComment(ctx, c.identity, p.CommentID, req); err != nil {
			c.sendAppError(err)
		}
	default:
		c.sendError(response.ErrCodeValidation, "unknown action")
	}
}

// sendAppError maps a service error onto this connection only.
func (c *Client) sendAppError(err error) {
	var appErr *response.AppError
	if errors.As(err, &appErr) {
		c.sendError(appErr.Code, appErr.Message)
		return
	}
	c.sendError(response.ErrCodeInternal, "internal error")
}

func (c *Client) sendError(code, message string) {
	event, err := NewEvent(EventError, uuid.Nil, ErrorPayload{Code: code, Message: message})
	if err != nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	c.trySend(data)
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
