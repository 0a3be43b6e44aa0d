package realtime

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"thread-service/internal/metrics"
	"thread-service/internal/middleware"
	"thread-service/internal/response"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler upgrades authenticated websocket connections into hub clients.
type WSHandler struct {
	hub       *Hub
	threads   Gateway
	validator middleware.TokenValidator
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewWSHandler creates a new websocket handler. m may be nil when metrics
// are not collected.
func NewWSHandler(hub *Hub, threads Gateway, validator middleware.TokenValidator, m *metrics.Metrics, logger *zap.Logger) *WSHandler {
	return &WSHandler{
		hub:       hub,
		threads:   threads,
		validator: validator,
		metrics:   m,
		logger:    logger,
	}
}

// Serve handles GET /ws?token=<jwt>. Browsers cannot set headers on
// websocket handshakes, so the token travels as a query parameter.
func (h *WSHandler) Serve(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.SendError(c, http.StatusUnauthorized, response.ErrCodeUnauthorized, "missing token")
		return
	}

	identity, err := h.validator.Validate(c.Request.Context(), token)
	if err != nil {
		response.SendError(c, http.StatusUnauthorized, response.ErrCodeUnauthorized, "invalid token")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	h.logger.Info("websocket connected", zap.String("userId", identity.UserID.String()))

	client := NewClient(h.hub, conn, h.threads, identity, h.logger)
	if h.metrics != nil {
		h.metrics.WSConnections.Inc()
		client.onClose = func() { h.metrics.WSConnections.Dec() }
	}
	client.Start()
}
