package websocket

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gorillaws "github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/noriskclient/launcherd/internal/common/logger"
	ws "github.com/noriskclient/launcherd/pkg/websocket"
)

// Handler handles WebSocket connections
type Handler struct {
	hub      *Hub
	upgrader gorillaws.Upgrader
	logger   *logger.Logger
}

// NewHandler creates a new WebSocket handler. Browser origins are checked
// against allowOrigins; an empty list or "*" allows all.
func NewHandler(hub *Hub, allowOrigins []string, log *logger.Logger) *Handler {
	return &Handler{
		hub: hub,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowOrigins),
		},
		logger: log.WithFields(zap.String("component", "ws_handler")),
	}
}

func originChecker(allowOrigins []string) func(r *http.Request) bool {
	allowed := make(map[string]struct{}, len(allowOrigins))
	for _, o := range allowOrigins {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[strings.TrimSuffix(o, "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		if len(allowed) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			// Not a browser.
			return true
		}
		_, ok := allowed[origin]
		return ok
	}
}

// HandleConnection upgrades HTTP to WebSocket and serves the client until it disconnects.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Failed to upgrade connection", zap.Error(err))
		return
	}

	clientID := uuid.New().String()
	h.logger.Debug("WebSocket connection established",
		zap.String("client_id", clientID),
		zap.String("remote_addr", c.Request.RemoteAddr),
	)

	client := NewClient(clientID, conn, h.hub, h.logger)
	if !h.hub.Register(client) {
		_ = conn.WriteMessage(gorillaws.CloseMessage,
			gorillaws.FormatCloseMessage(gorillaws.CloseGoingAway, "server shutting down"))
		_ = conn.Close()
		return
	}

	go client.WritePump()
	client.ReadPump(context.WithoutCancel(c.Request.Context()))
}

// RegisterHealthHandler registers the health check handler
func RegisterHealthHandler(d *ws.Dispatcher) {
	d.RegisterFunc(ws.ActionHealthCheck, func(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
		return ws.NewResponse(msg.ID, msg.Action, map[string]interface{}{
			"status":  "ok",
			"service": "launcherd",
		})
	})
}
