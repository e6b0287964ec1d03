package websocket

import (
	"github.com/gin-gonic/gin"

	"github.com/noriskclient/launcherd/internal/common/logger"
	ws "github.com/noriskclient/launcherd/pkg/websocket"
)

// Gateway represents the WebSocket gateway
type Gateway struct {
	Hub        *Hub
	Dispatcher *ws.Dispatcher
	Handler    *Handler
	logger     *logger.Logger
}

// NewGateway wires a hub, dispatcher and connection handler serving launcher.
func NewGateway(launcher Launcher, allowOrigins []string, log *logger.Logger) *Gateway {
	dispatcher := ws.NewDispatcher()
	hub := NewHub(dispatcher, log)
	handler := NewHandler(hub, allowOrigins, log)

	RegisterHealthHandler(dispatcher)
	RegisterLaunchHandlers(dispatcher, launcher, log)

	return &Gateway{
		Hub:        hub,
		Dispatcher: dispatcher,
		Handler:    handler,
		logger:     log,
	}
}

// SetupRoutes adds the WebSocket route to the Gin engine
func (g *Gateway) SetupRoutes(router gin.IRoutes) {
	router.GET("/ws", g.Handler.HandleConnection)
}
