// Package ws provides the WebSocket chat endpoint.
package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/xiaot623/gogo/marketing/internal/config"
	"github.com/xiaot623/gogo/marketing/internal/hub"
)

// MessageHandler processes one inbound frame from a client.
type MessageHandler interface {
	HandleRealtimeMessage(ctx context.Context, clientID string, data []byte)
}

// Server handles WebSocket connections.
type Server struct {
	cfg      *config.Config
	hub      *hub.Hub
	handler  MessageHandler
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewServer creates a new WebSocket server.
func NewServer(cfg *config.Config, h *hub.Hub, handler MessageHandler, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:     cfg,
		hub:     h,
		handler: handler,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: logger,
	}
}

// Register mounts the endpoint on e.
func (s *Server) Register(e *echo.Echo) {
	e.GET("/ws/:client_id", s.HandleWebSocket)
}

// HandleWebSocket upgrades the request and makes the socket the client's live channel.
func (s *Server) HandleWebSocket(c echo.Context) error {
	clientID := c.Param("client_id")
	if clientID == "" {
		return c.JSON(http.StatusBadRequest, map[string]any{"success": false, "error": "client_id is required"})
	}

	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.logger.Warn("failed to upgrade websocket", zap.String("client_id", clientID), zap.Error(err))
		return nil
	}
	ws.SetReadLimit(s.cfg.MaxMessageSize)

	conn := hub.NewConnection(clientID, ws)
	s.hub.Open(clientID, conn)
	s.logger.Info("client connected", zap.String("client_id", clientID))

	go s.writePump(conn)
	go s.readPump(conn)
	return nil
}

// readPump handles frames one at a time, so a client's messages are
// processed in arrival order.
func (s *Server) readPump(conn *hub.Connection) {
	defer func() {
		s.hub.CloseChannel(conn.ClientID, conn)
		conn.Shutdown()
		conn.Close()
		s.logger.Info("client disconnected", zap.String("client_id", conn.ClientID))
	}()

	conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout()))
	conn.Conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout()))
		return nil
	})

	for {
		_, message, err := conn.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read failed", zap.String("client_id", conn.ClientID), zap.Error(err))
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout()))

		s.handler.HandleRealtimeMessage(context.Background(), conn.ClientID, message)
	}
}

// writePump drains the outbound queue onto the socket and keeps it alive with pings.
func (s *Server) writePump(conn *hub.Connection) {
	ticker := time.NewTicker(s.cfg.PingInterval())
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Outbound():
			conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout()))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				s.logger.Warn("websocket write failed", zap.String("client_id", conn.ClientID), zap.Error(err))
				s.hub.CloseChannel(conn.ClientID, conn)
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout()))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
