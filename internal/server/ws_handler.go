package server

import (
	"encoding/json"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	"github.com/nhle/taskboard/internal/ws"
)

// handleWebSocket runs the read loop for one connection. The connection is
// registered anonymously on arrival; the client binds its identity with an
// auth handshake message. Malformed messages are logged and dropped without
// closing the connection; unknown message types are ignored.
func (s *Server) handleWebSocket(c *websocket.Conn) {
	connID := uuid.New().String()
	s.hub.Register(connID, c)
	defer func() {
		s.hub.Unregister(connID)
		c.Close()
	}()

	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.logger.Warn("websocket read failed", "connID", connID, "error", err)
			}
			return
		}

		var msg ws.ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.logger.Warn("dropping malformed websocket message", "connID", connID, "error", err)
			continue
		}

		switch msg.Type {
		case ws.TypeAuth:
			if msg.UserID > 0 {
				s.hub.Authenticate(connID, msg.UserID)
			}
		}
	}
}
