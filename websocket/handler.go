package websocket

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// NewUpgrader accepts upgrades from the allowed origins only. Requests without
// an Origin header (non-browser clients) are accepted.
func NewUpgrader(allowedOrigins []string) websocket.Upgrader {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowed[origin]
		},
	}
}

// HandleWebSocket upgrades an authenticated operator's connection and keeps
// it registered until the peer goes away
func HandleWebSocket(c echo.Context, hub *Hub, upgrader websocket.Upgrader, operatorID string) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := NewClient(operatorID, conn)
	hub.register <- client

	client.send <- Notification{
		Type:    NotificationTypeConnected,
		Message: "WebSocket connection established",
		UserID:  operatorID,
	}

	// Operators only receive; reads detect disconnects
	go func() {
		defer func() {
			hub.unregister <- client
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	return nil
}
