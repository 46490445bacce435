package websocket

import (
	"sync"
	"time"

	"github.com/baaten/partner_console/models"
	"github.com/baaten/partner_console/services"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	NotificationTypeConnected  = "connected"
	NotificationTypeTransition = "partner_transition"

	writeWait = 10 * time.Second
	sendQueue = 16
)

// Notification represents a message sent over WebSocket
type Notification struct {
	Type    string      `json:"type"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	UserID  string      `json:"userID,omitempty"`
}

// Conn is the part of a websocket connection the hub writes to
type Conn interface {
	WriteJSON(v interface{}) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Client is one connected operator session. An operator may hold several.
type Client struct {
	OperatorID string
	Conn       Conn
	send       chan Notification
}

func NewClient(operatorID string, conn Conn) *Client {
	return &Client{OperatorID: operatorID, Conn: conn, send: make(chan Notification, sendQueue)}
}

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan Notification
	mu         sync.RWMutex
	logger     *zap.Logger
}

// NewHub creates a new Hub instance
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Notification, sendQueue),
		logger:     logger.Named("ws"),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			go h.writePump(client)
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
		case n := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- n:
				default:
					h.logger.Warn("dropping notification for slow client", zap.String("operatorId", client.OperatorID))
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) writePump(client *Client) {
	defer client.Conn.Close()
	for n := range client.send {
		_ = client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := client.Conn.WriteJSON(n); err != nil {
			h.logger.Debug("websocket write failed", zap.String("operatorId", client.OperatorID), zap.Error(err))
			go func() { h.unregister <- client }()
			// drain until the hub closes the channel
			for range client.send {
			}
			return
		}
	}
}

// ClientCount returns the number of connected sessions
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues a notification for every connected operator
func (h *Hub) Broadcast(n Notification) {
	select {
	case h.broadcast <- n:
	default:
		h.logger.Warn("broadcast queue full, dropping notification", zap.String("type", n.Type))
	}
}

// BroadcastTransition tells every operator that a partner changed state
func (h *Hub) BroadcastTransition(event models.TransitionEvent) {
	h.Broadcast(Notification{
		Type:    NotificationTypeTransition,
		Message: transitionMessage(event),
		Data:    event,
		UserID:  event.OperatorID,
	})
}

func transitionMessage(event models.TransitionEvent) string {
	name := event.PartnerName
	if name == "" {
		name = event.PartnerID
	}
	switch event.Type {
	case services.EventPartnerApproved:
		return name + " was approved"
	case services.EventPartnerRejected:
		return name + " was rejected"
	default:
		return name + " transition failed at " + event.Stage
	}
}

var _ Conn = (*websocket.Conn)(nil)
