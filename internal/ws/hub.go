package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	ActionMovementRecorded = "movement_recorded"
	ActionMovementDeleted  = "movement_deleted"
)

// Client is the part of a websocket connection the hub writes to.
type Client interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// EventUser identifies who caused a ledger event.
type EventUser struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Event is one ledger change pushed to connected clients.
type Event struct {
	Type         string          `json:"type"`
	Action       string          `json:"action"`
	MovementID   uuid.UUID       `json:"movementId"`
	MovementType string          `json:"movementType"`
	Quantity     decimal.Decimal `json:"quantity"`
	ProductID    uuid.UUID       `json:"productId"`
	ProductName  string          `json:"productName,omitempty"`
	CurrentStock decimal.Decimal `json:"currentStock"`
	User         EventUser       `json:"user"`
	Message      string          `json:"message"`
	Timestamp    time.Time       `json:"timestamp"`
}

type Hub struct {
	clients    map[Client]bool
	register   chan Client
	unregister chan Client
	broadcast  chan []byte
	done       chan struct{}
	mutex      sync.Mutex
	log        *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[Client]bool),
		register:   make(chan Client),
		unregister: make(chan Client),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
		log:        log.Named("ws"),
	}
}

// Run serves registrations and broadcasts until ctx is cancelled, then closes
// every client. Run must be called at most once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for conn := range h.clients {
				_ = conn.Close()
				delete(h.clients, conn)
			}
			h.mutex.Unlock()
			return

		case conn := <-h.register:
			h.mutex.Lock()
			h.clients[conn] = true
			h.mutex.Unlock()
			h.log.Debug("client connected")

		case conn := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				_ = conn.Close()
			}
			h.mutex.Unlock()

		case message := <-h.broadcast:
			h.mutex.Lock()
			for conn := range h.clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					_ = conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Register adds conn. Once Run has returned the connection is closed instead.
func (h *Hub) Register(conn Client) {
	select {
	case h.register <- conn:
	case <-h.done:
		_ = conn.Close()
	}
}

// Unregister removes and closes conn. It returns immediately once Run has returned.
func (h *Hub) Unregister(conn Client) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Publish queues event for broadcast. It never blocks the caller; events are
// dropped when the queue is full.
func (h *Hub) Publish(event Event) {
	if event.Type == "" {
		event.Type = "stock_update"
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	msg, err := json.Marshal(event)
	if err != nil {
		h.log.Error("failed to encode event", zap.Error(err))
		return
	}
	select {
	case h.broadcast <- msg:
	default:
		h.log.Warn("broadcast queue full, dropping event", zap.String("action", event.Action))
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}
