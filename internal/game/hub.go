package game

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
)

const writeTimeout = 10 * time.Second

type Client struct {
	conn     *websocket.Conn
	playerID string
	mu       sync.Mutex
	log      *slog.Logger
}

// Hub fans broadcast messages (prize announcements, pool balance updates)
// out to every connected websocket client.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan any
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	log        *slog.Logger
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan any, 100),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        slog.Default().With("component", "hub"),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Info("client connected", "player", client.playerID, "total", total)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.conn.Close()
				h.log.Info("client disconnected", "player", client.playerID, "total", len(h.clients))
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			data, err := json.Marshal(message)
			if err != nil {
				h.log.Error("marshal failed", "error", err)
				continue
			}

			h.mu.RLock()
			for client := range h.clients {
				go client.send(data) // non-blocking fan-out
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast queues a message for every client; dropped when the queue is
// full rather than blocking a game settlement.
func (h *Hub) Broadcast(message any) {
	select {
	case h.broadcast <- message:
	default:
		h.log.Warn("broadcast queue full, dropping message")
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (c *Client) send(message any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var data []byte
	var err error

	switch v := message.(type) {
	case []byte:
		data = v
	default:
		if data, err = json.Marshal(v); err != nil {
			c.log.Error("marshal failed", "error", err)
			return
		}
	}

	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		c.log.Warn("write failed", "player", c.playerID, "error", err)
	}
}

// SendWelcome pushes the current pool view to a freshly connected client.
func (c *Client) SendWelcome(data any) {
	c.send(WSMessage{Type: "welcome", Data: data})
}

func (h *Hub) RegisterClient(conn *websocket.Conn, playerID string) *Client {
	client := &Client{
		conn:     conn,
		playerID: playerID,
		log:      slog.Default().With("component", "hub"),
	}
	h.register <- client
	return client
}

func (h *Hub) UnregisterClient(conn *websocket.Conn) {
	h.mu.RLock()
	for client := range h.clients {
		if client.conn == conn {
			h.mu.RUnlock()
			h.unregister <- client
			return
		}
	}
	h.mu.RUnlock()
}
