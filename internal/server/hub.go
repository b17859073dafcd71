package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"songdeck/internal/controller"
	"songdeck/internal/player"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 256
)

// Message types pushed to websocket clients
const (
	MessageSnapshot = "snapshot"
	MessageEvent    = "event"
	MessageResult   = "result"
	MessageError    = "error"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is one frame sent to a websocket client
type Message struct {
	Type     string             `json:"type"`
	ClientID string             `json:"clientId,omitempty"`
	Event    *player.Event      `json:"event,omitempty"`
	Status   *controller.Status `json:"status,omitempty"`
	Result   *IntentResult      `json:"result,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// Hub fans session events out to the connected websocket clients
type Hub struct {
	mu        sync.RWMutex
	clients   map[*Client]bool
	broadcast chan Message
	logger    *logrus.Logger
}

// NewHub creates a hub with no clients
func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		clients:   make(map[*Client]bool),
		broadcast: make(chan Message, sendBuffer),
		logger:    logger,
	}
}

// Run delivers broadcasts until ctx is done, then disconnects every client
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// slow client: drop it rather than stall the others
					delete(h.clients, client)
					close(client.send)
					h.logger.WithField("client_id", client.id).Warn("WebSocket client too slow, disconnecting")
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues ev for every client
func (h *Hub) Broadcast(ev player.Event) {
	select {
	case h.broadcast <- Message{Type: MessageEvent, Event: &ev}:
	default:
		h.logger.WithField("kind", ev.Kind).Warn("WebSocket broadcast channel full, dropping event")
	}
}

// Register adds a client
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.WithFields(logrus.Fields{
		"client_id": client.id,
		"clients":   count,
	}).Info("WebSocket client connected")
}

// Unregister removes a client and closes its send queue
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	h.mu.Unlock()

	h.logger.WithField("client_id", client.id).Info("WebSocket client disconnected")
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Client is one websocket connection
type Client struct {
	id       string
	hub      *Hub
	conn     *websocket.Conn
	send     chan Message
	onIntent func(Intent) Message
	logger   *logrus.Logger
}

// NewClient creates a client with a fresh id; onIntent answers the intents
// the client sends
func NewClient(hub *Hub, conn *websocket.Conn, onIntent func(Intent) Message) *Client {
	return &Client{
		id:       uuid.NewString(),
		hub:      hub,
		conn:     conn,
		send:     make(chan Message, sendBuffer),
		onIntent: onIntent,
		logger:   hub.logger,
	}
}

// ID returns the client id
func (c *Client) ID() string {
	return c.id
}

// Queue sends a message to this client only; false if the client is no
// longer registered or its queue is full
func (c *Client) Queue(message Message) bool {
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()

	if !c.hub.clients[c] {
		return false
	}
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

// StartPumps starts the read and write pumps for the client
func (c *Client) StartPumps() {
	go c.writePump()
	go c.readPump()
}

// readPump decodes intents until the connection closes
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.WithError(err).WithField("client_id", c.id).Warn("WebSocket read error")
			}
			return
		}

		var intent Intent
		if err := json.Unmarshal(data, &intent); err != nil {
			c.Queue(Message{Type: MessageError, Error: "invalid intent: " + err.Error()})
			continue
		}
		c.Queue(c.onIntent(intent))
	}
}

// writePump writes queued messages and keeps the connection alive
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.WithError(err).WithField("client_id", c.id).Warn("WebSocket write error")
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
