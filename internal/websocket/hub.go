package websocket

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/tahcohcat/qwen-tts-web/internal/logger"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// local tool, served to any origin
		return true
	},
}

// Event is pushed to every connected browser tab.
type Event struct {
	Type      string      `json:"type"` // generation.started, generation.completed, generation.failed, credential.reset
	ID        string      `json:"id,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	clientsN   chan chan int
	logger     *logger.Log
}

type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clientsN:   make(chan chan int),
		clients:    make(map[*Client]bool),
		logger:     logger.New().WithModule("websocket"),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.logger.Debug("Client connected")

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.logger.Debug("Client disconnected")
			}

		case reply := <-h.clientsN:
			reply <- len(h.clients)

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}

// Clients returns the number of connected clients. Run must be active.
func (h *Hub) Clients() int {
	reply := make(chan int)
	h.clientsN <- reply
	return <-reply
}

// Publish queues an event for every client. It never blocks the caller;
// events are dropped when the hub is backed up.
func (h *Hub) Publish(eventType, id string, payload interface{}) {
	if h == nil {
		return
	}

	data, err := json.Marshal(Event{Type: eventType, ID: id, Payload: payload, Timestamp: time.Now().UTC()})
	if err != nil {
		h.logger.WithError(err).Warn("Failed to encode event")
		return
	}

	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("Event dropped: " + eventType)
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.WithError(err).Warn("WebSocket read error")
			}
			break
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			c.hub.logger.WithError(err).Warn("WebSocket write error")
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	client := &Client{hub: h, conn: conn, send: make(chan []byte, 256)}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

func RegisterRoutes(r *mux.Router, hub *Hub) {
	r.HandleFunc("/ws", hub.ServeWS)
}
