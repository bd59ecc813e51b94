// Package live pushes session updates to connected browsers over
// websockets.
package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	MessageTick     = "tick"
	MessageState    = "state"
	MessageUnlocked = "unlocked"
	MessageSaved    = "saved"

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 64
)

// Message is the envelope for every frame sent to clients.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub tracks connected clients and fans broadcasts out to them. Clients
// that fall behind are dropped.
type Hub struct {
	clients    map[*client]struct{}
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	done       chan struct{}
	count      atomic.Int64
	log        *slog.Logger

	// Hello, when set, builds the first message a new client receives.
	Hello func() Message

	upgrader websocket.Upgrader
}

func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		clients:    make(map[*client]struct{}),
		broadcast:  make(chan []byte, sendBuffer),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		log:        log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Run serves the hub until ctx is cancelled, then disconnects everyone.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		for c := range h.clients {
			h.drop(c)
		}
		close(h.done)
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.count.Add(1)
			h.log.Debug("ws client connected", "remote", c.conn.RemoteAddr().String(), "clients", len(h.clients))
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					h.log.Warn("ws client too slow, dropping", "remote", c.conn.RemoteAddr().String())
					h.drop(c)
				}
			}
		}
	}
}

func (h *Hub) drop(c *client) {
	delete(h.clients, c)
	close(c.send)
	h.count.Add(-1)
}

// Clients reports how many clients are registered.
func (h *Hub) Clients() int { return int(h.count.Load()) }

// Publish queues a message for every client. It never blocks the caller;
// when the broadcast queue is full the message is discarded.
func (h *Hub) Publish(typ string, payload any) {
	b, err := json.Marshal(Message{Type: typ, Payload: payload})
	if err != nil {
		h.log.Error("ws encode failed", "type", typ, "err", err)
		return
	}
	select {
	case h.broadcast <- b:
	default:
		h.log.Warn("ws broadcast queue full", "type", typ)
	}
}

// ServeHTTP upgrades the request and attaches the connection to the hub.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "err", err)
		return
	}
	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBuffer)}
	if h.Hello != nil {
		if b, err := json.Marshal(h.Hello()); err == nil {
			c.send <- b
		}
	}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	case <-r.Context().Done():
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// readPump only watches for close and pong frames; clients send commands
// over the REST API.
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug("ws read error", "err", err)
			}
			return
		}
	}
}

func (c *client) writePump() {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ping.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
