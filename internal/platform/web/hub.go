package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/merge5/internal/games/merge5"
	"github.com/vovakirdan/merge5/internal/session"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	sendBuffer = 64
)

// Events sent to clients.
const (
	EventState  = "state"
	EventError  = "error"
	EventClosed = "closed"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Message is a frame sent to WebSocket clients.
type Message struct {
	Event     string           `json:"event"`
	SessionID string           `json:"session_id"`
	State     *merge5.Snapshot `json:"state,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// Command is a frame accepted from WebSocket clients.
type Command struct {
	Action    string `json:"action"`
	Direction string `json:"direction,omitempty"`
}

// envelope addresses a message to a whole session or, when client is set,
// to one client.
type envelope struct {
	sessionID string
	client    *client
	data      []byte
}

type countRequest struct {
	sessionID string
	result    chan int
}

type client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
}

// Hub fans session events out to the WebSocket clients watching them.
// The client map is owned by the Run goroutine.
type Hub struct {
	manager *session.Manager
	logger  *log.Logger

	sessions map[string]map[*client]bool

	broadcast  chan envelope
	register   chan *client
	unregister chan *client
	count      chan countRequest
	done       chan struct{}
}

// NewHub creates a hub over manager. Call Run before serving clients.
func NewHub(manager *session.Manager, logger *log.Logger) *Hub {
	return &Hub{
		manager:    manager,
		logger:     logger,
		sessions:   make(map[string]map[*client]bool),
		broadcast:  make(chan envelope, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		count:      make(chan countRequest),
		done:       make(chan struct{}),
	}
}

// Run subscribes to the manager and dispatches until ctx is canceled.
func (h *Hub) Run(ctx context.Context) {
	cancel := h.manager.Subscribe(h.publish)
	defer cancel()
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case c := <-h.register:
			h.add(c)
		case c := <-h.unregister:
			h.remove(c)
		case env := <-h.broadcast:
			h.deliver(env)
		case req := <-h.count:
			req.result <- len(h.sessions[req.sessionID])
		}
	}
}

// ServeWS upgrades the request and attaches the client to sessionID. The
// client first receives the current state.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "session", sessionID, "error", err)
		return
	}

	c := &client{
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		sessionID: sessionID,
	}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()

	if snap, err := h.manager.Get(sessionID); err == nil {
		h.reply(c, Message{Event: EventState, SessionID: sessionID, State: &snap})
	}
}

// Clients returns the number of clients watching sessionID.
func (h *Hub) Clients(sessionID string) int {
	req := countRequest{sessionID: sessionID, result: make(chan int, 1)}
	select {
	case h.count <- req:
		return <-req.result
	case <-h.done:
		return 0
	}
}

// Notify sends msg to every client of its session.
func (h *Hub) Notify(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("cannot encode message", "session", msg.SessionID, "error", err)
		return
	}
	h.enqueue(envelope{sessionID: msg.SessionID, data: data})
}

// publish runs inside the manager with the session locked.
func (h *Hub) publish(ev session.Event) {
	snap := ev.Snapshot
	h.Notify(Message{Event: EventState, SessionID: ev.SessionID, State: &snap})
}

func (h *Hub) reply(c *client, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("cannot encode message", "session", msg.SessionID, "error", err)
		return
	}
	h.enqueue(envelope{sessionID: c.sessionID, client: c, data: data})
}

func (h *Hub) enqueue(env envelope) {
	select {
	case h.broadcast <- env:
	case <-h.done:
	}
}

func (h *Hub) add(c *client) {
	if h.sessions[c.sessionID] == nil {
		h.sessions[c.sessionID] = make(map[*client]bool)
	}
	h.sessions[c.sessionID][c] = true
	h.logger.Debug("client registered", "session", c.sessionID, "clients", len(h.sessions[c.sessionID]))
}

func (h *Hub) remove(c *client) {
	clients, ok := h.sessions[c.sessionID]
	if !ok || !clients[c] {
		return
	}
	delete(clients, c)
	close(c.send)
	if len(clients) == 0 {
		delete(h.sessions, c.sessionID)
	}
	h.logger.Debug("client unregistered", "session", c.sessionID, "clients", len(clients))
}

func (h *Hub) deliver(env envelope) {
	if env.client != nil {
		if h.sessions[env.sessionID][env.client] {
			h.trySend(env.client, env.data)
		}
		return
	}
	for c := range h.sessions[env.sessionID] {
		h.trySend(c, env.data)
	}
}

// trySend drops clients that fall behind.
func (h *Hub) trySend(c *client, data []byte) {
	select {
	case c.send <- data:
	default:
		h.logger.Warn("client too slow, dropping", "session", c.sessionID)
		h.remove(c)
	}
}

func (h *Hub) closeAll() {
	for _, clients := range h.sessions {
		for c := range clients {
			close(c.send)
		}
	}
	h.sessions = make(map[string]map[*client]bool)
}
