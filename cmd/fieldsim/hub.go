package main

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// hub fans broadcast frames out to every connected client. Clients that fail
// a write are dropped; the protocol tolerates gaps, so there is no retry.
type hub struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu       sync.Mutex
	clients  map[*websocket.Conn]struct{}
	greeting [][]byte
}

func newHub(logger *slog.Logger) *hub {
	return &hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			// Dev tool: any origin may connect.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// SetGreeting sets the frames sent to every client on join, so late joiners
// receive the current topology before incremental updates.
func (h *hub) SetGreeting(frames [][]byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.greeting = frames
}

// ServeHTTP upgrades the request and registers the client.
func (h *hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", "error", err)
		return
	}

	h.mu.Lock()
	greeting := h.greeting
	h.mu.Unlock()

	// Greet before registering so Broadcast never interleaves with the
	// topology frames (websocket connections allow a single writer).
	for _, payload := range greeting {
		if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
			_ = c.Close()
			return
		}
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Info("client connected", "remote", r.RemoteAddr)

	// Drain inbound frames (pings and manual test messages) until the
	// client goes away.
	go func() {
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				h.drop(c)
				return
			}
		}
	}()
}

// Broadcast writes one frame to every connected client.
func (h *hub) Broadcast(payload []byte) {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.drop(c)
		}
	}
}

func (h *hub) drop(c *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		_ = c.Close()
		h.logger.Info("client disconnected")
	}
}
