// Package stream exposes live market activity to external observers over
// WebSocket. Connected clients receive every price tick and every executed
// trade as JSON frames; the hub is broadcast-only and ignores client input.
package stream

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"stock_go/internal/infra"

	"github.com/gorilla/websocket"
)

const writeTimeout = 5 * time.Second

// Envelope wraps every broadcast frame with its kind: "tick" or "trade".
type Envelope struct {
	Kind string `json:"kind"`
	Data any    `json:"data"`
}

type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}

	srv *http.Server
	ln  net.Listener
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// Start listens on addr and serves the /ws endpoint in the background.
// The returned error covers the listen step only; serve errors are logged.
func (h *Hub) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	h.ln = ln

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.handleWS)
	h.srv = &http.Server{Handler: mux}

	go func() {
		if err := h.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("stream server failed", slog.Any("error", err))
		}
	}()

	slog.Info("stream hub listening", slog.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the bound listen address, useful when addr was ":0".
func (h *Hub) Addr() string {
	if h.ln == nil {
		return ""
	}
	return h.ln.Addr().String()
}

func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()
	infra.GlobalMetrics.IncrementStreamClients()
	slog.Info("stream client connected", slog.String("remote", conn.RemoteAddr().String()))

	// Drain incoming frames so pings and close frames are processed; the
	// read loop exiting is how we notice a disconnect.
	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	h.mu.Unlock()

	if ok {
		infra.GlobalMetrics.DecrementStreamClients()
		conn.Close()
	}
}

// Broadcast sends one JSON frame to every connected client. Clients that
// fail to accept the write are dropped. The hub lock is held across the
// writes: gorilla connections allow only one concurrent writer, and both the
// tick and trade paths call Broadcast.
func (h *Hub) Broadcast(kind string, data any) {
	env := Envelope{Kind: kind, Data: data}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		c.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.WriteJSON(env); err != nil {
			slog.Warn("dropping slow stream client", slog.Any("error", err))
			delete(h.clients, c)
			infra.GlobalMetrics.DecrementStreamClients()
			c.Close()
		}
	}
}

// Close stops the server and disconnects all clients.
func (h *Hub) Close() {
	if h.srv != nil {
		_ = h.srv.Close()
	}

	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		h.drop(c)
	}
}
