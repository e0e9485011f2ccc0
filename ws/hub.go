package ws

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"memory-scramble-server/config"
	"memory-scramble-server/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins for development; restrict in production.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub maintains the set of active clients.
type Hub struct {
	Clients    map[*Client]bool
	Register   chan *Client
	Unregister chan *Client
	Boards     *session.Registry
	Config     *config.Config
	Log        *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(cfg *config.Config, boards *session.Registry, log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		Clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Boards:     boards,
		Config:     cfg,
		Log:        log,
	}
}

// Run starts the hub's main loop. Should be run as a goroutine. When ctx is
// cancelled (e.g. on server shutdown), Run returns and no longer accepts
// new registrations.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.Log.Info("shutdown signal received, stopping", "tag", "ws")
			return
		case client := <-h.Register:
			h.Clients[client] = true
			h.Log.Info("client connected", "tag", "ws", "total", len(h.Clients))

		case client := <-h.Unregister:
			if _, ok := h.Clients[client]; ok {
				delete(h.Clients, client)
				// Cancelling the client context abandons any queued
				// flip waiters and stops its watch stream.
				client.cancel()
				close(client.Send)
				h.Log.Info("client disconnected", "tag", "ws", "total", len(h.Clients))
			}
		}
	}
}

// ServeWS handles WebSocket upgrade requests and creates a new Client.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Log.Error("websocket upgrade failed", "tag", "ws", "err", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	client := &Client{
		Hub:    h,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		ctx:    ctx,
		cancel: cancel,
	}

	h.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
