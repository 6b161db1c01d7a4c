package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	lifecycleWait  = 5 * time.Second

	heartbeatFrame = "ping"
)

// Lifecycle receives connect, disconnect and heartbeat signals.
type Lifecycle interface {
	Connect(ctx context.Context, connectionID, userID string) error
	Disconnect(ctx context.Context, connectionID string) error
	Heartbeat(ctx context.Context, connectionID string) (string, error)
}

// Subscriber delivers frames published for a connection by other instances.
type Subscriber interface {
	Subscribe(ctx context.Context, connectionID string, deliver func([]byte)) (unsubscribe func() error, err error)
}

// Handler upgrades GET /v1/ws?userId= and runs the socket until it closes.
type Handler struct {
	hub       *Hub
	lifecycle Lifecycle
	bus       Subscriber
	upgrader  websocket.Upgrader
	newID     func() string
}

// NewHandler builds the socket endpoint. bus may be nil for single-instance delivery.
func NewHandler(hub *Hub, lifecycle Lifecycle, bus Subscriber, allowedOrigins []string) *Handler {
	return &Handler{
		hub:       hub,
		lifecycle: lifecycle,
		bus:       bus,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
		newID: uuid.NewString,
	}
}

func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || slices.Contains(allowed, "*") {
			return true
		}
		return slices.Contains(allowed, origin)
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"status_code": http.StatusBadRequest, "message": "userId is required"})
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "user_id", userID, "err", err)
		return
	}
	defer conn.Close()

	// The socket outlives request cancellation semantics once hijacked.
	ctx := context.WithoutCancel(r.Context())
	connID := h.newID()

	if err := h.lifecycle.Connect(ctx, connID, userID); err != nil {
		slog.Error("register connection failed", "user_id", userID, "err", err)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "registration failed"),
			time.Now().Add(writeWait))
		return
	}

	client := newClient(connID, userID)
	h.hub.add(client)

	var unsubscribe func() error
	if h.bus != nil {
		unsubscribe, err = h.bus.Subscribe(ctx, connID, func(b []byte) {
			if err := client.enqueue(ctx, b); err != nil {
				slog.Warn("drop bus frame", "connection_id", connID, "err", err)
			}
		})
		if err != nil {
			slog.Warn("bus subscribe failed", "connection_id", connID, "err", err)
		}
	}

	defer func() {
		h.hub.remove(connID)
		if unsubscribe != nil {
			_ = unsubscribe()
		}
		dctx, cancel := context.WithTimeout(ctx, lifecycleWait)
		defer cancel()
		if err := h.lifecycle.Disconnect(dctx, connID); err != nil {
			slog.Warn("deregister connection failed", "connection_id", connID, "err", err)
		}
	}()

	go writePump(conn, client)
	h.readPump(ctx, conn, client)
}

func (h *Handler) readPump(ctx context.Context, conn *websocket.Conn, c *Client) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		kind, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Info("websocket closed unexpectedly", "connection_id", c.ID, "err", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		if kind != websocket.TextMessage || strings.TrimSpace(string(raw)) != heartbeatFrame {
			continue
		}
		reply, err := h.lifecycle.Heartbeat(ctx, c.ID)
		if err != nil {
			slog.Warn("heartbeat failed", "connection_id", c.ID, "err", err)
		}
		if err := c.enqueue(ctx, []byte(reply)); err != nil {
			slog.Warn("queue heartbeat reply failed", "connection_id", c.ID, "err", err)
		}
	}
}

// writePump owns all writes to conn.
func writePump(conn *websocket.Conn, c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case msg := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
