package ws

import (
	"context"
	"errors"
	"sync"

	"github.com/go-notify-nosql/internal/domain"
)

const sendBuffer = 256

var ErrSendBufferFull = errors.New("send buffer full")

// Client is one upgraded socket held by this instance.
type Client struct {
	ID     string
	UserID string
	send   chan []byte
	done   chan struct{}
	once   sync.Once
}

func newClient(id, userID string) *Client {
	return &Client{ID: id, UserID: userID, send: make(chan []byte, sendBuffer), done: make(chan struct{})}
}

// Close stops the client's writer. Safe to call more than once.
func (c *Client) Close() {
	c.once.Do(func() { close(c.done) })
}

// enqueue queues one frame without blocking on a slow reader.
func (c *Client) enqueue(ctx context.Context, data []byte) error {
	select {
	case <-c.done:
		return domain.ErrGone
	default:
	}
	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return domain.ErrGone
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrSendBufferFull
	}
}

// Hub indexes the sockets connected to this instance by connection id.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	if c, ok := h.clients[id]; ok {
		c.Close()
		delete(h.clients, id)
	}
	h.mu.Unlock()
}

// Len returns the number of local sockets.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// PostToConnection queues data for the socket. Sockets not held by this
// instance return domain.ErrGone.
func (h *Hub) PostToConnection(ctx context.Context, connectionID string, data []byte) error {
	h.mu.RLock()
	c, ok := h.clients[connectionID]
	h.mu.RUnlock()
	if !ok {
		return domain.ErrGone
	}
	return c.enqueue(ctx, data)
}
