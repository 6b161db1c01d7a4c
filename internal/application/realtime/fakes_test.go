package realtime

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/go-notify-nosql/internal/domain"
)

// memConnections is an in-memory ConnectionStore.
type memConnections struct {
	mu    sync.Mutex
	conns map[string]domain.Connection
}

func newMemConnections() *memConnections {
	return &memConnections{conns: map[string]domain.Connection{}}
}

func (m *memConnections) Put(_ context.Context, c *domain.Connection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conns[c.ConnectionID] = *c
	return nil
}

func (m *memConnections) Touch(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conns[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.LastActivity = at
	m.conns[id] = c
	return nil
}

func (m *memConnections) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.conns, id)
	return nil
}

func (m *memConnections) ListByUser(_ context.Context, userID string) ([]domain.Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Connection
	for _, c := range m.conns {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ConnectionID < out[j].ConnectionID })
	return out, nil
}

// recordingPoster captures frames and fails for configured connections.
type recordingPoster struct {
	mu     sync.Mutex
	frames map[string][]byte
	fail   map[string]error
}

func newRecordingPoster() *recordingPoster {
	return &recordingPoster{frames: map[string][]byte{}, fail: map[string]error{}}
}

func (p *recordingPoster) PostToConnection(_ context.Context, id string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail[id]; err != nil {
		return err
	}
	p.frames[id] = data
	return nil
}
