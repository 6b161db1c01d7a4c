package realtime

import (
	"context"
	"fmt"
	"time"

	"github.com/go-notify-nosql/internal/domain"
)

type ConnectionStore interface {
	Put(ctx context.Context, c *domain.Connection) error
	Touch(ctx context.Context, connectionID string, at time.Time) error
	Delete(ctx context.Context, connectionID string) error
	ListByUser(ctx context.Context, userID string) ([]domain.Connection, error)
}

// Registry tracks which live connections belong to which user.
// Connections are only ever removed by their own id.
type Registry struct {
	store ConnectionStore
	now   func() time.Time
}

func NewRegistry(store ConnectionStore) *Registry {
	return &Registry{store: store, now: time.Now}
}

func (r *Registry) Register(ctx context.Context, connectionID, userID string) error {
	if connectionID == "" || userID == "" {
		return fmt.Errorf("connectionId and userId are required: %w", domain.ErrBadRequest)
	}
	return r.store.Put(ctx, &domain.Connection{
		ConnectionID: connectionID,
		UserID:       userID,
		LastActivity: r.now().UTC(),
	})
}

// Touch refreshes last activity. Unknown connections return ErrNotFound.
func (r *Registry) Touch(ctx context.Context, connectionID string) error {
	if connectionID == "" {
		return fmt.Errorf("connectionId is required: %w", domain.ErrBadRequest)
	}
	return r.store.Touch(ctx, connectionID, r.now().UTC())
}

func (r *Registry) Deregister(ctx context.Context, connectionID string) error {
	if connectionID == "" {
		return fmt.Errorf("connectionId is required: %w", domain.ErrBadRequest)
	}
	return r.store.Delete(ctx, connectionID)
}

func (r *Registry) ListConnections(ctx context.Context, userID string) ([]string, error) {
	conns, err := r.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(conns))
	for i, c := range conns {
		ids[i] = c.ConnectionID
	}
	return ids, nil
}
