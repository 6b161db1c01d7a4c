package realtime

import (
	"context"
	"log/slog"
)

// Pong is the reply to a heartbeat frame.
const Pong = "pong"

// Lifecycle handles connect, disconnect and heartbeat signals from the socket transport.
type Lifecycle struct {
	registry *Registry
}

func NewLifecycle(registry *Registry) *Lifecycle {
	return &Lifecycle{registry: registry}
}

func (l *Lifecycle) Connect(ctx context.Context, connectionID, userID string) error {
	if err := l.registry.Register(ctx, connectionID, userID); err != nil {
		return err
	}
	slog.Info("socket connected", "connection_id", connectionID, "user_id", userID)
	return nil
}

func (l *Lifecycle) Disconnect(ctx context.Context, connectionID string) error {
	if err := l.registry.Deregister(ctx, connectionID); err != nil {
		return err
	}
	slog.Info("socket disconnected", "connection_id", connectionID)
	return nil
}

// Heartbeat refreshes the connection's activity and returns the reply frame.
// The reply is sent even when the refresh fails.
func (l *Lifecycle) Heartbeat(ctx context.Context, connectionID string) (string, error) {
	return Pong, l.registry.Touch(ctx, connectionID)
}
