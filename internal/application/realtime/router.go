package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-notify-nosql/internal/domain"
	"github.com/go-notify-nosql/internal/pkg/guard"
	"golang.org/x/sync/errgroup"
)

const defaultRouteConcurrency = 32

// Poster delivers one encoded frame to one connection. Posting to a closed
// connection returns domain.ErrGone.
type Poster interface {
	PostToConnection(ctx context.Context, connectionID string, data []byte) error
}

type ConnectionLister interface {
	ListConnections(ctx context.Context, userID string) ([]string, error)
}

// Envelope is the frame written to every socket.
type Envelope struct {
	Event domain.EventType `json:"event"`
	Data  EnvelopeData     `json:"data"`
}

type EnvelopeData struct {
	Payload any `json:"payload"`
}

type Router struct {
	conns       ConnectionLister
	poster      Poster
	guard       *guard.Guard
	concurrency int
}

func NewRouter(conns ConnectionLister, poster Poster, g *guard.Guard) *Router {
	return &Router{conns: conns, poster: poster, guard: g, concurrency: defaultRouteConcurrency}
}

// RouteToUser posts payload to every live connection of userID. A failed post
// is recorded and logged but never stops the other posts, and never removes
// the connection.
func (r *Router) RouteToUser(ctx context.Context, userID string, t domain.EventType, payload any) (*domain.RouteReport, error) {
	if userID == "" {
		return nil, fmt.Errorf("userId is required: %w", domain.ErrBadRequest)
	}
	if !t.Routable() {
		return nil, fmt.Errorf("event %q cannot be routed: %w", t, domain.ErrBadRequest)
	}

	ids, err := r.conns.ListConnections(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	report := &domain.RouteReport{
		UserID:    userID,
		Event:     t,
		Attempted: len(ids),
		Results:   make([]domain.ConnectionResult, len(ids)),
	}
	if len(ids) == 0 {
		return report, nil
	}

	data, err := json.Marshal(Envelope{Event: t, Data: EnvelopeData{Payload: payload}})
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			report.Results[i] = r.post(ctx, userID, id, data)
			return nil
		})
	}
	_ = g.Wait()

	for _, res := range report.Results {
		if res.Status == domain.StatusOK {
			report.Delivered++
		}
	}
	return report, nil
}

func (r *Router) post(ctx context.Context, userID, connectionID string, data []byte) domain.ConnectionResult {
	err := r.guard.Do(ctx, func(ctx context.Context) error {
		return r.poster.PostToConnection(ctx, connectionID, data)
	})
	if err == nil {
		return domain.ConnectionResult{ConnectionID: connectionID, Status: domain.StatusOK}
	}
	if errors.Is(err, domain.ErrGone) {
		slog.Info("connection gone", "user_id", userID, "connection_id", connectionID)
	} else {
		slog.Warn("post to connection failed", "user_id", userID, "connection_id", connectionID, "err", err)
	}
	return domain.ConnectionResult{ConnectionID: connectionID, Status: domain.StatusFailed, Reason: err.Error()}
}
