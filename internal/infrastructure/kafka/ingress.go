package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-notify-nosql/internal/domain"
	"github.com/go-notify-nosql/internal/pkg/validate"
)

// ErrFatal marks messages that will never succeed on retry.
var ErrFatal = errors.New("unprocessable event")

// Envelope is the bus event wrapper.
type Envelope struct {
	Source     string          `json:"source"`
	DetailType string          `json:"detail-type"`
	Detail     json.RawMessage `json:"detail"`
}

type Dispatcher interface {
	Dispatch(ctx context.Context, ev domain.BatchEvent) (*domain.DispatchReport, error)
}

type RealtimeRouter interface {
	RouteToUser(ctx context.Context, userID string, t domain.EventType, payload any) (*domain.RouteReport, error)
}

// Ingress decodes envelopes and hands them to the dispatcher or the real-time router.
type Ingress struct {
	dispatcher Dispatcher
	router     RealtimeRouter
}

func NewIngress(d Dispatcher, r RealtimeRouter) *Ingress {
	return &Ingress{dispatcher: d, router: r}
}

// Handle processes one raw message. Errors wrapping ErrFatal should be
// dead-lettered rather than retried.
func (in *Ingress) Handle(ctx context.Context, value []byte) error {
	var env Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		return fmt.Errorf("%w: decode envelope: %w", ErrFatal, err)
	}

	switch {
	case env.Source == domain.SourceNotifications && env.DetailType == domain.DetailSendBatchNotification:
		return in.dispatch(ctx, env.Detail)
	case env.Source == domain.SourceWebsocket:
		return in.route(ctx, domain.ParseEventType(env.DetailType), env.Detail)
	default:
		return fmt.Errorf("%w: no handler for %s/%s", ErrFatal, env.Source, env.DetailType)
	}
}

func (in *Ingress) dispatch(ctx context.Context, detail json.RawMessage) error {
	var ev domain.BatchEvent
	if err := json.Unmarshal(detail, &ev); err != nil {
		return fmt.Errorf("%w: decode batch event: %w", ErrFatal, err)
	}
	if err := validate.Struct(ev); err != nil {
		return fmt.Errorf("%w: %w", ErrFatal, err)
	}
	_, err := in.dispatcher.Dispatch(ctx, ev)
	return classify(err)
}

func (in *Ingress) route(ctx context.Context, t domain.EventType, detail json.RawMessage) error {
	var target struct {
		UserID string `json:"userId"`
	}
	if err := json.Unmarshal(detail, &target); err != nil {
		return fmt.Errorf("%w: decode websocket detail: %w", ErrFatal, err)
	}
	_, err := in.router.RouteToUser(ctx, target.UserID, t, detail)
	return classify(err)
}

// classify marks client errors as fatal; everything else may be retried.
func classify(err error) error {
	if err != nil && errors.Is(err, domain.ErrBadRequest) {
		return fmt.Errorf("%w: %w", ErrFatal, err)
	}
	return err
}
