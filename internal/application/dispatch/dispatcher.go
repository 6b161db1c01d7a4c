// Package dispatch fans a single notification event out to many users across
// every enabled channel.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/go-notify-nosql/internal/application/content"
	"github.com/go-notify-nosql/internal/domain"
	"github.com/go-notify-nosql/internal/pkg/guard"
	"github.com/go-notify-nosql/internal/pkg/validate"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultConcurrency = 16
	DefaultCallTimeout = 10 * time.Second

	deadLetterKind = "dispatch-report"
)

type Store interface {
	Append(ctx context.Context, n *domain.Notification) error
}

type UnreadMarker interface {
	Mark(ctx context.Context, userID string) error
}

type Pusher interface {
	Push(ctx context.Context, msg domain.PushMessage) error
}

type Emailer interface {
	SendTemplate(ctx context.Context, msg domain.EmailMessage) error
}

type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// Echo forwards a delivered notification to the recipient's live sockets.
type Echo interface {
	RouteToUser(ctx context.Context, userID string, t domain.EventType, payload any) (*domain.RouteReport, error)
}

type DeadLetter interface {
	Archive(ctx context.Context, kind string, body any) error
}

// Deps are the dispatcher's collaborators. Store and Unread are required;
// a nil channel collaborator disables that channel.
type Deps struct {
	Store      Store
	Unread     UnreadMarker
	Push       Pusher
	Email      Emailer
	SMS        SMSSender
	Echo       Echo
	DeadLetter DeadLetter
}

// Guards wrap each outbound channel. Nil guards call straight through.
type Guards struct {
	Push  *guard.Guard
	Email *guard.Guard
	SMS   *guard.Guard
}

type Options struct {
	Concurrency        int
	CallTimeout        time.Duration
	RealtimeEcho       bool
	EmailTemplateAlias string
}

type Dispatcher struct {
	deps   Deps
	guards Guards
	opts   Options
}

func New(deps Deps, guards Guards, opts Options) *Dispatcher {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = DefaultCallTimeout
	}
	return &Dispatcher{deps: deps, guards: guards, opts: opts}
}

// Dispatch delivers ev to every target. Only an invalid event fails the call;
// per-target and per-channel failures are recorded in the report and never
// stop delivery to any other target or channel.
func (d *Dispatcher) Dispatch(ctx context.Context, ev domain.BatchEvent) (*domain.DispatchReport, error) {
	if err := validateEvent(ev); err != nil {
		return nil, err
	}

	report := &domain.DispatchReport{
		Type:      ev.Type,
		Attempted: len(ev.Targets),
		Outcomes:  make([]domain.TargetOutcome, len(ev.Targets)),
	}

	// Plain Group: a failing target must not cancel its siblings.
	var g errgroup.Group
	g.SetLimit(d.opts.Concurrency)
	for i, tgt := range ev.Targets {
		g.Go(func() error {
			report.Outcomes[i] = d.deliver(ctx, ev, tgt)
			return nil
		})
	}
	_ = g.Wait()

	for _, o := range report.Outcomes {
		if o.Failed() {
			report.Failed++
		} else {
			report.Succeeded++
		}
	}

	if report.Failed > 0 {
		slog.Warn("dispatch completed with failures",
			"type", ev.Type, "attempted", report.Attempted, "failed", report.Failed)
		d.archive(ctx, report)
	}
	return report, nil
}

func validateEvent(ev domain.BatchEvent) error {
	if len(ev.Targets) == 0 {
		return fmt.Errorf("at least one target is required: %w", domain.ErrBadRequest)
	}
	for i, t := range ev.Targets {
		if t.UserID == "" {
			return fmt.Errorf("target %d has no userId: %w", i, domain.ErrBadRequest)
		}
	}
	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, ev domain.BatchEvent, tgt domain.Target) domain.TargetOutcome {
	meta := map[string]string{content.MetaActorImage: ""}
	maps.Copy(meta, tgt.Meta)
	c := content.ForTarget(ev, meta)

	out := domain.TargetOutcome{UserID: tgt.UserID}
	record := func(ch domain.Channel, status domain.ChannelStatus, reason string) {
		out.Results = append(out.Results, domain.ChannelResult{Channel: ch, Status: status, Reason: reason})
	}
	outcome := func(ch domain.Channel, err error) {
		if err != nil {
			slog.Warn("dispatch channel failed",
				"user_id", tgt.UserID, "type", ev.Type, "channel", ch, "err", err)
			record(ch, domain.StatusFailed, err.Error())
			return
		}
		record(ch, domain.StatusOK, "")
	}

	n := &domain.Notification{
		UserID:    tgt.UserID,
		Type:      ev.Type,
		Title:     c.Title,
		Body:      c.Body,
		Meta:      meta,
		CreatedAt: ev.CreatedAt,
	}

	persisted := false
	if ev.Type.Transient() {
		record(domain.ChannelFeed, domain.StatusSkipped, "transient event")
		record(domain.ChannelUnread, domain.StatusSkipped, "transient event")
	} else {
		err := d.withTimeout(ctx, func(ctx context.Context) error { return d.deps.Store.Append(ctx, n) })
		outcome(domain.ChannelFeed, err)
		if err != nil {
			record(domain.ChannelUnread, domain.StatusSkipped, "feed write failed")
		} else {
			persisted = true
			outcome(domain.ChannelUnread, d.withTimeout(ctx, func(ctx context.Context) error {
				return d.deps.Unread.Mark(ctx, tgt.UserID)
			}))
		}
	}

	if d.opts.RealtimeEcho && d.deps.Echo != nil && (persisted || ev.Type.Transient()) {
		if ev.Type.Routable() {
			d.echo(ctx, n, record, outcome)
		} else {
			record(domain.ChannelSocket, domain.StatusSkipped, "event type not routable")
		}
	}

	switch {
	case !tgt.SendEmail:
		record(domain.ChannelEmail, domain.StatusSkipped, "not opted in")
	case tgt.Email == "":
		record(domain.ChannelEmail, domain.StatusSkipped, "no email address")
	case validate.Var(tgt.Email, "email") != nil:
		record(domain.ChannelEmail, domain.StatusSkipped, "invalid email address")
	case !ev.Type.EmailEligible():
		record(domain.ChannelEmail, domain.StatusSkipped, "event type does not send email")
	case d.deps.Email == nil:
		record(domain.ChannelEmail, domain.StatusSkipped, "email channel disabled")
	default:
		ec, _ := content.EmailFor(ev.Type, d.opts.EmailTemplateAlias)
		msg := domain.EmailMessage{
			To:            tgt.Email,
			Subject:       ec.Subject,
			TemplateAlias: ec.TemplateAlias,
			Data:          content.EmailData(meta),
			Tag:           string(ev.Type),
		}
		outcome(domain.ChannelEmail, d.guards.Email.Do(ctx, func(ctx context.Context) error {
			return d.deps.Email.SendTemplate(ctx, msg)
		}))
	}

	switch {
	case !tgt.SendNotification:
		record(domain.ChannelPush, domain.StatusSkipped, "not opted in")
	case len(tgt.DeviceTokens) == 0:
		record(domain.ChannelPush, domain.StatusSkipped, "no device tokens")
	case d.deps.Push == nil:
		record(domain.ChannelPush, domain.StatusSkipped, "push channel disabled")
	default:
		msg := domain.PushMessage{
			Tokens:   tgt.DeviceTokens,
			Title:    c.Title,
			Body:     c.Body,
			ImageURL: c.ImageURL,
			Data:     map[string]string{"type": string(ev.Type), "id": n.SK},
		}
		outcome(domain.ChannelPush, d.guards.Push.Do(ctx, func(ctx context.Context) error {
			return d.deps.Push.Push(ctx, msg)
		}))
	}

	switch {
	case !tgt.SendSMS:
		record(domain.ChannelSMS, domain.StatusSkipped, "not opted in")
	case tgt.Phone == "":
		record(domain.ChannelSMS, domain.StatusSkipped, "no phone number")
	case d.deps.SMS == nil:
		record(domain.ChannelSMS, domain.StatusSkipped, "sms channel disabled")
	default:
		text := c.Body
		if text == "" {
			text = c.Title
		}
		outcome(domain.ChannelSMS, d.guards.SMS.Do(ctx, func(ctx context.Context) error {
			return d.deps.SMS.SendSMS(ctx, tgt.Phone, text)
		}))
	}

	return out
}

// echo routes the rendered record to the recipient's sockets. No live
// connections is a skip, not a failure.
func (d *Dispatcher) echo(ctx context.Context, n *domain.Notification,
	record func(domain.Channel, domain.ChannelStatus, string), outcome func(domain.Channel, error)) {
	rr, err := d.deps.Echo.RouteToUser(ctx, n.UserID, n.Type, n)
	switch {
	case err != nil:
		outcome(domain.ChannelSocket, err)
	case rr.Attempted == 0:
		record(domain.ChannelSocket, domain.StatusSkipped, "no live connections")
	case rr.Delivered == 0:
		outcome(domain.ChannelSocket, errors.New("no connection accepted the event"))
	default:
		outcome(domain.ChannelSocket, nil)
	}
}

func (d *Dispatcher) withTimeout(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, d.opts.CallTimeout)
	defer cancel()
	return fn(ctx)
}

func (d *Dispatcher) archive(ctx context.Context, report *domain.DispatchReport) {
	if d.deps.DeadLetter == nil {
		return
	}
	if err := d.withTimeout(ctx, func(ctx context.Context) error {
		return d.deps.DeadLetter.Archive(ctx, deadLetterKind, report)
	}); err != nil {
		slog.Error("archive dispatch report failed", "type", report.Type, "err", err)
	}
}
