// Package guard wraps calls to external collaborators with a circuit breaker
// and a per-call timeout.
package guard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-notify-nosql/internal/config"
	"github.com/sony/gobreaker"
)

// ErrOpen is returned without calling the collaborator while its breaker is open.
var ErrOpen = errors.New("circuit open")

type Settings struct {
	Name        string
	MaxFailures uint32
	Interval    time.Duration
	OpenTimeout time.Duration
	CallTimeout time.Duration
	// Tolerate lists errors that are returned to the caller but do not count
	// as collaborator failures (e.g. a socket that has already gone away).
	Tolerate []error
}

// FromConfig builds Settings for one named collaborator.
func FromConfig(name string, b config.Breaker, callTimeout time.Duration, tolerate ...error) Settings {
	return Settings{
		Name:        name,
		MaxFailures: b.MaxFailures,
		Interval:    b.Interval,
		OpenTimeout: b.Timeout,
		CallTimeout: callTimeout,
		Tolerate:    tolerate,
	}
}

type Guard struct {
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration
}

func New(s Settings) *Guard {
	maxFailures := s.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	st := gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 1,
		Interval:    s.Interval,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Info("circuit breaker state", "name", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			for _, t := range s.Tolerate {
				if errors.Is(err, t) {
					return true
				}
			}
			return false
		},
	}
	return &Guard{cb: gobreaker.NewCircuitBreaker(st), timeout: s.CallTimeout}
}

// Do runs fn under the breaker with the configured timeout applied to ctx.
// A nil Guard runs fn directly.
func (g *Guard) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if g == nil {
		return fn(ctx)
	}
	_, err := g.cb.Execute(func() (interface{}, error) {
		callCtx := ctx
		if g.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, g.timeout)
			defer cancel()
		}
		return nil, fn(callCtx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%s: %w", g.cb.Name(), ErrOpen)
	}
	return err
}

// State reports the breaker state, for health output.
func (g *Guard) State() string {
	if g == nil {
		return "disabled"
	}
	return g.cb.State().String()
}
