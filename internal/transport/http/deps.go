package http

import (
	"net/http"

	"github.com/go-notify-nosql/internal/application/notification"
	"github.com/go-notify-nosql/internal/transport/http/handler"
	appmiddleware "github.com/go-notify-nosql/internal/transport/http/middleware"
)

// Deps holds the application services the router exposes.
type Deps struct {
	Notifications notification.Service
	Dispatcher    handler.Dispatcher
	Realtime      handler.RealtimeRouter
	// Socket upgrades /v1/ws requests. Nil leaves the route unregistered.
	Socket http.Handler
	// JWTProvider verifies bearer tokens. Nil disables authentication and
	// every role check, which is only meant for local development.
	JWTProvider appmiddleware.Verifier
}
