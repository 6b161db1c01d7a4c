package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-notify-nosql/internal/config"
	"github.com/go-notify-nosql/internal/domain"
	"github.com/go-notify-nosql/internal/transport/http/handler"
	appmiddleware "github.com/go-notify-nosql/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	passthrough := func(next http.Handler) http.Handler { return next }
	authMw, selfOrService, serviceOnly := passthrough, passthrough, passthrough
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
		selfOrService = appmiddleware.RequireSelfOr("userId", domain.RoleService)
		serviceOnly = appmiddleware.RequireRole(domain.RoleService)
	}

	// Socket upgrades are expensive; 5/s with a burst of 10 per client IP.
	upgradeRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	healthH := handler.NewHealthHandler()
	notifH := handler.NewNotificationHandler(deps.Notifications)
	dispatchH := handler.NewDispatchHandler(deps.Dispatcher)
	realtimeH := handler.NewRealtimeHandler(deps.Realtime)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			// Owner or service
			r.Route("/users/{userId}/notifications", func(r chi.Router) {
				r.Use(selfOrService)
				r.Get("/", notifH.Page)
				r.Get("/unread", notifH.HasUnread)
				r.Post("/read", notifH.MarkAllRead)
				r.Delete("/unread", notifH.Clear)
			})

			// Service-only routes
			r.Group(func(r chi.Router) {
				r.Use(serviceOnly)

				r.Post("/notifications/batch", dispatchH.Batch)
				r.Post("/realtime/users/{userId}/events", realtimeH.Route)
			})

			if deps.Socket != nil {
				r.With(upgradeRL.Limit, selfOrService).Get("/ws", deps.Socket.ServeHTTP)
			}
		})
	})

	return r
}
