package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-notify-nosql/internal/domain"
)

type RealtimeRouter interface {
	RouteToUser(ctx context.Context, userID string, t domain.EventType, payload any) (*domain.RouteReport, error)
}

// RouteRequest is the body of a direct real-time push.
type RouteRequest struct {
	Type    domain.EventType `json:"type"`
	Payload json.RawMessage  `json:"payload"`
}

type RealtimeHandler struct {
	router RealtimeRouter
}

func NewRealtimeHandler(router RealtimeRouter) *RealtimeHandler {
	return &RealtimeHandler{router: router}
}

func (h *RealtimeHandler) Route(w http.ResponseWriter, r *http.Request) {
	var req RouteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	var payload any
	if len(req.Payload) > 0 {
		payload = req.Payload
	}
	report, err := h.router.RouteToUser(r.Context(), chi.URLParam(r, "userId"), req.Type, payload)
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, report)
}
