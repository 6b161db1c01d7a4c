package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-notify-nosql/internal/application/notification"
)

// NotificationHandler serves a user's feed and unread state.
type NotificationHandler struct {
	svc notification.Service
}

func NewNotificationHandler(svc notification.Service) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

func (h *NotificationHandler) Page(w http.ResponseWriter, r *http.Request) {
	offset, ok := queryInt(w, r, "offset")
	if !ok {
		return
	}
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	page, err := h.svc.Page(r.Context(), chi.URLParam(r, "userId"), offset, limit)
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, page)
}

func (h *NotificationHandler) HasUnread(w http.ResponseWriter, r *http.Request) {
	has, err := h.svc.HasUnread(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, UnreadEnvelope{HasUnread: has})
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	ok, err := h.svc.MarkAllRead(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, ok)
}

func (h *NotificationHandler) Clear(w http.ResponseWriter, r *http.Request) {
	ok, err := h.svc.Clear(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, ok)
}

// queryInt reads an optional non-negative integer query parameter. Absent means 0.
func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, name+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}
