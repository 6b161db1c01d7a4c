package handler

import (
	"context"
	"net/http"

	"github.com/go-notify-nosql/internal/domain"
	"github.com/go-notify-nosql/internal/pkg/validate"
)

type Dispatcher interface {
	Dispatch(ctx context.Context, ev domain.BatchEvent) (*domain.DispatchReport, error)
}

// DispatchHandler accepts batch events from trusted backends.
type DispatchHandler struct {
	dispatcher Dispatcher
}

func NewDispatchHandler(d Dispatcher) *DispatchHandler {
	return &DispatchHandler{dispatcher: d}
}

// Batch fans the event out and returns the per-target report. Partial
// failures are reported in the body, not through the status code.
func (h *DispatchHandler) Batch(w http.ResponseWriter, r *http.Request) {
	var ev domain.BatchEvent
	if !decodeBody(w, r, &ev) {
		return
	}
	if err := validate.Struct(ev); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	report, err := h.dispatcher.Dispatch(r.Context(), ev)
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, report)
}
