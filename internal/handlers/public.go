package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"ticket-checkout/internal/models"
)

// EventLister lists the events that have a catalog
type EventLister interface {
	ListEvents(ctx context.Context) ([]models.Event, error)
}

// PublicHandler serves unauthenticated read-only endpoints
type PublicHandler struct {
	events EventLister
	logger *zap.Logger
}

// NewPublicHandler creates a new public handler
func NewPublicHandler(events EventLister, logger *zap.Logger) *PublicHandler {
	return &PublicHandler{events: events, logger: logger}
}

// Health reports that the process is serving
func (h *PublicHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// EventsList returns every event with tickets on sale
func (h *PublicHandler) EventsList(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.ListEvents(r.Context())
	if err != nil {
		h.logger.Error("failed to list events", zap.Error(err))
		http.Error(w, "Failed to load events", http.StatusInternalServerError)
		return
	}
	if events == nil {
		events = []models.Event{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}
