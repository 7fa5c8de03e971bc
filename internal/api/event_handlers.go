package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/evently/evently/internal/ingestion"
	"github.com/evently/evently/internal/models"
)

// EventHandler serves the read API over stored events.
type EventHandler struct {
	events ingestion.EventRepository
	logger *slog.Logger
}

// NewEventHandler creates the stored-events read handler.
func NewEventHandler(events ingestion.EventRepository, logger *slog.Logger) *EventHandler {
	return &EventHandler{events: events, logger: logger}
}

// ListEvents handles GET /api/events.
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	query, err := parseEventQuery(r)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.events.Query(r.Context(), query)
	if err != nil {
		h.logger.Error("failed to query events", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, page)
}

// GetEvent handles GET /api/events/{eventbrite_id}.
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	parts := strings.Split(strings.TrimSuffix(r.URL.Path, "/"), "/")
	if len(parts) < 4 || parts[3] == "" {
		writeError(w, h.logger, http.StatusBadRequest, "Event ID required")
		return
	}
	eventbriteID := parts[3]

	event, err := h.events.GetByEventbriteID(r.Context(), eventbriteID)
	if err != nil {
		h.logger.Error("failed to get event", "eventbrite_id", eventbriteID, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Internal server error")
		return
	}
	if event == nil {
		writeError(w, h.logger, http.StatusNotFound, "Event not found")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, event)
}

// parseEventQuery maps URL query parameters onto an EventQuery.
func parseEventQuery(r *http.Request) (models.EventQuery, error) {
	q := models.EventQuery{
		Search:     r.URL.Query().Get("q"),
		CategoryID: r.URL.Query().Get("category_id"),
	}

	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return q, errInvalidParam("from")
		}
		q.From = &t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return q, errInvalidParam("to")
		}
		q.To = &t
	}
	if v := r.URL.Query().Get("is_free"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return q, errInvalidParam("is_free")
		}
		q.IsFree = &b
	}
	if v := r.URL.Query().Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return q, errInvalidParam("page")
		}
		q.Page = n
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return q, errInvalidParam("limit")
		}
		q.Limit = n
	}

	return q, nil
}

type paramError string

func errInvalidParam(name string) error { return paramError(name) }

func (e paramError) Error() string { return "invalid query parameter: " + string(e) }
