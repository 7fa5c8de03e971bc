package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/evently/evently/internal/eventbrite"
)

// Searcher issues a single passthrough search against the source API.
// Satisfied by *eventbrite.Client.
type Searcher interface {
	Search(ctx context.Context, params url.Values) (json.RawMessage, error)
}

// SearchHandler proxies GET /api/events/search to the Eventbrite search
// endpoint, forwarding the caller's query parameters unchanged.
type SearchHandler struct {
	searcher Searcher
	logger   *slog.Logger
}

// NewSearchHandler creates the search proxy handler.
func NewSearchHandler(searcher Searcher, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{searcher: searcher, logger: logger}
}

// Search handles GET /api/events/search.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	body, err := h.searcher.Search(r.Context(), r.URL.Query())
	if err != nil {
		if errors.Is(err, eventbrite.ErrMissingToken) {
			h.logger.Error("eventbrite token missing for search proxy")
			writeError(w, h.logger, http.StatusInternalServerError, "Server configuration error: Eventbrite token missing")
			return
		}
		var apiErr *eventbrite.APIError
		if errors.As(err, &apiErr) {
			h.logger.Error("eventbrite search failed", "status", apiErr.StatusCode)
			writeError(w, h.logger, apiErr.StatusCode, "Failed to fetch events from Eventbrite")
			return
		}
		h.logger.Error("eventbrite search failed", "error", err)
		writeError(w, h.logger, http.StatusBadGateway, "Failed to fetch events from Eventbrite")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.logger.Error("failed to write search response", "error", err)
	}
}
