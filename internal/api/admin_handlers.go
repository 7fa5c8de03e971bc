package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/evently/evently/internal/ingestion"
)

// AdminHandler serves the JWT-protected operational surface: ingestion run
// history and recorded ingestion errors.
type AdminHandler struct {
	runs   ingestion.RunRepository
	errs   ingestion.ErrorRepository
	logger *slog.Logger
}

// NewAdminHandler creates the admin handler.
func NewAdminHandler(runs ingestion.RunRepository, errs ingestion.ErrorRepository, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{runs: runs, errs: errs, logger: logger}
}

// ListRuns handles GET /api/runs.
func (h *AdminHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	limit := parseLimit(r, 50)
	runs, err := h.runs.List(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list ingestion runs", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// ListErrors handles GET /api/ingestion-errors.
func (h *AdminHandler) ListErrors(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	unresolvedOnly := r.URL.Query().Get("unresolved") == "true"
	limit := parseLimit(r, 50)

	errs, err := h.errs.List(r.Context(), limit, unresolvedOnly)
	if err != nil {
		h.logger.Error("failed to list ingestion errors", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Internal server error")
		return
	}

	unresolved, err := h.errs.CountUnresolved(r.Context())
	if err != nil {
		h.logger.Error("failed to count ingestion errors", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"errors":     errs,
		"count":      len(errs),
		"unresolved": unresolved,
	})
}

// ResolveError handles POST /api/ingestion-errors/{id}/resolve.
func (h *AdminHandler) ResolveError(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if err := h.errs.MarkResolved(r.Context(), id); err != nil {
		h.logger.Error("failed to resolve ingestion error", "id", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, map[string]interface{}{"success": true})
}

func parseLimit(r *http.Request, fallback int) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
