package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/evently/evently/internal/auth"
	"github.com/evently/evently/internal/config"
	"github.com/evently/evently/internal/eventbrite"
	"github.com/evently/evently/internal/ingestion"
	"github.com/evently/evently/internal/models"
)

// Runner executes one ingestion run. Satisfied by *ingestion.Ingestor.
type Runner interface {
	Run(ctx context.Context, params ingestion.RunParams) (ingestion.Summary, error)
}

// ScrapeHandler serves the two ingestion trigger surfaces: the open
// on-demand endpoint and the privileged cron endpoint guarded by the shared
// secret.
type ScrapeHandler struct {
	runner Runner
	scrape config.ScrapeConfig
	logger *slog.Logger
}

// NewScrapeHandler creates the scrape trigger handler.
func NewScrapeHandler(runner Runner, scrape config.ScrapeConfig, logger *slog.Logger) *ScrapeHandler {
	return &ScrapeHandler{runner: runner, scrape: scrape, logger: logger}
}

// scrapeRequest is the on-demand trigger body.
type scrapeRequest struct {
	StartDate       string `json:"startDate"`
	EndDate         string `json:"endDate"`
	LocationAddress string `json:"locationAddress,omitempty"`
	LocationWithin  string `json:"locationWithin,omitempty"`
}

// scrapeResponse reports the run outcome with ingestion counts.
type scrapeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ingestion.Summary
}

// ScrapeOnDemand handles POST /api/events/scrape. The caller supplies the
// window and optional location filter explicitly.
func (h *ScrapeHandler) ScrapeOnDemand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req scrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	window, err := parseWindow(req.StartDate, req.EndDate)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	h.run(w, r, ingestion.RunParams{
		Window:          window,
		LocationAddress: req.LocationAddress,
		LocationWithin:  req.LocationWithin,
		Trigger:         models.TriggerManual,
	})
}

// ScrapePrivileged handles POST /api/events/scrape/eventbrite, the
// cron-invoked variant. It requires the shared-secret bearer header and
// rejects before any source-API call otherwise; the window is computed as a
// rolling now -> now+N days at invocation time.
func (h *ScrapeHandler) ScrapePrivileged(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if h.scrape.CronSecret == "" {
		h.logger.Error("CRON_SECRET is not configured")
		writeError(w, h.logger, http.StatusInternalServerError, "Server configuration error")
		return
	}

	if !auth.CheckSharedSecret(r, h.scrape.CronSecret) {
		h.logger.Warn("unauthorized attempt to access privileged scrape endpoint")
		writeError(w, h.logger, http.StatusUnauthorized, "Unauthorized")
		return
	}

	h.run(w, r, ingestion.RunParams{
		Window:  models.RollingWindow(time.Now(), h.scrape.WindowDays),
		Trigger: models.TriggerPrivileged,
	})
}

// run executes the ingestion and maps the outcome onto the response,
// classifying configuration, upstream and store failures separately.
func (h *ScrapeHandler) run(w http.ResponseWriter, r *http.Request, params ingestion.RunParams) {
	summary, err := h.runner.Run(r.Context(), params)
	if err != nil {
		status := http.StatusInternalServerError
		message := "Scrape failed"

		var apiErr *eventbrite.APIError
		switch {
		case errors.Is(err, eventbrite.ErrMissingToken), errors.Is(err, eventbrite.ErrMissingOrganization):
			message = "Server configuration error: " + err.Error()
		case errors.As(err, &apiErr):
			status = http.StatusBadGateway
			message = fmt.Sprintf("Failed to fetch from Eventbrite: %v", err)
		default:
			message = err.Error()
		}

		h.logger.Error("scrape failed", "trigger", params.Trigger, "error", err)
		writeJSON(w, h.logger, status, scrapeResponse{Success: false, Message: message, Summary: summary})
		return
	}

	writeJSON(w, h.logger, http.StatusOK, scrapeResponse{
		Success: true,
		Message: fmt.Sprintf("Successfully upserted %d events.", summary.Upserted),
		Summary: summary,
	})
}

// parseWindow validates the caller-supplied ISO-8601 window.
func parseWindow(startDate, endDate string) (models.Window, error) {
	if startDate == "" || endDate == "" {
		return models.Window{}, fmt.Errorf("startDate and endDate are required")
	}

	start, err := time.Parse(time.RFC3339, startDate)
	if err != nil {
		return models.Window{}, fmt.Errorf("invalid startDate: must be ISO-8601")
	}
	end, err := time.Parse(time.RFC3339, endDate)
	if err != nil {
		return models.Window{}, fmt.Errorf("invalid endDate: must be ISO-8601")
	}
	if end.Before(start) {
		return models.Window{}, fmt.Errorf("endDate must not precede startDate")
	}

	return models.Window{Start: start.UTC(), End: end.UTC()}, nil
}
