package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"github.com/evently/evently/internal/auth"
	"github.com/evently/evently/internal/database"
)

// Deps bundles the handlers the router wires up. Chat may be nil, in which
// case the chat route is not mounted.
type Deps struct {
	Scrape     *ScrapeHandler
	Events     *EventHandler
	Search     *SearchHandler
	Admin      *AdminHandler
	Auth       *AuthHandler
	Chat       *ChatHandler
	AuthConfig auth.Config
	DB         *sql.DB
	Logger     *slog.Logger
}

// SetupRoutes configures all API routes.
func SetupRoutes(mux *http.ServeMux, deps Deps) {
	authMiddleware := auth.Middleware(deps.AuthConfig)

	// Authentication
	mux.HandleFunc("/api/auth/login", deps.Auth.Login)
	mux.Handle("/api/auth/validate", authMiddleware(http.HandlerFunc(deps.Auth.ValidateToken)))

	// Ingestion triggers. The privileged variant checks the shared secret
	// itself before anything else runs.
	mux.HandleFunc("/api/events/scrape", deps.Scrape.ScrapeOnDemand)
	mux.HandleFunc("/api/events/scrape/eventbrite", deps.Scrape.ScrapePrivileged)

	// Source passthrough search
	mux.HandleFunc("/api/events/search", deps.Search.Search)

	// Stored events read API
	mux.HandleFunc("/api/events", deps.Events.ListEvents)
	mux.HandleFunc("/api/events/", deps.Events.GetEvent)

	// Admin surface (JWT)
	mux.Handle("/api/runs", authMiddleware(http.HandlerFunc(deps.Admin.ListRuns)))
	mux.Handle("/api/ingestion-errors", authMiddleware(http.HandlerFunc(deps.Admin.ListErrors)))
	mux.Handle("/api/ingestion-errors/", authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.TrimSuffix(r.URL.Path, "/"), "/")
		if len(parts) == 5 && parts[4] == "resolve" {
			deps.Admin.ResolveError(w, r, parts[3])
			return
		}
		http.NotFound(w, r)
	})))

	// Event-discovery chat, mounted only when an OpenAI key is configured
	if deps.Chat != nil {
		mux.HandleFunc("/api/chat", deps.Chat.Chat)
	}

	// Health
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if deps.DB != nil {
			if err := database.HealthCheck(r.Context(), deps.DB); err != nil {
				deps.Logger.Error("health check failed", "error", err)
				writeError(w, deps.Logger, http.StatusServiceUnavailable, "database unavailable")
				return
			}
		}
		writeJSON(w, deps.Logger, http.StatusOK, map[string]string{"status": "ok"})
	})
}
