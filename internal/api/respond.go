package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// writeJSON encodes v to the response with the given status.
func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

// errorResponse is the uniform failure body for every endpoint.
type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// writeError sends a structured failure response.
func writeError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	writeJSON(w, logger, status, errorResponse{Success: false, Message: message})
}
