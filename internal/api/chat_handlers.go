package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

// Asker answers a chat message. Satisfied by *assistant.Assistant.
type Asker interface {
	Ask(ctx context.Context, message string) (string, error)
}

// ChatHandler serves the event-discovery chat endpoint.
type ChatHandler struct {
	asker  Asker
	logger *slog.Logger
}

// NewChatHandler creates the chat handler.
func NewChatHandler(asker Asker, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{asker: asker, logger: logger}
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// Chat handles POST /api/chat.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Message == "" {
		writeError(w, h.logger, http.StatusBadRequest, "message is required")
		return
	}

	reply, err := h.asker.Ask(r.Context(), req.Message)
	if err != nil {
		h.logger.Error("chat request failed", "error", err)
		writeError(w, h.logger, http.StatusBadGateway, "Assistant is unavailable")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, chatResponse{Reply: reply})
}
