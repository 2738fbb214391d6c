// Package main provides the API HTTP handlers.
package main

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/oakfield-sports/clubquery/internal/conversation"
	"github.com/oakfield-sports/clubquery/internal/engine"
	"github.com/oakfield-sports/clubquery/internal/observability"
)

// AskHandler serves the question-answering endpoints.
type AskHandler struct {
	logger   *observability.Logger
	pipeline *engine.Pipeline
	store    conversation.Store
}

// NewAskHandler creates the handler.
func NewAskHandler(logger *observability.Logger, pipeline *engine.Pipeline, store conversation.Store) *AskHandler {
	return &AskHandler{logger: logger, pipeline: pipeline, store: store}
}

// AskResponseDTO wraps the answer envelope with the session it belongs to.
type AskResponseDTO struct {
	SessionID string `json:"sessionId"`
	Result    any    `json:"result"`
}

// Ask handles POST /v1/ask.
func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req engine.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.Question == "" {
		h.writeError(w, http.StatusBadRequest, "question is required", "")
		return
	}
	// A fresh session per question when the caller does not hold one.
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	env, err := h.pipeline.Ask(ctx, req)
	if err != nil {
		h.logger.Error().Err(err).Msg("Ask pipeline failed")
		h.writeError(w, http.StatusInternalServerError, "ask failed", err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, AskResponseDTO{SessionID: req.SessionID, Result: env})
}

// History handles GET /v1/sessions/{sessionID}/history.
func (h *AskHandler) History(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		h.writeError(w, http.StatusBadRequest, "sessionID is required", "")
		return
	}

	turns, err := h.store.History(r.Context(), sessionID)
	if err != nil {
		h.logger.Error().Err(err).Msg("History lookup failed")
		h.writeError(w, http.StatusInternalServerError, "history lookup failed", err.Error())
		return
	}
	if turns == nil {
		turns = []conversation.Turn{}
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"sessionId": sessionID,
		"turns":     turns,
	})
}

func (h *AskHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *AskHandler) writeError(w http.ResponseWriter, status int, message, detail string) {
	resp := map[string]string{"error": message}
	if detail != "" {
		resp["detail"] = detail
	}
	h.writeJSON(w, status, resp)
}
