package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// ChatRequest is the transport-in contract.
type ChatRequest struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Message        string `json:"message"`
}

// ChatResponse is the transport-out contract.
type ChatResponse struct {
	ConversationID string   `json:"conversation_id"`
	Response       string   `json:"response"`
	Phase          string   `json:"phase"`
	IsTerminal     bool     `json:"is_terminal"`
	Suggestions    []string `json:"suggested_responses,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reply, err := s.orchestrator.HandleTurn(r.Context(), req.ConversationID, req.Message, time.Now())
	if err != nil {
		slog.Error("turn failed", "conversation", req.ConversationID, "error", err)
		writeError(w, http.StatusInternalServerError, "something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		ConversationID: reply.ConversationID,
		Response:       reply.Message,
		Phase:          string(reply.Phase),
		IsTerminal:     reply.Terminal,
		Suggestions:    reply.Suggestions,
	})
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
