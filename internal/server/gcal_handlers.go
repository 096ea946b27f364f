package server

import (
	"fmt"
	"log/slog"
	"net/http"
)

// handleOAuthCallback completes the Google consent flow: it exchanges the
// authorization code Google redirected back with and persists the token.
func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		if errMsg := r.URL.Query().Get("error"); errMsg != "" {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("authorization denied: %s", errMsg))
			return
		}
		writeError(w, http.StatusBadRequest, "missing authorization code")
		return
	}

	if err := s.calendar.ExchangeCode(r.Context(), code); err != nil {
		slog.Error("OAuth code exchange failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to complete calendar authorization")
		return
	}

	slog.Info("calendar authorized")
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "<html><body><h2>Calendar connected</h2><p>You can close this window.</p></body></html>")
}

// handleCalendarStatus reports whether the calendar capability is usable, and
// the consent URL to visit when it is not.
func (s *Server) handleCalendarStatus(w http.ResponseWriter, _ *http.Request) {
	status := map[string]any{
		"connected": s.calendar.IsAuthenticated(),
	}
	if !s.calendar.IsAuthenticated() {
		status["auth_url"] = s.calendar.GetAuthURL()
	}
	writeJSON(w, http.StatusOK, status)
}
