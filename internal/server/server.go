// Package server is the chat transport boundary: it delivers
// (conversation_id, utterance) pairs to the dialogue orchestrator and returns
// (assistant_message, phase, is_terminal). The core never touches HTTP
// directly.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/eransh/bookwise/internal/dialogue"
	"github.com/eransh/bookwise/internal/gcal"
	"github.com/eransh/bookwise/internal/slot"
)

// CalendarAuth is the OAuth surface of the calendar capability: it hands out
// the consent URL and completes the flow when Google redirects back.
type CalendarAuth interface {
	IsAuthenticated() bool
	GetAuthURL() string
	ExchangeCode(ctx context.Context, code string) error
}

// BookingDirectory reads committed bookings back out of persistence.
type BookingDirectory interface {
	GetBookingByKey(key string) (*slot.BookingRecord, error)
	ListBookings(from, to time.Time) ([]slot.BookingRecord, error)
}

// Server hosts the chat endpoint, booking lookups, the OAuth callback, and
// the health check.
type Server struct {
	orchestrator *dialogue.Orchestrator
	calendar     CalendarAuth
	bookings     BookingDirectory
	httpSrv      *http.Server
	apiKey       string
	port         int
}

// ServerConfig holds configuration for server creation.
type ServerConfig struct {
	Orchestrator *dialogue.Orchestrator
	Calendar     CalendarAuth     // optional
	Bookings     BookingDirectory // optional
	Port         int
	APIKey       string
}

func New(cfg ServerConfig) *Server {
	s := &Server{
		orchestrator: cfg.Orchestrator,
		calendar:     cfg.Calendar,
		bookings:     cfg.Bookings,
		apiKey:       cfg.APIKey,
		port:         cfg.Port,
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.httpSrv = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.corsMiddleware(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealthCheck)
	mux.HandleFunc("POST /api/chat", s.requireAPIKey(s.handleChat))

	if s.calendar != nil {
		// The callback is hit by Google's redirect, which cannot carry the
		// API key header.
		mux.HandleFunc("GET "+gcal.CallbackPath, s.handleOAuthCallback)
		mux.HandleFunc("GET /api/calendar/status", s.requireAPIKey(s.handleCalendarStatus))
	}
	if s.bookings != nil {
		mux.HandleFunc("GET /api/bookings", s.requireAPIKey(s.handleListBookings))
		mux.HandleFunc("GET /api/bookings/{key}", s.requireAPIKey(s.handleGetBooking))
	}
}

func (s *Server) Start() error {
	slog.Info("starting HTTP server", "port", s.port)
	return s.httpSrv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// Handler returns the server's HTTP handler for testing purposes
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// corsMiddleware adds CORS headers for browser clients
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, x-api-key")

		// Handle preflight requests
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requireAPIKey guards an endpoint with the shared x-api-key header.
func (s *Server) requireAPIKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" {
			writeError(w, http.StatusInternalServerError, "server configuration error")
			return
		}
		if r.Header.Get("x-api-key") != s.apiKey {
			writeError(w, http.StatusForbidden, "invalid API key")
			return
		}
		next(w, r)
	}
}
