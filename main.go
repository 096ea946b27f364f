package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eransh/bookwise/internal/availability"
	"github.com/eransh/bookwise/internal/booking"
	"github.com/eransh/bookwise/internal/claude"
	"github.com/eransh/bookwise/internal/config"
	"github.com/eransh/bookwise/internal/database"
	"github.com/eransh/bookwise/internal/dialogue"
	"github.com/eransh/bookwise/internal/extract"
	"github.com/eransh/bookwise/internal/gcal"
	"github.com/eransh/bookwise/internal/logging"
	"github.com/eransh/bookwise/internal/notify"
	"github.com/eransh/bookwise/internal/resolve"
	"github.com/eransh/bookwise/internal/server"
	"github.com/eransh/bookwise/internal/timeutil"
)

func main() {
	cfg := config.LoadFromEnv()
	logging.Init(cfg.DevMode)

	loc, fallback := timeutil.ResolveLocation(cfg.Timezone)
	if fallback && cfg.Timezone != "" {
		slog.Warn("unknown timezone, falling back to UTC", "timezone", cfg.Timezone)
	}

	// Phase 1: Core infrastructure
	db, err := database.New(cfg.DBPath)
	if err != nil {
		fatal("creating database", err)
	}
	defer db.Close()

	gcalClient, err := gcal.NewClient(cfg.GoogleCredentialsFile, cfg.GoogleTokenFile, cfg.CalendarID, cfg.HTTPPort)
	if err != nil {
		fatal("creating calendar client", err)
	}
	if !gcalClient.IsAuthenticated() {
		slog.Warn("calendar not authenticated yet, visit the auth URL", "url", gcalClient.GetAuthURL())
	}

	pruneCtx, stopPruning := context.WithCancel(context.Background())
	defer stopPruning()
	go db.PruneConversationsLoop(pruneCtx, time.Hour, time.Duration(cfg.ConversationTTLHours)*time.Hour)

	// Phase 2: Negotiation components
	languageModel := claude.NewClient(cfg.AnthropicAPIKey, cfg.ClaudeModel, cfg.ClaudeTemperature)
	if !languageModel.IsConfigured() {
		slog.Warn("ANTHROPIC_API_KEY not set, extraction will fail every turn")
	}

	deps := dialogue.Deps{
		Extractor: extract.New(languageModel, loc),
		Resolver: resolve.New(
			cfg.MaxDateSpanDays,
			cfg.MaxCandidateDays,
			time.Duration(cfg.DefaultDurationMin)*time.Minute,
		),
		Reconciler: availability.New(
			gcalClient,
			time.Duration(cfg.SlotIncrementMin)*time.Minute,
			cfg.MaxAlternatives,
		),
		Committer: booking.New(gcalClient, gcalClient, cfg.BookingRetries),
		FreeBusy:  gcalClient,
		Store:     dialogue.NewSQLStore(db),
		Recorder:  db,
	}
	if notifier := notify.NewResendNotifier(cfg.ResendAPIKey, cfg.NotifyFrom); notifier != nil {
		deps.Notifier = notifier
	}

	orchestrator := dialogue.New(deps, dialogue.Config{
		MaxTurns:           cfg.MaxTurns,
		MaxExtractFailures: cfg.MaxExtractFailures,
	})

	// Phase 3: Transport
	srv := server.New(server.ServerConfig{
		Orchestrator: orchestrator,
		Calendar:     gcalClient,
		Bookings:     db,
		Port:         cfg.HTTPPort,
		APIKey:       cfg.APIKey,
	})
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
}

func fatal(what string, err error) {
	slog.Error("fatal error during "+what, "error", err)
	os.Exit(1)
}
