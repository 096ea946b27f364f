// Package main runs a development server for exercising the negotiation loop
// end to end without external calendar access. It uses in-memory conversation
// state and a simulated calendar pre-seeded with busy blocks; extraction still
// goes through the real Claude API.
//
// Usage:
//
//	ANTHROPIC_API_KEY=sk-... BOOKWISE_API_KEY=dev go run cmd/devserver/main.go
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
	"github.com/eransh/bookwise/internal/dialogue"
	"github.com/eransh/bookwise/internal/extract"
	"github.com/eransh/bookwise/internal/logging"
	"github.com/eransh/bookwise/internal/resolve"
	"github.com/eransh/bookwise/internal/server"
	"github.com/eransh/bookwise/internal/testutil"
	"github.com/eransh/bookwise/internal/timeutil"
)

func main() {
	cfg := config.LoadFromEnv()
	logging.Init(true)

	slog.Info("starting dev server: in-memory state, simulated calendar, real Claude extraction")

	loc, _ := timeutil.ResolveLocation(cfg.Timezone)

	languageModel := claude.NewClient(cfg.AnthropicAPIKey, cfg.ClaudeModel, cfg.ClaudeTemperature)
	if !languageModel.IsConfigured() {
		slog.Error("ANTHROPIC_API_KEY is required for the dev server")
		os.Exit(1)
	}

	cal := testutil.NewMockCalendar()
	seedBusyBlocks(cal, loc)

	orchestrator := dialogue.New(dialogue.Deps{
		Extractor: extract.New(languageModel, loc),
		Resolver: resolve.New(
			cfg.MaxDateSpanDays,
			cfg.MaxCandidateDays,
			time.Duration(cfg.DefaultDurationMin)*time.Minute,
		),
		Reconciler: availability.New(
			cal,
			time.Duration(cfg.SlotIncrementMin)*time.Minute,
			cfg.MaxAlternatives,
		),
		Committer: booking.New(cal, cal, cfg.BookingRetries),
		FreeBusy:  cal,
		Store:     dialogue.NewMemoryStore(),
	}, dialogue.Config{
		MaxTurns:           cfg.MaxTurns,
		MaxExtractFailures: cfg.MaxExtractFailures,
	})

	srv := server.New(server.ServerConfig{
		Orchestrator: orchestrator,
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
}

// seedBusyBlocks fills the next few working days with a lunch block and a
// standup so conflict and alternative paths are reachable by hand.
func seedBusyBlocks(cal *testutil.MockCalendar, loc *time.Location) {
	day := timeutil.StartOfDay(time.Now().In(loc))
	for i := 0; i < 5; i++ {
		day = timeutil.AddBusinessDays(day, 1)
		cal.AddBusy(day.Add(12*time.Hour), day.Add(13*time.Hour))
		cal.AddBusy(day.Add(9*time.Hour+30*time.Minute), day.Add(9*time.Hour+45*time.Minute))
		slog.Debug("seeded busy blocks", "day", day.Format("2006-01-02"))
	}
}
