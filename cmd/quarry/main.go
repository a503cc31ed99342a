package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MikeSquared-Agency/quarry/internal/api"
	"github.com/MikeSquared-Agency/quarry/internal/config"
	"github.com/MikeSquared-Agency/quarry/internal/hermes"
	"github.com/MikeSquared-Agency/quarry/internal/persist"
	"github.com/MikeSquared-Agency/quarry/internal/processor"
	"github.com/MikeSquared-Agency/quarry/internal/replay"
	"github.com/MikeSquared-Agency/quarry/internal/search"
	"github.com/MikeSquared-Agency/quarry/internal/store"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("quarry starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Persistence: Postgres when configured, local SQLite otherwise.
	var persistence store.Persistence
	if cfg.DatabaseURL != "" {
		pg, err := persist.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
		persistence = pg
		slog.Info("database connected")
	} else {
		lite, err := persist.NewSQLite(cfg.SQLitePath)
		if err != nil {
			slog.Error("failed to open sqlite state", "path", cfg.SQLitePath, "error", err)
			os.Exit(1)
		}
		defer lite.Close()
		persistence = lite
		slog.Info("sqlite state ready", "path", cfg.SQLitePath)
	}

	// NATS/Hermes
	hermesClient, err := hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
	if err != nil {
		slog.Error("failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer hermesClient.Close()
	slog.Info("NATS connected", "url", cfg.NatsURL)

	// Event store: observers hear about every successful write.
	activity := store.NewActivityLog()
	notify := func(events []search.Event) {
		update := hermes.StateUpdate{
			Count:     len(events),
			UpdatedAt: time.Now().UTC().Format(time.RFC3339),
		}
		if len(events) > 0 {
			update.LastEventID = events[len(events)-1].ID
		}
		if err := hermesClient.Publish(hermes.SubjectStateUpdated, update); err != nil {
			slog.Warn("failed to publish state update", "error", err)
		}
	}
	st := store.New(persistence, activity, slog.Default(),
		store.WithCap(cfg.EventCap),
		store.WithNotifier(notify),
	)
	defer st.Close()

	// Processor — captures in, events out.
	proc := processor.New(st, activity, hermesClient, slog.Default())
	if err := hermesClient.Subscribe(hermes.SubjectCaptureStored, proc.HandleCaptureStored); err != nil {
		slog.Error("failed to subscribe to capture events", "error", err)
		os.Exit(1)
	}

	// Optional HAR backfill before going live.
	if cfg.ReplayHAR != "" {
		runner := replay.NewRunner(st, slog.Default())
		n, err := runner.ReplayFile(ctx, cfg.ReplayHAR)
		if err != nil {
			slog.Error("har replay failed", "path", cfg.ReplayHAR, "error", err)
		} else {
			slog.Info("har replay done", "path", cfg.ReplayHAR, "events", n)
		}
	}

	// HTTP API
	srv := api.NewServer(cfg.Port, cfg.APIToken, st, activity, proc, hermesClient, slog.Default())
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	slog.Info("quarry ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	cancel()
	slog.Info("quarry stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
