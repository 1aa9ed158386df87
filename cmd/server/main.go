package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lexroom/statext/internal/api"
	"github.com/lexroom/statext/internal/config"
	"github.com/lexroom/statext/internal/fetch"
	"github.com/lexroom/statext/internal/pipeline"
	"github.com/lexroom/statext/internal/store"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize clients.
	client, err := fetch.NewClient(cfg.LegislationAPIURL, cfg.LegislationAPIKey, fetch.Options{
		RequestInterval: cfg.RequestInterval,
		CacheSize:       cfg.FetchCacheSize,
	})
	if err != nil {
		log.Error("fetch client setup failed", "error", err)
		os.Exit(1)
	}

	st, err := store.Open(cfg.DatabaseDSN, log)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := st.EnsureSchema(ctx); err != nil {
		log.Error("schema setup failed", "error", err)
		os.Exit(1)
	}

	checkpoint, err := fetch.LoadCheckpoint(cfg.CheckpointPath)
	if err != nil {
		log.Error("checkpoint load failed", "path", cfg.CheckpointPath, "error", err)
		os.Exit(1)
	}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, client, st, checkpoint, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		client.Close()
		st.Close()
	}()

	log.Info("starting statext", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
