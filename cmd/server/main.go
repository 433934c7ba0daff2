package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/docintel/internal/api"
	"github.com/dgallion1/docintel/internal/app"
	"github.com/dgallion1/docintel/internal/config"
	"github.com/dgallion1/docintel/internal/pipeline"
	"github.com/dgallion1/docintel/internal/ranker"
)

func main() {
	configPath := flag.String("config", os.Getenv("DOCINTEL_CONFIG"), "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := app.NewLogger(cfg.Log, os.Stdout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load models once; they are shared read-only by every batch.
	rk, closeRanker, err := app.OpenRanker(cfg, ranker.NewModelStats(time.Hour), log)
	if err != nil {
		log.Error("load models", "dir", cfg.Ranker.ModelDir, "error", err)
		os.Exit(1)
	}

	// Initialize pipeline.
	analyzer := pipeline.NewAnalyzer(rk, cfg.PipelineOptions(), log)
	orch := pipeline.NewOrchestrator(cfg.OrchestratorConfig(), analyzer, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, analyzer, rk, log, cfg.Server)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
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

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		cancel()
		orch.Stop()
		if err := closeRanker(); err != nil {
			log.Warn("close embedding cache", "error", err)
		}
	}()

	log.Info("starting docintel", "port", cfg.Server.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
