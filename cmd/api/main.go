package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/dungeon-engine/internal/config"
	"github.com/jwebster45206/dungeon-engine/internal/game"
	"github.com/jwebster45206/dungeon-engine/internal/handlers"
	"github.com/jwebster45206/dungeon-engine/internal/logger"
	"github.com/jwebster45206/dungeon-engine/internal/observe"
	"github.com/jwebster45206/dungeon-engine/internal/storage"
	"github.com/jwebster45206/dungeon-engine/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Dungeon Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"storage_backend", cfg.StorageBackend,
		"data_dir", cfg.DataDir)

	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	store, err := storage.Open(storageCtx, cfg, log)
	if err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	// Redis expires sessions by TTL; SQLite needs a sweeper.
	var sweeper *worker.Worker
	if pruner, ok := store.(worker.Pruner); ok {
		sweeper = worker.New(pruner, cfg.SessionTTL, cfg.SweepInterval, log, "api-sweeper")
		go func() { _ = sweeper.Start() }()
	}

	var (
		opts           []game.Option
		provider       *observe.Provider
		recorder       *observe.Metrics
		metricsHandler http.Handler
	)
	if cfg.TelemetryEnabled() {
		provider, err = observe.InitProvider(context.Background(), observe.ProviderConfig{
			ServiceName:   "dungeon-engine-api",
			TraceEndpoint: cfg.TraceEndpoint,
		})
		if err != nil {
			log.Error("Failed to initialize telemetry", "error", err)
			os.Exit(1)
		}
	}
	if provider != nil && cfg.MetricsEnabled {
		recorder = provider.Metrics
		metricsHandler = provider.Handler()
		opts = append(opts, game.WithRecorder(recorder))
	}

	service := game.NewService(store, storage.NewCampaignCache(store, log), log, opts...)
	router := handlers.NewRouter(service, store, metricsHandler, log)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      observe.Middleware(recorder, log)(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}
	if provider != nil {
		if err := provider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down metrics", "error", err)
		}
	}
	if sweeper != nil {
		sweeper.Stop()
	}
	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	log.Info("Server exited")
}
