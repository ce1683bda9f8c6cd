package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jwebster45206/dungeon-engine/internal/config"
	"github.com/jwebster45206/dungeon-engine/internal/logger"
	"github.com/jwebster45206/dungeon-engine/internal/storage"
	"github.com/jwebster45206/dungeon-engine/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Dungeon Engine Worker",
		"environment", cfg.Environment,
		"storage_backend", cfg.StorageBackend,
		"session_ttl", cfg.SessionTTL)

	if cfg.StorageBackend != config.BackendSQLite {
		log.Info("Storage backend expires sessions itself; nothing to sweep", "storage_backend", cfg.StorageBackend)
		return
	}

	store, err := storage.OpenSQLite(cfg.SQLitePath, cfg.DataDir, log)
	if err != nil {
		log.Error("Failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Error closing storage", "error", err)
		}
	}()
	log.Info("Storage opened successfully", "path", cfg.SQLitePath)

	w := worker.New(store, cfg.SessionTTL, cfg.SweepInterval, log, os.Getenv("WORKER_ID"))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := w.Start(); err != nil {
			log.Error("Worker error", "error", err)
		}
	}()

	<-quit
	log.Info("Worker shutdown signal received")
	w.Stop()
	<-done

	log.Info("Worker exited")
}
