package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/dungeon-engine/internal/config"
	"github.com/jwebster45206/dungeon-engine/internal/game"
	"github.com/jwebster45206/dungeon-engine/internal/logger"
	"github.com/jwebster45206/dungeon-engine/internal/mcp"
	"github.com/jwebster45206/dungeon-engine/internal/observe"
	"github.com/jwebster45206/dungeon-engine/internal/storage"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	// stdout carries the protocol in stdio mode.
	log := logger.SetupTo(cfg, os.Stderr)

	log.Info("Starting Dungeon Engine MCP server",
		"version", version,
		"transport", cfg.MCPTransport,
		"storage_backend", cfg.StorageBackend,
		"data_dir", cfg.DataDir)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storageCtx, storageCancel := context.WithTimeout(ctx, 2*time.Minute)
	store, err := storage.Open(storageCtx, cfg, log)
	storageCancel()
	if err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Error closing storage connection", "error", err)
		}
	}()

	var (
		gameOpts []game.Option
		mcpOpts  []mcp.Option
		provider *observe.Provider
	)
	if cfg.TelemetryEnabled() {
		provider, err = observe.InitProvider(ctx, observe.ProviderConfig{
			ServiceName:    "dungeon-engine-mcp",
			ServiceVersion: version,
			TraceEndpoint:  cfg.TraceEndpoint,
		})
		if err != nil {
			log.Error("Failed to initialize telemetry", "error", err)
			os.Exit(1)
		}
		defer func() { _ = provider.Shutdown(context.Background()) }()
	}
	var metrics *observe.Provider
	if provider != nil && cfg.MetricsEnabled {
		metrics = provider
		gameOpts = append(gameOpts, game.WithRecorder(provider.Metrics))
		mcpOpts = append(mcpOpts, mcp.WithToolRecorder(provider.Metrics))
	}

	service := game.NewService(store, storage.NewCampaignCache(store, log), log, gameOpts...)
	srv := mcp.NewServer(service, log, version, mcpOpts...)

	switch cfg.MCPTransport {
	case config.TransportHTTP:
		err = serveHTTP(ctx, cfg.MCPHTTPAddr, srv, metrics, log)
	default:
		err = srv.Run(ctx, &sdk.StdioTransport{})
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("MCP server stopped", "error", err)
		os.Exit(1)
	}
	log.Info("MCP server exited")
}

// serveHTTP serves the streamable transport on /mcp, and /metrics when
// provider is set, until ctx is done.
func serveHTTP(ctx context.Context, addr string, srv *mcp.Server, provider *observe.Provider, log *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/mcp", srv.HTTPHandler())

	var recorder *observe.Metrics
	if provider != nil {
		recorder = provider.Metrics
		mux.Handle("GET /metrics", provider.Handler())
	}

	server := &http.Server{
		Addr:        addr,
		Handler:     observe.Middleware(recorder, log)(mux),
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: streamable sessions hold the response open.
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server starting", "addr", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Server is shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
