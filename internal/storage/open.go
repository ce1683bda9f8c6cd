package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jwebster45206/dungeon-engine/internal/config"
	store "github.com/jwebster45206/dungeon-engine/pkg/storage"
)

// Open connects the session backend named by cfg.StorageBackend. For Redis
// it blocks until the server answers or ctx ends.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Storage, error) {
	switch cfg.StorageBackend {
	case config.BackendRedis:
		r, err := NewRedisStorage(cfg.RedisURL, cfg.DataDir, cfg.SessionTTL, logger)
		if err != nil {
			return nil, err
		}
		if err := r.WaitForConnection(ctx); err != nil {
			_ = r.Close()
			return nil, err
		}
		return r, nil
	case config.BackendSQLite:
		return OpenSQLite(cfg.SQLitePath, cfg.DataDir, logger)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.StorageBackend)
	}
}
