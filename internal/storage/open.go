package storage

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/valter-silva-au/todo/pkg/models"
	"go.uber.org/zap"
)

// Open builds the KeyValueStore selected by cfg. Relative paths are resolved
// against basePath; an empty path picks a per-backend default inside it.
func Open(ctx context.Context, basePath string, cfg models.StorageConfig, logger *zap.Logger) (KeyValueStore, error) {
	switch cfg.Backend {
	case "", models.BackendFile:
		return newFileKeyValueStore(resolvePath(basePath, cfg.Path, "data"), logger), nil
	case models.BackendBadger:
		return OpenBadgerKeyValueStore(BadgerConfig{
			Path:       resolvePath(basePath, cfg.Path, "badger"),
			SyncWrites: true,
			Logger:     logger,
		})
	case models.BackendSQLite:
		return OpenSQLiteKeyValueStore(resolvePath(basePath, cfg.Path, "todo.db"))
	case models.BackendRedis:
		addr := cfg.Redis.Addr
		if addr == "" {
			addr = "localhost:6379"
		}
		return OpenRedisKeyValueStore(ctx, addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func resolvePath(basePath, path, fallback string) string {
	if path == "" {
		return filepath.Join(basePath, fallback)
	}
	if path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(basePath, path)
}
