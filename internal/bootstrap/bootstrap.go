// Package bootstrap opens the backing services selected by config. Shared by cmd/server and cmd/seed.
package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"teamhub/backend/internal/cache"
	"teamhub/backend/internal/config"
	"teamhub/backend/internal/db"
	"teamhub/backend/internal/docstore"
	"teamhub/backend/internal/docstore/memory"
	"teamhub/backend/internal/docstore/mongodb"
	"teamhub/backend/internal/docstore/sqldoc"
	"teamhub/backend/internal/logger"
)

// OpenStore connects the document store named by cfg.StoreDriver and ensures its unique indexes.
// SQLite tables are created on open; Postgres tables come from cmd/migrate.
// Caller must call Close when done.
func OpenStore(ctx context.Context, cfg *config.Config) (docstore.Store, error) {
	var store docstore.Store
	switch cfg.StoreDriver {
	case config.StoreMongo:
		s, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		store = s
	case config.StorePostgres:
		conn, err := db.Open(ctx, cfg.DatabaseURL, db.DefaultPool)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		store = sqldoc.New(conn, sqldoc.Postgres)
	case config.StoreSQLite:
		conn, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		s := sqldoc.New(conn, sqldoc.SQLite)
		if err := s.CreateTables(ctx); err != nil {
			_ = s.Close(ctx)
			return nil, fmt.Errorf("sqlite tables: %w", err)
		}
		store = s
	case config.StoreMemory:
		store = memory.New(memory.WithTransactions(cfg.MemoryTransactions))
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	if err := store.EnsureIndexes(ctx, docstore.UniqueIndexes); err != nil {
		_ = store.Close(ctx)
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}
	tx, err := store.SupportsTransactions(ctx)
	if err != nil {
		logger.L().Warn("transaction support probe failed", zap.Error(err))
	}
	logger.L().Info("document store ready", zap.String("driver", cfg.StoreDriver), zap.Bool("transactions", tx))
	return store, nil
}

// OpenCache returns the revocation and OAuth state cache named by cfg.CacheDriver.
func OpenCache(ctx context.Context, cfg *config.Config) (cache.Client, error) {
	return cache.New(ctx, cache.Config{
		Driver:   cfg.CacheDriver,
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Prefix:   "teamhub",
	})
}
