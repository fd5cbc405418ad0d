// migrate applies the embedded Postgres document-table migrations. Only used with STORE_DRIVER=postgres.
package main

import (
	"errors"
	"flag"
	"os"

	"go.uber.org/zap"

	"teamhub/backend/internal/config"
	"teamhub/backend/internal/db/migrate"
	"teamhub/backend/internal/logger"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	flag.Parse()
	dir, err := migrate.ParseDirection(*direction)
	if err != nil {
		logger.L().Error("flags", zap.Error(err))
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.L().Error("config", zap.Error(err))
		os.Exit(1)
	}
	logger.Init(logger.Config{Env: cfg.Env, Level: cfg.LogLevel, ServiceName: "teamhub-migrate"})
	log := logger.L()
	defer func() { _ = logger.Sync() }()

	st, err := migrate.Run(cfg.DatabaseURL, dir)
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		log.Info("no migrations to apply", zap.String("direction", string(dir)), zap.Uint("version", st.Version))
	case err != nil:
		log.Error("migrate", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	default:
		log.Info("migrations applied", zap.String("direction", string(dir)), zap.Uint("version", st.Version), zap.Bool("dirty", st.Dirty))
	}
}
