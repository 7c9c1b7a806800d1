package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/safehaven/safehaven-api/internal/api"
	"github.com/safehaven/safehaven-api/internal/config"
	dbstore "github.com/safehaven/safehaven-api/internal/db"
)

// openStore opens the configured backend. Both SQL drivers bring their schema
// up to date before returning.
func openStore(cfg config.StorageConfig, log *zap.Logger) (api.Store, error) {
	switch cfg.Driver {
	case "memory":
		log.Warn("using in-memory storage; data is lost on restart")
		return api.NewMemoryStore(), nil
	case "sqlite":
		if cfg.SQLitePath == "" {
			return nil, errors.New("sqlite path is required")
		}
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
		st, err := dbstore.OpenSQLite(cfg.SQLitePath, cfg.MigrationsDir, log)
		if err != nil {
			return nil, err
		}
		log.Info("sqlite store ready", zap.String("path", cfg.SQLitePath))
		return st, nil
	case "postgres":
		st, err := dbstore.OpenPostgres(cfg.PostgresDSN, log)
		if err != nil {
			return nil, err
		}
		log.Info("postgres store ready")
		return st, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// migrateOnly applies pending schema changes and exits without serving.
func migrateOnly(cfg *config.Config, log *zap.Logger) error {
	if cfg.Storage.Driver == "memory" {
		return errors.New("the memory driver has no schema to migrate")
	}
	st, err := openStore(cfg.Storage, log)
	if err != nil {
		return err
	}
	if cerr := st.Close(); cerr != nil {
		log.Warn("failed to close store", zap.Error(cerr))
	}
	return nil
}
