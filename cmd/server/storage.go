package main

import (
	"context"
	"fmt"
	"location-tracker-service/internal/adapters/repositories"
	"location-tracker-service/internal/platform/config"
	"location-tracker-service/internal/platform/db"
	"location-tracker-service/internal/platform/logging"
	"location-tracker-service/internal/ports"
	"time"
)

// openStore connects the configured backend. When it cannot be reached the
// service keeps running on the in-memory store.
func openStore(ctx context.Context, cfg config.StorageConfig) ports.Store {
	store, err := connectStore(ctx, cfg)
	if err != nil {
		logging.Warn().Err(err).Str("backend", cfg.Backend).Msg("storage unavailable, falling back to in-memory store")
		return repositories.NewMemoryStore()
	}

	logging.Info().Str("backend", store.Backend()).Msg("storage ready")
	return store
}

func connectStore(ctx context.Context, cfg config.StorageConfig) (ports.Store, error) {
	switch cfg.Backend {
	case "sqlite":
		conn, err := db.OpenSqlite(cfg.SqlitePath)
		if err != nil {
			return nil, err
		}
		if err := repositories.InitSchema(conn); err != nil {
			conn.Close()
			return nil, err
		}
		return repositories.NewSqliteStore(conn), nil

	case "postgres":
		conn, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := repositories.InitPostgresSchema(conn); err != nil {
			conn.Close()
			return nil, err
		}
		return repositories.NewPostgresStore(conn), nil

	case "mongo":
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return repositories.OpenMongoStore(ctx, cfg.MongoURI, cfg.MongoDB)

	case "memory":
		return repositories.NewMemoryStore(), nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
