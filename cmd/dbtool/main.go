package main

import (
	"context"
	"location-tracker-service/internal/adapters/repositories"
	"location-tracker-service/internal/platform/config"
	"location-tracker-service/internal/platform/db"
	"location-tracker-service/internal/platform/logging"
	"time"
)

// dbtool creates the schema for the configured storage backend.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("load config")
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	logging.Info().Str("backend", cfg.Storage.Backend).Msg("initializing database schema")

	switch cfg.Storage.Backend {
	case "sqlite":
		conn, err := db.OpenSqlite(cfg.Storage.SqlitePath)
		if err != nil {
			logging.Fatal().Err(err).Msg("open sqlite")
		}
		defer conn.Close()
		if err := repositories.InitSchema(conn); err != nil {
			logging.Fatal().Err(err).Msg("schema initialization failed")
		}

	case "postgres":
		conn, err := db.Open(cfg.Storage.DatabaseURL)
		if err != nil {
			logging.Fatal().Err(err).Msg("open postgres")
		}
		defer conn.Close()
		if err := repositories.InitPostgresSchema(conn); err != nil {
			logging.Fatal().Err(err).Msg("schema initialization failed")
		}

	case "mongo":
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		// Opening the store creates its indexes.
		store, err := repositories.OpenMongoStore(ctx, cfg.Storage.MongoURI, cfg.Storage.MongoDB)
		if err != nil {
			logging.Fatal().Err(err).Msg("open mongo")
		}
		defer store.Close()

	case "memory":
		logging.Info().Msg("memory backend has no schema")
		return
	}

	logging.Info().Msg("schema ready")
}
