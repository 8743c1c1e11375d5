package main

import (
	"context"
	"errors"
	"location-tracker-service/internal/adapters/cache"
	"location-tracker-service/internal/adapters/tiles"
	"location-tracker-service/internal/api"
	"location-tracker-service/internal/coordinate"
	"location-tracker-service/internal/platform/config"
	"location-tracker-service/internal/platform/logging"
	"location-tracker-service/internal/ports"
	"location-tracker-service/internal/realtime"
	"location-tracker-service/internal/services"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
)

// main is the application composition root.
// It wires concrete adapters (storage, Redis, tile prober) behind ports and starts the HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("load config")
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := openStore(ctx, cfg.Storage)
	defer store.Close()

	var locationCache ports.LocationCache
	if cfg.Redis.Addr != "" {
		client, err := cache.Dial(ctx, cfg.Redis.Addr)
		if err != nil {
			logging.Warn().Err(err).Msg("redis unavailable, running without location cache")
		} else {
			defer client.Close()
			locationCache = cache.NewRedisLocationCache(client, cfg.Redis.TTL)
			logging.Info().Str("addr", cfg.Redis.Addr).Msg("location cache ready")
		}
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		// Tokens will not survive a restart.
		secret = uuid.NewString() + uuid.NewString()
		logging.Warn().Msg("auth.jwt_secret not set, using a random per-process secret")
	}

	hub := realtime.NewHub()
	hubCtx, stopHub := context.WithCancel(context.Background())
	go hub.Run(hubCtx)

	accounts := services.NewAccountService(store, services.AccountOptions{
		JWTSecret: secret,
		TokenTTL:  cfg.Auth.TokenTTL,
	})
	locations := services.NewLocationService(store, store, locationCache, hub)
	tileSvc := services.NewTileService(
		tiles.NewHTTPTileProber(tiles.Options{Timeout: cfg.Tiles.Timeout}),
		cfg.Tiles.Concurrency,
		map[coordinate.MapSource]string{coordinate.Tianditu: cfg.Tiles.TiandituKey},
	)

	router := api.NewRouter(api.Dependencies{
		Accounts:      accounts,
		Locations:     locations,
		Tiles:         tileSvc,
		Hub:           hub,
		Backend:       store.Backend(),
		StaticDir:     cfg.Server.StaticDir,
		AuthRateLimit: cfg.Server.AuthRateLimit,
	})

	// No WriteTimeout: /ws connections are long-lived and the probe
	// endpoint is bounded by the tile timeout.
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", srv.Addr).Str("backend", store.Backend()).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logging.Error().Err(err).Msg("server failed")
		}
	case <-ctx.Done():
		logging.Info().Msg("shutting down")
	}

	stopHub()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("graceful shutdown failed")
	}
}
