// Command server runs the collision alerts HTTP API.
//
// @title        Collision Alerts API
// @version      1.0
// @description  Satellite operators report, cancel and query collision-risk messages.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-collision-alerts/internal/config"
	httpapi "github.com/tbourn/go-collision-alerts/internal/http"
	"github.com/tbourn/go-collision-alerts/internal/observability"
	"github.com/tbourn/go-collision-alerts/internal/repo"
	"github.com/tbourn/go-collision-alerts/internal/sysutil"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	sysutil.SetupLogger(os.Stdout, cfg.LogLevel, cfg.OTEL.ServiceName, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

// run wires the process and blocks until ctx is done or the listener fails.
func run(ctx context.Context, cfg config.Config) error {
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, sysutil.FirstNonEmpty(os.Getenv("SERVICE_VERSION"), version))
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	store, idem, closeStore, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Warn().Err(err).Msg("close store")
		}
	}()

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, store, idem, cfg)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("db_driver", cfg.DBDriver).
			Str("base_path", cfg.APIBasePath).
			Float64("alert_min_probability", cfg.AlertMinProbability).
			Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Dur("timeout", cfg.ShutdownTimeout).Msg("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// openStore builds the record store selected by cfg.DBDriver. The memory
// driver has no idempotency store; replays are disabled there.
func openStore(cfg config.Config) (repo.CollisionStore, *repo.IdempotencyStore, func() error, error) {
	if cfg.DBDriver == repo.DriverMemory {
		log.Warn().Msg("using in-memory store; records are lost on restart")
		return repo.NewMemoryStore(), nil, func() error { return nil }, nil
	}

	db, err := repo.Open(cfg.DBDriver, cfg.DBPath, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := observability.InstrumentDB(db); err != nil {
		_ = repo.Close(db)
		return nil, nil, nil, fmt.Errorf("instrument db: %w", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		_ = repo.Close(db)
		return nil, nil, nil, fmt.Errorf("migrate: %w", err)
	}
	idem := &repo.IdempotencyStore{DB: db, TTL: cfg.IdempotencyTTL}
	return repo.NewGormStore(db), idem, func() error { return repo.Close(db) }, nil
}
