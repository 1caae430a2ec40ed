package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/diewo77/uds-rfq/auth"
	"github.com/diewo77/uds-rfq/internal/config"
	"github.com/diewo77/uds-rfq/internal/db"
	"github.com/diewo77/uds-rfq/internal/events"
	"github.com/diewo77/uds-rfq/internal/policy"
	"github.com/diewo77/uds-rfq/internal/services"
	"github.com/diewo77/uds-rfq/internal/telemetry"
	"github.com/joho/godotenv"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	seedOnlyFlag    = flag.Bool("seed-only", false, "Run DB seed and exit")
)

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading configuration", "error", err)
		os.Exit(1)
	}
	logger := newLogger(cfg.App)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func newLogger(app config.AppConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(app.LogLevel))); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if app.Dev {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func run(cfg *config.Config, logger *slog.Logger) error {
	dbConn, err := db.Open(cfg.Database)
	if err != nil {
		return err
	}

	if *migrateOnlyFlag {
		if err := db.Migrate(dbConn, cfg.Database, true); err != nil {
			return err
		}
		slog.Info("migrations completed successfully")
		return nil
	}
	if *seedOnlyFlag {
		if err := db.Seed(dbConn); err != nil {
			return err
		}
		slog.Info("seeding completed successfully")
		return nil
	}

	if err := db.Migrate(dbConn, cfg.Database, cfg.App.Migrations); err != nil {
		return err
	}
	if cfg.App.Seed {
		if err := db.Seed(dbConn); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider, err := telemetry.Setup(ctx, cfg.Telemetry.Exporter)
	if err != nil {
		return err
	}
	metrics, err := telemetry.NewMetrics(provider.Meter("uds-rfq"))
	if err != nil {
		return err
	}

	auth.TrustUserHeader(cfg.Server.TrustUserHeader)
	hub := events.NewHub()
	svc := services.New(dbConn,
		services.WithPublisher(hub),
		services.WithMetrics(metrics),
		services.WithLogger(logger),
	)

	appHandler := NewApp(AppDeps{
		DB:        dbConn,
		RouterCfg: policy.NewRouterConfig(svc),
		Hub:       hub,
		Metrics:   metrics,
		Provider:  provider,
		Dev:       cfg.App.Dev,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      appHandler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}
	servers := []*http.Server{srv}
	if cfg.Telemetry.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", provider.Handler())
		servers = append(servers, &http.Server{Addr: cfg.Telemetry.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second})
	}

	errCh := make(chan error, len(servers))
	for _, s := range servers {
		go func() {
			slog.Info("listening", "addr", s.Addr, "dev", cfg.App.Dev)
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err := <-errCh:
		slog.Error("server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, s := range servers {
		if err := s.Shutdown(shutdownCtx); err != nil {
			slog.Warn("error during shutdown", "addr", s.Addr, "error", err)
		}
	}
	if err := provider.Shutdown(shutdownCtx); err != nil {
		slog.Warn("metrics shutdown", "error", err)
	}
	slog.Info("server stopped gracefully")
	return nil
}
