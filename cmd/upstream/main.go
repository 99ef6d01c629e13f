// Command upstream runs the telemetry backend the gateway proxies: it records
// a generated ISS sample on every read and serves the latest records from
// Postgres.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/spacedash/internal/adapters/http/dataapi"
	"github.com/okian/spacedash/internal/adapters/http/middleware"
	"github.com/okian/spacedash/internal/adapters/repository"
	service "github.com/okian/spacedash/internal/app"
	"github.com/okian/spacedash/internal/config"
	"github.com/okian/spacedash/pkg/logger"
	"github.com/okian/spacedash/pkg/metrics"
)

const (
	readTimeout           = 10 * time.Second
	writeTimeout          = 10 * time.Second
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	connectTimeout        = 10 * time.Second
	systemMetricsInterval = 10 * time.Second

	metricsSubsystem = "backend"
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Named("backend")
	metrics.Init(metrics.WithSubsystem(metricsSubsystem))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Error(ctx, "failed to load config", logger.Error(err))
		os.Exit(1)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	connectCtx, cancelConnect := context.WithTimeout(ctx, connectTimeout)
	store, err := repository.Open(connectCtx, cfg.DatabaseURL)
	if err == nil {
		err = store.EnsureSchema(connectCtx)
	}
	cancelConnect()
	if err != nil {
		// The backend cannot serve anything useful without its table.
		log.Error(ctx, "failed to prepare database", logger.Error(err))
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error(context.Background(), "failed to close store", logger.Error(err))
		}
	}()

	handler, err := newBackendRouter(ctx, store, cfg, log)
	if err != nil {
		log.Error(ctx, "failed to build backend", logger.Error(err))
		return
	}

	go metrics.RunSystemUpdater(ctx, systemMetricsInterval)

	srv := &http.Server{
		Addr:              cfg.BackendAddr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.BackendAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(context.Background(), "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
	}
	log.Info(shutdownCtx, "server stopped")
}

// newBackendRouter wires the telemetry service over store into the backend routes.
func newBackendRouter(ctx context.Context, store repository.Store, cfg *config.Config, log logger.Logger) (http.Handler, error) {
	telemetry, err := service.NewTelemetry(store,
		service.WithTelemetryLogger(log),
		service.WithRecordLimit(cfg.BackendRecordLimit),
	)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.AccessLog(log))

	dataapi.NewHandler(telemetry).Register(ctx, r)
	r.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))

	return r, nil
}
