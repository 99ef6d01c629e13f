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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/okian/spacedash/internal/adapters/http/api"
	"github.com/okian/spacedash/internal/adapters/http/middleware"
	"github.com/okian/spacedash/internal/adapters/http/site"
	"github.com/okian/spacedash/internal/adapters/http/swagger"
	"github.com/okian/spacedash/internal/adapters/upstream"
	service "github.com/okian/spacedash/internal/app"
	"github.com/okian/spacedash/internal/config"
	"github.com/okian/spacedash/pkg/logger"
	"github.com/okian/spacedash/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
	writeTimeoutSlack     = 5 * time.Second
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Named("gateway")

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		log.Error(ctx, "failed to load config", logger.Error(err))
		os.Exit(1)
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	handler, _, err := newGatewayRouter(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "failed to build gateway", logger.Error(err))
		os.Exit(1)
	}

	go metrics.RunSystemUpdater(ctx, systemMetricsInterval)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      cfg.UpstreamTimeout() + writeTimeoutSlack,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.String("upstream", cfg.UpstreamURL),
			logger.Duration("upstream_timeout", cfg.UpstreamTimeout()),
		)
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

// newGatewayRouter assembles the upstream client, the gateway service and
// every HTTP route the gateway serves.
func newGatewayRouter(ctx context.Context, cfg *config.Config, log logger.Logger) (http.Handler, *service.Gateway, error) {
	client, err := upstream.New(cfg.UpstreamURL,
		upstream.WithTimeout(cfg.UpstreamTimeout()),
		upstream.WithMaxBodyBytes(cfg.UpstreamMaxBodyBytes),
	)
	if err != nil {
		return nil, nil, err
	}

	gw, err := service.NewGateway(client, service.WithLogger(log))
	if err != nil {
		return nil, nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.AccessLog(log))

	if err := site.Register(ctx, r, cfg.DashboardTitle); err != nil {
		return nil, nil, err
	}
	swagger.Register(ctx, r)
	api.NewServer(gw, gw).Register(ctx, r)

	return r, gw, nil
}
