package probe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/spacedash/pkg/logger"
)

const (
	workerChannelMultiplier = 2
	maxRecordedFailures     = 10
	percentageMultiplier    = 100
)

// ErrProbeFailed is returned when any proxy response broke the contract.
var ErrProbeFailed = errors.New("probe failed")

// Run executes a complete probe against cfg.BaseURL.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	if cfg.Requests <= 0 || cfg.Workers <= 0 {
		return nil, fmt.Errorf("requests and workers must be positive")
	}
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get()

	log.Info(ctx, "starting gateway probe",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("requests", cfg.Requests),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout),
	)

	if err := checkHealth(ctx, cfg); err != nil {
		return nil, fmt.Errorf("gateway health check failed: %w", err)
	}

	sendRequests(ctx, cfg, stats)

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if stats.Failed > 0 {
		return stats, fmt.Errorf("%w: %d of %d responses broke the contract", ErrProbeFailed, stats.Failed, stats.Sent)
	}
	return stats, nil
}

func checkHealth(ctx context.Context, cfg *Config) error {
	status, _, err := newHTTPClient(cfg.Timeout).Get(ctx, cfg.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to gateway: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("unexpected status %d", status)
	}
	return nil
}

func displayFinalStats(ctx context.Context, stats *Stats) {
	var stubRate, requestsPerSecond float64
	if stats.Sent > 0 {
		stubRate = float64(stats.Stubbed) / float64(stats.Sent) * percentageMultiplier
	}
	if stats.Duration > 0 {
		requestsPerSecond = float64(stats.Sent) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("sent", stats.Sent),
		logger.Int("proxied", stats.Proxied),
		logger.Int("stubbed", stats.Stubbed),
		logger.Int("failed", stats.Failed),
		logger.Any("stubRatePct", stubRate),
		logger.Any("requestsPerSecond", requestsPerSecond),
		logger.Duration("duration", stats.Duration),
	)
	for _, f := range stats.Failures {
		logger.Get().Warn(ctx, "contract violation", logger.String("detail", f))
	}
}
