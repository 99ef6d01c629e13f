// Package service provides the gateway and telemetry services that implement
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/okian/spacedash/internal/adapters/upstream"
	"github.com/okian/spacedash/internal/domain/model"
	"github.com/okian/spacedash/pkg/logger"
	"github.com/okian/spacedash/pkg/metrics"
)

// Fetcher retrieves the upstream data document. Implementations return
// upstream.ErrUpstreamUnavailable-compatible errors on failure.
type Fetcher interface {
	Fetch(ctx context.Context) (json.RawMessage, error)
}

// Recorder receives gateway metrics.
type Recorder interface {
	RecordUpstreamCall(outcome string, latencyMs float64)
	RecordStubResponse(source, reason string)
}

// failure is the last upstream failure observed, kept for /stats.
type failure struct {
	Kind   string    `json:"kind"`
	Reason string    `json:"reason"`
	At     time.Time `json:"at"`
}

// Gateway proxies the upstream data document and substitutes a stub when the
// upstream is unavailable. Calls share no mutable state beyond counters.
type Gateway struct {
	fetcher  Fetcher
	logger   logger.Logger
	recorder Recorder
	now      func() time.Time

	proxied     atomic.Int64
	stubbed     atomic.Int64
	lastFailure atomic.Pointer[failure]
}

// Option applies a configuration option to the Gateway.
type Option func(*Gateway)

// WithLogger sets a custom logger for the gateway.
func WithLogger(l logger.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(g *Gateway) {
		if r != nil {
			g.recorder = r
		}
	}
}

// WithClock sets the time source used to stamp stubs.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGateway constructs a Gateway around fetcher.
func NewGateway(fetcher Fetcher, opts ...Option) (*Gateway, error) {
	if fetcher == nil {
		return nil, errors.New("gateway: fetcher is nil")
	}
	g := &Gateway{
		fetcher:  fetcher,
		logger:   logger.Nop(),
		recorder: metrics.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// GetProxiedData returns the upstream body unmodified, or a one-element
// array holding a stub record if the upstream call failed. It never fails.
func (g *Gateway) GetProxiedData(ctx context.Context) json.RawMessage {
	start := g.now()
	body, err := g.fetcher.Fetch(ctx)
	latencyMs := float64(g.now().Sub(start).Microseconds()) / 1000

	if err == nil {
		g.proxied.Add(1)
		g.recorder.RecordUpstreamCall("ok", latencyMs)
		return body
	}

	kind := string(upstream.KindOf(err))
	if kind == "" {
		kind = "unknown"
	}
	reason := err.Error()
	if !errors.Is(err, upstream.ErrUpstreamUnavailable) {
		reason = upstream.ErrUpstreamUnavailable.Error() + ": " + reason
	}

	stub := model.BuildStubAt(reason, g.now())
	g.stubbed.Add(1)
	g.lastFailure.Store(&failure{Kind: kind, Reason: reason, At: stub.FetchedAt})
	g.recorder.RecordUpstreamCall(kind, latencyMs)
	g.recorder.RecordStubResponse(model.SourceFrontendStub, kind)

	fields := []logger.Field{
		logger.String("kind", kind),
		logger.String("reason", reason),
		logger.Duration("elapsed", time.Duration(latencyMs*float64(time.Millisecond))),
	}
	// The stub carries a sanitised reason; the underlying cause goes to the log only.
	if cause := errors.Unwrap(err); cause != nil {
		fields = append(fields, logger.String("cause", cause.Error()))
	}
	g.logger.Warn(ctx, "upstream unavailable, serving stub", fields...)

	return model.StubPayload(stub)
}

// GetStats returns gateway statistics for monitoring.
func (g *Gateway) GetStats() map[string]any {
	stats := map[string]any{
		"proxied": g.proxied.Load(),
		"stubbed": g.stubbed.Load(),
	}
	if f := g.lastFailure.Load(); f != nil {
		stats["lastFailure"] = *f
	}
	return stats
}
