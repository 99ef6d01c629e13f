package service

import (
	"context"
	"errors"
	"time"

	"github.com/okian/spacedash/internal/adapters/repository"
	"github.com/okian/spacedash/internal/domain/model"
	"github.com/okian/spacedash/internal/domain/telemetry"
	"github.com/okian/spacedash/pkg/logger"
	"github.com/okian/spacedash/pkg/metrics"
)

const defaultRecordLimit = 10

// Telemetry serves the backend data document: it records a fresh sample on
// every read and returns the most recent records.
type Telemetry struct {
	store     repository.Store
	generator *telemetry.Generator
	logger    logger.Logger
	recorder  Recorder
	limit     int
	now       func() time.Time
}

// TelemetryOption applies a configuration option to Telemetry.
type TelemetryOption func(*Telemetry)

// WithTelemetryLogger sets the logger.
func WithTelemetryLogger(l logger.Logger) TelemetryOption {
	return func(t *Telemetry) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithRecordLimit sets how many records Latest returns.
func WithRecordLimit(n int) TelemetryOption {
	return func(t *Telemetry) {
		if n > 0 {
			t.limit = n
		}
	}
}

// WithGenerator replaces the sample generator.
func WithGenerator(g *telemetry.Generator) TelemetryOption {
	return func(t *Telemetry) {
		if g != nil {
			t.generator = g
		}
	}
}

// WithTelemetryClock sets the time source for record timestamps.
func WithTelemetryClock(now func() time.Time) TelemetryOption {
	return func(t *Telemetry) {
		if now != nil {
			t.now = now
		}
	}
}

// NewTelemetry constructs a Telemetry service over store.
func NewTelemetry(store repository.Store, opts ...TelemetryOption) (*Telemetry, error) {
	if store == nil {
		return nil, errors.New("telemetry: store is nil")
	}
	t := &Telemetry{
		store:     store,
		generator: telemetry.NewGenerator(),
		logger:    logger.Nop(),
		recorder:  metrics.Default(),
		limit:     defaultRecordLimit,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Latest generates and stores a sample, then returns the newest records.
// A failed insert is logged and ignored. A failed read yields a single
// offline_stub record carrying the fresh sample.
func (t *Telemetry) Latest(ctx context.Context) []model.Record {
	sample := t.generator.Next().JSON()
	now := t.now().UTC()

	if _, err := t.store.Insert(ctx, model.Record{
		Source:    model.SourceNASAStub,
		Data:      sample,
		FetchedAt: now,
	}); err != nil {
		t.logger.Warn(ctx, "failed to store telemetry sample", logger.Error(err))
	}

	records, err := t.store.Latest(ctx, t.limit)
	if err != nil {
		t.logger.Error(ctx, "failed to read telemetry records, serving offline stub", logger.Error(err))
		t.recorder.RecordStubResponse(model.SourceOfflineStub, "store_read")
		return []model.Record{{
			ID:        0,
			Source:    model.SourceOfflineStub,
			Data:      sample,
			FetchedAt: now,
		}}
	}
	return records
}
