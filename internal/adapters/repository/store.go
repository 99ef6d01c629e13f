// Package repository defines the telemetry record store interface and its
// Postgres implementation.
package repository

import (
	"context"

	"github.com/okian/spacedash/internal/domain/model"
)

// Store provides read/write access to persisted telemetry records.
type Store interface {
	// EnsureSchema creates the backing table if it does not exist.
	EnsureSchema(ctx context.Context) error

	// Insert persists a record and returns it with its assigned id.
	Insert(ctx context.Context, rec model.Record) (model.Record, error)

	// Latest returns up to limit records ordered by fetched_at desc.
	Latest(ctx context.Context, limit int) ([]model.Record, error)

	// Close releases the underlying resources.
	Close() error
}
