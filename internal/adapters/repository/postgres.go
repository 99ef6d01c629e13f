package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/okian/spacedash/internal/domain/model"
	"github.com/okian/spacedash/pkg/metrics"

	_ "github.com/lib/pq" // postgres driver
)

const (
	schemaSQL = `CREATE TABLE IF NOT EXISTS space_data (
	id SERIAL PRIMARY KEY,
	source VARCHAR(50),
	data JSONB,
	fetched_at TIMESTAMPTZ
)`
	insertSQL = `INSERT INTO space_data (source, data, fetched_at) VALUES ($1, $2, $3) RETURNING id`
	latestSQL = `SELECT id, source, data, fetched_at FROM space_data ORDER BY fetched_at DESC LIMIT $1`
)

// Recorder receives store operation metrics.
type Recorder interface {
	RecordStoreOperation(operation string, err error, latencyMs float64)
}

// PostgresStore implements Store on a space_data table.
type PostgresStore struct {
	db       *sql.DB
	recorder Recorder

	maxOpenConns    int
	maxIdleConns    int
	connMaxLifetime time.Duration
}

// Open connects to dsn with the lib/pq driver and verifies the connection.
func Open(ctx context.Context, dsn string, opts ...Option) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open postgres: %w", ErrStore, err)
	}
	s := NewPostgresStore(db, opts...)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping postgres: %w", ErrStore, err)
	}
	return s, nil
}

// NewPostgresStore wraps an existing handle.
func NewPostgresStore(db *sql.DB, opts ...Option) *PostgresStore {
	s := &PostgresStore{
		db:              db,
		recorder:        metrics.Default(),
		maxOpenConns:    defaultMaxOpenConns,
		maxIdleConns:    defaultMaxIdleConns,
		connMaxLifetime: defaultConnMaxLifetime,
	}
	for _, opt := range opts {
		opt(s)
	}
	db.SetMaxOpenConns(s.maxOpenConns)
	db.SetMaxIdleConns(s.maxIdleConns)
	db.SetConnMaxLifetime(s.connMaxLifetime)
	return s
}

// EnsureSchema creates the space_data table if needed.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	start := time.Now()
	_, err := s.db.ExecContext(ctx, schemaSQL)
	s.observe("ensure_schema", err, start)
	if err != nil {
		return fmt.Errorf("%w: ensure schema: %w", ErrStore, err)
	}
	return nil
}

// Insert stores rec and returns it with the generated id.
func (s *PostgresStore) Insert(ctx context.Context, rec model.Record) (model.Record, error) {
	start := time.Now()
	var id int64
	err := s.db.QueryRowContext(ctx, insertSQL, rec.Source, string(rec.Data), rec.FetchedAt).Scan(&id)
	s.observe("insert", err, start)
	if err != nil {
		return model.Record{}, fmt.Errorf("%w: insert: %w", ErrStore, err)
	}
	rec.ID = id
	return rec, nil
}

// Latest returns the newest records first.
func (s *PostgresStore) Latest(ctx context.Context, limit int) ([]model.Record, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}

	start := time.Now()
	records, err := s.latest(ctx, limit)
	s.observe("latest", err, start)
	if err != nil {
		return nil, fmt.Errorf("%w: latest: %w", ErrStore, err)
	}
	return records, nil
}

func (s *PostgresStore) latest(ctx context.Context, limit int) ([]model.Record, error) {
	rows, err := s.db.QueryContext(ctx, latestSQL, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	records := make([]model.Record, 0, limit)
	for rows.Next() {
		var (
			rec       model.Record
			source    sql.NullString
			data      []byte
			fetchedAt sql.NullTime
		)
		if err := rows.Scan(&rec.ID, &source, &data, &fetchedAt); err != nil {
			return nil, err
		}
		rec.Source = source.String
		rec.Data = json.RawMessage("null")
		if len(data) > 0 {
			rec.Data = json.RawMessage(data)
		}
		if fetchedAt.Valid {
			rec.FetchedAt = fetchedAt.Time.UTC()
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the database handle.
func (s *PostgresStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *PostgresStore) observe(op string, err error, start time.Time) {
	s.recorder.RecordStoreOperation(op, err, float64(time.Since(start).Microseconds())/1000)
}
