package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/spacedash/internal/adapters/repository"
	"github.com/okian/spacedash/internal/config"
	"github.com/okian/spacedash/pkg/logger"
	"github.com/okian/spacedash/pkg/metrics"
)

func newMockBackend(t *testing.T, limit int) (http.Handler, sqlmock.Sqlmock) {
	t.Helper()
	metrics.Init(metrics.WithSubsystem(metricsSubsystem))
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	store := repository.NewPostgresStore(db)
	t.Cleanup(func() { _ = store.Close() })

	cfg := config.New()
	cfg.BackendRecordLimit = limit
	handler, err := newBackendRouter(context.Background(), store, cfg, logger.Nop())
	require.NoError(t, err)
	return handler, mock
}

func TestBackendData(t *testing.T) {
	handler, mock := newMockBackend(t, 5)
	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO space_data")).
		WithArgs("nasa_stub", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, source, data, fetched_at FROM space_data")).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "source", "data", "fetched_at"}).
			AddRow(int64(11), "nasa_stub", []byte(`{"fuel_level":88}`), at))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/data", http.NoBody))

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, 11.0, got[0]["id"])
	assert.Equal(t, "nasa_stub", got[0]["source"])
	assert.Equal(t, "2024-03-01T09:30:00Z", got[0]["fetched_at"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBackendDataStoreDown(t *testing.T) {
	handler, mock := newMockBackend(t, 10)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO space_data")).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, source, data, fetched_at FROM space_data")).
		WillReturnError(errors.New("connection reset"))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/data", http.NoBody))

	require.Equal(t, http.StatusOK, w.Code)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, 0.0, got[0]["id"])
	assert.Equal(t, "offline_stub", got[0]["source"])
	data, ok := got[0]["data"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, data, "iss_position")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBackendHealthAndMetrics(t *testing.T) {
	handler, _ := newMockBackend(t, 10)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `spacedash_backend_http_requests_total{endpoint="health"`)
	assert.NotContains(t, w.Body.String(), "spacedash_gateway_")
}
