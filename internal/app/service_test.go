package service_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/spacedash/internal/adapters/upstream"
	service "github.com/okian/spacedash/internal/app"
	"github.com/okian/spacedash/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type fetchFunc func(ctx context.Context) (json.RawMessage, error)

func (f fetchFunc) Fetch(ctx context.Context) (json.RawMessage, error) { return f(ctx) }

type fakeRecorder struct {
	mu       sync.Mutex
	outcomes []string
	stubs    []string
}

func (r *fakeRecorder) RecordUpstreamCall(outcome string, _ float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func (r *fakeRecorder) RecordStubResponse(source, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stubs = append(r.stubs, source+"/"+reason)
}

type stubRow struct {
	ID     int    `json:"id"`
	Source string `json:"source"`
	Data   struct {
		Error string `json:"error"`
	} `json:"data"`
	FetchedAt string `json:"fetched_at"`
}

func decodeStub(raw json.RawMessage) []stubRow {
	var rows []stubRow
	So(json.Unmarshal(raw, &rows), ShouldBeNil)
	return rows
}

func TestNewGateway(t *testing.T) {
	Convey("Given a nil fetcher", t, func() {
		g, err := service.NewGateway(nil)

		Convey("Then construction should fail", func() {
			So(err, ShouldNotBeNil)
			So(g, ShouldBeNil)
		})
	})
}

func TestGateway_GetProxiedData(t *testing.T) {
	Convey("Given a gateway with a fake fetcher", t, func() {
		ctx := context.Background()
		rec := &fakeRecorder{}
		var logBuf bytes.Buffer
		fixed := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

		Convey("When the upstream succeeds", func() {
			g, err := service.NewGateway(
				fetchFunc(func(context.Context) (json.RawMessage, error) {
					return json.RawMessage(`{"x":1}`), nil
				}),
				service.WithRecorder(rec),
				service.WithLogger(logger.New(&logBuf)),
			)
			So(err, ShouldBeNil)

			body := g.GetProxiedData(ctx)

			Convey("Then the body should pass through unchanged", func() {
				So(string(body), ShouldEqual, `{"x":1}`)
				So(rec.outcomes, ShouldResemble, []string{"ok"})
				So(rec.stubs, ShouldBeEmpty)
				So(logBuf.Len(), ShouldEqual, 0)
				So(g.GetStats()["proxied"], ShouldEqual, int64(1))
			})
		})

		Convey("When the upstream fails with a categorised error", func() {
			g, _ := service.NewGateway(
				fetchFunc(func(context.Context) (json.RawMessage, error) {
					return nil, &upstream.UnavailableError{Kind: upstream.KindBadStatus, StatusCode: 502, Detail: "upstream returned 502 Bad Gateway"}
				}),
				service.WithRecorder(rec),
				service.WithLogger(logger.New(&logBuf)),
				service.WithClock(func() time.Time { return fixed }),
			)

			body := g.GetProxiedData(ctx)

			Convey("Then a single stub record should be returned", func() {
				rows := decodeStub(body)
				So(len(rows), ShouldEqual, 1)
				So(rows[0].ID, ShouldEqual, 0)
				So(rows[0].Source, ShouldEqual, "frontend_stub")
				So(rows[0].Data.Error, ShouldContainSubstring, "bad_status")
				So(rows[0].Data.Error, ShouldContainSubstring, "502")
				So(rows[0].FetchedAt, ShouldEqual, "2026-10-18T09:00:00Z")
			})

			Convey("And the failure should be logged once and counted", func() {
				So(bytes.Count(logBuf.Bytes(), []byte("upstream unavailable, serving stub")), ShouldEqual, 1)
				So(logBuf.String(), ShouldContainSubstring, "kind=bad_status")
				So(rec.outcomes, ShouldResemble, []string{"bad_status"})
				So(rec.stubs, ShouldResemble, []string{"frontend_stub/bad_status"})

				stats := g.GetStats()
				So(stats["stubbed"], ShouldEqual, int64(1))
				So(stats, ShouldContainKey, "lastFailure")
			})
		})

		Convey("When the failure wraps a cause naming the upstream host", func() {
			cause := errors.New(`Get "http://secret-backend.invalid:3000/api/data": dial tcp: lookup secret-backend.invalid: no such host`)
			g, _ := service.NewGateway(
				fetchFunc(func(context.Context) (json.RawMessage, error) {
					return nil, &upstream.UnavailableError{Kind: upstream.KindConnection, Detail: "host lookup failed", Err: cause}
				}),
				service.WithRecorder(rec),
				service.WithLogger(logger.New(&logBuf)),
			)

			rows := decodeStub(g.GetProxiedData(ctx))

			Convey("Then the stub should not expose the host", func() {
				So(rows[0].Data.Error, ShouldEqual, "upstream unavailable: connection: host lookup failed")
				So(rows[0].Data.Error, ShouldNotContainSubstring, "secret-backend")
			})

			Convey("And the log line should keep the cause", func() {
				So(logBuf.String(), ShouldContainSubstring, "cause=")
				So(logBuf.String(), ShouldContainSubstring, "secret-backend.invalid")
			})
		})

		Convey("When the fetcher returns an uncategorised error", func() {
			g, _ := service.NewGateway(
				fetchFunc(func(context.Context) (json.RawMessage, error) {
					return nil, errors.New("something odd")
				}),
				service.WithRecorder(rec),
			)

			rows := decodeStub(g.GetProxiedData(ctx))

			Convey("Then the stub should still be served with a generic prefix", func() {
				So(rows[0].Data.Error, ShouldEqual, "upstream unavailable: something odd")
				So(rec.outcomes, ShouldResemble, []string{"unknown"})
			})
		})
	})
}
