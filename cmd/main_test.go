package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/spacedash/internal/config"
	"github.com/okian/spacedash/pkg/logger"
)

func newTestConfig(upstreamURL string) *config.Config {
	cfg := config.New()
	cfg.UpstreamURL = upstreamURL
	cfg.UpstreamTimeoutMS = 500
	return cfg
}

func TestGatewayRouter(t *testing.T) {
	convey.Convey("Given a gateway wired to a healthy upstream", t, func() {
		upstreamSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/data" {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"id":1,"source":"nasa_stub","data":{},"fetched_at":"2024-01-01T00:00:00Z"}]`))
		}))
		defer upstreamSrv.Close()

		ctx := context.Background()
		handler, gw, err := newGatewayRouter(ctx, newTestConfig(upstreamSrv.URL), logger.Nop())
		convey.So(err, convey.ShouldBeNil)
		convey.So(gw, convey.ShouldNotBeNil)

		convey.Convey("When requesting the proxy route", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/proxy/data", http.NoBody)
			req.Header.Set("X-Request-ID", "trace-1")
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			convey.Convey("Then the upstream body should be passed through", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Header().Get("X-Request-ID"), convey.ShouldEqual, "trace-1")
				convey.So(w.Body.String(), convey.ShouldEqual, `[{"id":1,"source":"nasa_stub","data":{},"fetched_at":"2024-01-01T00:00:00Z"}]`)
				convey.So(gw.GetStats()["proxied"], convey.ShouldEqual, int64(1))
			})
		})

		convey.Convey("When requesting the dashboard", func() {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

			convey.Convey("Then the page should carry the configured title", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Body.String(), convey.ShouldContainSubstring, "<title>Space Dashboard</title>")
			})
		})

		convey.Convey("When requesting the API docs", func() {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openapi.yaml", http.NoBody))

			convey.Convey("Then the OpenAPI document should be served", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			})
		})
	})

	convey.Convey("Given a gateway whose upstream is down", t, func() {
		dead := httptest.NewServer(http.NotFoundHandler())
		deadURL := dead.URL
		dead.Close()

		handler, _, err := newGatewayRouter(context.Background(), newTestConfig(deadURL), logger.Nop())
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When requesting the proxy route", func() {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/proxy/data", http.NoBody))

			convey.Convey("Then a single stub record should be returned with 200", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)

				var got []map[string]any
				convey.So(json.Unmarshal(w.Body.Bytes(), &got), convey.ShouldBeNil)
				convey.So(len(got), convey.ShouldEqual, 1)
				convey.So(got[0]["id"], convey.ShouldEqual, 0.0)
				convey.So(got[0]["source"], convey.ShouldEqual, "frontend_stub")
				data, ok := got[0]["data"].(map[string]any)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(data["error"], convey.ShouldStartWith, "upstream unavailable")
			})
		})
	})
}

func TestGatewayRouterAlways200(t *testing.T) {
	convey.Convey("Given a gateway in front of a misbehaving upstream", t, func() {
		cases := []struct {
			name    string
			handler http.HandlerFunc
			kind    string
		}{
			{
				name: "an internal server error",
				handler: func(w http.ResponseWriter, _ *http.Request) {
					http.Error(w, "boom", http.StatusInternalServerError)
				},
				kind: "bad_status",
			},
			{
				name: "a non-JSON body",
				handler: func(w http.ResponseWriter, _ *http.Request) {
					_, _ = w.Write([]byte("<html>maintenance</html>"))
				},
				kind: "bad_body",
			},
			{
				name: "no answer within the timeout",
				handler: func(_ http.ResponseWriter, r *http.Request) {
					select {
					case <-r.Context().Done():
					case <-time.After(3 * time.Second):
					}
				},
				kind: "timeout",
			},
		}

		for _, tc := range cases {
			convey.Convey("When the upstream answers with "+tc.name, func() {
				upstreamSrv := httptest.NewServer(tc.handler)
				defer upstreamSrv.Close()

				handler, _, err := newGatewayRouter(context.Background(), newTestConfig(upstreamSrv.URL), logger.Nop())
				convey.So(err, convey.ShouldBeNil)

				start := time.Now()
				w := httptest.NewRecorder()
				handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/proxy/data", http.NoBody))
				elapsed := time.Since(start)

				convey.Convey("Then the route should still answer 200 with a stub", func() {
					convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
					convey.So(w.Header().Get("Content-Type"), convey.ShouldStartWith, "application/json")
					convey.So(elapsed, convey.ShouldBeLessThan, 2*time.Second)

					var got []map[string]any
					convey.So(json.Unmarshal(w.Body.Bytes(), &got), convey.ShouldBeNil)
					convey.So(len(got), convey.ShouldEqual, 1)
					convey.So(got[0]["source"], convey.ShouldEqual, "frontend_stub")
					data, ok := got[0]["data"].(map[string]any)
					convey.So(ok, convey.ShouldBeTrue)
					convey.So(data["error"], convey.ShouldStartWith, "upstream unavailable: "+tc.kind)
					convey.So(data["error"], convey.ShouldNotContainSubstring, upstreamSrv.URL)
				})
			})
		}
	})
}

func TestGatewayRouterInvalidUpstream(t *testing.T) {
	convey.Convey("Given an upstream URL the client rejects", t, func() {
		_, _, err := newGatewayRouter(context.Background(), newTestConfig("://bad"), logger.Nop())

		convey.Convey("Then building the router should fail", func() {
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}
