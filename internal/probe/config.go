// Package probe drives concurrent requests at a running gateway and checks
// that the proxy route never fails: every answer must be a 200 carrying
// either the upstream document or a well-formed stub.
package probe

import (
	"encoding/json"
	"time"
)

// Config holds configuration for a probe run.
type Config struct {
	BaseURL  string        // Base URL of the gateway
	Requests int           // Number of proxy requests to send
	Workers  int           // Number of concurrent workers
	Timeout  time.Duration // Per-request HTTP timeout
	Verbose  bool          // Log every response
}

// Result classifies one proxy response.
type Result string

// Result values.
const (
	ResultProxied Result = "proxied"
	ResultStub    Result = "stub"
	ResultFailed  Result = "failed"
)

// stubRecord mirrors the stub the gateway substitutes for upstream failures.
type stubRecord struct {
	ID        *int            `json:"id"`
	Source    string          `json:"source"`
	Data      json.RawMessage `json:"data"`
	FetchedAt string          `json:"fetched_at"`
}

// Stats holds run statistics.
type Stats struct {
	Sent      int
	Proxied   int
	Stubbed   int
	Failed    int
	Failures  []string
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}
