// Package model contains domain models passed between layers.
package model

import (
	"encoding/json"
	"time"
)

// Source values that mark a record as synthetic.
const (
	// SourceFrontendStub marks a record the gateway built because the upstream failed.
	SourceFrontendStub = "frontend_stub"
	// SourceOfflineStub marks a record the backend built because its store failed.
	SourceOfflineStub = "offline_stub"
	// SourceNASAStub marks a generated telemetry sample persisted by the backend.
	SourceNASAStub = "nasa_stub"
)

// Record is one row served by the telemetry backend at /api/data.
type Record struct {
	ID        int64           `json:"id"`
	Source    string          `json:"source"`
	Data      json.RawMessage `json:"data"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// StubData is the payload of a stub record.
type StubData struct {
	Error string `json:"error"`
}

// StubRecord is the fallback value the gateway returns when the upstream is
// unavailable. ID is always 0 and Source is always SourceFrontendStub.
type StubRecord struct {
	ID        int       `json:"id"`
	Source    string    `json:"source"`
	Data      StubData  `json:"data"`
	FetchedAt time.Time `json:"fetched_at"`
}

// BuildStub returns a fresh stub stamped with the current time.
func BuildStub(reason string) StubRecord {
	return BuildStubAt(reason, time.Now())
}

// BuildStubAt returns a stub stamped with now (in UTC).
func BuildStubAt(reason string, now time.Time) StubRecord {
	if reason == "" {
		reason = "upstream unavailable"
	}
	return StubRecord{
		ID:        0,
		Source:    SourceFrontendStub,
		Data:      StubData{Error: reason},
		FetchedAt: now.UTC(),
	}
}

// StubPayload is the client-visible body for a failed upstream call: a
// single-element JSON array holding the stub.
func StubPayload(stub StubRecord) json.RawMessage {
	b, err := json.Marshal([]StubRecord{stub})
	if err != nil {
		// StubRecord only holds strings, ints and a time; Marshal cannot fail
		// unless the time is out of range.
		return json.RawMessage(`[{"id":0,"source":"frontend_stub","data":{"error":"upstream unavailable"},"fetched_at":"1970-01-01T00:00:00Z"}]`)
	}
	return b
}
