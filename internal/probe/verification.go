package probe

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const stubSource = "frontend_stub"

// Classify inspects a proxy response. Anything other than a 200 with a JSON
// body is a failure. A one-element array whose record is a frontend_stub must
// match the stub shape exactly.
func Classify(status int, body []byte) (Result, error) {
	if status != http.StatusOK {
		return ResultFailed, fmt.Errorf("unexpected status %d", status)
	}
	if !json.Valid(body) {
		return ResultFailed, fmt.Errorf("body is not valid JSON")
	}

	var records []stubRecord
	if err := json.Unmarshal(body, &records); err != nil || len(records) != 1 || records[0].Source != stubSource {
		return ResultProxied, nil
	}
	if err := checkStub(records[0]); err != nil {
		return ResultFailed, err
	}
	return ResultStub, nil
}

func checkStub(r stubRecord) error {
	if r.ID == nil || *r.ID != 0 {
		return fmt.Errorf("stub id must be 0")
	}
	var data struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(r.Data, &data); err != nil || data.Error == "" {
		return fmt.Errorf("stub data.error must be a non-empty string")
	}
	if _, err := time.Parse(time.RFC3339Nano, r.FetchedAt); err != nil {
		return fmt.Errorf("stub fetched_at is not RFC 3339: %w", err)
	}
	return nil
}
