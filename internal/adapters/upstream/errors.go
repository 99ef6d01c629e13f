package upstream

import (
	"errors"
	"fmt"
)

// ErrUpstreamUnavailable is the single failure category for upstream calls.
// Every error returned by Client.Fetch matches it with errors.Is.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// Kind narrows down why the upstream was unavailable.
type Kind string

// Failure kinds.
const (
	KindTimeout           Kind = "timeout"
	KindCanceled          Kind = "canceled"
	KindConnectionRefused Kind = "connection_refused"
	KindConnection        Kind = "connection"
	KindBadStatus         Kind = "bad_status"
	KindBadBody           Kind = "bad_body"
	KindRequest           Kind = "request"
)

// UnavailableError describes a failed upstream call.
type UnavailableError struct {
	Kind       Kind
	StatusCode int    // set for KindBadStatus
	Detail     string // human-readable description
	Err        error  // underlying cause, may be nil
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrUpstreamUnavailable, e.Kind, e.Detail)
}

// Is reports ErrUpstreamUnavailable as a match.
func (e *UnavailableError) Is(target error) bool {
	return target == ErrUpstreamUnavailable
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// KindOf extracts the failure kind from err, or "" if err is not an
// UnavailableError.
func KindOf(err error) Kind {
	var ue *UnavailableError
	if errors.As(err, &ue) {
		return ue.Kind
	}
	return ""
}
