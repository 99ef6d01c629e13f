// Package upstream calls the backend data service on behalf of the gateway.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/okian/spacedash/pkg/logger"
)

// RequestIDHeader carries the inbound request id to the upstream.
const RequestIDHeader = "X-Request-ID"

// Client fetches the upstream data document. It is safe for concurrent use
// and holds no per-call state.
type Client struct {
	endpoint     string
	path         string
	timeout      time.Duration
	maxBodyBytes int64
	httpClient   *http.Client
}

// New creates a client for baseURL, which must be an absolute http(s) URL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse upstream url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("upstream url must be absolute http(s), got %q", baseURL)
	}

	c := &Client{
		path:         DefaultPath,
		timeout:      DefaultTimeout,
		maxBodyBytes: DefaultMaxBodyBytes,
		httpClient:   &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}

	c.endpoint = strings.TrimRight(u.String(), "/") + "/" + strings.TrimLeft(c.path, "/")
	return c, nil
}

// Endpoint returns the full URL the client calls.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Timeout returns the per-call bound.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// Fetch issues one GET to the endpoint and returns the body if the upstream
// answered 2xx with valid JSON. Any other outcome is an *UnavailableError.
// Cancelling ctx aborts the call.
func (c *Client) Fetch(ctx context.Context) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, http.NoBody)
	if err != nil {
		return nil, &UnavailableError{Kind: KindRequest, Detail: "request could not be built", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if id := logger.RequestIDFromContext(ctx); id != "" {
		req.Header.Set(RequestIDHeader, id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.classify(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxBodyBytes))
		return nil, &UnavailableError{
			Kind:       KindBadStatus,
			StatusCode: resp.StatusCode,
			Detail:     "upstream returned " + resp.Status,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		return nil, c.classify(err)
	}
	if int64(len(body)) > c.maxBodyBytes {
		return nil, &UnavailableError{
			Kind:   KindBadBody,
			Detail: fmt.Sprintf("response body exceeds %d bytes", c.maxBodyBytes),
		}
	}
	if !json.Valid(body) {
		return nil, &UnavailableError{Kind: KindBadBody, Detail: "response body is not valid JSON"}
	}
	return json.RawMessage(body), nil
}

// classify maps a transport error onto a failure kind.
func (c *Client) classify(err error) *UnavailableError {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &UnavailableError{Kind: KindTimeout, Detail: fmt.Sprintf("no response within %s", c.timeout), Err: err}
	case errors.Is(err, context.Canceled):
		return &UnavailableError{Kind: KindCanceled, Detail: "request canceled by caller", Err: err}
	case errors.Is(err, syscall.ECONNREFUSED):
		return &UnavailableError{Kind: KindConnectionRefused, Detail: "connection refused", Err: err}
	case errors.As(err, &netErr) && netErr.Timeout():
		return &UnavailableError{Kind: KindTimeout, Detail: fmt.Sprintf("no response within %s", c.timeout), Err: err}
	default:
		return &UnavailableError{Kind: KindConnection, Detail: connectionDetail(err), Err: err}
	}
}

// connectionDetail describes a transport failure without echoing the raw
// error, which carries the upstream URL and resolver address. The raw error
// stays reachable through Unwrap for logging.
func connectionDetail(err error) string {
	var dnsErr *net.DNSError
	switch {
	case errors.As(err, &dnsErr):
		return "host lookup failed"
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return "connection closed mid-response"
	default:
		return "connection failed"
	}
}
