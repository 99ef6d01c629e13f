package upstream

import (
	"net/http"
	"time"
)

// Default client settings.
const (
	DefaultTimeout      = 5 * time.Second
	DefaultPath         = "/api/data"
	DefaultMaxBodyBytes = 10 << 20
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithTimeout bounds each call, including reading the body.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithPath overrides the data path appended to the base URL.
func WithPath(path string) Option {
	return func(c *Client) {
		if path != "" {
			c.path = path
		}
	}
}

// WithMaxBodyBytes caps how much of the upstream body is buffered.
func WithMaxBodyBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBodyBytes = n
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}
