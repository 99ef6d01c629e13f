// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Defaults live in New; Load layers a YAML file and the environment on top.
// - Validation errors wrap ErrInvalidConfig, loading errors wrap ErrLoadConfig.
// - The resulting Config is treated as immutable once handed to a component.
package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config contains process configuration for the gateway and the companion
// telemetry backend.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the gateway listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// UpstreamURL is the base URL of the backend data service.
	UpstreamURL string `koanf:"upstream_url"`

	// UpstreamTimeoutMS bounds a single upstream call.
	UpstreamTimeoutMS int `koanf:"upstream_timeout_ms"`

	// UpstreamMaxBodyBytes caps the upstream body the gateway will buffer.
	UpstreamMaxBodyBytes int64 `koanf:"upstream_max_body_bytes"`

	// DashboardTitle is rendered into the dashboard page.
	DashboardTitle string `koanf:"dashboard_title"`

	// BackendAddr configures the companion backend listen address.
	BackendAddr string `koanf:"backend_addr"`

	// DatabaseURL is the Postgres DSN used by the companion backend.
	DatabaseURL string `koanf:"database_url"`

	// BackendRecordLimit is how many recent records /api/data returns.
	BackendRecordLimit int `koanf:"backend_record_limit"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		Addr:                 ":8080",
		UpstreamURL:          "http://localhost:3000",
		UpstreamTimeoutMS:    5000,
		UpstreamMaxBodyBytes: 10 << 20,
		DashboardTitle:       "Space Dashboard",
		BackendAddr:          ":3000",
		DatabaseURL:          "postgres://user:pass@db:5432/space_db?sslmode=disable",
		BackendRecordLimit:   10,
	}
}

// UpstreamTimeout returns the configured upstream bound as a duration.
func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.UpstreamTimeoutMS) * time.Millisecond
}

// Validate checks the fields the services cannot run without.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.BackendAddr == "":
		return fmt.Errorf("%w: backend_addr must not be empty", ErrInvalidConfig)
	case c.UpstreamTimeoutMS <= 0:
		return fmt.Errorf("%w: upstream_timeout_ms must be positive", ErrInvalidConfig)
	case c.UpstreamMaxBodyBytes <= 0:
		return fmt.Errorf("%w: upstream_max_body_bytes must be positive", ErrInvalidConfig)
	case c.BackendRecordLimit <= 0:
		return fmt.Errorf("%w: backend_record_limit must be positive", ErrInvalidConfig)
	}

	u, err := url.Parse(c.UpstreamURL)
	if err != nil {
		return fmt.Errorf("%w: upstream_url: %v", ErrInvalidConfig, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: upstream_url must be an absolute http(s) URL, got %q", ErrInvalidConfig, c.UpstreamURL)
	}
	return nil
}
