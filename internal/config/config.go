// Cinefile - Movie Catalog Client with Favourites Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinefile

// Package config defines Cinefile's configuration and loads it via Koanf v2
// with layered sources: built-in defaults, an optional YAML file, and
// environment variables (highest priority).
package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config is the root configuration structure.
type Config struct {
	API     APIConfig     `koanf:"api"`
	Breaker BreakerConfig `koanf:"breaker"`
	Storage StorageConfig `koanf:"storage"`
	Logging LoggingConfig `koanf:"logging"`
}

// APIConfig configures the movie catalog API transport.
type APIConfig struct {
	// BaseURL is the single remote endpoint every request targets.
	BaseURL string `koanf:"base_url"`

	// Timeout is the per-request HTTP timeout. Requests run to completion
	// within it; there is no application-level cancellation.
	Timeout time.Duration `koanf:"timeout"`

	// MaxRetries bounds automatic retries on HTTP 429. Other failures are
	// never retried automatically.
	MaxRetries int `koanf:"max_retries"`

	// RetryBaseDelay is the starting delay for 429 exponential backoff.
	RetryBaseDelay time.Duration `koanf:"retry_base_delay"`
}

// BreakerConfig configures the circuit breaker around the transport.
type BreakerConfig struct {
	// MinRequests is the minimum observed requests before the breaker may trip.
	MinRequests uint32 `koanf:"min_requests"`

	// FailureRatio is the failure fraction (0..1) at which the breaker opens.
	FailureRatio float64 `koanf:"failure_ratio"`

	// MaxRequests allowed through while half-open.
	MaxRequests uint32 `koanf:"max_requests"`

	// Interval resets the rolling counts while closed.
	Interval time.Duration `koanf:"interval"`

	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration `koanf:"timeout"`
}

// StorageConfig configures the local BadgerDB session state.
type StorageConfig struct {
	// Path is the BadgerDB directory holding the persisted session.
	Path string `koanf:"path"`

	// InMemory runs Badger without touching disk. Used by tests.
	InMemory bool `koanf:"in_memory"`
}

// LoggingConfig configures diagnostic logging.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for values that would fail at first use.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url %q is not a valid URL", c.API.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api.base_url scheme %q must be http or https", u.Scheme)
	}

	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive, got %s", c.API.Timeout)
	}
	if c.API.MaxRetries < 0 {
		return fmt.Errorf("api.max_retries must not be negative, got %d", c.API.MaxRetries)
	}

	if c.Breaker.FailureRatio <= 0 || c.Breaker.FailureRatio > 1 {
		return fmt.Errorf("breaker.failure_ratio must be in (0, 1], got %g", c.Breaker.FailureRatio)
	}
	if c.Breaker.MinRequests == 0 {
		return fmt.Errorf("breaker.min_requests must be at least 1")
	}

	if !c.Storage.InMemory && c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required unless storage.in_memory is set")
	}

	return nil
}
