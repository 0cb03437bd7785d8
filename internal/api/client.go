// Cinefile - Movie Catalog Client with Favourites Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinefile

/*
client.go - Core movie catalog API client

This file provides the Client struct and the HTTP communication layer shared
by all endpoint methods. It is the only place in the application allowed to
issue outbound HTTP requests.

Client contract:
  - Single configured base endpoint; every request targets it
  - Bearer token authentication supplied by a TokenSource (the session store)
  - Empty 2xx response bodies are normalized to "{}" - callers never see nil
  - No retries on failure, except automatic HTTP 429 backoff within one call
  - Failures are classified (network vs server) for the log, then collapsed
    into the generic ErrRequestFailed for the caller

Related files:
  - endpoints.go: typed per-endpoint methods
  - breaker.go: circuit breaker wrapper
  - errors.go: error taxonomy
*/

package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/cinefile/internal/config"
	"github.com/tomtom215/cinefile/internal/logging"
	"github.com/tomtom215/cinefile/internal/metrics"
)

// maxErrorBodySize limits how much of a response body is read for error
// reporting, preventing unbounded allocation on large error responses.
const maxErrorBodySize = 64 * 1024 // 64KB

// TokenSource supplies the bearer token for authenticated requests, typically
// the session store. It must return ErrUnauthenticated (possibly wrapped) when
// no usable token is present.
type TokenSource interface {
	Token() (string, error)
}

// Client handles communication with the movie catalog HTTP API.
//
// Thread safety: safe for concurrent use. Each call creates its own request.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	tokens         TokenSource
	maxRetries     int           // maximum retries for HTTP 429 rate limiting
	retryBaseDelay time.Duration // base delay for exponential backoff
	logger         zerolog.Logger
}

// New creates a movie catalog API client from configuration. The TokenSource
// may be nil for a client that only ever performs unauthenticated calls.
func New(cfg *config.APIConfig, tokens TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		maxRetries:     cfg.MaxRetries,
		retryBaseDelay: cfg.RetryBaseDelay,
		logger:         logging.With().Str("component", "api").Logger(),
	}
}

// SetTokenSource installs the token source after construction. The session
// store needs the client to log in, and the client needs the store for tokens;
// this breaks the construction cycle.
func (c *Client) SetTokenSource(tokens TokenSource) {
	c.tokens = tokens
}

// do performs a single API call and returns the raw JSON response body.
//
// op names the logical endpoint for logs and metrics. path must already have
// its variable segments escaped by the caller. A non-nil body is marshaled as
// JSON. When authed is true the call fails fast with ErrUnauthenticated if the
// token source cannot supply a token.
//
// A 2xx response with an empty body yields json.RawMessage("{}"), never nil.
func (c *Client) do(ctx context.Context, op, method, path string, body interface{}, authed bool) (json.RawMessage, error) {
	start := time.Now()
	requestID := uuid.NewString()

	raw, err := c.doOnce(ctx, op, method, path, body, authed, requestID)

	status := "success"
	if err != nil {
		status = classifyForMetrics(err)
	}
	metrics.APIRequestsTotal.WithLabelValues(op, status).Inc()
	metrics.APIRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	return raw, err
}

func (c *Client) doOnce(ctx context.Context, op, method, path string, body interface{}, authed bool, requestID string) (json.RawMessage, error) {
	var token string
	if authed {
		if c.tokens == nil {
			return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
		}
		t, err := c.tokens.Token()
		if err != nil {
			c.logger.Debug().Str("op", op).Str("request_id", requestID).Msg("no usable token, failing fast")
			return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
		}
		token = t
	}

	var reqBody io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: marshal request body: %w", op, err)
		}
		reqBody = bytes.NewReader(data)
	}

	reqURL := c.baseURL + "/" + path

	resp, err := c.doWithRateLimit(ctx, method, reqURL, reqBody, token, requestID)
	if err != nil {
		// Context errors pass through so callers can distinguish their own
		// cancellation from a remote failure.
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s: %w", op, ctx.Err())
		}
		netErr := &NetworkError{Op: op, Err: err}
		c.logger.Error().
			Str("op", op).
			Str("method", method).
			Str("request_id", requestID).
			Err(netErr).
			Msg("request never reached the server")
		return nil, fmt.Errorf("%s: %w", op, ErrRequestFailed)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		srvErr := &ServerError{Op: op, StatusCode: resp.StatusCode, Body: readBodyForError(resp.Body)}
		c.logger.Error().
			Str("op", op).
			Str("method", method).
			Str("request_id", requestID).
			Int("status", resp.StatusCode).
			Str("body", string(srvErr.Body)).
			Msg("server rejected request")
		return nil, fmt.Errorf("%s: %w", op, ErrRequestFailed)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error().Str("op", op).Str("request_id", requestID).Err(err).Msg("reading response body failed")
		return nil, fmt.Errorf("%s: %w", op, ErrRequestFailed)
	}

	// The delete-user endpoint responds with plain text, and some mutations
	// respond with no body at all. Callers always get valid JSON.
	if len(bytes.TrimSpace(data)) == 0 {
		return json.RawMessage("{}"), nil
	}

	c.logger.Debug().
		Str("op", op).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Int("bytes", len(data)).
		Msg("request completed")

	return json.RawMessage(data), nil
}

// doWithRateLimit performs the HTTP request with automatic HTTP 429 handling.
// Backoff is exponential from retryBaseDelay, honoring a Retry-After header
// when present. This is transport policy within a single call, not a retry of
// failed operations; any other outcome is returned after the first attempt.
// When the retries run out, the final 429 response is returned unconsumed so
// the caller classifies and logs it as a server rejection; the server did
// answer, repeatedly.
func (c *Client) doWithRateLimit(ctx context.Context, method, reqURL string, body io.Reader, token, requestID string) (*http.Response, error) {
	// The request body reader can only be consumed once; buffer it so
	// rate-limited attempts can be replayed.
	var buf []byte
	if body != nil && body != http.NoBody {
		data, err := io.ReadAll(body)
		if err != nil {
			return nil, fmt.Errorf("buffer request body: %w", err)
		}
		buf = data
	}

	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		var attemptBody io.Reader = http.NoBody
		if buf != nil {
			attemptBody = bytes.NewReader(buf)
		}

		req, err := http.NewRequestWithContext(ctx, method, reqURL, attemptBody)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}

		req.Header.Set("Accept", "application/json")
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Request-ID", requestID)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusTooManyRequests || attempt == c.maxRetries {
			return resp, nil
		}

		_ = resp.Body.Close()

		delay := c.retryBaseDelay * time.Duration(1<<uint(attempt))
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := time.ParseDuration(retryAfter + "s"); err == nil {
				delay = seconds
			}
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// readBodyForError reads a response body for error reporting, capped at 64KB.
func readBodyForError(r io.Reader) []byte {
	limited := io.LimitReader(r, maxErrorBodySize)
	body, err := io.ReadAll(limited)
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}

// classifyForMetrics maps an error to its metrics label.
func classifyForMetrics(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	default:
		return "failure"
	}
}
