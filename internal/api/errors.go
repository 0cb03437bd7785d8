// Cinefile - Movie Catalog Client with Favourites Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinefile

package api

import (
	"errors"
	"fmt"
)

// ErrRequestFailed is the single error surfaced to callers for any transport
// failure, whether the request never reached the server or the server answered
// with a non-2xx status. Full diagnostic detail (status code, response body)
// is written to the log only. Callers therefore cannot branch on status codes;
// that is a deliberate contract of this client, not an omission.
var ErrRequestFailed = errors.New("request failed, please try again later")

// ErrUnauthenticated is returned when an operation requiring a bearer token is
// attempted with no token present (or an expired one). Unlike ErrRequestFailed
// it is raised before any network traffic happens.
var ErrUnauthenticated = errors.New("not authenticated")

// NetworkError classifies a failure where no response reached the server:
// connection refused, DNS failure, timeout. It is used for diagnostic logging
// inside this package and never crosses the package boundary; callers see
// ErrRequestFailed.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError classifies a response received with a non-2xx status. Body is
// capped at 64KB. Like NetworkError it is logged, never returned to callers.
type ServerError struct {
	Op         string
	StatusCode int
	Body       []byte
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s: server returned status %d: %s", e.Op, e.StatusCode, string(e.Body))
}
