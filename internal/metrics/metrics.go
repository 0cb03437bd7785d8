// Cinefile - Movie Catalog Client with Favourites Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinefile

// Package metrics provides Prometheus instrumentation for Cinefile.
//
// Metrics cover the transport layer (request counts and latency per logical
// endpoint), the circuit breaker (state, transitions, per-result request
// counts), favourite reconciliation outcomes, and session store operations.
// They are registered on the default registry via promauto; embedding
// applications can expose them with promhttp, and the CLI's metrics are
// available to tests through testutil.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// API transport metrics.
var (
	// APIRequestsTotal counts API calls by logical endpoint and outcome.
	// status is "success", "failure", or "unauthenticated".
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinefile_api_requests_total",
			Help: "Total API requests by endpoint and outcome",
		},
		[]string{"endpoint", "status"},
	)

	// APIRequestDuration tracks API call latency per logical endpoint.
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cinefile_api_request_duration_seconds",
			Help:    "API request latency by endpoint",
			Buckets: []float64{.005, .01, .05, .1, .5, 1, 5, 10, 30},
		},
		[]string{"endpoint"},
	)
)

// Circuit breaker metrics.
var (
	// CircuitBreakerState reports the current state (0=closed, 1=half-open, 2=open).
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cinefile_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// CircuitBreakerTransitions counts state transitions.
	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinefile_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// CircuitBreakerRequests counts requests by result (success/failure/rejected).
	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinefile_circuit_breaker_requests_total",
			Help: "Circuit breaker requests by result",
		},
		[]string{"name", "result"},
	)

	// CircuitBreakerConsecutiveFailures tracks the current failure streak.
	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cinefile_circuit_breaker_consecutive_failures",
			Help: "Consecutive failures observed by the circuit breaker",
		},
		[]string{"name"},
	)
)

// Favourites reconciliation metrics.
var (
	// FavouriteToggles counts toggle attempts by outcome
	// (confirmed_add, confirmed_remove, reverted).
	FavouriteToggles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinefile_favourite_toggles_total",
			Help: "Favourite toggle operations by outcome",
		},
		[]string{"outcome"},
	)
)

// Session store metrics.
var (
	// SessionOperations counts session store mutations by operation
	// (login, register, replace, logout, delete_account).
	SessionOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinefile_session_operations_total",
			Help: "Session store operations",
		},
		[]string{"operation"},
	)
)
