// Cinefile - Movie Catalog Client with Favourites Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinefile

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestAPIRequestsTotalIncrements(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("test_endpoint", "success"))
	APIRequestsTotal.WithLabelValues("test_endpoint", "success").Inc()
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("test_endpoint", "success"))

	if after != before+1 {
		t.Errorf("counter did not increment: before=%v after=%v", before, after)
	}
}

func TestCircuitBreakerStateGauge(t *testing.T) {
	CircuitBreakerState.WithLabelValues("test-breaker").Set(2)
	if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("test-breaker")); got != 2 {
		t.Errorf("gauge = %v, want 2", got)
	}

	CircuitBreakerState.WithLabelValues("test-breaker").Set(0)
	if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("test-breaker")); got != 0 {
		t.Errorf("gauge = %v, want 0", got)
	}
}

func TestFavouriteTogglesLabels(t *testing.T) {
	// Distinct label values must track independently.
	FavouriteToggles.WithLabelValues("confirmed_add").Inc()
	FavouriteToggles.WithLabelValues("reverted").Inc()
	FavouriteToggles.WithLabelValues("reverted").Inc()

	add := testutil.ToFloat64(FavouriteToggles.WithLabelValues("confirmed_add"))
	rev := testutil.ToFloat64(FavouriteToggles.WithLabelValues("reverted"))

	if add < 1 || rev < 2 {
		t.Errorf("unexpected counts: confirmed_add=%v reverted=%v", add, rev)
	}
}
