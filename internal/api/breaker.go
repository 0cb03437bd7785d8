// Cinefile - Movie Catalog Client with Favourites Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinefile

package api

import (
	"context"
	"errors"
	"fmt"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/cinefile/internal/config"
	"github.com/tomtom215/cinefile/internal/logging"
	"github.com/tomtom215/cinefile/internal/metrics"
	"github.com/tomtom215/cinefile/internal/models"
)

// BreakerClient wraps Client with a circuit breaker so a down or degraded
// catalog API stops being hammered with doomed requests.
//
// DETERMINISM NOTE: the breaker uses real time (via sony/gobreaker) for its
// interval and timeout calculations. The timing determines when to attempt
// recovery, not data integrity; unit tests should exercise the wrapped client
// directly.
type BreakerClient struct {
	client *Client
	cb     *gobreaker.CircuitBreaker[interface{}]
	name   string
}

// Ensure BreakerClient implements Service.
var _ Service = (*BreakerClient)(nil)

// NewBreakerClient wraps client with a circuit breaker configured from cfg.
// The breaker opens once the failure ratio threshold is reached over at least
// MinRequests calls; unauthenticated fail-fasts and local validation errors
// are not counted as failures since no request reached the server.
func NewBreakerClient(client *Client, cfg *config.BreakerConfig) *BreakerClient {
	cbName := "catalog-api"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbName).Set(0)

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}

			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= cfg.FailureRatio

			if shouldTrip {
				logging.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_rate", failureRatio*100).Msg("[CIRCUIT BREAKER] Opening circuit")
			}

			return shouldTrip
		},

		// Only remote failures count toward opening the circuit.
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, ErrRequestFailed)
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()

			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})

	return &BreakerClient{
		client: client,
		cb:     cb,
		name:   cbName,
	}
}

// execute wraps an API call with circuit breaker protection. A rejection by
// an open circuit is collapsed into ErrRequestFailed like any other transport
// failure: callers get one generic error either way, with detail in the log.
func (bc *BreakerClient) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := bc.cb.Execute(fn)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(bc.name, "rejected").Inc()
			logging.Warn().Err(err).Msg("[CIRCUIT BREAKER] Request rejected")
			return nil, ErrRequestFailed
		}

		if errors.Is(err, ErrRequestFailed) {
			metrics.CircuitBreakerRequests.WithLabelValues(bc.name, "failure").Inc()
			counts := bc.cb.Counts()
			metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(bc.name).Set(float64(counts.ConsecutiveFailures))
		}
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(bc.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(bc.name).Set(0)

	return result, nil
}

// castResult safely type-casts the circuit breaker result.
func castResult[T any](result interface{}, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	typed, ok := result.(*T)
	if !ok {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// stateToFloat converts circuit breaker state to a numeric value for metrics.
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts circuit breaker state to a string for logging.
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Register creates a user account with circuit breaker protection.
func (bc *BreakerClient) Register(ctx context.Context, reg models.Registration) (*models.User, error) {
	return castResult[models.User](bc.execute(func() (interface{}, error) {
		return bc.client.Register(ctx, reg)
	}))
}

// Login authenticates with circuit breaker protection.
func (bc *BreakerClient) Login(ctx context.Context, creds models.Credentials) (*models.LoginResponse, error) {
	return castResult[models.LoginResponse](bc.execute(func() (interface{}, error) {
		return bc.client.Login(ctx, creds)
	}))
}

// Movies retrieves the catalog with circuit breaker protection.
func (bc *BreakerClient) Movies(ctx context.Context) ([]models.Movie, error) {
	result, err := bc.execute(func() (interface{}, error) {
		return bc.client.Movies(ctx)
	})
	if err != nil {
		return nil, err
	}
	movies, ok := result.([]models.Movie)
	if !ok {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return movies, nil
}

// Movie retrieves a movie by title with circuit breaker protection.
func (bc *BreakerClient) Movie(ctx context.Context, title string) (*models.Movie, error) {
	return castResult[models.Movie](bc.execute(func() (interface{}, error) {
		return bc.client.Movie(ctx, title)
	}))
}

// Director retrieves director details with circuit breaker protection.
func (bc *BreakerClient) Director(ctx context.Context, name string) (*models.Director, error) {
	return castResult[models.Director](bc.execute(func() (interface{}, error) {
		return bc.client.Director(ctx, name)
	}))
}

// Genre retrieves genre details with circuit breaker protection.
func (bc *BreakerClient) Genre(ctx context.Context, name string) (*models.Genre, error) {
	return castResult[models.Genre](bc.execute(func() (interface{}, error) {
		return bc.client.Genre(ctx, name)
	}))
}

// User retrieves a user document with circuit breaker protection.
func (bc *BreakerClient) User(ctx context.Context, userID string) (*models.User, error) {
	return castResult[models.User](bc.execute(func() (interface{}, error) {
		return bc.client.User(ctx, userID)
	}))
}

// UpdateUser updates a profile with circuit breaker protection.
func (bc *BreakerClient) UpdateUser(ctx context.Context, userID string, update models.ProfileUpdate) (*models.User, error) {
	return castResult[models.User](bc.execute(func() (interface{}, error) {
		return bc.client.UpdateUser(ctx, userID, update)
	}))
}

// DeleteUser deletes an account with circuit breaker protection.
func (bc *BreakerClient) DeleteUser(ctx context.Context, userID string) error {
	_, err := bc.execute(func() (interface{}, error) {
		return nil, bc.client.DeleteUser(ctx, userID)
	})
	return err
}

// AddFavourite adds a favourite with circuit breaker protection.
func (bc *BreakerClient) AddFavourite(ctx context.Context, userID, movieID string) error {
	_, err := bc.execute(func() (interface{}, error) {
		return nil, bc.client.AddFavourite(ctx, userID, movieID)
	})
	return err
}

// RemoveFavourite removes a favourite with circuit breaker protection.
func (bc *BreakerClient) RemoveFavourite(ctx context.Context, userID, movieID string) error {
	_, err := bc.execute(func() (interface{}, error) {
		return nil, bc.client.RemoveFavourite(ctx, userID, movieID)
	})
	return err
}
