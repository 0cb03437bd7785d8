// Cinefile - Movie Catalog Client with Favourites Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinefile

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/cinefile/internal/config"
	"github.com/tomtom215/cinefile/internal/models"
	"github.com/tomtom215/cinefile/internal/validation"
)

func testBreakerConfig() *config.BreakerConfig {
	return &config.BreakerConfig{
		MinRequests:  3,
		FailureRatio: 0.6,
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Minute,
	}
}

func TestBreakerPassesSuccessesThrough(t *testing.T) {
	server, _ := recordingServer(t, `[{"_id": "m1", "Title": "First"}]`)
	client := newTestClient(t, server.URL, staticTokens("tok"))
	breaker := NewBreakerClient(client, testBreakerConfig())

	movies, err := breaker.Movies(context.Background())
	checkNoError(t, err)
	checkIntEqual(t, "movies", len(movies), 1)
	checkStringEqual(t, "title", movies[0].Title, "First")
}

func TestBreakerPreservesTypedResults(t *testing.T) {
	server, _ := recordingServer(t, `{
		"user": {"_id": "u1", "Username": "al"},
		"token": "tok"
	}`)
	client := newTestClient(t, server.URL, nil)
	breaker := NewBreakerClient(client, testBreakerConfig())

	resp, err := breaker.Login(context.Background(), models.Credentials{Username: "al", Password: "secret1234"})
	checkNoError(t, err)
	checkStringEqual(t, "user id", resp.User.ID, "u1")
	checkStringEqual(t, "token", resp.Token, "tok")
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	var requests atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, staticTokens("tok"))
	breaker := NewBreakerClient(client, testBreakerConfig())

	// Trip the breaker: MinRequests failures at 100% failure ratio.
	for i := 0; i < 3; i++ {
		_, err := breaker.Movies(context.Background())
		checkErrorIs(t, err, ErrRequestFailed)
	}

	reached := requests.Load()

	// An open circuit rejects without touching the network, and the rejection
	// looks like any other transport failure to the caller.
	for i := 0; i < 5; i++ {
		_, err := breaker.Movies(context.Background())
		checkErrorIs(t, err, ErrRequestFailed)
	}
	checkIntEqual(t, "requests after opening", int(requests.Load()), int(reached))
}

func TestBreakerIgnoresLocalErrors(t *testing.T) {
	server, _ := recordingServer(t, `[]`)
	client := newTestClient(t, server.URL, staticTokens("tok"))
	breaker := NewBreakerClient(client, testBreakerConfig())

	// Validation failures never reach the server and must not poison the
	// failure counts.
	for i := 0; i < 10; i++ {
		_, err := breaker.Register(context.Background(), models.Registration{Username: "x"})
		var verr *validation.Error
		if !errors.As(err, &verr) {
			t.Fatalf("expected a validation error, got %v", err)
		}
	}

	// Same for unauthenticated fail-fasts.
	unauthed := NewBreakerClient(newTestClient(t, server.URL, noTokens{}), testBreakerConfig())
	for i := 0; i < 10; i++ {
		_, err := unauthed.Movies(context.Background())
		checkErrorIs(t, err, ErrUnauthenticated)
	}

	// The circuit is still closed: a real request goes through.
	movies, err := breaker.Movies(context.Background())
	checkNoError(t, err)
	checkIntEqual(t, "movies", len(movies), 0)
}

func TestBreakerErrorOnlyMethods(t *testing.T) {
	server, last := recordingServer(t, ``)
	client := newTestClient(t, server.URL, staticTokens("tok"))
	breaker := NewBreakerClient(client, testBreakerConfig())

	checkNoError(t, breaker.AddFavourite(context.Background(), "u1", "m2"))
	checkStringEqual(t, "request line", last.Load().(string), "POST /users/u1/m2")

	checkNoError(t, breaker.RemoveFavourite(context.Background(), "u1", "m2"))
	checkStringEqual(t, "request line", last.Load().(string), "DELETE /users/u1/m2")

	checkNoError(t, breaker.DeleteUser(context.Background(), "u1"))
	checkStringEqual(t, "request line", last.Load().(string), "DELETE /users/u1")
}
