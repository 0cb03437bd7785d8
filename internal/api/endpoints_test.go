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

	"github.com/tomtom215/cinefile/internal/models"
	"github.com/tomtom215/cinefile/internal/validation"
)

// recordingServer captures the method and escaped path of every request and
// responds with a fixed JSON body.
func recordingServer(t *testing.T, responseBody string) (*httptest.Server, *atomic.Value) {
	t.Helper()
	var last atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		last.Store(r.Method + " " + r.URL.EscapedPath())
		_, _ = w.Write([]byte(responseBody))
	}))
	t.Cleanup(server.Close)
	return server, &last
}

func TestLoginDecodesUserAndToken(t *testing.T) {
	server, _ := recordingServer(t, `{
		"user": {"_id": "u1", "Username": "al", "FavouriteMovies": ["m1"]},
		"token": "tok"
	}`)

	client := newTestClient(t, server.URL, nil)

	resp, err := client.Login(context.Background(), models.Credentials{Username: "al", Password: "secret1234"})
	checkNoError(t, err)
	checkStringEqual(t, "user id", resp.User.ID, "u1")
	checkStringEqual(t, "username", resp.User.Username, "al")
	checkIntEqual(t, "favourites", len(resp.User.FavouriteMovies), 1)
	checkStringEqual(t, "favourite", resp.User.FavouriteMovies[0], "m1")
	checkStringEqual(t, "token", resp.Token, "tok")
}

func TestLoginRejectsResponseWithoutToken(t *testing.T) {
	server, _ := recordingServer(t, `{"user": {"_id": "u1"}, "token": ""}`)

	client := newTestClient(t, server.URL, nil)

	_, err := client.Login(context.Background(), models.Credentials{Username: "al", Password: "secret1234"})
	checkErrorIs(t, err, ErrRequestFailed)
}

func TestLoginValidatesCredentialsLocally(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)

	_, err := client.Login(context.Background(), models.Credentials{Username: "al"})
	var verr *validation.Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected a validation error, got %v", err)
	}
	checkIntEqual(t, "requests reaching server", int(requests.Load()), 0)
}

func TestRegisterValidatesBeforeNetwork(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)

	_, err := client.Register(context.Background(), models.Registration{
		Username: "short",
		Password: "short",
		Email:    "not-an-email",
	})
	var verr *validation.Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected a validation error, got %v", err)
	}
	// Validation errors are not collapsed into the generic transport error.
	checkTrue(t, "not a transport failure", !errors.Is(err, ErrRequestFailed))
	checkIntEqual(t, "requests reaching server", int(requests.Load()), 0)
}

func TestEndpointPaths(t *testing.T) {
	tests := map[string]struct {
		call     func(ctx context.Context, c *Client) error
		wantLine string
	}{
		"movies": {
			call: func(ctx context.Context, c *Client) error {
				_, err := c.Movies(ctx)
				return err
			},
			wantLine: "GET /movies",
		},
		"movie by title escapes spaces": {
			call: func(ctx context.Context, c *Client) error {
				_, err := c.Movie(ctx, "The Big Lebowski")
				return err
			},
			wantLine: "GET /movies/The%20Big%20Lebowski",
		},
		"director by name": {
			call: func(ctx context.Context, c *Client) error {
				_, err := c.Director(ctx, "Joel Coen")
				return err
			},
			wantLine: "GET /director/Joel%20Coen",
		},
		"get user": {
			call: func(ctx context.Context, c *Client) error {
				_, err := c.User(ctx, "u1")
				return err
			},
			wantLine: "GET /users/u1",
		},
		"delete user": {
			call: func(ctx context.Context, c *Client) error {
				return c.DeleteUser(ctx, "u1")
			},
			wantLine: "DELETE /users/u1",
		},
		"add favourite": {
			call: func(ctx context.Context, c *Client) error {
				return c.AddFavourite(ctx, "u1", "m2")
			},
			wantLine: "POST /users/u1/m2",
		},
		"remove favourite": {
			call: func(ctx context.Context, c *Client) error {
				return c.RemoveFavourite(ctx, "u1", "m2")
			},
			wantLine: "DELETE /users/u1/m2",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			body := `{}`
			if name == "movies" {
				body = `[]`
			}
			server, last := recordingServer(t, body)
			client := newTestClient(t, server.URL, staticTokens("tok"))

			checkNoError(t, tc.call(context.Background(), client))
			checkStringEqual(t, "request line", last.Load().(string), tc.wantLine)
		})
	}
}

func TestGenreRequestIgnoresName(t *testing.T) {
	// The upstream genre endpoint disregards the name segment; the client
	// preserves that behavior rather than inventing a path the server never
	// served.
	server, last := recordingServer(t, `{"Name": "Drama", "Description": "Serious stories."}`)
	client := newTestClient(t, server.URL, staticTokens("tok"))

	genre, err := client.Genre(context.Background(), "Comedy")
	checkNoError(t, err)
	checkStringEqual(t, "request line", last.Load().(string), "GET /genre/")
	checkStringEqual(t, "genre name", genre.Name, "Drama")
}

func TestMoviesDecodesCatalog(t *testing.T) {
	server, _ := recordingServer(t, `[
		{"_id": "m1", "Title": "First", "Genre": {"Name": "Drama"}, "Director": {"Name": "A"}},
		{"_id": "m2", "Title": "Second", "Genre": {"Name": "Comedy"}, "Director": {"Name": "B"}}
	]`)
	client := newTestClient(t, server.URL, staticTokens("tok"))

	movies, err := client.Movies(context.Background())
	checkNoError(t, err)
	checkIntEqual(t, "movies", len(movies), 2)
	checkStringEqual(t, "first id", movies[0].ID, "m1")
	checkStringEqual(t, "second genre", movies[1].Genre.Name, "Comedy")
}

func TestMoviesCollapsesMalformedBody(t *testing.T) {
	server, _ := recordingServer(t, `{"this is": "not a movie list"}`)
	client := newTestClient(t, server.URL, staticTokens("tok"))

	_, err := client.Movies(context.Background())
	checkErrorIs(t, err, ErrRequestFailed)
}

func TestUpdateUserReturnsServerDocument(t *testing.T) {
	// The server echoes the authoritative user document back, favourites
	// included, even though the update payload never mentions favourites.
	server, last := recordingServer(t, `{
		"_id": "u1", "Username": "alexandria1", "Email": "al@example.com",
		"FavouriteMovies": ["m1", "m3"]
	}`)
	client := newTestClient(t, server.URL, staticTokens("tok"))

	user, err := client.UpdateUser(context.Background(), "u1", models.ProfileUpdate{
		Username: "alexandria1",
		Password: "secret1234",
		Email:    "al@example.com",
	})
	checkNoError(t, err)
	checkStringEqual(t, "request line", last.Load().(string), "PUT /users/u1")
	checkStringEqual(t, "username", user.Username, "alexandria1")
	checkIntEqual(t, "favourites", len(user.FavouriteMovies), 2)
}

func TestDeleteUserToleratesPlainTextResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("al was deleted."))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, staticTokens("tok"))
	checkNoError(t, client.DeleteUser(context.Background(), "u1"))
}
