// Cinefile - Movie Catalog Client with Favourites Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinefile

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cinefile/internal/models"
	"github.com/tomtom215/cinefile/internal/validation"
)

// Service is the complete set of movie catalog API operations. It is
// implemented by Client and by BreakerClient; consumers (session store,
// reconciler, catalog cache) accept the interface so either can be injected.
type Service interface {
	Register(ctx context.Context, reg models.Registration) (*models.User, error)
	Login(ctx context.Context, creds models.Credentials) (*models.LoginResponse, error)
	Movies(ctx context.Context) ([]models.Movie, error)
	Movie(ctx context.Context, title string) (*models.Movie, error)
	Director(ctx context.Context, name string) (*models.Director, error)
	Genre(ctx context.Context, name string) (*models.Genre, error)
	User(ctx context.Context, userID string) (*models.User, error)
	UpdateUser(ctx context.Context, userID string, update models.ProfileUpdate) (*models.User, error)
	DeleteUser(ctx context.Context, userID string) error
	AddFavourite(ctx context.Context, userID, movieID string) error
	RemoveFavourite(ctx context.Context, userID, movieID string) error
}

// Ensure Client implements Service.
var _ Service = (*Client)(nil)

// Register creates a new user account. The payload is validated locally
// before any network traffic; validation failures come back as-is so the UI
// can show field-level messages, unlike transport failures.
func (c *Client) Register(ctx context.Context, reg models.Registration) (*models.User, error) {
	if err := validation.ValidateStruct(&reg); err != nil {
		return nil, err
	}

	raw, err := c.do(ctx, "register", http.MethodPost, "users", reg, false)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, c.decodeErr("register", err)
	}
	return &user, nil
}

// Login exchanges credentials for the user document and a bearer token.
// It does not persist anything; that is the session store's job.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (*models.LoginResponse, error) {
	if err := validation.ValidateStruct(&creds); err != nil {
		return nil, err
	}

	raw, err := c.do(ctx, "login", http.MethodPost, "login", creds, false)
	if err != nil {
		return nil, err
	}

	var resp models.LoginResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, c.decodeErr("login", err)
	}
	if resp.Token == "" {
		c.logger.Error().Str("op", "login").Msg("login response carried no token")
		return nil, fmt.Errorf("login: %w", ErrRequestFailed)
	}
	return &resp, nil
}

// Movies retrieves the full catalog.
func (c *Client) Movies(ctx context.Context) ([]models.Movie, error) {
	raw, err := c.do(ctx, "movies", http.MethodGet, "movies", nil, true)
	if err != nil {
		return nil, err
	}

	movies, err := models.DecodeMovies(raw)
	if err != nil {
		return nil, c.decodeErr("movies", err)
	}
	return movies, nil
}

// Movie retrieves a single movie by title. The title is used as a path
// segment upstream, so it is escaped here.
func (c *Client) Movie(ctx context.Context, title string) (*models.Movie, error) {
	raw, err := c.do(ctx, "movie", http.MethodGet, "movies/"+url.PathEscape(title), nil, true)
	if err != nil {
		return nil, err
	}

	var movie models.Movie
	if err := json.Unmarshal(raw, &movie); err != nil {
		return nil, c.decodeErr("movie", err)
	}
	return &movie, nil
}

// Director retrieves a director's details by name.
func (c *Client) Director(ctx context.Context, name string) (*models.Director, error) {
	raw, err := c.do(ctx, "director", http.MethodGet, "director/"+url.PathEscape(name), nil, true)
	if err != nil {
		return nil, err
	}

	var director models.Director
	if err := json.Unmarshal(raw, &director); err != nil {
		return nil, c.decodeErr("director", err)
	}
	return &director, nil
}

// Genre retrieves genre details. The upstream endpoint ignores the genre name
// in the request path; the name parameter is kept for interface stability and
// recorded in the log, but the request goes to "genre/" as observed.
func (c *Client) Genre(ctx context.Context, name string) (*models.Genre, error) {
	c.logger.Debug().Str("op", "genre").Str("name", name).Msg("genre endpoint ignores the requested name upstream")

	raw, err := c.do(ctx, "genre", http.MethodGet, "genre/", nil, true)
	if err != nil {
		return nil, err
	}

	var genre models.Genre
	if err := json.Unmarshal(raw, &genre); err != nil {
		return nil, c.decodeErr("genre", err)
	}
	return &genre, nil
}

// User retrieves a user document by id.
func (c *Client) User(ctx context.Context, userID string) (*models.User, error) {
	raw, err := c.do(ctx, "get_user", http.MethodGet, "users/"+url.PathEscape(userID), nil, true)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, c.decodeErr("get_user", err)
	}
	return &user, nil
}

// UpdateUser replaces a user's profile fields and returns the server's
// updated user document, which is authoritative - including the favourites
// set, which the server echoes back and the caller must not guess at.
func (c *Client) UpdateUser(ctx context.Context, userID string, update models.ProfileUpdate) (*models.User, error) {
	if err := validation.ValidateStruct(&update); err != nil {
		return nil, err
	}

	raw, err := c.do(ctx, "update_user", http.MethodPut, "users/"+url.PathEscape(userID), update, true)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, c.decodeErr("update_user", err)
	}
	return &user, nil
}

// DeleteUser deletes the user account upstream. The endpoint responds with
// plain text, which do() normalizes away; only success or failure matters.
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	_, err := c.do(ctx, "delete_user", http.MethodDelete, "users/"+url.PathEscape(userID), nil, true)
	return err
}

// AddFavourite adds movieID to the user's favourite set upstream. Empty body.
func (c *Client) AddFavourite(ctx context.Context, userID, movieID string) error {
	path := "users/" + url.PathEscape(userID) + "/" + url.PathEscape(movieID)
	_, err := c.do(ctx, "add_favourite", http.MethodPost, path, nil, true)
	return err
}

// RemoveFavourite removes movieID from the user's favourite set upstream.
func (c *Client) RemoveFavourite(ctx context.Context, userID, movieID string) error {
	path := "users/" + url.PathEscape(userID) + "/" + url.PathEscape(movieID)
	_, err := c.do(ctx, "remove_favourite", http.MethodDelete, path, nil, true)
	return err
}

// decodeErr logs a JSON decode failure and collapses it into the generic
// error: a malformed success body is as unusable as a failed request.
func (c *Client) decodeErr(op string, err error) error {
	c.logger.Error().Str("op", op).Err(err).Msg("decoding response failed")
	return fmt.Errorf("%s: %w", op, ErrRequestFailed)
}
