// Cinefile - Movie Catalog Client with Favourites Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinefile

// Package models defines the typed representations of the movie catalog API's
// wire format. Free-form payloads are rejected at the transport boundary; the
// rest of the application only ever sees these types.
//
// Field names mirror the upstream API exactly ("_id", "Username",
// "FavouriteMovies", ...), which uses capitalized JSON keys throughout.
package models

import "github.com/goccy/go-json"

// Genre describes a movie genre as returned inside a Movie document.
type Genre struct {
	Name        string `json:"Name"`
	Description string `json:"Description"`
}

// Director describes a movie director. Birth and Death are date strings in the
// upstream format; Death is empty for living directors.
type Director struct {
	Name  string `json:"Name"`
	Bio   string `json:"Bio"`
	Birth string `json:"Birth,omitempty"`
	Death string `json:"Death,omitempty"`
}

// Movie is a single catalog entry. Movies are immutable from the client's
// perspective; they are only ever sourced from the catalog endpoint.
type Movie struct {
	ID          string   `json:"_id"`
	Title       string   `json:"Title"`
	Description string   `json:"Description"`
	Genre       Genre    `json:"Genre"`
	Director    Director `json:"Director"`
}

// User is the server's user document. FavouriteMovies holds movie ids, not
// movie objects; the set is authoritative on the server.
type User struct {
	ID              string   `json:"_id"`
	Username        string   `json:"Username"`
	Email           string   `json:"Email"`
	Birthday        string   `json:"Birthday,omitempty"`
	FavouriteMovies []string `json:"FavouriteMovies"`
}

// HasFavourite reports whether movieID is in the user's favourite set.
func (u *User) HasFavourite(movieID string) bool {
	for _, id := range u.FavouriteMovies {
		if id == movieID {
			return true
		}
	}
	return false
}

// AddFavourite inserts movieID into the favourite set. Adding an id that is
// already present is a no-op, keeping membership idempotent.
func (u *User) AddFavourite(movieID string) {
	if u.HasFavourite(movieID) {
		return
	}
	u.FavouriteMovies = append(u.FavouriteMovies, movieID)
}

// RemoveFavourite deletes movieID from the favourite set. Removing an id that
// is not present is a no-op.
func (u *User) RemoveFavourite(movieID string) {
	for i, id := range u.FavouriteMovies {
		if id == movieID {
			u.FavouriteMovies = append(u.FavouriteMovies[:i], u.FavouriteMovies[i+1:]...)
			return
		}
	}
}

// Clone returns a deep copy of the user. The reconciler mutates a copy and
// replaces the stored document whole, never the shared favourites slice.
func (u *User) Clone() *User {
	c := *u
	c.FavouriteMovies = make([]string, len(u.FavouriteMovies))
	copy(c.FavouriteMovies, u.FavouriteMovies)
	return &c
}

// Session is the locally persisted representation of the authenticated user
// plus bearer token. A Session without a token is considered absent: no
// authenticated call may be attempted with it.
type Session struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// Authenticated reports whether the session carries a bearer token.
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != ""
}

// Credentials is the POST /login request body.
type Credentials struct {
	Username string `json:"Username" validate:"required"`
	Password string `json:"Password" validate:"required"`
}

// Registration is the POST /users request body. The upstream API enforces the
// same length rules; validating here spares a round trip for obvious misses.
type Registration struct {
	Username string `json:"Username" validate:"required,min=10"`
	Password string `json:"Password" validate:"required,min=10"`
	Email    string `json:"Email" validate:"required,email"`
	Birthday string `json:"Birthday" validate:"omitempty,datetime=2006-01-02"`
}

// ProfileUpdate is the PUT /users/{id} request body. The upstream endpoint
// expects the full form including the password on every update.
type ProfileUpdate struct {
	Username string `json:"Username" validate:"required,min=10"`
	Password string `json:"Password" validate:"required,min=10"`
	Email    string `json:"Email" validate:"required,email"`
	Birthday string `json:"Birthday" validate:"omitempty,datetime=2006-01-02"`
}

// LoginResponse is the POST /login response body: the user document plus an
// opaque bearer token.
type LoginResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// DecodeMovies parses the GET /movies response body.
func DecodeMovies(data []byte) ([]Movie, error) {
	var movies []Movie
	if err := json.Unmarshal(data, &movies); err != nil {
		return nil, err
	}
	return movies, nil
}
