// Cinefile - Movie Catalog Client with Favourites Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinefile

package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenExpired reports whether token is a JWT whose exp claim has passed.
// The token is decoded without signature verification: the client holds no
// signing key and only wants to skip calls the server is guaranteed to
// reject. A token that is not a JWT, or carries no exp claim, is treated as
// opaque and usable; only the server can judge it.
func tokenExpired(token string) (bool, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()

	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return false, err
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false, nil
	}

	return exp.Before(time.Now()), nil
}
