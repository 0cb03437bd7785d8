// Cinefile - Movie Catalog Client with Favourites Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinefile

// Package favorites maintains the authoritative membership set of a user's
// favourite movies. Toggles are applied optimistically to the local session
// and confirmed with the server; any failure rolls the local set back to its
// pre-toggle state and is reported to the caller. Revert-on-failure lives
// here as a single enforced rule rather than a pattern each call site has to
// remember.
package favorites

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tomtom215/cinefile/internal/api"
	"github.com/tomtom215/cinefile/internal/logging"
	"github.com/tomtom215/cinefile/internal/metrics"
	"github.com/tomtom215/cinefile/internal/session"
)

// Reconciler applies favourite toggles with optimistic local mutation and
// server confirmation.
//
// At most one toggle per (userID, movieID) pair is in flight at a time; a
// second toggle for the same pair waits for the first to resolve before
// starting. This prevents add/remove races from producing an inconsistent
// membership state. Toggles for different pairs proceed independently.
type Reconciler struct {
	store *session.Store
	api   api.Service

	mu       sync.Mutex
	inflight map[string]chan struct{}

	logger zerolog.Logger
}

// New creates a reconciler over the session store and API service.
func New(store *session.Store, svc api.Service) *Reconciler {
	return &Reconciler{
		store:    store,
		api:      svc,
		inflight: make(map[string]chan struct{}),
		logger:   logging.With().Str("component", "favorites").Logger(),
	}
}

// IsFavourite reports whether movieID is in the current session's favourite
// set. False when no session is present.
func (r *Reconciler) IsFavourite(movieID string) bool {
	sess := r.store.Current()
	if sess == nil {
		return false
	}
	return sess.User.HasFavourite(movieID)
}

// Toggle flips movieID's membership in the current user's favourite set.
//
// The local set is mutated immediately, then the matching server call (add if
// the movie was absent, remove if present) is issued. On success the local
// state already matches the server and is kept. On failure the optimistic
// mutation is undone, touching only this movie's membership so toggles
// confirmed for other movies in the meantime keep their state, and the error
// is returned; it is never silently dropped.
//
// The movie id does not have to be present in the catalog cache; favourites
// are keyed by id, not by a loaded movie object.
//
// Returns whether the movie is a favourite after the toggle resolved.
func (r *Reconciler) Toggle(ctx context.Context, movieID string) (bool, error) {
	sess := r.store.Current()
	if !sess.Authenticated() {
		return false, api.ErrUnauthenticated
	}

	release, err := r.acquire(ctx, sess.User.ID+"\x00"+movieID)
	if err != nil {
		return false, err
	}
	defer release()

	// Re-read after acquiring: an earlier toggle for this pair may have
	// resolved while we waited and changed the membership we key off.
	sess = r.store.Current()
	if !sess.Authenticated() {
		return false, api.ErrUnauthenticated
	}

	userID := sess.User.ID
	wasFavourite := sess.User.HasFavourite(movieID)

	// Optimistic apply: the pending state is visible locally right away.
	updated := sess.User.Clone()
	if wasFavourite {
		updated.RemoveFavourite(movieID)
	} else {
		updated.AddFavourite(movieID)
	}
	if err := r.store.Replace(*updated); err != nil {
		return wasFavourite, err
	}

	if wasFavourite {
		err = r.api.RemoveFavourite(ctx, userID, movieID)
	} else {
		err = r.api.AddFavourite(ctx, userID, movieID)
	}

	if err != nil {
		// Revert: local state must never stay diverged from the last
		// server-confirmed state.
		if revertErr := r.revert(movieID, wasFavourite); revertErr != nil {
			r.logger.Error().
				Str("movie_id", movieID).
				Err(revertErr).
				Msg("rollback after failed toggle also failed; local state may be diverged")
		}
		metrics.FavouriteToggles.WithLabelValues("reverted").Inc()
		r.logger.Warn().
			Str("movie_id", movieID).
			Bool("was_favourite", wasFavourite).
			Err(err).
			Msg("favourite toggle reverted")
		return wasFavourite, err
	}

	outcome := "confirmed_add"
	if wasFavourite {
		outcome = "confirmed_remove"
	}
	metrics.FavouriteToggles.WithLabelValues(outcome).Inc()
	r.logger.Debug().
		Str("movie_id", movieID).
		Bool("favourite", !wasFavourite).
		Msg("favourite toggle confirmed")

	return !wasFavourite, nil
}

// revert undoes the optimistic mutation for movieID only, against a fresh
// read of the session. Toggles for other movies and profile updates may have
// committed while the failed call was in flight; restoring a pre-toggle
// snapshot of the whole user would erase their server-confirmed state.
func (r *Reconciler) revert(movieID string, wasFavourite bool) error {
	sess := r.store.Current()
	if sess == nil {
		return nil // session cleared mid-flight; nothing to restore
	}

	user := sess.User.Clone()
	if wasFavourite {
		user.AddFavourite(movieID)
	} else {
		user.RemoveFavourite(movieID)
	}
	return r.store.Replace(*user)
}

// acquire blocks until no toggle for key is in flight, then claims the slot.
// The returned release function must be called exactly once.
func (r *Reconciler) acquire(ctx context.Context, key string) (func(), error) {
	for {
		r.mu.Lock()
		ch, busy := r.inflight[key]
		if !busy {
			done := make(chan struct{})
			r.inflight[key] = done
			r.mu.Unlock()
			return func() {
				r.mu.Lock()
				delete(r.inflight, key)
				r.mu.Unlock()
				close(done)
			}, nil
		}
		r.mu.Unlock()

		select {
		case <-ch:
			// Previous toggle resolved; try to claim again.
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
