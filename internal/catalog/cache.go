// Cinefile - Movie Catalog Client with Favourites Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinefile

// Package catalog caches the last-fetched movie list and derives filtered and
// favourites views from it. The cache is never independently authoritative:
// every view is recomputable from the movie list, the session's favourite id
// set, and the current search query.
package catalog

import (
	"context"
	"strings"
	"sync"

	"github.com/tomtom215/cinefile/internal/api"
	"github.com/tomtom215/cinefile/internal/models"
	"github.com/tomtom215/cinefile/internal/session"
)

// Cache holds the movie catalog and its derived views.
//
// Thread safety: safe for concurrent readers; Load and Filter serialize
// through the write lock.
type Cache struct {
	api   api.Service
	store *session.Store

	mu       sync.RWMutex
	all      []models.Movie
	filtered []models.Movie
	query    string
}

// New creates an empty catalog cache.
func New(svc api.Service, store *session.Store) *Cache {
	return &Cache{api: svc, store: store}
}

// Load fetches the full catalog, replaces the cached list, and recomputes the
// filtered view under the current query.
func (c *Cache) Load(ctx context.Context) ([]models.Movie, error) {
	movies, err := c.api.Movies(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.all = movies
	c.filtered = filterMovies(movies, c.query)
	c.mu.Unlock()

	return cloneMovies(movies), nil
}

// Filter recomputes the filtered view: movies whose title, director name,
// genre name, or genre description contains query case-insensitively. An
// empty query yields the full list in original order.
func (c *Cache) Filter(query string) {
	c.mu.Lock()
	c.query = query
	c.filtered = filterMovies(c.all, query)
	c.mu.Unlock()
}

// All returns the last-fetched full catalog in server order. The returned
// slice is the caller's; mutating it cannot corrupt the cache.
func (c *Cache) All() []models.Movie {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneMovies(c.all)
}

// Filtered returns the catalog view under the current query, as a detached
// copy like All.
func (c *Cache) Filtered() []models.Movie {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneMovies(c.filtered)
}

// cloneMovies copies a view slice. An empty query makes filtered alias all,
// so handing out the internal slices would let one caller's mutation reach
// every other view.
func cloneMovies(movies []models.Movie) []models.Movie {
	if movies == nil {
		return nil
	}
	out := make([]models.Movie, len(movies))
	copy(out, movies)
	return out
}

// Query returns the current search query.
func (c *Cache) Query() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.query
}

// Favourites projects the catalog onto the session's favourite id set, in
// catalog order. It is recomputed on every call so it always reflects the
// current session, including optimistic favourite state while a toggle is
// pending. Favourite ids with no matching loaded movie are skipped.
func (c *Cache) Favourites() []models.Movie {
	sess := c.store.Current()
	if sess == nil {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var favourites []models.Movie
	for _, movie := range c.all {
		if sess.User.HasFavourite(movie.ID) {
			favourites = append(favourites, movie)
		}
	}
	return favourites
}

// MovieByID looks a movie up in the loaded catalog. Returns nil when the
// catalog is not loaded or the id is unknown.
func (c *Cache) MovieByID(id string) *models.Movie {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for i := range c.all {
		if c.all[i].ID == id {
			m := c.all[i]
			return &m
		}
	}
	return nil
}

// MovieByTitle looks a movie up by exact title, case-insensitively.
func (c *Cache) MovieByTitle(title string) *models.Movie {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for i := range c.all {
		if strings.EqualFold(c.all[i].Title, title) {
			m := c.all[i]
			return &m
		}
	}
	return nil
}

// filterMovies returns the subsequence of movies matching query on any of
// title, director name, genre name, or genre description. Matching is
// case-insensitive substring; zero-value fields simply never match.
func filterMovies(movies []models.Movie, query string) []models.Movie {
	if query == "" {
		return movies
	}

	q := strings.ToLower(query)
	var matched []models.Movie
	for _, movie := range movies {
		if movieMatches(&movie, q) {
			matched = append(matched, movie)
		}
	}
	return matched
}

// movieMatches checks one movie against a pre-lowercased query.
func movieMatches(movie *models.Movie, q string) bool {
	return strings.Contains(strings.ToLower(movie.Title), q) ||
		strings.Contains(strings.ToLower(movie.Director.Name), q) ||
		strings.Contains(strings.ToLower(movie.Genre.Name), q) ||
		strings.Contains(strings.ToLower(movie.Genre.Description), q)
}
