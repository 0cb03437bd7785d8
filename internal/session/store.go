// Cinefile - Movie Catalog Client with Favourites Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinefile

// Package session owns the durable representation of "current user" and
// "current token". It is the only writer of persisted session state; every
// other component either reads through it or asks it to mutate.
//
// State lives in BadgerDB under two keys, "user" (JSON user document) and
// "token" (raw bearer string). A session without a token is treated as
// absent for authentication purposes: no authenticated call is attempted.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/cinefile/internal/api"
	"github.com/tomtom215/cinefile/internal/config"
	"github.com/tomtom215/cinefile/internal/logging"
	"github.com/tomtom215/cinefile/internal/metrics"
	"github.com/tomtom215/cinefile/internal/models"
)

// Badger keys for the persisted session.
const (
	userKey  = "user"
	tokenKey = "token"
)

// Store is the badger-backed session store.
type Store struct {
	db  *badger.DB
	api api.Service

	// mu serializes mutations; persisted session state is a single shared
	// resource with no caller-visible transaction isolation.
	mu sync.Mutex

	logger zerolog.Logger
}

// OpenDB opens the BadgerDB instance backing the session store. Badger's own
// chatty logger is disabled; Cinefile logs through its central logger instead.
func OpenDB(cfg *config.StorageConfig) (*badger.DB, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open session database: %w", err)
	}
	return db, nil
}

// NewStore creates a session store over db, using svc for the account
// endpoints (login, register, profile edit, delete).
func NewStore(db *badger.DB, svc api.Service) *Store {
	return &Store{
		db:     db,
		api:    svc,
		logger: logging.With().Str("component", "session").Logger(),
	}
}

// Login authenticates against the catalog API and persists the returned user
// and token as the new session. User and token are written in a single
// transaction, so a half-written session (user without token) cannot be
// observed afterwards.
func (s *Store) Login(ctx context.Context, creds models.Credentials) (*models.Session, error) {
	resp, err := s.api.Login(ctx, creds)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	userData, err := json.Marshal(&resp.User)
	if err != nil {
		return nil, fmt.Errorf("marshal user: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(userKey), userData); err != nil {
			return fmt.Errorf("set user: %w", err)
		}
		if err := txn.Set([]byte(tokenKey), []byte(resp.Token)); err != nil {
			return fmt.Errorf("set token: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	metrics.SessionOperations.WithLabelValues("login").Inc()
	s.logger.Info().Str("user_id", resp.User.ID).Str("username", resp.User.Username).Msg("session established")

	return &models.Session{User: resp.User, Token: resp.Token}, nil
}

// Register creates a new account. It does not log the user in or touch the
// persisted session; callers follow up with Login.
func (s *Store) Register(ctx context.Context, reg models.Registration) (*models.User, error) {
	user, err := s.api.Register(ctx, reg)
	if err != nil {
		return nil, err
	}

	metrics.SessionOperations.WithLabelValues("register").Inc()
	return user, nil
}

// Current returns the persisted session, or nil when no user was ever stored,
// storage was cleared, or the stored user fails to parse. A malformed stored
// user is logged and treated as an absent session, never an error.
func (s *Store) Current() *models.Session {
	var userData, tokenData []byte

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(userKey))
		if err != nil {
			return err
		}
		userData, err = item.ValueCopy(nil)
		if err != nil {
			return err
		}

		tokenItem, err := txn.Get([]byte(tokenKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil // user without token: unauthenticated but present
		}
		if err != nil {
			return err
		}
		tokenData, err = tokenItem.ValueCopy(nil)
		return err
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			s.logger.Warn().Err(err).Msg("reading persisted session failed, treating as absent")
		}
		return nil
	}

	var user models.User
	if err := json.Unmarshal(userData, &user); err != nil {
		s.logger.Warn().Err(err).Msg("persisted session is malformed, treating as absent")
		return nil
	}

	return &models.Session{User: user, Token: string(tokenData)}
}

// Token supplies the bearer token for the transport's authenticated calls.
// It fails with api.ErrUnauthenticated when no token is stored or the stored
// token is an expired JWT.
func (s *Store) Token() (string, error) {
	var tokenData []byte

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(tokenKey))
		if err != nil {
			return err
		}
		tokenData, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return "", api.ErrUnauthenticated
	}

	token := string(tokenData)
	if token == "" {
		return "", api.ErrUnauthenticated
	}

	if expired, err := tokenExpired(token); err == nil && expired {
		s.logger.Debug().Msg("stored bearer token is expired")
		return "", api.ErrUnauthenticated
	}

	return token, nil
}

// Replace overwrites the persisted user document, preserving the stored
// token. The caller supplies the server's user document as returned by the
// API; the server is authoritative, including for the favourites set.
func (s *Store) Replace(user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replaceLocked(user)
}

func (s *Store) replaceLocked(user models.User) error {
	userData, err := json.Marshal(&user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(userKey), userData)
	})
	if err != nil {
		return fmt.Errorf("persist user: %w", err)
	}

	metrics.SessionOperations.WithLabelValues("replace").Inc()
	return nil
}

// UpdateProfile submits edited profile fields and replaces the persisted user
// with the server's response.
func (s *Store) UpdateProfile(ctx context.Context, update models.ProfileUpdate) (*models.User, error) {
	current := s.Current()
	if !current.Authenticated() {
		return nil, api.ErrUnauthenticated
	}

	user, err := s.api.UpdateUser(ctx, current.User.ID, update)
	if err != nil {
		return nil, err
	}

	if err := s.Replace(*user); err != nil {
		return nil, err
	}
	return user, nil
}

// Logout wipes the persisted session and token. Calling it with no session
// present is a no-op, not an error.
func (s *Store) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.clearLocked(); err != nil {
		return err
	}

	metrics.SessionOperations.WithLabelValues("logout").Inc()
	s.logger.Info().Msg("session cleared")
	return nil
}

// DeleteAccount deletes the account upstream, then wipes the persisted
// session. Local state is only cleared once the server confirms the delete.
func (s *Store) DeleteAccount(ctx context.Context) error {
	current := s.Current()
	if !current.Authenticated() {
		return api.ErrUnauthenticated
	}

	if err := s.api.DeleteUser(ctx, current.User.ID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.clearLocked(); err != nil {
		return err
	}

	metrics.SessionOperations.WithLabelValues("delete_account").Inc()
	s.logger.Info().Str("user_id", current.User.ID).Msg("account deleted, session cleared")
	return nil
}

// clearLocked deletes both session keys in one transaction. Deleting keys
// that do not exist is fine; badger treats it as a no-op.
func (s *Store) clearLocked() error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(userKey)); err != nil {
			return err
		}
		return txn.Delete([]byte(tokenKey))
	})
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
