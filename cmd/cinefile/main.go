// Cinefile - Movie Catalog Client with Favourites Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinefile

// Package main is the entry point for the cinefile command line client.
//
// Cinefile is a client for the myFlix movie catalog API: it browses the
// catalog, searches it locally, and keeps a per-user favourites set in sync
// with the server. Session state (the logged-in user document plus bearer
// token) persists in a local BadgerDB between invocations, so a login
// survives until logout, account deletion, or token expiry.
//
// # Application Architecture
//
// Each invocation initializes components in the following order:
//
//  1. Configuration: environment variables over config file over defaults (Koanf v2)
//  2. Logging: zerolog, console or JSON format
//  3. Session database: BadgerDB at the configured data directory
//  4. API client: HTTP transport wrapped in a circuit breaker (sony/gobreaker)
//  5. Session store, favourites reconciler, catalog cache
//
// The API client takes its bearer token from the session store on every
// authenticated call; commands never handle tokens directly.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): CINEFILE_* environment variables, then a config file
// (cinefile.yaml in the working directory or the user config directory, or
// the path in CINEFILE_CONFIG), then built-in defaults.
//
//	export CINEFILE_API_BASE_URL=https://movies-myflix-api-84dbf8740f2d.herokuapp.com
//	export CINEFILE_LOG_LEVEL=debug
//	cinefile movies
//
// # Commands
//
//	cinefile signup -username NAME -password PASS -email ADDR [-birthday YYYY-MM-DD]
//	cinefile login -username NAME -password PASS
//	cinefile logout
//	cinefile movies
//	cinefile search QUERY...
//	cinefile movie TITLE...
//	cinefile director NAME...
//	cinefile genre NAME...
//	cinefile favourites
//	cinefile favourite MOVIE_ID
//	cinefile profile
//	cinefile update-profile -username NAME -password PASS -email ADDR [-birthday YYYY-MM-DD]
//	cinefile delete-account -confirm
//	cinefile version
//
// "favourite" toggles: it adds the movie when absent and removes it when
// present, printing the resulting state. A failed toggle leaves the local
// favourites exactly as they were.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/tomtom215/cinefile/internal/api"
	"github.com/tomtom215/cinefile/internal/catalog"
	"github.com/tomtom215/cinefile/internal/config"
	"github.com/tomtom215/cinefile/internal/favorites"
	"github.com/tomtom215/cinefile/internal/logging"
	"github.com/tomtom215/cinefile/internal/models"
	"github.com/tomtom215/cinefile/internal/session"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

// commandTimeout bounds every invocation; a hung catalog API must not hang
// the terminal.
const commandTimeout = 60 * time.Second

// app bundles the wired components every command runs against.
type app struct {
	cfg        *config.Config
	api        api.Service
	store      *session.Store
	catalog    *catalog.Cache
	reconciler *favorites.Reconciler
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		usage()
		return 2
	}

	command := args[0]
	if command == "version" {
		fmt.Println("cinefile " + version)
		return 0
	}
	if command == "help" || command == "-h" || command == "--help" {
		usage()
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Error().Err(err).Msg("Failed to load configuration")
		return 1
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	db, err := session.OpenDB(&cfg.Storage)
	if err != nil {
		logging.Error().Err(err).Str("path", cfg.Storage.Path).Msg("Failed to open session database")
		return 1
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing session database")
		}
	}()

	client := api.New(&cfg.API, nil)
	service := api.NewBreakerClient(client, &cfg.Breaker)
	store := session.NewStore(db, service)
	client.SetTokenSource(store)

	a := &app{
		cfg:        cfg,
		api:        service,
		store:      store,
		catalog:    catalog.New(service, store),
		reconciler: favorites.New(store, service),
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if err := a.dispatch(ctx, command, args[1:]); err != nil {
		if errors.Is(err, api.ErrUnauthenticated) {
			fmt.Fprintln(os.Stderr, "Not logged in. Run: cinefile login -username NAME -password PASS")
		} else {
			fmt.Fprintln(os.Stderr, "Error: "+err.Error())
		}
		return 1
	}
	return 0
}

func (a *app) dispatch(ctx context.Context, command string, args []string) error {
	switch command {
	case "signup":
		return a.signup(ctx, args)
	case "login":
		return a.login(ctx, args)
	case "logout":
		return a.logout()
	case "movies":
		return a.movies(ctx)
	case "search":
		return a.search(ctx, args)
	case "movie":
		return a.movie(ctx, args)
	case "director":
		return a.director(ctx, args)
	case "genre":
		return a.genre(ctx, args)
	case "favourites":
		return a.favourites(ctx)
	case "favourite":
		return a.favourite(ctx, args)
	case "profile":
		return a.profile()
	case "update-profile":
		return a.updateProfile(ctx, args)
	case "delete-account":
		return a.deleteAccount(ctx, args)
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

// accountForm parses the flags shared by signup and update-profile.
func accountForm(name string, args []string) (models.Registration, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	username := fs.String("username", "", "account username (10 characters minimum)")
	password := fs.String("password", "", "account password (10 characters minimum)")
	email := fs.String("email", "", "account email address")
	birthday := fs.String("birthday", "", "birthday as YYYY-MM-DD (optional)")
	if err := fs.Parse(args); err != nil {
		return models.Registration{}, err
	}
	return models.Registration{
		Username: *username,
		Password: *password,
		Email:    *email,
		Birthday: *birthday,
	}, nil
}

func (a *app) signup(ctx context.Context, args []string) error {
	reg, err := accountForm("signup", args)
	if err != nil {
		return err
	}

	user, err := a.store.Register(ctx, reg)
	if err != nil {
		return err
	}

	fmt.Printf("Account %q created. Log in with: cinefile login -username %s -password ...\n", user.Username, user.Username)
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	username := fs.String("username", "", "account username")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sess, err := a.store.Login(ctx, models.Credentials{Username: *username, Password: *password})
	if err != nil {
		return err
	}

	fmt.Printf("Logged in as %s (%d favourites).\n", sess.User.Username, len(sess.User.FavouriteMovies))
	return nil
}

func (a *app) logout() error {
	if err := a.store.Logout(); err != nil {
		return err
	}
	fmt.Println("Logged out.")
	return nil
}

func (a *app) movies(ctx context.Context) error {
	movies, err := a.catalog.Load(ctx)
	if err != nil {
		return err
	}

	for _, m := range movies {
		printMovieLine(&m, a.reconciler.IsFavourite(m.ID))
	}
	fmt.Printf("%d movies.\n", len(movies))
	return nil
}

func (a *app) search(ctx context.Context, args []string) error {
	query := strings.Join(args, " ")
	if query == "" {
		return errors.New("search needs a query")
	}

	if _, err := a.catalog.Load(ctx); err != nil {
		return err
	}
	a.catalog.Filter(query)

	matched := a.catalog.Filtered()
	for _, m := range matched {
		printMovieLine(&m, a.reconciler.IsFavourite(m.ID))
	}
	fmt.Printf("%d of %d movies match %q.\n", len(matched), len(a.catalog.All()), query)
	return nil
}

func (a *app) movie(ctx context.Context, args []string) error {
	title := strings.Join(args, " ")
	if title == "" {
		return errors.New("movie needs a title")
	}

	// Single-movie details come from the server, not the cache; the detail
	// view must work without a prior catalog load.
	movie, err := a.api.Movie(ctx, title)
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", movie.Title)
	fmt.Printf("  Director: %s\n", movie.Director.Name)
	fmt.Printf("  Genre:    %s\n", movie.Genre.Name)
	if movie.Description != "" {
		fmt.Printf("  %s\n", movie.Description)
	}
	if a.reconciler.IsFavourite(movie.ID) {
		fmt.Println("  In your favourites.")
	}
	return nil
}

func (a *app) director(ctx context.Context, args []string) error {
	name := strings.Join(args, " ")
	if name == "" {
		return errors.New("director needs a name")
	}

	director, err := a.api.Director(ctx, name)
	if err != nil {
		return err
	}

	fmt.Println(director.Name)
	if director.Birth != "" {
		line := "  Born " + director.Birth
		if director.Death != "" {
			line += ", died " + director.Death
		}
		fmt.Println(line)
	}
	if director.Bio != "" {
		fmt.Println("  " + director.Bio)
	}
	return nil
}

func (a *app) genre(ctx context.Context, args []string) error {
	name := strings.Join(args, " ")
	if name == "" {
		return errors.New("genre needs a name")
	}

	genre, err := a.api.Genre(ctx, name)
	if err != nil {
		return err
	}

	fmt.Println(genre.Name)
	if genre.Description != "" {
		fmt.Println("  " + genre.Description)
	}
	return nil
}

func (a *app) favourites(ctx context.Context) error {
	if !a.store.Current().Authenticated() {
		return api.ErrUnauthenticated
	}

	if _, err := a.catalog.Load(ctx); err != nil {
		return err
	}

	favs := a.catalog.Favourites()
	if len(favs) == 0 {
		fmt.Println("No favourites yet.")
		return nil
	}
	for _, m := range favs {
		printMovieLine(&m, true)
	}
	fmt.Printf("%d favourites.\n", len(favs))
	return nil
}

func (a *app) favourite(ctx context.Context, args []string) error {
	if len(args) != 1 || args[0] == "" {
		return errors.New("favourite needs exactly one movie id")
	}
	movieID := args[0]

	nowFavourite, err := a.reconciler.Toggle(ctx, movieID)
	if err != nil {
		return fmt.Errorf("favourite toggle for %s failed, local favourites unchanged: %w", movieID, err)
	}

	name := movieID
	if movie := a.catalog.MovieByID(movieID); movie != nil {
		name = movie.Title
	}
	if nowFavourite {
		fmt.Printf("Added %s to favourites.\n", name)
	} else {
		fmt.Printf("Removed %s from favourites.\n", name)
	}
	return nil
}

func (a *app) profile() error {
	sess := a.store.Current()
	if !sess.Authenticated() {
		return api.ErrUnauthenticated
	}

	fmt.Printf("Username: %s\n", sess.User.Username)
	fmt.Printf("Email:    %s\n", sess.User.Email)
	if sess.User.Birthday != "" {
		fmt.Printf("Birthday: %s\n", sess.User.Birthday)
	}
	fmt.Printf("Favourites: %d\n", len(sess.User.FavouriteMovies))
	return nil
}

func (a *app) updateProfile(ctx context.Context, args []string) error {
	form, err := accountForm("update-profile", args)
	if err != nil {
		return err
	}

	user, err := a.store.UpdateProfile(ctx, models.ProfileUpdate(form))
	if err != nil {
		return err
	}

	fmt.Printf("Profile updated for %s.\n", user.Username)
	return nil
}

func (a *app) deleteAccount(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete-account", flag.ContinueOnError)
	confirm := fs.Bool("confirm", false, "really delete the account upstream")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !*confirm {
		return errors.New("account deletion is permanent; re-run with -confirm")
	}

	if err := a.store.DeleteAccount(ctx); err != nil {
		return err
	}
	fmt.Println("Account deleted and session cleared.")
	return nil
}

func printMovieLine(m *models.Movie, favourite bool) {
	marker := " "
	if favourite {
		marker = "*"
	}
	fmt.Printf("%s %-40s %-22s %s\n", marker, m.Title, m.Director.Name, m.Genre.Name)
}

func usage() {
	fmt.Fprint(os.Stderr, `cinefile - movie catalog client

Usage:
  cinefile signup -username NAME -password PASS -email ADDR [-birthday YYYY-MM-DD]
  cinefile login -username NAME -password PASS
  cinefile logout
  cinefile movies
  cinefile search QUERY...
  cinefile movie TITLE...
  cinefile director NAME...
  cinefile genre NAME...
  cinefile favourites
  cinefile favourite MOVIE_ID
  cinefile profile
  cinefile update-profile -username NAME -password PASS -email ADDR [-birthday YYYY-MM-DD]
  cinefile delete-account -confirm
  cinefile version
`)
}
