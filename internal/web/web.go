// Package web serves the discover web application.
//
// # Routes
//
//	GET  /                  landing page, login or navigation depending on the session
//	GET  /login             clears the session, issues an OAuth state and redirects to Spotify
//	GET  /callback          verifies state, exchanges the code and stores the token
//	GET  /top_artists       top artists (?time_range=short_term|medium_term|long_term)
//	GET  /top_musics        top tracks (?time_range=...)
//	GET  /recommender       recommendations seeded from the top tracks
//	POST /recommender       creates the "Discover ur Feelings" playlist from the recommendations
//	GET  /playlist_created  confirmation for the last created playlist
//	GET  /logout            clears the session
//	GET  /healthz           liveness
//	GET  /metrics           prometheus metrics
//
// # Authentication
//
// Protected routes require a token in the session. The token is passed through
// [Authenticator.EnsureValid] on every request; a refreshed token replaces the one in the session
// and is persisted. Any authentication failure clears the token and redirects to /login.
//
// # Errors
//
// Remote API failures render the error view with 502. A playlist that was created but could not be
// filled renders a distinct 502 view naming it. Missing recommendation seeds render a notice instead
// of an error. Token persistence failures are logged and never fail a request.
package web

import (
	"context"
	"fmt"
	"html/template"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/discover/internal/metrics"
	"github.com/desertthunder/discover/internal/models"
	"github.com/desertthunder/discover/internal/server"
	"github.com/desertthunder/discover/internal/services"
	"github.com/desertthunder/discover/internal/session"
	"github.com/desertthunder/discover/internal/shared"
)

// PlaylistName is the name of the playlist created from recommendations.
const PlaylistName = "Discover ur Feelings"

// Authenticator runs the OAuth flow. Implemented by [services.OAuthManager].
type Authenticator interface {
	AuthorizeURL(state string) string
	Exchange(ctx context.Context, code string) (*models.TokenRecord, error)
	EnsureValid(ctx context.Context, rec *models.TokenRecord) (*models.TokenRecord, error)
}

// MusicClient reads and writes Spotify data. Implemented by [services.SpotifyClient].
type MusicClient interface {
	TopTracks(ctx context.Context, tok *models.TokenRecord, limit int, timeRange services.TimeRange) ([]models.Track, error)
	TopArtists(ctx context.Context, tok *models.TokenRecord, limit int, timeRange services.TimeRange) ([]models.Artist, error)
	Recommendations(ctx context.Context, tok *models.TokenRecord, seedTrackIDs []string, limit int) ([]models.Track, error)
	CurrentUser(ctx context.Context, tok *models.TokenRecord) (*models.UserProfile, error)
	CreatePlaylist(ctx context.Context, tok *models.TokenRecord, ownerID, name string, uris []string, opts services.PlaylistOptions) (*models.Playlist, error)
}

// TokenSaver persists the latest token. Implemented by [repositories.TokenRepository].
type TokenSaver interface {
	Save(ctx context.Context, rec *models.TokenRecord) error
}

// Options holds the dependencies of an [App].
type Options struct {
	Auth     Authenticator
	Music    MusicClient
	Tokens   TokenSaver // optional
	Sessions *session.Manager
	Logger   *log.Logger
	NewState func() (string, error) // defaults to [shared.GenerateState]
}

// App implements the HTTP surface of discover.
type App struct {
	auth      Authenticator
	music     MusicClient
	tokens    TokenSaver
	sessions  *session.Manager
	logger    *log.Logger
	newState  func() (string, error)
	templates map[string]*template.Template
}

// New creates an [App] and parses its templates.
func New(opts Options) (*App, error) {
	if opts.Auth == nil || opts.Music == nil {
		return nil, fmt.Errorf("%w: web app needs an authenticator and a music client", shared.ErrMissingArgument)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Sessions == nil {
		opts.Sessions = session.NewManager(session.ManagerOptions{Logger: opts.Logger})
	}
	if opts.NewState == nil {
		opts.NewState = shared.GenerateState
	}

	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	return &App{
		auth:      opts.Auth,
		music:     opts.Music,
		tokens:    opts.Tokens,
		sessions:  opts.Sessions,
		logger:    shared.WithLogger(opts.Logger, "component", "web"),
		newState:  opts.NewState,
		templates: templates,
	}, nil
}

// Routes implements [server.Handler]. Every page route runs behind the session middleware.
func (a *App) Routes() []server.Route {
	page := func(method, path string, h http.HandlerFunc) server.Route {
		return server.Route{Method: method, Path: path, Handler: a.sessions.Middleware(h)}
	}

	return []server.Route{
		page(http.MethodGet, "/{$}", a.index),
		page(http.MethodGet, "/login", a.login),
		page(http.MethodGet, "/callback", a.callback),
		page(http.MethodGet, "/top_artists", a.protected(a.topArtists)),
		page(http.MethodGet, "/top_musics", a.protected(a.topMusics)),
		page(http.MethodGet, "/recommender", a.protected(a.recommender)),
		page(http.MethodPost, "/recommender", a.protected(a.createPlaylist)),
		page(http.MethodGet, "/playlist_created", a.protected(a.playlistCreated)),
		page(http.MethodGet, "/logout", a.logout),
		{Method: http.MethodGet, Path: "/healthz", Handler: http.HandlerFunc(a.healthz)},
		{Method: http.MethodGet, Path: "/metrics", Handler: metrics.Handler()},
	}
}

// Handler returns the complete HTTP handler with middleware installed.
func (a *App) Handler() http.Handler {
	r := server.NewBasicRouter()
	r.Use(
		server.Recover(a.logger, http.HandlerFunc(a.internalError)),
		server.NoCache,
		metrics.Middleware,
		server.Logging(a.logger),
	)
	r.Handler(a)
	return r
}
