package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/discover/internal/metrics"
	"github.com/desertthunder/discover/internal/models"
	"github.com/desertthunder/discover/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"

	// fallbackTokenLifetime is assumed when a token response carries no usable expiry.
	// Spotify access tokens last one hour.
	fallbackTokenLifetime = time.Hour
)

// DefaultScopes are requested at login. The playlist scopes are needed to create the recommendations playlist.
var DefaultScopes = []string{
	"user-top-read",
	"playlist-modify-public",
	"playlist-modify-private",
}

// SpotifyEndpoint is the Spotify accounts service.
//
// Spotify accepts client credentials in the Authorization header, so auto detection (which can retry
// a failed exchange with form credentials) is skipped.
var SpotifyEndpoint = oauth2.Endpoint{
	AuthURL:   spotifyAuthURL,
	TokenURL:  spotifyTokenURL,
	AuthStyle: oauth2.AuthStyleInHeader,
}

// OAuthManagerOptions configures an [OAuthManager].
type OAuthManagerOptions struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string

	Scopes     []string         // defaults to [DefaultScopes]
	Endpoint   oauth2.Endpoint  // defaults to [SpotifyEndpoint]
	HTTPClient *http.Client     // defaults to [http.DefaultClient]
	Timeout    time.Duration    // defaults to [DefaultTimeout]
	Now        func() time.Time // defaults to [time.Now]
	Logger     *log.Logger
}

// OAuthManager runs the authorization-code flow and keeps tokens fresh.
type OAuthManager struct {
	config     *oauth2.Config
	httpClient *http.Client
	timeout    time.Duration
	now        func() time.Time
	logger     *log.Logger
}

// NewOAuthManager creates an [OAuthManager]. Client ID, secret and redirect URI are required.
func NewOAuthManager(opts OAuthManagerOptions) (*OAuthManager, error) {
	if opts.ClientID == "" || opts.ClientSecret == "" || opts.RedirectURI == "" {
		return nil, fmt.Errorf("%w: client id, client secret and redirect uri are required", shared.ErrMissingCredentials)
	}

	if len(opts.Scopes) == 0 {
		opts.Scopes = DefaultScopes
	}
	if opts.Endpoint.TokenURL == "" {
		opts.Endpoint = SpotifyEndpoint
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &OAuthManager{
		config: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			RedirectURL:  opts.RedirectURI,
			Scopes:       opts.Scopes,
			Endpoint:     opts.Endpoint,
		},
		httpClient: opts.HTTPClient,
		timeout:    opts.Timeout,
		now:        opts.Now,
		logger:     shared.WithLogger(opts.Logger, "component", "oauth"),
	}, nil
}

// AuthorizeURL returns the consent page URL carrying state.
//
// show_dialog forces the consent screen so a user can switch accounts after logging out.
func (m *OAuthManager) AuthorizeURL(state string) string {
	return m.config.AuthCodeURL(state, oauth2.SetAuthURLParam("show_dialog", "true"))
}

// Exchange trades an authorization code for a token record.
func (m *OAuthManager) Exchange(ctx context.Context, code string) (*models.TokenRecord, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: empty authorization code", shared.ErrAuthExchange)
	}

	ctx, cancel := m.withClient(ctx)
	defer cancel()

	tok, err := m.config.Exchange(ctx, code)
	metrics.ObserveTokenOperation("exchange", err)
	if err != nil {
		m.logger.Error("code exchange failed", "error", err)
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthExchange, timeoutOr(ctx, err))
	}

	return m.record(tok, nil), nil
}

// EnsureValid returns rec unchanged while it is unexpired. An expired record is refreshed
// with a single call to the token endpoint and the new record is returned.
func (m *OAuthManager) EnsureValid(ctx context.Context, rec *models.TokenRecord) (*models.TokenRecord, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthExpired, shared.ErrNotAuthenticated)
	}
	if !rec.Expired(m.now()) {
		return rec, nil
	}
	if !rec.CanRefresh() {
		return nil, fmt.Errorf("%w: no refresh token", shared.ErrAuthExpired)
	}

	ctx, cancel := m.withClient(ctx)
	defer cancel()

	// A token with no access token is always invalid, so the source refreshes immediately.
	src := m.config.TokenSource(ctx, &oauth2.Token{RefreshToken: rec.RefreshToken})
	tok, err := src.Token()
	metrics.ObserveTokenOperation("refresh", err)
	if err != nil {
		m.logger.Warn("token refresh failed", "error", err)
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthExpired, timeoutOr(ctx, err))
	}

	m.logger.Debug("token refreshed")
	return m.record(tok, rec), nil
}

// withClient bounds ctx by the manager timeout and routes oauth2 through the configured client.
func (m *OAuthManager) withClient(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	return context.WithValue(ctx, oauth2.HTTPClient, m.httpClient), cancel
}

// record converts tok, computing the expiry from expires_in against the manager clock.
// A response without a future expiry is given [fallbackTokenLifetime]. Missing fields fall back to prev.
func (m *OAuthManager) record(tok *oauth2.Token, prev *models.TokenRecord) *models.TokenRecord {
	rec := models.TokenFromOAuth2(tok)
	now := m.now()
	if d, ok := expiresIn(tok); ok {
		rec.ExpiresAt = now.Add(d)
	} else if !rec.ExpiresAt.After(now) {
		m.logger.Warn("token response has no expiry, assuming default lifetime", "lifetime", fallbackTokenLifetime)
		rec.ExpiresAt = now.Add(fallbackTokenLifetime)
	}

	if prev != nil {
		if rec.RefreshToken == "" {
			rec.RefreshToken = prev.RefreshToken
		}
		if len(rec.Scope) == 0 {
			rec.Scope = prev.Scope
		}
	}
	return rec
}

func expiresIn(tok *oauth2.Token) (time.Duration, bool) {
	var secs int64
	switch v := tok.Extra("expires_in").(type) {
	case float64:
		secs = int64(v)
	case int64:
		secs = v
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, false
		}
		secs = n
	default:
		return 0, false
	}
	if secs <= 0 {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}

func timeoutOr(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", shared.ErrTimeout, err)
	}
	return err
}
