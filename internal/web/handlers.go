package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/desertthunder/discover/internal/models"
	"github.com/desertthunder/discover/internal/services"
	"github.com/desertthunder/discover/internal/session"
	"github.com/desertthunder/discover/internal/shared"
)

const noRecommendations = "No recommendations available. Listen to a few more tracks on Spotify and try again."

type authedHandler func(w http.ResponseWriter, r *http.Request, tok *models.TokenRecord)

// protected resolves a valid token for the request or redirects to /login.
func (a *App) protected(h authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := session.FromContext(r.Context())
		if !sess.Authenticated() {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		tok, err := a.auth.EnsureValid(r.Context(), sess.Token)
		if err != nil {
			a.logger.Info("session token no longer valid", "error", err)
			a.relogin(w, r)
			return
		}

		if tok != sess.Token {
			sess.Token = tok
			a.persist(r.Context(), tok)
			if err := a.sessions.Save(w, r); err != nil {
				a.logger.Error("failed to save refreshed token", "error", err)
			}
		}

		h(w, r, tok)
	}
}

// relogin drops the session token and redirects to /login.
func (a *App) relogin(w http.ResponseWriter, r *http.Request) {
	session.FromContext(r.Context()).Token = nil
	if err := a.sessions.Save(w, r); err != nil {
		a.logger.Error("failed to save session", "error", err)
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}

// persist stores tok for audit. Failures are logged and ignored.
func (a *App) persist(ctx context.Context, tok *models.TokenRecord) {
	if a.tokens == nil {
		return
	}
	if err := a.tokens.Save(ctx, tok); err != nil {
		a.logger.Warn("failed to persist token", "error", err)
	}
}

// fail renders the response for err returned by an authenticated call.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, shared.ErrAuthExpired), errors.Is(err, shared.ErrNotAuthenticated):
		a.relogin(w, r)
	case errors.Is(err, shared.ErrRemoteAPI):
		a.renderError(w, http.StatusBadGateway, errorView{
			Title:   "Spotify is not responding",
			Message: "The request to Spotify failed. Please try again in a moment.",
		})
	default:
		a.logger.Error("request failed", "path", r.URL.Path, "error", err)
		a.renderError(w, http.StatusInternalServerError, errorView{
			Title:   "Something went wrong",
			Message: "An unexpected error occurred.",
		})
	}
}

func (a *App) internalError(w http.ResponseWriter, r *http.Request) {
	a.renderError(w, http.StatusInternalServerError, errorView{
		Title:   "Something went wrong",
		Message: "An unexpected error occurred.",
	})
}

func (a *App) index(w http.ResponseWriter, r *http.Request) {
	a.render(w, http.StatusOK, "index.html", pageData{
		Authenticated: session.FromContext(r.Context()).Authenticated(),
	})
}

func (a *App) login(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	sess.Clear()

	state, err := a.newState()
	if err != nil {
		a.fail(w, r, err)
		return
	}
	sess.OAuthState = state

	if err := a.sessions.Save(w, r); err != nil {
		a.fail(w, r, err)
		return
	}

	http.Redirect(w, r, a.auth.AuthorizeURL(state), http.StatusFound)
}

func (a *App) callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sess := session.FromContext(r.Context())
	expected := sess.OAuthState
	sess.OAuthState = ""
	sess.Token = nil

	// The user declined on the consent screen. Redirecting to /login would send them straight back.
	if reason := q.Get("error"); reason != "" {
		a.logger.Info("authorization declined", "reason", reason)
		if err := a.sessions.Save(w, r); err != nil {
			a.logger.Error("failed to save session", "error", err)
		}
		a.renderError(w, http.StatusForbidden, errorView{
			Title:   "Authorization declined",
			Message: "Spotify did not grant access (" + reason + ").",
			Retry:   "/login",
		})
		return
	}

	if state := q.Get("state"); expected == "" || state != expected {
		a.logger.Warn("oauth callback rejected", "error", shared.ErrInvalidState)
		a.relogin(w, r)
		return
	}

	tok, err := a.auth.Exchange(r.Context(), q.Get("code"))
	if err != nil {
		a.logger.Warn("oauth callback failed", "error", err)
		a.relogin(w, r)
		return
	}

	sess.Token = tok
	a.persist(r.Context(), tok)

	if err := a.sessions.Renew(w, r); err != nil {
		a.fail(w, r, err)
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

func (a *App) topArtists(w http.ResponseWriter, r *http.Request, tok *models.TokenRecord) {
	tr := services.ParseTimeRange(r.URL.Query().Get("time_range"))
	artists, err := a.music.TopArtists(r.Context(), tok, services.DefaultTopLimit, tr)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	a.render(w, http.StatusOK, "top_artists.html", pageData{
		Authenticated: true,
		TimeRange:     tr,
		Artists:       artists,
	})
}

func (a *App) topMusics(w http.ResponseWriter, r *http.Request, tok *models.TokenRecord) {
	tr := services.ParseTimeRange(r.URL.Query().Get("time_range"))
	tracks, err := a.music.TopTracks(r.Context(), tok, services.DefaultTopLimit, tr)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	a.render(w, http.StatusOK, "top_musics.html", pageData{
		Authenticated: true,
		TimeRange:     tr,
		Tracks:        tracks,
	})
}

// recommendationsFor seeds recommendations with the user's first top track IDs.
func (a *App) recommendationsFor(ctx context.Context, tok *models.TokenRecord) ([]models.Track, error) {
	top, err := a.music.TopTracks(ctx, tok, services.DefaultTopLimit, services.MediumTerm)
	if err != nil {
		return nil, err
	}

	seeds := services.SeedTrackIDs(top, services.MaxSeeds)
	return a.music.Recommendations(ctx, tok, seeds, services.DefaultRecommendationLimit)
}

func (a *App) recommender(w http.ResponseWriter, r *http.Request, tok *models.TokenRecord) {
	tracks, err := a.recommendationsFor(r.Context(), tok)
	if errors.Is(err, shared.ErrInvalidSeed) {
		a.render(w, http.StatusOK, "recommender.html", pageData{Authenticated: true, Notice: noRecommendations})
		return
	}
	if err != nil {
		a.fail(w, r, err)
		return
	}

	a.render(w, http.StatusOK, "recommender.html", pageData{Authenticated: true, Tracks: tracks})
}

func (a *App) createPlaylist(w http.ResponseWriter, r *http.Request, tok *models.TokenRecord) {
	ctx := r.Context()

	tracks, err := a.recommendationsFor(ctx, tok)
	if errors.Is(err, shared.ErrInvalidSeed) {
		a.render(w, http.StatusOK, "recommender.html", pageData{Authenticated: true, Notice: noRecommendations})
		return
	}
	if err != nil {
		a.fail(w, r, err)
		return
	}

	uris := models.TrackURIs(tracks)
	if len(uris) == 0 {
		a.render(w, http.StatusOK, "recommender.html", pageData{Authenticated: true, Notice: noRecommendations})
		return
	}

	user, err := a.music.CurrentUser(ctx, tok)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	playlist, err := a.music.CreatePlaylist(ctx, tok, user.ID, PlaylistName, uris, services.DefaultPlaylistOptions())
	if errors.Is(err, shared.ErrPartialPlaylist) && playlist != nil {
		a.logger.Error("playlist left incomplete", "playlist", playlist.ID, "error", err)
		a.renderError(w, http.StatusBadGateway, errorView{
			Title:    "Playlist incomplete",
			Message:  "The playlist was created but Spotify rejected some of its tracks.",
			Playlist: playlist,
		})
		return
	}
	if err != nil {
		a.fail(w, r, err)
		return
	}

	sess := session.FromContext(ctx)
	sess.LastPlaylist = playlist
	if err := a.sessions.Save(w, r); err != nil {
		a.logger.Error("failed to save session", "error", err)
	}

	http.Redirect(w, r, "/playlist_created", http.StatusSeeOther)
}

func (a *App) playlistCreated(w http.ResponseWriter, r *http.Request, tok *models.TokenRecord) {
	a.render(w, http.StatusOK, "playlist_created.html", pageData{
		Authenticated: true,
		Playlist:      session.FromContext(r.Context()).LastPlaylist,
	})
}

func (a *App) logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(w, r); err != nil {
		a.logger.Warn("failed to remove session", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (a *App) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}
