package models

import (
	"slices"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// TokenRecord is the OAuth2 token pair held in a browser session and persisted for audit.
//
// A record past ExpiresAt must be refreshed before it is used again.
type TokenRecord struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	Scope        []string  `json:"scope"`
}

// Expired reports whether the record is unusable at now. A zero expiry counts as expired.
func (t *TokenRecord) Expired(now time.Time) bool {
	if t == nil || t.AccessToken == "" || t.ExpiresAt.IsZero() {
		return true
	}
	return !now.Before(t.ExpiresAt)
}

// CanRefresh reports whether a refresh exchange can be attempted.
func (t *TokenRecord) CanRefresh() bool {
	return t != nil && t.RefreshToken != ""
}

// HasScope reports whether scope was granted.
func (t *TokenRecord) HasScope(scope string) bool {
	return t != nil && slices.Contains(t.Scope, scope)
}

// Equal reports whether two records carry identical data.
func (t *TokenRecord) Equal(o *TokenRecord) bool {
	if t == nil || o == nil {
		return t == o
	}
	return t.AccessToken == o.AccessToken &&
		t.RefreshToken == o.RefreshToken &&
		t.ExpiresAt.Equal(o.ExpiresAt) &&
		slices.Equal(t.Scope, o.Scope)
}

// OAuth2 converts the record into an [oauth2.Token] for use with [oauth2.Config].
func (t *TokenRecord) OAuth2() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  t.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: t.RefreshToken,
		Expiry:       t.ExpiresAt,
	}
}

// TokenFromOAuth2 builds a record from an [oauth2.Token].
//
// The granted scope is read from the token response's space separated "scope" field.
func TokenFromOAuth2(tok *oauth2.Token) *TokenRecord {
	if tok == nil {
		return nil
	}

	rec := &TokenRecord{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
	}

	if scope, ok := tok.Extra("scope").(string); ok {
		rec.Scope = strings.Fields(scope)
	}

	return rec
}

// Session is the per-browser state kept server side.
//
// Token is nil for anonymous sessions.
type Session struct {
	Token        *TokenRecord `json:"token,omitempty"`
	OAuthState   string       `json:"oauth_state,omitempty"`
	LastPlaylist *Playlist    `json:"last_playlist,omitempty"`
}

// Authenticated reports whether the session carries a token.
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != nil
}

// Clear resets the session to the anonymous state.
func (s *Session) Clear() {
	*s = Session{}
}

// UserProfile is the subset of the current user's Spotify profile used by the app.
type UserProfile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Image represents an image resource.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// Album represents the album a track belongs to.
type Album struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Images []Image `json:"images"`
}

// Artist represents a Spotify artist.
type Artist struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	URI        string   `json:"uri"`
	Genres     []string `json:"genres"`
	Images     []Image  `json:"images"`
	Popularity int      `json:"popularity"`
}

// Track represents a Spotify track.
type Track struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	URI        string   `json:"uri"`
	Artists    []Artist `json:"artists"`
	Album      Album    `json:"album"`
	DurationMS int      `json:"duration_ms"`
	Popularity int      `json:"popularity"`
	PreviewURL string   `json:"preview_url"`
}

// ArtistNames joins the track's artist names for display.
func (t Track) ArtistNames() string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

// Duration returns the track length.
func (t Track) Duration() time.Duration {
	return time.Duration(t.DurationMS) * time.Millisecond
}

// Playlist is a playlist created on behalf of the user.
type Playlist struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Public        bool   `json:"public"`
	Collaborative bool   `json:"collaborative"`
	URL           string `json:"url"`
	TrackCount    int    `json:"track_count"`
}

// Visibility returns "public" or "private".
func (p Playlist) Visibility() string {
	if p.Public {
		return "public"
	}
	return "private"
}

// TrackURIs returns the URIs of tracks in order, skipping tracks without one.
func TrackURIs(tracks []Track) []string {
	uris := make([]string, 0, len(tracks))
	for _, t := range tracks {
		if t.URI != "" {
			uris = append(uris, t.URI)
		}
	}
	return uris
}
