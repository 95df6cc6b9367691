package models

import (
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestTokenRecord(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	t.Run("Expired", func(t *testing.T) {
		tc := []struct {
			name string
			tok  *TokenRecord
			want bool
		}{
			{name: "nil record", tok: nil, want: true},
			{name: "zero expiry", tok: &TokenRecord{AccessToken: "a"}, want: true},
			{name: "missing access token", tok: &TokenRecord{ExpiresAt: now.Add(time.Hour)}, want: true},
			{name: "future expiry", tok: &TokenRecord{AccessToken: "a", ExpiresAt: now.Add(time.Minute)}, want: false},
			{name: "exact expiry", tok: &TokenRecord{AccessToken: "a", ExpiresAt: now}, want: true},
			{name: "past expiry", tok: &TokenRecord{AccessToken: "a", ExpiresAt: now.Add(-time.Second)}, want: true},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				if got := tt.tok.Expired(now); got != tt.want {
					t.Errorf("Expired() = %v, want %v", got, tt.want)
				}
			})
		}
	})

	t.Run("CanRefresh", func(t *testing.T) {
		if (&TokenRecord{}).CanRefresh() {
			t.Error("expected no refresh without refresh token")
		}
		if !(&TokenRecord{RefreshToken: "r"}).CanRefresh() {
			t.Error("expected refresh with refresh token")
		}
	})

	t.Run("OAuth2 round trip", func(t *testing.T) {
		rec := &TokenRecord{AccessToken: "a", RefreshToken: "r", ExpiresAt: now}
		tok := rec.OAuth2()
		if tok.TokenType != "Bearer" || tok.Expiry != now {
			t.Errorf("unexpected oauth2 token %+v", tok)
		}

		back := TokenFromOAuth2(tok.WithExtra(map[string]any{"scope": "user-top-read playlist-modify-public"}))
		if back.AccessToken != "a" || back.RefreshToken != "r" || !back.ExpiresAt.Equal(now) {
			t.Errorf("unexpected record %+v", back)
		}
		if !back.HasScope("user-top-read") || !back.HasScope("playlist-modify-public") {
			t.Errorf("expected scopes to be parsed, got %v", back.Scope)
		}
	})

	t.Run("TokenFromOAuth2 nil", func(t *testing.T) {
		if TokenFromOAuth2((*oauth2.Token)(nil)) != nil {
			t.Error("expected nil record")
		}
	})

	t.Run("Equal", func(t *testing.T) {
		a := &TokenRecord{AccessToken: "a", ExpiresAt: now, Scope: []string{"x"}}
		b := &TokenRecord{AccessToken: "a", ExpiresAt: now.In(time.Local), Scope: []string{"x"}}
		if !a.Equal(b) {
			t.Error("expected records to be equal")
		}
		b.Scope = []string{"y"}
		if a.Equal(b) {
			t.Error("expected records with different scope to differ")
		}
		if a.Equal(nil) {
			t.Error("expected record to differ from nil")
		}
	})
}

func TestSession(t *testing.T) {
	s := &Session{}
	if s.Authenticated() {
		t.Error("new session should be anonymous")
	}

	s.Token = &TokenRecord{AccessToken: "a"}
	s.OAuthState = "state"
	s.LastPlaylist = &Playlist{ID: "p"}
	if !s.Authenticated() {
		t.Error("expected authenticated session")
	}

	s.Clear()
	if s.Authenticated() || s.OAuthState != "" || s.LastPlaylist != nil {
		t.Errorf("expected cleared session, got %+v", s)
	}
}

func TestTrackHelpers(t *testing.T) {
	tracks := []Track{
		{ID: "1", URI: "spotify:track:1", Artists: []Artist{{Name: "A"}, {Name: "B"}}, DurationMS: 61000},
		{ID: "2"},
		{ID: "3", URI: "spotify:track:3"},
	}

	if got := tracks[0].ArtistNames(); got != "A, B" {
		t.Errorf("ArtistNames() = %q", got)
	}
	if got := tracks[0].Duration(); got != 61*time.Second {
		t.Errorf("Duration() = %v", got)
	}

	uris := TrackURIs(tracks)
	if len(uris) != 2 || uris[0] != "spotify:track:1" || uris[1] != "spotify:track:3" {
		t.Errorf("TrackURIs() = %v", uris)
	}

	if (Playlist{Public: true}).Visibility() != "public" || (Playlist{}).Visibility() != "private" {
		t.Error("unexpected playlist visibility")
	}
}
