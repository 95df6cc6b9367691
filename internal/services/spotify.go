// Spotify Web API client
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/discover/internal/metrics"
	"github.com/desertthunder/discover/internal/models"
	"github.com/desertthunder/discover/internal/shared"
	"golang.org/x/time/rate"
)

const spotifyBaseURL = "https://api.spotify.com/v1"

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Country     string `json:"country"`
	Product     string `json:"product"` // premium, free, etc.
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Genres     []string       `json:"genres"`
	Images     []SpotifyImage `json:"images"`
	Popularity int            `json:"popularity"`
	URI        string         `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []SpotifyImage `json:"images"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	Popularity int             `json:"popularity"`
	PreviewURL string          `json:"preview_url"`
	URI        string          `json:"uri"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyPlaylist represents a playlist returned by the create endpoint.
type SpotifyPlaylist struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Public        bool         `json:"public"`
	Collaborative bool         `json:"collaborative"`
	ExternalURLs  externalURLs `json:"external_urls"`
	URI           string       `json:"uri"`
}

type topTracksResponse struct {
	Items []SpotifyTrack `json:"items"`
}

type topArtistsResponse struct {
	Items []SpotifyArtist `json:"items"`
}

type recommendationsResponse struct {
	Tracks []SpotifyTrack `json:"tracks"`
}

type createPlaylistRequest struct {
	Name          string `json:"name"`
	Public        bool   `json:"public"`
	Collaborative bool   `json:"collaborative"`
	Description   string `json:"description,omitempty"`
}

type addItemsRequest struct {
	URIs []string `json:"uris"`
}

type snapshotResponse struct {
	SnapshotID string `json:"snapshot_id"`
}

type errorResponse struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// APIError is a non-2xx response from the Web API.
//
// It matches [shared.ErrRemoteAPI] with [errors.Is], and [shared.ErrAuthExpired] as well for a 401.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("spotify API error: status %d", e.Status)
	}
	return fmt.Sprintf("spotify API error: status %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() []error {
	if e.Status == http.StatusUnauthorized {
		return []error{shared.ErrRemoteAPI, shared.ErrAuthExpired}
	}
	return []error{shared.ErrRemoteAPI}
}

// SpotifyClientOptions configures a [SpotifyClient].
type SpotifyClientOptions struct {
	BaseURL    string        // defaults to the public Web API
	HTTPClient *http.Client  // defaults to [http.DefaultClient]
	Timeout    time.Duration // per call, defaults to [DefaultTimeout]
	RateLimit  float64       // requests per second, 0 disables limiting
	Logger     *log.Logger
}

// SpotifyClient is a stateless Web API client. The caller passes a valid token on every call.
type SpotifyClient struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewSpotifyClient creates a [SpotifyClient].
func NewSpotifyClient(opts SpotifyClientOptions) *SpotifyClient {
	if opts.BaseURL == "" {
		opts.BaseURL = spotifyBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), max(1, int(opts.RateLimit)))
	}

	return &SpotifyClient{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: opts.HTTPClient,
		timeout:    opts.Timeout,
		limiter:    limiter,
		logger:     shared.WithLogger(opts.Logger, "component", "spotify"),
	}
}

// doRequest performs an authenticated HTTP request against the Web API.
//
// label names the endpoint in metrics. body, when non-nil, is sent as JSON and result, when non-nil,
// receives the decoded response.
func (c *SpotifyClient) doRequest(ctx context.Context, tok *models.TokenRecord, label, method, endpoint string, query url.Values, body, result any) error {
	status := "error"
	defer func() { metrics.ObserveRemoteCall(label, status) }()

	if tok == nil || tok.AccessToken == "" {
		return fmt.Errorf("%w: %w", shared.ErrAuthExpired, shared.ErrNotAuthenticated)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limiter: %w", shared.ErrRemoteAPI, err)
	}

	apiURL := c.baseURL + endpoint
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("request failed", "endpoint", label, "error", err)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %w: %v", shared.ErrRemoteAPI, shared.ErrTimeout, err)
		}
		return fmt.Errorf("%w: %v", shared.ErrRemoteAPI, err)
	}
	defer resp.Body.Close()

	status = strconv.Itoa(resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var e errorResponse
		if data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10)); json.Unmarshal(data, &e) == nil {
			apiErr.Message = e.Error.Message
		}
		c.logger.Error("spotify API error", "endpoint", label, "status", resp.StatusCode, "message", apiErr.Message)
		return apiErr
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: failed to decode response: %v", shared.ErrRemoteAPI, err)
		}
	}

	return nil
}

// TopTracks returns at most limit of the user's top tracks for timeRange, in remote order.
func (c *SpotifyClient) TopTracks(ctx context.Context, tok *models.TokenRecord, limit int, timeRange TimeRange) ([]models.Track, error) {
	limit = clamp(limit, DefaultTopLimit, MaxTopLimit)
	q := url.Values{
		"limit":      {strconv.Itoa(limit)},
		"time_range": {string(ParseTimeRange(string(timeRange)))},
	}

	var response topTracksResponse
	if err := c.doRequest(ctx, tok, "top_tracks", http.MethodGet, "/me/top/tracks", q, nil, &response); err != nil {
		return nil, err
	}

	return toTracks(truncate(response.Items, limit)), nil
}

// TopArtists returns at most limit of the user's top artists for timeRange, in remote order.
func (c *SpotifyClient) TopArtists(ctx context.Context, tok *models.TokenRecord, limit int, timeRange TimeRange) ([]models.Artist, error) {
	limit = clamp(limit, DefaultTopLimit, MaxTopLimit)
	q := url.Values{
		"limit":      {strconv.Itoa(limit)},
		"time_range": {string(ParseTimeRange(string(timeRange)))},
	}

	var response topArtistsResponse
	if err := c.doRequest(ctx, tok, "top_artists", http.MethodGet, "/me/top/artists", q, nil, &response); err != nil {
		return nil, err
	}

	artists := make([]models.Artist, 0, len(response.Items))
	for _, a := range truncate(response.Items, limit) {
		artists = append(artists, toArtist(a))
	}
	return artists, nil
}

// Recommendations returns up to limit tracks seeded by 1 to [MaxSeeds] track IDs.
//
// Bad seeds fail with [shared.ErrInvalidSeed] before any request is made.
func (c *SpotifyClient) Recommendations(ctx context.Context, tok *models.TokenRecord, seedTrackIDs []string, limit int) ([]models.Track, error) {
	seeds := make([]string, 0, len(seedTrackIDs))
	for _, id := range seedTrackIDs {
		if id = strings.TrimSpace(id); id != "" {
			seeds = append(seeds, id)
		}
	}

	switch {
	case len(seeds) == 0:
		return nil, fmt.Errorf("%w: no seed tracks", shared.ErrInvalidSeed)
	case len(seeds) > MaxSeeds:
		return nil, fmt.Errorf("%w: %d seeds given, at most %d allowed", shared.ErrInvalidSeed, len(seeds), MaxSeeds)
	}

	limit = clamp(limit, DefaultRecommendationLimit, MaxRecommendationLimit)
	q := url.Values{
		"seed_tracks": {strings.Join(seeds, ",")},
		"limit":       {strconv.Itoa(limit)},
	}

	var response recommendationsResponse
	if err := c.doRequest(ctx, tok, "recommendations", http.MethodGet, "/recommendations", q, nil, &response); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest {
			return nil, fmt.Errorf("%w: %w", shared.ErrInvalidSeed, err)
		}
		return nil, err
	}

	return toTracks(response.Tracks), nil
}

// CurrentUser returns the profile of the token's owner.
func (c *SpotifyClient) CurrentUser(ctx context.Context, tok *models.TokenRecord) (*models.UserProfile, error) {
	var user SpotifyUser
	if err := c.doRequest(ctx, tok, "me", http.MethodGet, "/me", nil, nil, &user); err != nil {
		return nil, err
	}
	return &models.UserProfile{ID: user.ID, DisplayName: user.DisplayName}, nil
}

// CreatePlaylist creates a playlist for ownerID and adds uris in order, in chunks of 100.
//
// When adding items fails the created playlist is returned along with an error matching both
// [shared.ErrPartialPlaylist] and [shared.ErrRemoteAPI]. TrackCount holds the number of items added.
func (c *SpotifyClient) CreatePlaylist(ctx context.Context, tok *models.TokenRecord, ownerID, name string, uris []string, opts PlaylistOptions) (*models.Playlist, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner id", shared.ErrMissingArgument)
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: playlist name", shared.ErrMissingArgument)
	}

	// Collaborative playlists cannot be public.
	if opts.Collaborative {
		opts.Public = false
	}

	body := createPlaylistRequest{
		Name:          name,
		Public:        opts.Public,
		Collaborative: opts.Collaborative,
		Description:   opts.Description,
	}

	var created SpotifyPlaylist
	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(ownerID))
	if err := c.doRequest(ctx, tok, "create_playlist", http.MethodPost, endpoint, nil, body, &created); err != nil {
		return nil, err
	}

	playlist := &models.Playlist{
		ID:            created.ID,
		Name:          created.Name,
		Public:        created.Public,
		Collaborative: created.Collaborative,
		URL:           created.ExternalURLs.Spotify,
	}
	if playlist.Name == "" {
		playlist.Name = name
	}

	endpoint = fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(created.ID))
	for _, batch := range chunk(uris, playlistChunkSize) {
		var snapshot snapshotResponse
		if err := c.doRequest(ctx, tok, "add_playlist_items", http.MethodPost, endpoint, nil, addItemsRequest{URIs: batch}, &snapshot); err != nil {
			c.logger.Warn("playlist left incomplete", "playlist", playlist.ID, "added", playlist.TrackCount, "total", len(uris))
			return playlist, fmt.Errorf("%w: %d of %d items added: %w", shared.ErrPartialPlaylist, playlist.TrackCount, len(uris), err)
		}
		playlist.TrackCount += len(batch)
	}

	c.logger.Info("playlist created", "playlist", playlist.ID, "tracks", playlist.TrackCount)
	return playlist, nil
}

func truncate[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func toImages(in []SpotifyImage) []models.Image {
	if len(in) == 0 {
		return nil
	}
	out := make([]models.Image, 0, len(in))
	for _, img := range in {
		out = append(out, models.Image{URL: img.URL, Height: img.Height, Width: img.Width})
	}
	return out
}

func toArtist(a SpotifyArtist) models.Artist {
	return models.Artist{
		ID:         a.ID,
		Name:       a.Name,
		URI:        a.URI,
		Genres:     a.Genres,
		Images:     toImages(a.Images),
		Popularity: a.Popularity,
	}
}

func toTracks(in []SpotifyTrack) []models.Track {
	out := make([]models.Track, 0, len(in))
	for _, t := range in {
		artists := make([]models.Artist, 0, len(t.Artists))
		for _, a := range t.Artists {
			artists = append(artists, toArtist(a))
		}

		out = append(out, models.Track{
			ID:         t.ID,
			Name:       t.Name,
			URI:        t.URI,
			Artists:    artists,
			Album:      models.Album{ID: t.Album.ID, Name: t.Album.Name, Images: toImages(t.Album.Images)},
			DurationMS: t.DurationMS,
			Popularity: t.Popularity,
			PreviewURL: t.PreviewURL,
		})
	}
	return out
}
