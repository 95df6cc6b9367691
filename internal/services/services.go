package services

import (
	"time"

	"github.com/desertthunder/discover/internal/models"
)

const (
	// DefaultTimeout bounds every outbound call when no timeout is configured.
	DefaultTimeout = 10 * time.Second

	// DefaultTopLimit is the number of top items fetched when no limit is given.
	DefaultTopLimit = 20
	// MaxTopLimit is the largest page the top items endpoints accept.
	MaxTopLimit = 50

	// MaxSeeds is the largest number of seeds the recommendations endpoint accepts.
	MaxSeeds = 5
	// DefaultRecommendationLimit is the number of recommendations requested by default.
	DefaultRecommendationLimit = 30
	// MaxRecommendationLimit is the largest number of recommendations the endpoint returns.
	MaxRecommendationLimit = 100

	// playlistChunkSize is the largest number of items a single add call accepts.
	playlistChunkSize = 100
)

// TimeRange is the affinity window for top items.
type TimeRange string

const (
	ShortTerm  TimeRange = "short_term"  // roughly 4 weeks
	MediumTerm TimeRange = "medium_term" // roughly 6 months
	LongTerm   TimeRange = "long_term"   // several years
)

// Valid reports whether r is one of the known ranges.
func (r TimeRange) Valid() bool {
	switch r {
	case ShortTerm, MediumTerm, LongTerm:
		return true
	}
	return false
}

// ParseTimeRange returns the range named by s, or [MediumTerm] when s is empty or unknown.
func ParseTimeRange(s string) TimeRange {
	if r := TimeRange(s); r.Valid() {
		return r
	}
	return MediumTerm
}

// PlaylistOptions controls the visibility and description of a created playlist.
type PlaylistOptions struct {
	Public        bool
	Collaborative bool
	Description   string
}

// DefaultPlaylistOptions returns a public, non-collaborative playlist with no description.
func DefaultPlaylistOptions() PlaylistOptions {
	return PlaylistOptions{Public: true}
}

// SeedTrackIDs returns the first n distinct, non-empty track IDs in order.
func SeedTrackIDs(tracks []models.Track, n int) []string {
	if n <= 0 {
		return nil
	}

	seen := make(map[string]bool, n)
	ids := make([]string, 0, n)
	for _, t := range tracks {
		if t.ID == "" || seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		ids = append(ids, t.ID)
		if len(ids) == n {
			break
		}
	}
	return ids
}

func clamp(v, def, hi int) int {
	if v <= 0 {
		return def
	}
	if v > hi {
		return hi
	}
	return v
}

func chunk[T any](items []T, size int) [][]T {
	var out [][]T
	for size < len(items) {
		items, out = items[size:], append(out, items[:size])
	}
	if len(items) > 0 {
		out = append(out, items)
	}
	return out
}
