package services

import (
	"slices"
	"testing"

	"github.com/desertthunder/discover/internal/models"
)

func TestSeedTrackIDs(t *testing.T) {
	tracks := []models.Track{{ID: "a"}, {ID: ""}, {ID: "b"}, {ID: "a"}, {ID: "c"}, {ID: "d"}, {ID: "e"}, {ID: "f"}}

	tc := []struct {
		name   string
		tracks []models.Track
		n      int
		want   []string
	}{
		{name: "first five distinct", tracks: tracks, n: MaxSeeds, want: []string{"a", "b", "c", "d", "e"}},
		{name: "fewer than n", tracks: tracks[:3], n: MaxSeeds, want: []string{"a", "b"}},
		{name: "no tracks", tracks: nil, n: MaxSeeds, want: []string{}},
		{name: "zero n", tracks: tracks, n: 0, want: nil},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := SeedTrackIDs(tt.tracks, tt.n); !slices.Equal(got, tt.want) {
				t.Errorf("SeedTrackIDs() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseTimeRange(t *testing.T) {
	tc := []struct {
		in   string
		want TimeRange
	}{
		{in: "short_term", want: ShortTerm},
		{in: "medium_term", want: MediumTerm},
		{in: "long_term", want: LongTerm},
		{in: "", want: MediumTerm},
		{in: "forever", want: MediumTerm},
	}

	for _, tt := range tc {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseTimeRange(tt.in); got != tt.want {
				t.Errorf("ParseTimeRange(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestChunk(t *testing.T) {
	items := make([]int, 205)
	for i := range items {
		items[i] = i
	}

	batches := chunk(items, 100)
	if len(batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(batches))
	}
	if len(batches[0]) != 100 || len(batches[1]) != 100 || len(batches[2]) != 5 {
		t.Errorf("unexpected batch sizes: %d %d %d", len(batches[0]), len(batches[1]), len(batches[2]))
	}
	if batches[2][4] != 204 {
		t.Errorf("expected order to be kept, got %d", batches[2][4])
	}
	if got := chunk([]int{}, 100); len(got) != 0 {
		t.Errorf("expected no batches for empty input, got %d", len(got))
	}
}

func TestClamp(t *testing.T) {
	if got := clamp(0, 20, 50); got != 20 {
		t.Errorf("clamp(0) = %d, want 20", got)
	}
	if got := clamp(80, 20, 50); got != 50 {
		t.Errorf("clamp(80) = %d, want 50", got)
	}
	if got := clamp(7, 20, 50); got != 7 {
		t.Errorf("clamp(7) = %d, want 7", got)
	}
}
