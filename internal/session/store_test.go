package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/discover/internal/models"
	"github.com/desertthunder/discover/internal/shared"
	tu "github.com/desertthunder/discover/internal/testing"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("save and load", func(t *testing.T) {
		store := NewMemoryStore()
		in := &models.Session{
			Token:      &models.TokenRecord{AccessToken: "a", RefreshToken: "r", ExpiresAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
			OAuthState: "state",
		}

		if err := store.Save(ctx, "id-1", in, time.Hour); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		out, err := store.Load(ctx, "id-1")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if !out.Token.Equal(in.Token) || out.OAuthState != "state" {
			t.Errorf("Load() = %+v, want %+v", out, in)
		}

		out.OAuthState = "changed"
		again, _ := store.Load(ctx, "id-1")
		if again.OAuthState != "state" {
			t.Error("expected loaded sessions not to share state")
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		store := NewMemoryStore()
		if _, err := store.Load(ctx, "missing"); !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("expiry", func(t *testing.T) {
		clock := tu.NewClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
		store := NewMemoryStore()
		store.now = clock.Now

		_ = store.Save(ctx, "id-1", &models.Session{}, time.Minute)
		_ = store.Save(ctx, "id-2", &models.Session{}, time.Hour)

		clock.Advance(time.Minute)
		if _, err := store.Load(ctx, "id-1"); !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("expected expired session to be gone, got %v", err)
		}
		if store.Len() != 1 {
			t.Errorf("expected expired entry to be evicted, got %d entries", store.Len())
		}
		if _, err := store.Load(ctx, "id-2"); err != nil {
			t.Errorf("expected live session, got %v", err)
		}

		clock.Advance(time.Hour)
		if n := store.Prune(); n != 1 {
			t.Errorf("Prune() = %d, want 1", n)
		}
	})

	t.Run("save sweeps abandoned sessions", func(t *testing.T) {
		clock := tu.NewClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
		store := NewMemoryStore()
		store.now = clock.Now

		for i := range 100 {
			_ = store.Save(ctx, fmt.Sprintf("old-%d", i), &models.Session{}, time.Minute)
		}
		if store.Len() != 100 {
			t.Fatalf("expected 100 sessions, got %d", store.Len())
		}

		clock.Advance(time.Hour)
		_ = store.Save(ctx, "new", &models.Session{}, time.Minute)

		if store.Len() != 1 {
			t.Errorf("expected expired sessions to be reclaimed, got %d entries", store.Len())
		}
		if _, err := store.Load(ctx, "new"); err != nil {
			t.Errorf("expected new session to be stored, got %v", err)
		}
	})

	t.Run("sweeps are rate limited", func(t *testing.T) {
		clock := tu.NewClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
		store := NewMemoryStore()
		store.now = clock.Now

		_ = store.Save(ctx, "a", &models.Session{}, time.Second)
		clock.Advance(2 * time.Second)
		_ = store.Save(ctx, "b", &models.Session{}, time.Second)

		if store.Len() != 2 {
			t.Errorf("expected no sweep within the prune interval, got %d entries", store.Len())
		}

		clock.Advance(pruneInterval)
		_ = store.Save(ctx, "c", &models.Session{}, time.Hour)
		if store.Len() != 1 {
			t.Errorf("expected a and b to be reclaimed, got %d entries", store.Len())
		}
	})

	t.Run("delete", func(t *testing.T) {
		store := NewMemoryStore()
		_ = store.Save(ctx, "id-1", &models.Session{}, time.Hour)
		if err := store.Delete(ctx, "id-1"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if _, err := store.Load(ctx, "id-1"); !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("concurrent access", func(t *testing.T) {
		store := NewMemoryStore()
		var wg sync.WaitGroup
		for i := range 20 {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				id := shared.GenerateID()
				_ = store.Save(ctx, id, &models.Session{OAuthState: id}, time.Hour)
				if s, err := store.Load(ctx, id); err != nil || s.OAuthState != id {
					t.Errorf("goroutine %d: unexpected load %v %v", i, s, err)
				}
			}(i)
		}
		wg.Wait()
		if store.Len() != 20 {
			t.Errorf("expected 20 sessions, got %d", store.Len())
		}
	})
}
