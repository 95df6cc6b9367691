package session

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/desertthunder/discover/internal/models"
	"github.com/desertthunder/discover/internal/shared"
)

// newTestRedisStore connects to DISCOVER_TEST_REDIS_ADDR (default localhost:6379) or skips.
func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	addr := os.Getenv("DISCOVER_TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	store, err := NewRedisStore(ctx, RedisOptions{Addr: addr, DB: 15})
	if err != nil {
		t.Skipf("redis not available: %v", err)
	}
	store.prefix = "discover:test:" + shared.GenerateID() + ":"
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRedisStore(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()

	t.Run("save and load", func(t *testing.T) {
		in := &models.Session{OAuthState: "state", LastPlaylist: &models.Playlist{ID: "pl1", Name: "Discover ur Feelings"}}
		if err := store.Save(ctx, "id-1", in, time.Minute); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		out, err := store.Load(ctx, "id-1")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if out.OAuthState != "state" || out.LastPlaylist == nil || out.LastPlaylist.ID != "pl1" {
			t.Errorf("unexpected session: %+v", out)
		}

		ttl, err := store.client.TTL(ctx, store.key("id-1")).Result()
		if err != nil || ttl <= 0 || ttl > time.Minute {
			t.Errorf("expected key ttl within a minute, got %v (%v)", ttl, err)
		}
	})

	t.Run("missing and deleted", func(t *testing.T) {
		if _, err := store.Load(ctx, "missing"); !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound, got %v", err)
		}

		_ = store.Save(ctx, "id-2", &models.Session{}, time.Minute)
		if err := store.Delete(ctx, "id-2"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if _, err := store.Load(ctx, "id-2"); !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound after delete, got %v", err)
		}
	})
}

func TestNewRedisStoreUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := NewRedisStore(ctx, RedisOptions{Addr: "127.0.0.1:1"})
	if !errors.Is(err, shared.ErrSessionBackend) {
		t.Errorf("expected ErrSessionBackend, got %v", err)
	}
}
