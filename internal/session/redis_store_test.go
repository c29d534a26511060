package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"feeflow/api/internal/store"

	"github.com/alicebob/miniredis/v2"
)

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	rs, err := NewRedisStore("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("failed to create redis store: %v", err)
	}
	return rs, s
}

func TestSaveAndLookupRefreshSession(t *testing.T) {
	rs, s := setupTestRedis(t)
	defer rs.Close()
	defer s.Close()

	ctx := context.Background()
	user := store.User{ID: "user-123", DisplayName: "Martin Robert", Role: "editor"}
	if err := rs.SaveRefreshSession(ctx, "token-hash", user, time.Now().Add(24*time.Hour)); err != nil {
		t.Fatalf("SaveRefreshSession failed: %v", err)
	}

	got, err := rs.LookupRefreshSession(ctx, "token-hash")
	if err != nil {
		t.Fatalf("LookupRefreshSession failed: %v", err)
	}
	if got.ID != user.ID || got.DisplayName != user.DisplayName || got.Role != user.Role {
		t.Fatalf("got %+v, want %+v", got, user)
	}
}

func TestLookupExpiredSession(t *testing.T) {
	rs, s := setupTestRedis(t)
	defer rs.Close()
	defer s.Close()

	ctx := context.Background()
	user := store.User{ID: "user-456", Role: "editor"}
	if err := rs.SaveRefreshSession(ctx, "expiring", user, time.Now().Add(time.Second)); err != nil {
		t.Fatalf("SaveRefreshSession failed: %v", err)
	}
	s.FastForward(2 * time.Second)

	if _, err := rs.LookupRefreshSession(ctx, "expiring"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSaveAlreadyExpiredSessionFails(t *testing.T) {
	rs, s := setupTestRedis(t)
	defer rs.Close()
	defer s.Close()

	user := store.User{ID: "user-789"}
	if err := rs.SaveRefreshSession(context.Background(), "stale", user, time.Now().Add(-time.Minute)); err == nil {
		t.Fatal("saved a session that already expired")
	}
}

func TestRevokeRefreshSession(t *testing.T) {
	rs, s := setupTestRedis(t)
	defer rs.Close()
	defer s.Close()

	ctx := context.Background()
	user := store.User{ID: "user-123", Role: "editor"}
	if err := rs.SaveRefreshSession(ctx, "revocable", user, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("SaveRefreshSession failed: %v", err)
	}
	if err := rs.RevokeRefreshSession(ctx, "revocable"); err != nil {
		t.Fatalf("RevokeRefreshSession failed: %v", err)
	}
	if _, err := rs.LookupRefreshSession(ctx, "revocable"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestLookupDefaultsEmptyRole(t *testing.T) {
	rs, s := setupTestRedis(t)
	defer rs.Close()
	defer s.Close()

	ctx := context.Background()
	if err := rs.SaveRefreshSession(ctx, "roleless", store.User{ID: "user-1"}, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("SaveRefreshSession failed: %v", err)
	}
	got, err := rs.LookupRefreshSession(ctx, "roleless")
	if err != nil {
		t.Fatalf("LookupRefreshSession failed: %v", err)
	}
	if got.Role != "viewer" {
		t.Fatalf("role = %q, want viewer", got.Role)
	}
}
