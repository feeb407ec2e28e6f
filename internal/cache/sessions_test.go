package cache

import (
	"context"
	"testing"
	"time"
)

func TestSessionDenylist_RevokeAndCheck(t *testing.T) {
	cache, mr := setupTestRedis(t)
	denylist := NewSessionDenylist(cache)
	ctx := context.Background()

	revoked, err := denylist.IsRevoked(ctx, "abc")
	if err != nil {
		t.Fatalf("IsRevoked failed: %v", err)
	}
	if revoked {
		t.Fatal("Expected fresh session to not be revoked")
	}

	if err := denylist.Revoke(ctx, "abc", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	revoked, err = denylist.IsRevoked(ctx, "abc")
	if err != nil {
		t.Fatalf("IsRevoked failed: %v", err)
	}
	if !revoked {
		t.Error("Expected session to be revoked")
	}

	ttl := mr.TTL(revokedSessionKey("abc"))
	if ttl <= 0 || ttl > time.Hour {
		t.Errorf("Expected TTL within an hour, got %v", ttl)
	}

	mr.FastForward(2 * time.Hour)

	revoked, err = denylist.IsRevoked(ctx, "abc")
	if err != nil {
		t.Fatalf("IsRevoked failed: %v", err)
	}
	if revoked {
		t.Error("Expected revocation entry to expire with the session")
	}
}

func TestSessionDenylist_RevokeExpiredIsNoop(t *testing.T) {
	cache, mr := setupTestRedis(t)
	denylist := NewSessionDenylist(cache)

	if err := denylist.Revoke(context.Background(), "old", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if mr.Exists(revokedSessionKey("old")) {
		t.Error("Expected no entry for an already expired session")
	}
}

func TestSessionDenylist_BackendDown(t *testing.T) {
	cache, mr := setupTestRedis(t)
	denylist := NewSessionDenylist(cache)
	mr.Close()

	if _, err := denylist.IsRevoked(context.Background(), "abc"); err == nil {
		t.Error("Expected error when redis is unavailable")
	}
	if err := denylist.Revoke(context.Background(), "abc", time.Now().Add(time.Hour)); err == nil {
		t.Error("Expected error when redis is unavailable")
	}
}
