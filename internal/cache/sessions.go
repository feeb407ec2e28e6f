package cache

import (
	"context"
	"fmt"
	"time"
)

const revokedSessionPrefix = "session:revoked:"

// SessionDenylist remembers revoked session ids until their tokens would have
// expired anyway.
type SessionDenylist struct {
	cache *RedisCache
}

func NewSessionDenylist(cache *RedisCache) *SessionDenylist {
	return &SessionDenylist{cache: cache}
}

func revokedSessionKey(sessionID string) string {
	return revokedSessionPrefix + sessionID
}

// Revoke marks sessionID as revoked until the given time. A session that has
// already expired is not recorded.
func (d *SessionDenylist) Revoke(ctx context.Context, sessionID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}

	if err := d.cache.Set(ctx, revokedSessionKey(sessionID), until.Unix(), ttl); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (d *SessionDenylist) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	revoked, err := d.cache.Exists(ctx, revokedSessionKey(sessionID))
	if err != nil {
		return false, fmt.Errorf("check session revocation: %w", err)
	}
	return revoked, nil
}
