package cache

import (
	"context"
	"time"
)

const userKeyPrefix = "user:"

const (
	// UserTTL bounds staleness of cached profiles.
	UserTTL = 5 * time.Minute
)

// UserKey returns the cache key for a user by ID.
func UserKey(userID string) string {
	return userKeyPrefix + userID
}

// Invalidate removes a key if the cache is available.
func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

// InvalidateUser removes the cached user row. Token balances and claim
// timestamps live on the same row, so every ledger mutation calls this.
func InvalidateUser(ctx context.Context, userID string) {
	Invalidate(ctx, UserKey(userID))
}
