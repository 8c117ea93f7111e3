// Package cache stores computed dashboard statistics between requests.
package cache

import (
	"context"
	"time"

	"finanzas/internal/period"
)

const (
	keyPrefix        = "finanzas:stats:"
	generationPrefix = "finanzas:statsgen:"
)

// Store is a JSON key/value cache with prefix invalidation.
type Store interface {
	// GetJSON decodes the value under key into dest. It reports false on a miss.
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
	// Counter reads the integer counter under key; a missing counter is 0.
	Counter(ctx context.Context, key string) (int64, error)
	// Incr bumps the counter under key and returns the new value.
	Incr(ctx context.Context, key string) (int64, error)
}

// StatsKey is the cache key for an owner's dashboard in a period.
func StatsKey(ownerID string, p period.Period) string {
	return OwnerPrefix(ownerID) + p.String()
}

// GenerationKey holds the owner's invalidation counter. It lives outside
// OwnerPrefix so DeletePrefix never resets it.
func GenerationKey(ownerID string) string {
	return generationPrefix + ownerID
}

// OwnerPrefix covers every cached dashboard of an owner.
func OwnerPrefix(ownerID string) string {
	return keyPrefix + ownerID + ":"
}
