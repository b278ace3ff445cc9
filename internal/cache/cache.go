// Package cache stores raw backend responses keyed by request path.
package cache

import (
	"context"
	"time"
)

// Store is a byte cache with prefix invalidation.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
}
