// Package cache provides byte-oriented caches for upstream chart responses.
//
// Three backends implement [Cache]:
//   - [FileCache]: one JSON envelope per key on disk, for CLI usage
//   - [RedisCache]: shared cache for multiple `melonchart serve` instances
//   - [NullCache]: caching disabled
//
// [Scoped] prefixes keys so several clients can share one backend.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrClosed is returned by operations on a cache that has been closed.
var ErrClosed = errors.New("cache closed")

// Cache stores opaque byte payloads under string keys with an optional TTL.
//
// Get reports a miss as (nil, false, nil). Expired or unreadable entries are
// misses, not errors. A ttl of 0 passed to Set means the entry never expires.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
