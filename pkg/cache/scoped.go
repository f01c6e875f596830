package cache

import (
	"context"
	"time"
)

// Scoped wraps a Cache and prepends prefix to every key.
//
//	melon := cache.NewScoped(backend, "melon:")
//	melon.Set(ctx, "http:abc", body, ttl) // stored as "melon:http:abc"
//
// Closing a Scoped cache closes the wrapped backend.
type Scoped struct {
	inner  Cache
	prefix string
}

// NewScoped returns a prefixing view of inner. A nil inner is a NullCache.
func NewScoped(inner Cache, prefix string) *Scoped {
	if inner == nil {
		inner = NewNullCache()
	}
	return &Scoped{inner: inner, prefix: prefix}
}

// Prefix returns the key prefix, including any prefix of a wrapped Scoped.
func (s *Scoped) Prefix() string {
	if in, ok := s.inner.(*Scoped); ok {
		return in.Prefix() + s.prefix
	}
	return s.prefix
}

func (s *Scoped) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.inner.Get(ctx, s.prefix+key)
}

func (s *Scoped) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return s.inner.Set(ctx, s.prefix+key, data, ttl)
}

func (s *Scoped) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, s.prefix+key)
}

func (s *Scoped) Close() error {
	return s.inner.Close()
}

var _ Cache = (*Scoped)(nil)
