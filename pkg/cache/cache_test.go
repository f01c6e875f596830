package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache_GetSet(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatalf("NewFileCache() failed: %v", err)
	}
	if c.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", c.Dir(), dir)
	}

	if err := c.Set(ctx, "chart", []byte(`{"response":{}}`), time.Hour); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}

	data, hit, err := c.Get(ctx, "chart")
	if err != nil || !hit {
		t.Fatalf("Get() = %v, %v; want hit", hit, err)
	}
	if string(data) != `{"response":{}}` {
		t.Errorf("Get() data = %q", data)
	}

	if err := c.Delete(ctx, "chart"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "chart"); hit {
		t.Error("Get() hit after Delete")
	}

	// Deleting a missing key is not an error
	if err := c.Delete(ctx, "chart"); err != nil {
		t.Errorf("Delete() of missing key: %v", err)
	}
}

func TestFileCache_Expiration(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "key", []byte("value"), 10*time.Millisecond); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "key"); !hit {
		t.Fatal("Get() missed a fresh entry")
	}

	time.Sleep(20 * time.Millisecond)

	_, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Errorf("expired entry should be a miss, got error %v", err)
	}
	if hit {
		t.Error("Get() returned hit for expired key")
	}
}

func TestFileCache_NoExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "key", []byte("value"), 0); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "key"); !hit {
		t.Error("ttl 0 entry should not expire")
	}
}

func TestFileCache_CorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	path := c.path("key")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, hit, err := c.Get(ctx, "key")
	if err != nil || hit {
		t.Errorf("Get() = %v, %v; want miss without error", hit, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt entry should be removed")
	}
}

func TestFileCache_Clear(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), time.Hour); err != nil {
			t.Fatalf("Set(%q) failed: %v", k, err)
		}
	}

	n, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear() failed: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear() = %d, want 3", n)
	}

	entries, _ := os.ReadDir(c.Dir())
	if len(entries) != 0 {
		t.Errorf("cache dir not empty after Clear: %d entries", len(entries))
	}
}

func TestScoped(t *testing.T) {
	ctx := context.Background()
	backend, _ := NewFileCache(t.TempDir())

	melon := NewScoped(backend, "melon:")
	other := NewScoped(backend, "other:")

	if err := melon.Set(ctx, "key", []byte("melon-data"), time.Hour); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}

	if _, hit, _ := other.Get(ctx, "key"); hit {
		t.Error("namespace isolation violated")
	}

	data, hit, _ := backend.Get(ctx, "melon:key")
	if !hit || string(data) != "melon-data" {
		t.Errorf("backend.Get(prefixed) = %q, %v", data, hit)
	}

	nested := NewScoped(melon, "v2:")
	if got := nested.Prefix(); got != "melon:v2:" {
		t.Errorf("Prefix() = %q, want %q", got, "melon:v2:")
	}
}

func TestScopedNilInner(t *testing.T) {
	s := NewScoped(nil, "p:")
	if err := s.Set(context.Background(), "k", []byte("v"), 0); err != nil {
		t.Errorf("Set() on nil inner: %v", err)
	}
	if _, hit, _ := s.Get(context.Background(), "k"); hit {
		t.Error("nil inner should behave as NullCache")
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestHTTPKey(t *testing.T) {
	url := "https://m2.melon.com/m6/chart/ent/songChartList.json?cpId=AS40&cpKey=14LNC3"
	key := HTTPKey(url)
	if key != "http:"+Hash([]byte(url)) {
		t.Errorf("HTTPKey() = %q", key)
	}
	if HTTPKey(url+"&appVer=1") == key {
		t.Error("different URLs should produce different keys")
	}
}

func TestNewRedisCacheBadURL(t *testing.T) {
	if _, err := NewRedisCache(context.Background(), "not-a-redis-url"); err == nil {
		t.Error("NewRedisCache() should reject a malformed URL")
	}
}
