package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// HTTPKey derives the cache key for an upstream GET of rawURL.
// The URL is hashed so credentials in the query string never appear in keys.
func HTTPKey(rawURL string) string {
	return "http:" + Hash([]byte(rawURL))
}
