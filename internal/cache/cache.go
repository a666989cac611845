package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key generates a cache key for a namespaced lookup (parse, event, noun, ...)
func Key(namespace, text string) string {
	hash := sha256.Sum256([]byte(text))
	return "narrtl:v1:" + namespace + ":" + hex.EncodeToString(hash[:])
}
