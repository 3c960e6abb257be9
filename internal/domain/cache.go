package domain

import (
	"context"
	"errors"
	"time"
)

// Shared cache key prefixes
const (
	TrainerSearchCachePrefix = "trainer:search:"
	EmailThrottleCachePrefix = "email:throttle:"
)

// ErrCacheMiss is returned by CacheRepository.Get when the key is absent
var ErrCacheMiss = errors.New("cache miss")

// CacheRepository is a JSON key/value cache with expiry
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// DeleteByPattern removes keys matching a glob pattern
	DeleteByPattern(ctx context.Context, pattern string) error
	// SetNX stores value only when key is absent and reports whether it did
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)
}
