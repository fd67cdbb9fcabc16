package cache

import (
	"context"
	"time"
)

// Cache defines the interface for cache operations (Redis)
type Cache interface {
	// Basic operations (rule cache entries)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error

	// Script execution (atomic tick lock claims)
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error)

	// Close connection
	Close() error
}
