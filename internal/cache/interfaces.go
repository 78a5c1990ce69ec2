package cache

import (
	"context"
	"time"
)

// Cache is the basic key/value cache interface.
type Cache interface {
	Set(ctx context.Context, key string, value interface{}) error
	SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)

	HealthCheck(ctx context.Context) error
	Close() error
}

// CounterCache keeps denormalized click counters close to the read path.
type CounterCache interface {
	GetClickCount(ctx context.Context, shortCode string) (int64, error)
	SetClickCount(ctx context.Context, shortCode string, count int64) error
}

// Manager is the full cache surface the repository decorator needs. The
// decorator builds record keys with the same KeyBuilder the implementation
// uses for its counter keys, so both live under one namespace.
type Manager interface {
	Cache
	CounterCache

	GetKeyBuilder() *KeyBuilder
}

// NullCache is a no-op Manager used when Redis is unavailable.
type NullCache struct{}

var _ Manager = (*NullCache)(nil)

func NewNullCache() *NullCache {
	return &NullCache{}
}

func (n *NullCache) Set(ctx context.Context, key string, value interface{}) error {
	return nil
}

func (n *NullCache) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}

func (n *NullCache) Get(ctx context.Context, key string, dest interface{}) error {
	return ErrCacheMiss
}

func (n *NullCache) Delete(ctx context.Context, keys ...string) error {
	return nil
}

func (n *NullCache) Exists(ctx context.Context, key string) (bool, error) {
	return false, nil
}

func (n *NullCache) GetClickCount(ctx context.Context, shortCode string) (int64, error) {
	return 0, ErrCacheMiss
}

func (n *NullCache) SetClickCount(ctx context.Context, shortCode string, count int64) error {
	return nil
}

func (n *NullCache) GetKeyBuilder() *KeyBuilder {
	return DefaultKeyBuilder
}

func (n *NullCache) HealthCheck(ctx context.Context) error {
	return nil
}

func (n *NullCache) Close() error {
	return nil
}
