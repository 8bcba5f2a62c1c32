package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss ключ не найден
var ErrCacheMiss = errors.New("cache: key not found")

// Cache key-value кэш с TTL (Redis или память процесса)
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	// SetNX записывает значение только если ключа нет, true если записали
	SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
	Close() error
}
