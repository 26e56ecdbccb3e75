// Package cache provides the key-value cache the server puts in front of
// hot read paths, notably the per-message profile joins in the inbox.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss signals a cache miss, as opposed to a transport error.
var ErrMiss = errors.New("cache: miss")

// Cache is a minimal concurrency-safe key-value store. Values are strings;
// callers own serialization.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Close() error
}
