package service

import (
	"context"
	"time"
)

// Cache stores JSON-serialisable values by key. Implementations must treat
// a missing key as (false, nil).
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type nopCache struct{}

func (nopCache) Get(context.Context, string, any) (bool, error) { return false, nil }
func (nopCache) Set(context.Context, string, any, time.Duration) error { return nil }
func (nopCache) Delete(context.Context, ...string) error { return nil }
