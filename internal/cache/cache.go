package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrCacheMiss = errors.New("key not found")

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	// Flush removes every key starting with prefix.
	Flush(ctx context.Context, prefix string) error
	Close() error
}

func GetJSON[T any](ctx context.Context, c Cache, key string) (*T, error) {
	raw, err := c.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("failed to decode cached value: %w", err)
	}
	return &v, nil
}

func SetJSON(ctx context.Context, c Cache, key string, value interface{}, expiration time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}
	return c.Set(ctx, key, raw, expiration)
}
