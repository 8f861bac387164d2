package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMemoryCache() (*MemoryCache, *time.Time) {
	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCache(time.Hour)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestMemoryCache_GetSet(t *testing.T) {
	c, now := newTestMemoryCache()
	defer c.Close()
	ctx := context.Background()

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	value := []byte("payload")
	require.NoError(t, c.Set(ctx, "k", value, 5*time.Minute))
	value[0] = 'X'

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got))

	*now = now.Add(5*time.Minute + time.Second)
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCache_NoExpiration(t *testing.T) {
	c, now := newTestMemoryCache()
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	*now = now.Add(365 * 24 * time.Hour)

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))
}

func TestMemoryCache_DeleteAndFlush(t *testing.T) {
	c, _ := newTestMemoryCache()
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "rates:live:USD", []byte("a"), time.Minute))
	require.NoError(t, c.Set(ctx, "rates:historical:USD:7", []byte("b"), time.Minute))
	require.NoError(t, c.Set(ctx, "other", []byte("c"), time.Minute))

	require.NoError(t, c.Delete(ctx, "rates:live:USD"))
	_, err := c.Get(ctx, "rates:live:USD")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Flush(ctx, "rates:"))
	_, err = c.Get(ctx, "rates:historical:USD:7")
	assert.ErrorIs(t, err, ErrCacheMiss)

	got, err := c.Get(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, "c", string(got))
}

func TestMemoryCache_evictExpired(t *testing.T) {
	c, now := newTestMemoryCache()
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", []byte("a"), time.Minute))
	require.NoError(t, c.Set(ctx, "long", []byte("b"), time.Hour))

	*now = now.Add(2 * time.Minute)
	c.evictExpired()

	c.mu.RLock()
	_, shortPresent := c.entries["short"]
	_, longPresent := c.entries["long"]
	c.mu.RUnlock()

	assert.False(t, shortPresent)
	assert.True(t, longPresent)
}

func TestMemoryCache_Close(t *testing.T) {
	c := NewMemoryCache(time.Millisecond)
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}
