package inmemory

import (
	"context"
	"testing"
	"time"

	"github.com/N1seb/Render/internal/ports/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_GetSetExpire(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewCache()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "rate:TON:USD", "3.2", time.Minute))

	v, err := c.Get(ctx, "rate:TON:USD")
	require.NoError(t, err)
	assert.Equal(t, "3.2", v)

	now = now.Add(2 * time.Minute)
	_, err = c.Get(ctx, "rate:TON:USD")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestCache_SetNX(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewCache()
	c.now = func() time.Time { return now }

	ok, err := c.SetNX(ctx, "k", "1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.SetNX(ctx, "k", "2", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	now = now.Add(time.Hour)
	ok, err = c.SetNX(ctx, "k", "3", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	v, _ := c.Get(ctx, "k")
	assert.Equal(t, "3", v)
}

func TestCache_Purge(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewCache()
	c.now = func() time.Time { return now }

	_ = c.Set(ctx, "a", "1", time.Second)
	_ = c.Set(ctx, "b", "2", 0)
	now = now.Add(time.Minute)

	assert.Equal(t, 1, c.Purge())
	v, err := c.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "2", v)
}
