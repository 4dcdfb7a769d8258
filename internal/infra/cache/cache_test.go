package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "viewer")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "viewer", 3, time.Minute))

	count, ok, err := c.Get(ctx, "viewer")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, count)

	require.NoError(t, c.Delete(ctx, "viewer"))
	_, ok, err = c.Get(ctx, "viewer")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	current := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return current }

	require.NoError(t, c.Set(ctx, "viewer", 5, 5*time.Second))

	count, ok, err := c.Get(ctx, "viewer")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 5, count)

	current = current.Add(6 * time.Second)

	_, ok, err = c.Get(ctx, "viewer")
	require.NoError(t, err)
	assert.False(t, ok, "entries past their TTL read as misses")
}
