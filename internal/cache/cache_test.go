package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *PageCache {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewPageCache(rdb, time.Hour)
}

func TestPageCacheRoundTrip(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "profile/jane", []byte("rendered"), ProfileTag("p1")))

	got, err := c.Get(ctx, "profile/jane")
	require.NoError(t, err)
	assert.Equal(t, []byte("rendered"), got)
}

func TestPageCacheMissIsNilNil(t *testing.T) {
	c := newTestCache(t)

	got, err := c.Get(context.Background(), "never-set")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestInvalidateByTagDropsAllTaggedPages(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "profile/jane", []byte("a"), ProfileTag("p1"), HandleTag("jane")))
	require.NoError(t, c.Set(ctx, "profile/jane/works", []byte("b"), ProfileTag("p1")))
	require.NoError(t, c.Set(ctx, "discovery/home", []byte("c"), DiscoveryTag))

	require.NoError(t, c.Invalidate(ctx, ProfileTag("p1")))

	got, err := c.Get(ctx, "profile/jane")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = c.Get(ctx, "profile/jane/works")
	require.NoError(t, err)
	assert.Nil(t, got)

	// An unrelated tag's page survives.
	got, err = c.Get(ctx, "discovery/home")
	require.NoError(t, err)
	assert.Equal(t, []byte("c"), got)
}

func TestInvalidateMultipleTags(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "profile/jane", []byte("a"), HandleTag("jane")))
	require.NoError(t, c.Set(ctx, "discovery/home", []byte("b"), DiscoveryTag))

	require.NoError(t, c.Invalidate(ctx, HandleTag("jane"), DiscoveryTag))

	for _, key := range []string{"profile/jane", "discovery/home"} {
		got, err := c.Get(ctx, key)
		require.NoError(t, err)
		assert.Nil(t, got, key)
	}
}

func TestInvalidateUnknownTagIsNoError(t *testing.T) {
	c := newTestCache(t)
	assert.NoError(t, c.Invalidate(context.Background(), "tag-with-no-pages"))
	assert.NoError(t, c.Invalidate(context.Background()))
}
