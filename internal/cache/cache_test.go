package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedThing struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func setupMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })
	return mr
}

func TestAside_FetchesOnceThenServesFromCache(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *cachedThing) func() error {
		return func() error {
			calls++
			*dest = cachedThing{ID: 1, Name: "first"}
			return nil
		}
	}

	var a cachedThing
	require.NoError(t, Aside(ctx, PostKey(1), &a, PostTTL, fetch(&a)))
	var b cachedThing
	require.NoError(t, Aside(ctx, PostKey(1), &b, PostTTL, fetch(&b)))

	assert.Equal(t, 1, calls)
	assert.Equal(t, "first", b.Name)
	assert.True(t, mr.Exists("post:1"))

	ttl := mr.TTL("post:1")
	assert.True(t, ttl > 0 && ttl <= PostTTL)
}

func TestAside_PropagatesFetchError(t *testing.T) {
	mr := setupMiniredis(t)

	var dest cachedThing
	err := Aside(context.Background(), PostKey(2), &dest, PostTTL, func() error {
		return errors.New("boom")
	})

	assert.EqualError(t, err, "boom")
	assert.False(t, mr.Exists("post:2"))
}

func TestAside_WithoutClientAlwaysFetches(t *testing.T) {
	SetClient(nil)

	calls := 0
	for i := 0; i < 2; i++ {
		var dest cachedThing
		require.NoError(t, Aside(context.Background(), PostKey(3), &dest, time.Minute, func() error {
			calls++
			return nil
		}))
	}
	assert.Equal(t, 2, calls)
}

func TestInvalidate(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("user:5", `{"id":5}`))
	require.NoError(t, mr.Set("post:6", `{"id":6}`))

	InvalidateUser(ctx, 5)
	InvalidatePost(ctx, 6)

	assert.False(t, mr.Exists("user:5"))
	assert.False(t, mr.Exists("post:6"))
	assert.True(t, mr.Exists("user:5:gen"))
}

func TestAside_InvalidationDuringFetchSkipsFill(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	// A writer commits and invalidates while this reader still holds the old row.
	var stale cachedThing
	require.NoError(t, Aside(ctx, UserKey(7), &stale, UserTTL, func() error {
		stale = cachedThing{ID: 7, Name: "before"}
		InvalidateUser(ctx, 7)
		return nil
	}))
	assert.Equal(t, "before", stale.Name)
	assert.False(t, mr.Exists("user:7"))

	var fresh cachedThing
	require.NoError(t, Aside(ctx, UserKey(7), &fresh, UserTTL, func() error {
		fresh = cachedThing{ID: 7, Name: "after"}
		return nil
	}))
	assert.True(t, mr.Exists("user:7"))

	var cached cachedThing
	found, err := GetJSON(ctx, UserKey(7), &cached)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "after", cached.Name)
}
