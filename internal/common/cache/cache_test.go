package cache

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contest-bot/internal/common/logger"
)

type item struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func newTestCache(t *testing.T) (*CacheService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheService(client, "test:"), mr
}

func TestGetSet(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	var got item
	assert.ErrorIs(t, c.Get(ctx, "a", &got), ErrMiss)

	require.NoError(t, c.Set(ctx, "a", item{ID: 1, Name: "one"}, time.Minute))
	assert.True(t, mr.Exists("test:a"))

	require.NoError(t, c.Get(ctx, "a", &got))
	assert.Equal(t, item{ID: 1, Name: "one"}, got)

	ok, err := c.Exists(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(2 * time.Minute)
	assert.ErrorIs(t, c.Get(ctx, "a", &got), ErrMiss)
}

func TestGetOrSet(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	calls := 0
	setter := func() (interface{}, error) {
		calls++
		return item{ID: 2, Name: "two"}, nil
	}

	var first, second item
	require.NoError(t, c.GetOrSet(ctx, "b", &first, time.Minute, setter))
	require.NoError(t, c.GetOrSet(ctx, "b", &second, time.Minute, setter))

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
	assert.Equal(t, "two", second.Name)
}

func TestGetOrSetSetterError(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)
	boom := errors.New("boom")

	var got item
	err := c.GetOrSet(ctx, "c", &got, time.Minute, func() (interface{}, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	ok, err := c.Exists(ctx, "c")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetOrSetLogsCacheFailures(t *testing.T) {
	ctx := context.Background()
	var logs bytes.Buffer
	logger.Init(logger.Options{Service: "test", Out: &logs})

	c, mr := newTestCache(t)
	mr.Set("test:d", "{not json")

	var got item
	require.NoError(t, c.GetOrSet(ctx, "d", &got, time.Minute, func() (interface{}, error) {
		return item{ID: 4, Name: "four"}, nil
	}))
	assert.Equal(t, "four", got.Name)
	assert.Contains(t, logs.String(), "Cache read failed")

	var fresh item
	require.NoError(t, c.Get(ctx, "d", &fresh), "the broken entry is overwritten")
	assert.Equal(t, got, fresh)

	mr.Close()
	var offline item
	require.NoError(t, c.GetOrSet(ctx, "e", &offline, time.Minute, func() (interface{}, error) {
		return item{ID: 5, Name: "five"}, nil
	}))
	assert.Equal(t, "five", offline.Name)
	assert.Contains(t, logs.String(), "Cache write failed")
}
