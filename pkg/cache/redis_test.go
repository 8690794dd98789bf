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

type item struct {
	Name  string `json:"name"`
	Stock int    `json:"stock"`
}

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := NewFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = rc.Close() })
	return rc, mr
}

func TestJSONRoundTripAndExpiry(t *testing.T) {
	rc, mr := newTestCache(t)
	ctx := context.Background()

	var got item
	hit, err := rc.GetJSON(ctx, "product:p1", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, rc.SetJSON(ctx, "product:p1", item{Name: "Phone", Stock: 5}, time.Minute))
	hit, err = rc.GetJSON(ctx, "product:p1", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, item{Name: "Phone", Stock: 5}, got)

	mr.FastForward(2 * time.Minute)
	hit, err = rc.GetJSON(ctx, "product:p1", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestDelete(t *testing.T) {
	rc, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, rc.SetJSON(ctx, "a", 1, 0))
	require.NoError(t, rc.SetJSON(ctx, "b", 2, 0))
	require.NoError(t, rc.Delete(ctx, "a", "b"))
	require.NoError(t, rc.Delete(ctx))

	assert.False(t, mr.Exists("a"))
	assert.False(t, mr.Exists("b"))
}

func TestGetJSON_CorruptValue(t *testing.T) {
	rc, mr := newTestCache(t)
	require.NoError(t, mr.Set("bad", "{not json"))

	var got item
	_, err := rc.GetJSON(context.Background(), "bad", &got)
	assert.Error(t, err)
}
