package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exhaust(t *testing.T, l RateLimiter, key string, limit Limit) (allowed int) {
	t.Helper()
	for i := 0; i < limit.Burst+2; i++ {
		res, err := l.Allow(context.Background(), key, limit)
		require.NoError(t, err)
		if res.Allowed {
			allowed++
		}
	}
	return allowed
}

func TestLocalRateLimiter(t *testing.T) {
	l := NewLocalRateLimiter()
	limit := Limit{Rate: 1, Period: time.Hour, Burst: 3}

	assert.Equal(t, 3, exhaust(t, l, "ip:1", limit))

	res, err := l.Allow(context.Background(), "ip:1", limit)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Positive(t, res.RetryAfter)

	// 不同 key 互不影响
	res, err = l.Allow(context.Background(), "ip:2", limit)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestLocalRateLimiter_ZeroLimitAllowsOne(t *testing.T) {
	l := NewLocalRateLimiter()

	assert.Equal(t, 1, exhaust(t, l, "ip:1", Limit{}))

	res, err := l.Allow(context.Background(), "ip:1", Limit{})
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, res.RetryAfter, res.ResetAfter)
}
