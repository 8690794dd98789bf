// Package ratelimit 提供基于 Redis 的分布式限流与进程内令牌桶限流
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// RateLimiter 限流接口
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit Limit) (*Result, error)
}

// Limit 限流规则：每 Period 补充 Rate 个令牌，桶容量 Burst
type Limit struct {
	Rate   int
	Period time.Duration
	Burst  int
}

// 零值字段按每秒 1 个令牌、容量 1 处理
func (l Limit) normalized() Limit {
	if l.Rate < 1 {
		l.Rate = 1
	}
	if l.Period <= 0 {
		l.Period = time.Second
	}
	if l.Burst < 1 {
		l.Burst = 1
	}
	return l
}

// Result 限流检查结果
type Result struct {
	Allowed    bool
	Remaining  int
	ResetAfter time.Duration
	RetryAfter time.Duration
}

func allowed(remaining int, resetAfter time.Duration) *Result {
	return &Result{Allowed: true, Remaining: remaining, ResetAfter: resetAfter}
}

func denied(retryAfter time.Duration) *Result {
	return &Result{Allowed: false, RetryAfter: retryAfter, ResetAfter: retryAfter}
}

// RedisRateLimiter 多实例共享配额，基于 redis_rate（GCRA）
type RedisRateLimiter struct {
	limiter *redis_rate.Limiter
}

// NewRedisRateLimiter 创建 Redis 限流器
func NewRedisRateLimiter(rdb *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{limiter: redis_rate.NewLimiter(rdb)}
}

// Allow 检查请求是否放行
func (r *RedisRateLimiter) Allow(ctx context.Context, key string, limit Limit) (*Result, error) {
	limit = limit.normalized()
	res, err := r.limiter.Allow(ctx, key, redis_rate.Limit{Rate: limit.Rate, Period: limit.Period, Burst: limit.Burst})
	if err != nil {
		return nil, fmt.Errorf("rate limit check for %s failed: %w", key, err)
	}
	if res.Allowed == 0 {
		return denied(res.RetryAfter), nil
	}
	return allowed(res.Remaining, res.ResetAfter), nil
}

// LocalRateLimiter 进程内按 key 维护令牌桶，Redis 未启用时使用
type LocalRateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

// NewLocalRateLimiter 创建进程内限流器
func NewLocalRateLimiter() *LocalRateLimiter {
	return &LocalRateLimiter{buckets: make(map[string]*rate.Limiter)}
}

// Allow 检查请求是否放行
func (l *LocalRateLimiter) Allow(_ context.Context, key string, limit Limit) (*Result, error) {
	limit = limit.normalized()
	bucket := l.bucket(key, limit)

	now := time.Now()
	res := bucket.ReserveN(now, 1)
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return denied(delay), nil
	}
	return allowed(int(bucket.TokensAt(now)), 0), nil
}

func (l *LocalRateLimiter) bucket(key string, limit Limit) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[key]
	if !ok {
		b = rate.NewLimiter(rate.Every(limit.Period/time.Duration(limit.Rate)), limit.Burst)
		l.buckets[key] = b
	}
	return b
}
