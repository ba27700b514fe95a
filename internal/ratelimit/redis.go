package ratelimit

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RedisLimiter 基于 Redis 的固定窗口计数，多实例共享配额
type RedisLimiter struct {
	rdb      *goredis.Client
	prefix   string
	requests int
	window   time.Duration
}

var _ Limiter = (*RedisLimiter)(nil)

// NewRedis 创建 Redis 限流器
func NewRedis(rdb *goredis.Client, requests int, window time.Duration) *RedisLimiter {
	if requests <= 0 {
		requests = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RedisLimiter{
		rdb:      rdb,
		prefix:   "marine:ratelimit:",
		requests: requests,
		window:   window,
	}
}

func (r *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	k := r.prefix + key

	n, err := r.rdb.Incr(ctx, k).Result()
	if err != nil {
		return r.failOpen(), fmt.Errorf("ratelimit: incr %s: %w", k, err)
	}

	var ttl time.Duration
	if n == 1 {
		if err := r.rdb.Expire(ctx, k, r.window).Err(); err != nil {
			return r.failOpen(), fmt.Errorf("ratelimit: expire %s: %w", k, err)
		}
		ttl = r.window
	} else {
		ttl, err = r.rdb.TTL(ctx, k).Result()
		if err != nil {
			return r.failOpen(), fmt.Errorf("ratelimit: ttl %s: %w", k, err)
		}
		// 键没有过期时间时计数永远不会重置
		if ttl < 0 {
			if err := r.rdb.Expire(ctx, k, r.window).Err(); err != nil {
				return r.failOpen(), fmt.Errorf("ratelimit: expire %s: %w", k, err)
			}
			ttl = r.window
		}
	}

	remaining := r.requests - int(n)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:    int(n) <= r.requests,
		Limit:      r.requests,
		Remaining:  remaining,
		ResetAfter: ttl,
	}, nil
}

func (r *RedisLimiter) failOpen() Decision {
	return Decision{Allowed: true, Limit: r.requests, Remaining: r.requests}
}
