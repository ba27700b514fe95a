package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	newLimiter := func() *MemoryLimiter {
		l := NewMemory(3, time.Minute)
		l.now = func() time.Time { return clock }
		return l
	}

	t.Run("窗口内超过配额被拒绝", func(t *testing.T) {
		l := newLimiter()
		for i := 0; i < 3; i++ {
			d, err := l.Allow(ctx, "1.2.3.4")
			require.NoError(t, err)
			assert.True(t, d.Allowed)
			assert.Equal(t, 3, d.Limit)
			assert.Equal(t, 2-i, d.Remaining)
		}

		d, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Zero(t, d.Remaining)
		assert.InDelta(t, float64(20*time.Second), float64(d.ResetAfter), float64(time.Millisecond))
	})

	t.Run("不同键互不影响", func(t *testing.T) {
		l := newLimiter()
		for i := 0; i < 3; i++ {
			_, _ = l.Allow(ctx, "a")
		}
		d, _ := l.Allow(ctx, "b")
		assert.True(t, d.Allowed)
	})

	t.Run("令牌随时间恢复", func(t *testing.T) {
		l := newLimiter()
		for i := 0; i < 4; i++ {
			_, _ = l.Allow(ctx, "a")
		}
		start := clock
		l.now = func() time.Time { return start.Add(21 * time.Second) }
		d, _ := l.Allow(ctx, "a")
		assert.True(t, d.Allowed)
	})

	t.Run("清理空闲键", func(t *testing.T) {
		l := newLimiter()
		_, _ = l.Allow(ctx, "a")
		_, _ = l.Allow(ctx, "b")
		assert.Equal(t, 2, l.size())

		l.now = func() time.Time { return clock.Add(2 * time.Minute) }
		_, _ = l.Allow(ctx, "c")
		assert.Equal(t, 1, l.size())
	})
}

func TestRedisLimiter(t *testing.T) {
	ctx := context.Background()
	const key = "marine:ratelimit:1.2.3.4"

	t.Run("首次请求设置过期时间", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		l := NewRedis(rdb, 2, time.Minute)

		mock.ExpectIncr(key).SetVal(1)
		mock.ExpectExpire(key, time.Minute).SetVal(true)

		d, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 1, d.Remaining)
		assert.Equal(t, time.Minute, d.ResetAfter)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("超过配额", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		l := NewRedis(rdb, 2, time.Minute)

		mock.ExpectIncr(key).SetVal(3)
		mock.ExpectTTL(key).SetVal(42 * time.Second)

		d, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Zero(t, d.Remaining)
		assert.Equal(t, 42*time.Second, d.ResetAfter)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("缺失过期时间时补设", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		l := NewRedis(rdb, 5, time.Minute)

		mock.ExpectIncr(key).SetVal(2)
		mock.ExpectTTL(key).SetVal(-1)
		mock.ExpectExpire(key, time.Minute).SetVal(true)

		d, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, time.Minute, d.ResetAfter)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Redis 故障时放行", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		l := NewRedis(rdb, 2, time.Minute)

		mock.ExpectIncr(key).SetErr(errors.New("connection refused"))

		d, err := l.Allow(ctx, "1.2.3.4")
		assert.Error(t, err)
		assert.True(t, d.Allowed)
	})
}
