package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLocalCache(t *testing.T) {
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLocalCache(time.Minute, 0)
	c.now = func() time.Time { return clock }
	defer c.Close()

	t.Run("命中与过期", func(t *testing.T) {
		c.Set("count", int64(7), 0)
		v, ok := c.Get("count")
		assert.True(t, ok)
		assert.Equal(t, int64(7), v)

		clock = clock.Add(time.Minute)
		_, ok = c.Get("count")
		assert.False(t, ok)
	})

	t.Run("自定义过期时间", func(t *testing.T) {
		c.Set("short", "x", time.Second)
		clock = clock.Add(500 * time.Millisecond)
		_, ok := c.Get("short")
		assert.True(t, ok)
		clock = clock.Add(time.Second)
		_, ok = c.Get("short")
		assert.False(t, ok)
	})

	t.Run("删除", func(t *testing.T) {
		c.Set("k", 1, 0)
		c.Delete("k")
		_, ok := c.Get("k")
		assert.False(t, ok)
	})

	t.Run("清理过期条目", func(t *testing.T) {
		c.Set("a", 1, time.Second)
		c.Set("b", 2, time.Hour)
		clock = clock.Add(2 * time.Second)
		c.purgeExpired()

		_, okA := c.data.Load("a")
		_, okB := c.data.Load("b")
		assert.False(t, okA)
		assert.True(t, okB)
	})
}

func TestLocalCache_CloseIsIdempotent(t *testing.T) {
	c := NewLocalCache(time.Minute, time.Millisecond)
	c.Close()
	c.Close()
}
