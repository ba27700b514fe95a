package cache

import (
	"sync"
	"time"
)

// LocalCache 进程内 TTL 缓存
//
// 用于缓存读多写少的聚合值（例如活跃订阅者数量）。
// 过期条目在读取时惰性删除，并由后台协程定期清理，Close 后清理协程退出。
type LocalCache struct {
	data sync.Map
	ttl  time.Duration
	now  func() time.Time

	stop      chan struct{}
	closeOnce sync.Once
}

type cacheEntry struct {
	value     any
	expiresAt time.Time
}

// NewLocalCache 创建本地缓存
//
// 参数:
//   - ttl: 默认过期时间
//   - cleanupInterval: 后台清理间隔，<= 0 时不启动清理协程
func NewLocalCache(ttl, cleanupInterval time.Duration) *LocalCache {
	c := &LocalCache{
		ttl:  ttl,
		now:  time.Now,
		stop: make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go c.cleanupLoop(cleanupInterval)
	}
	return c
}

// Get 获取缓存值
func (c *LocalCache) Get(key string) (any, bool) {
	val, ok := c.data.Load(key)
	if !ok {
		return nil, false
	}

	entry := val.(*cacheEntry)
	if !c.now().Before(entry.expiresAt) {
		c.data.CompareAndDelete(key, val)
		return nil, false
	}
	return entry.value, true
}

// Set 设置缓存值，ttl 为 0 时使用默认过期时间
func (c *LocalCache) Set(key string, value any, ttl time.Duration) {
	if ttl == 0 {
		ttl = c.ttl
	}
	c.data.Store(key, &cacheEntry{
		value:     value,
		expiresAt: c.now().Add(ttl),
	})
}

// Delete 删除缓存值
func (c *LocalCache) Delete(key string) {
	c.data.Delete(key)
}

// Close 停止后台清理
func (c *LocalCache) Close() {
	c.closeOnce.Do(func() { close(c.stop) })
}

func (c *LocalCache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.purgeExpired()
		}
	}
}

func (c *LocalCache) purgeExpired() {
	now := c.now()
	c.data.Range(func(key, value any) bool {
		if !now.Before(value.(*cacheEntry).expiresAt) {
			c.data.CompareAndDelete(key, value)
		}
		return true
	})
}
