package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter 进程内令牌桶限流，每个键一个桶
//
// 窗口内最多 requests 次，令牌按 window/requests 的间隔匀速补充。
type MemoryLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	requests  int
	window    time.Duration
	every     rate.Limit
	lastSweep time.Time
	now       func() time.Time
}

var _ Limiter = (*MemoryLimiter)(nil)

// NewMemory 创建进程内限流器
func NewMemory(requests int, window time.Duration) *MemoryLimiter {
	if requests <= 0 {
		requests = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &MemoryLimiter{
		visitors: make(map[string]*visitor),
		requests: requests,
		window:   window,
		every:    rate.Every(window / time.Duration(requests)),
		now:      time.Now,
	}
}

func (m *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweep(now)

	v, ok := m.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(m.every, m.requests)}
		m.visitors[key] = v
	}
	v.lastSeen = now

	allowed := v.limiter.AllowN(now, 1)
	tokens := v.limiter.TokensAt(now)

	d := Decision{
		Allowed:   allowed,
		Limit:     m.requests,
		Remaining: int(tokens),
	}
	if d.Remaining < 0 {
		d.Remaining = 0
	}
	if tokens < 1 {
		d.ResetAfter = time.Duration((1 - tokens) / float64(m.every) * float64(time.Second))
	}
	return d, nil
}

// sweep 清理长时间未访问的键，调用方持有锁
func (m *MemoryLimiter) sweep(now time.Time) {
	if now.Sub(m.lastSweep) < m.window {
		return
	}
	m.lastSweep = now
	for key, v := range m.visitors {
		// 超过一个窗口未访问的桶已经补满，删除不影响判定
		if now.Sub(v.lastSeen) > m.window {
			delete(m.visitors, key)
		}
	}
}

func (m *MemoryLimiter) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.visitors)
}
