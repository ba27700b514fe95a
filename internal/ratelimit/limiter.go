// Package ratelimit 提供按客户端键的请求限流
package ratelimit

import (
	"context"
	"time"
)

// Decision 单次限流判定结果
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAfter time.Duration // 距离配额恢复的时间
}

// Limiter 限流器
//
// 返回 error 时 Decision 仍然有效：后端故障时放行请求，调用方只需记录错误。
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// Nop 不做任何限制
type Nop struct{}

func (Nop) Allow(context.Context, string) (Decision, error) {
	return Decision{Allowed: true}, nil
}
