// Package pool 提供有界的后台任务执行器
//
// 请求处理中需要"发出即忘"的工作（例如通知邮件）提交到 Dispatcher，
// 由固定数量的 worker 执行，进程退出前排空队列。
package pool

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"
)

// 任务结果，用于 Observer 统计
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomePanic   = "panic"
	OutcomeDropped = "dropped"
)

// ErrStopped 执行器已停止
var ErrStopped = errors.New("dispatcher stopped")

// Task 后台任务
type Task func(ctx context.Context) error

// Observer 接收任务执行结果
type Observer interface {
	ObserveTask(name, outcome string, duration time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveTask(string, string, time.Duration) {}

type job struct {
	name string
	task Task
}

// Option 执行器选项
type Option func(*Dispatcher)

// WithTaskTimeout 为每个任务设置执行超时
func WithTaskTimeout(d time.Duration) Option {
	return func(p *Dispatcher) { p.taskTimeout = d }
}

// Dispatcher 后台任务执行器
type Dispatcher struct {
	workers     int
	queue       chan job
	log         *zap.Logger
	observer    Observer
	taskTimeout time.Duration

	mu      sync.RWMutex
	closed  bool
	started bool

	wg     sync.WaitGroup
	base   context.Context
	cancel context.CancelFunc
}

// NewDispatcher 创建执行器
//
// 参数:
//   - workers: 并发 worker 数
//   - queueSize: 等待队列长度，队列满时新任务被丢弃
func NewDispatcher(workers, queueSize int, log *zap.Logger, observer Observer, opts ...Option) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	if observer == nil {
		observer = nopObserver{}
	}

	p := &Dispatcher{
		workers:  workers,
		queue:    make(chan job, queueSize),
		log:      log,
		observer: observer,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start 启动 worker
//
// 任务上下文继承 ctx 的值但不随其取消，只在 Stop 超时后被取消。
func (p *Dispatcher) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.closed {
		return
	}
	p.started = true
	p.base, p.cancel = context.WithCancel(context.WithoutCancel(ctx))

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	p.log.Info("dispatcher started",
		zap.Int("workers", p.workers),
		zap.Int("queue_size", cap(p.queue)),
	)
}

// Submit 提交任务，不会阻塞
//
// 执行器已停止或队列已满时返回 false。
func (p *Dispatcher) Submit(name string, task Task) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.log.Warn("task rejected, dispatcher stopped", zap.String("task", name))
		p.observer.ObserveTask(name, OutcomeDropped, 0)
		return false
	}

	select {
	case p.queue <- job{name: name, task: task}:
		return true
	default:
		p.log.Warn("task dropped, queue full",
			zap.String("task", name),
			zap.Int("queue_size", cap(p.queue)),
		)
		p.observer.ObserveTask(name, OutcomeDropped, 0)
		return false
	}
}

// Pending 队列中等待执行的任务数
func (p *Dispatcher) Pending() int {
	return len(p.queue)
}

// Stop 停止接收任务并等待队列排空
//
// ctx 到期时取消仍在执行的任务并返回 ctx 的错误。
func (p *Dispatcher) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrStopped
	}
	p.closed = true
	close(p.queue)
	started := p.started
	p.mu.Unlock()

	if !started {
		return nil
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		p.log.Info("dispatcher stopped")
		return nil
	case <-ctx.Done():
		p.cancel()
		p.log.Warn("dispatcher stop timed out, cancelling running tasks",
			zap.Int("pending", len(p.queue)),
		)
		return fmt.Errorf("dispatcher drain: %w", ctx.Err())
	}
}

func (p *Dispatcher) worker() {
	defer p.wg.Done()
	for j := range p.queue {
		p.run(j)
	}
}

// run 执行单个任务，错误和 panic 只记录不传播
func (p *Dispatcher) run(j job) {
	ctx := p.base
	if p.taskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.taskTimeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("task panicked",
				zap.String("task", j.name),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			p.observer.ObserveTask(j.name, OutcomePanic, time.Since(start))
		}
	}()

	if err := j.task(ctx); err != nil {
		p.log.Error("task failed",
			zap.String("task", j.name),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		p.observer.ObserveTask(j.name, OutcomeError, time.Since(start))
		return
	}
	p.observer.ObserveTask(j.name, OutcomeSuccess, time.Since(start))
}
