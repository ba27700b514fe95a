package health

import (
	"context"
	"time"

	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	defaultCheckTimeout = 2 * time.Second
	goroutineThreshold  = 10000
)

// Pinger 可探测连通性的依赖
type Pinger interface {
	Ping(ctx context.Context) error
}

// Summary /health 返回的概要
type Summary struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Uptime    string            `json:"uptime"`
	Timestamp time.Time         `json:"timestamp"`
}

// Checker 健康检查器
//
// 存活检查只看进程自身，就绪检查探测数据库与可选的 Redis。
type Checker struct {
	health   healthcheck.Handler
	store    Pinger
	redis    Pinger
	timeout  time.Duration
	started  time.Time
	logger   *zap.Logger
	readyFns map[string]healthcheck.Check
}

// NewChecker 创建健康检查器，redis 为 nil 时不检查
//
// reg 非 nil 时每个检查的状态以 marinerefuge_healthcheck_status 指标导出。
func NewChecker(store, redis Pinger, reg prometheus.Registerer, logger *zap.Logger) *Checker {
	var h healthcheck.Handler
	if reg != nil {
		h = healthcheck.NewMetricsHandler(reg, "marinerefuge")
	} else {
		h = healthcheck.NewHandler()
	}

	hc := &Checker{
		health:   h,
		store:    store,
		redis:    redis,
		timeout:  defaultCheckTimeout,
		started:  time.Now(),
		logger:   logger,
		readyFns: make(map[string]healthcheck.Check),
	}
	hc.addChecks()
	return hc
}

func (hc *Checker) addChecks() {
	hc.health.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(goroutineThreshold))

	hc.addReadiness("database", hc.pingCheck(hc.store))
	if hc.redis != nil {
		hc.addReadiness("redis", hc.pingCheck(hc.redis))
	}
}

func (hc *Checker) addReadiness(name string, check healthcheck.Check) {
	check = healthcheck.Timeout(check, hc.timeout)
	hc.readyFns[name] = check
	hc.health.AddReadinessCheck(name, check)
}

func (hc *Checker) pingCheck(p Pinger) healthcheck.Check {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), hc.timeout)
		defer cancel()
		return p.Ping(ctx)
	}
}

// Handler 返回 heptiolabs 处理器，提供 LiveEndpoint 与 ReadyEndpoint
func (hc *Checker) Handler() healthcheck.Handler {
	return hc.health
}

// CheckHealth 执行就绪检查并汇总结果
func (hc *Checker) CheckHealth() Summary {
	s := Summary{
		Status:    "ok",
		Checks:    make(map[string]string, len(hc.readyFns)),
		Uptime:    time.Since(hc.started).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
	}

	for name, check := range hc.readyFns {
		if err := check(); err != nil {
			s.Status = "degraded"
			s.Checks[name] = err.Error()
			hc.logger.Warn("health check failed", zap.String("check", name), zap.Error(err))
			continue
		}
		s.Checks[name] = "OK"
	}
	return s
}
