package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "marinerefuge"

// Metrics 监控指标
type Metrics struct {
	// HTTP 请求指标
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// 业务指标
	SubscriptionsTotal *prometheus.CounterVec
	ContactsTotal      *prometheus.CounterVec

	// 邮件指标
	EmailsTotal       *prometheus.CounterVec
	EmailSendDuration *prometheus.HistogramVec

	// 后台任务指标
	TasksTotal   *prometheus.CounterVec
	TaskDuration *prometheus.HistogramVec

	// 限流与错误
	RateLimitBlocks *prometheus.CounterVec
	PanicsTotal     prometheus.Counter

	SystemUptime prometheus.GaugeFunc
}

// NewRegistry 创建带 Go 运行时与进程指标的注册表
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// NewMetrics 在 reg 上注册全部指标
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	started := time.Now()

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		HTTPResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_response_size_bytes",
				Help:      "HTTP response size in bytes",
				Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "route"},
		),

		SubscriptionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "subscriptions_total",
				Help:      "Newsletter subscription attempts by outcome",
			},
			[]string{"outcome"},
		),

		ContactsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "contact_submissions_total",
				Help:      "Contact form submissions by resulting status",
			},
			[]string{"status"},
		),

		EmailsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "emails_total",
				Help:      "Transactional emails by kind and result",
			},
			[]string{"kind", "result"},
		),

		EmailSendDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "email_send_duration_seconds",
				Help:      "Time taken to hand an email to the provider",
				Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"kind"},
		),

		TasksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "background_tasks_total",
				Help:      "Background tasks by name and outcome (success, error, panic, dropped)",
			},
			[]string{"task", "outcome"},
		),

		TaskDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "background_task_duration_seconds",
				Help:      "Background task execution time",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"task"},
		),

		RateLimitBlocks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limit_blocks_total",
				Help:      "Requests rejected by the rate limiter",
			},
			[]string{"route"},
		),

		PanicsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "panics_total",
				Help:      "Total number of recovered panics",
			},
		),

		SystemUptime: factory.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "uptime_seconds",
				Help:      "Process uptime in seconds",
			},
			func() float64 { return time.Since(started).Seconds() },
		),
	}
}

// RecordHTTPRequest 记录 HTTP 请求
func (m *Metrics) RecordHTTPRequest(method, route, statusCode string, duration time.Duration, responseSize int) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
	if responseSize > 0 {
		m.HTTPResponseSize.WithLabelValues(method, route).Observe(float64(responseSize))
	}
}

// ObserveSubscription 记录订阅结果
func (m *Metrics) ObserveSubscription(outcome string) {
	m.SubscriptionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveContact 记录联系表单结果
func (m *Metrics) ObserveContact(status string) {
	m.ContactsTotal.WithLabelValues(status).Inc()
}

// ObserveEmail 记录邮件发送结果
func (m *Metrics) ObserveEmail(kind, result string, duration time.Duration) {
	m.EmailsTotal.WithLabelValues(kind, result).Inc()
	if duration > 0 {
		m.EmailSendDuration.WithLabelValues(kind).Observe(duration.Seconds())
	}
}

// ObserveTask 记录后台任务结果
func (m *Metrics) ObserveTask(name, outcome string, duration time.Duration) {
	m.TasksTotal.WithLabelValues(name, outcome).Inc()
	if duration > 0 {
		m.TaskDuration.WithLabelValues(name).Observe(duration.Seconds())
	}
}

// RecordRateLimitBlock 记录被限流的请求
func (m *Metrics) RecordRateLimitBlock(route string) {
	m.RateLimitBlocks.WithLabelValues(route).Inc()
}

// RecordPanic 记录 panic
func (m *Metrics) RecordPanic() {
	m.PanicsTotal.Inc()
}

// Handler 返回 Prometheus 指标处理器
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
