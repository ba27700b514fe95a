package httptransport

import (
	"net/http"
	"time"

	gincors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"marinerefuge/backend/internal/config"
	"marinerefuge/backend/internal/health"
	"marinerefuge/backend/internal/middleware"
	"marinerefuge/backend/internal/monitoring"
	"marinerefuge/backend/internal/ratelimit"
)

// RouterDependencies 路由器依赖项
type RouterDependencies struct {
	Config        *config.Config
	Subscriptions Subscriptions
	Contacts      Contacts
	Health        *health.Checker
	Metrics       *monitoring.Metrics // 为 nil 时不采集 HTTP 指标
	Gatherer      prometheus.Gatherer // 为 nil 时不暴露 /metrics
	Limiter       ratelimit.Limiter   // 为 nil 时不限流
	Logger        *zap.Logger
}

// NewRouter 创建并返回 Gin 路由实例。
func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.New()
	log := deps.Logger.Named("http")

	// 未配置可信代理时 ClientIP 只取连接地址，忽略 X-Forwarded-For / X-Real-IP
	if err := router.SetTrustedProxies(trustedProxies(deps.Config.Server.TrustedProxies)); err != nil {
		log.Error("invalid trusted proxies, forwarded headers ignored", zap.Error(err))
		_ = router.SetTrustedProxies(nil)
	}

	var panics middleware.PanicRecorder
	if deps.Metrics != nil {
		panics = deps.Metrics
	}

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(log, panics))
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.SecurityHeaders())
	if deps.Metrics != nil {
		router.Use(middleware.HTTPMetrics(deps.Metrics))
	}
	router.Use(middleware.BodySizeLimit(middleware.DefaultBodyLimit))
	router.Use(gincors.New(corsConfig(deps.Config.CORS)))

	router.NoRoute(func(c *gin.Context) {
		NotFound(c, "Not found")
	})

	limiter := deps.Limiter
	if limiter == nil {
		limiter = ratelimit.Nop{}
	}
	var blocks middleware.RateLimitRecorder
	if deps.Metrics != nil {
		blocks = deps.Metrics
	}
	rateLimit := middleware.RateLimit(limiter, log, blocks)
	adminAuth := middleware.NewAdminAuth(deps.Config.Admin.AllowedIPs, deps.Config.Admin.TokenHash, log)

	subscriptions := NewSubscriptionHandler(deps.Subscriptions, log)
	contacts := NewContactHandler(deps.Contacts, log)

	// 健康检查
	if deps.Health != nil {
		hc := NewHealthHandler(deps.Health)
		router.GET("/health", hc.Summary)
		router.GET("/health/live", gin.WrapF(deps.Health.Handler().LiveEndpoint))
		router.GET("/health/ready", gin.WrapF(deps.Health.Handler().ReadyEndpoint))
	}

	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(monitoring.Handler(deps.Gatherer)))
	}

	api := router.Group("/api")
	{
		api.POST("/subscribe", rateLimit, subscriptions.Subscribe)
		api.POST("/unsubscribe", rateLimit, subscriptions.Unsubscribe)
		api.GET("/subscribers/count", subscriptions.Count)

		api.POST("/contact", rateLimit, contacts.Submit)

		admin := api.Group("", adminAuth.Require())
		{
			admin.GET("/contacts", contacts.List)
			admin.PATCH("/contacts/:id/read", contacts.MarkRead)
		}
	}

	return router
}

// corsConfig 构造 CORS 配置，包含 "*" 时允许所有来源且不携带凭证
func corsConfig(cfg config.CORSConfig) gincors.Config {
	c := gincors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderAdminToken, middleware.HeaderRequestID},
		ExposeHeaders: []string{
			"Content-Length",
			middleware.HeaderRequestID,
			"X-RateLimit-Limit",
			"X-RateLimit-Remaining",
			"X-RateLimit-Reset",
			"Retry-After",
		},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	allowAll := len(c.AllowOrigins) == 0
	for _, origin := range c.AllowOrigins {
		if origin == "*" {
			allowAll = true
			break
		}
	}
	if allowAll {
		c.AllowOrigins = nil
		c.AllowAllOrigins = true
		c.AllowCredentials = false
	}
	return c
}

func trustedProxies(proxies []string) []string {
	if len(proxies) == 0 {
		return nil
	}
	return proxies
}
