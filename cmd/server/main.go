package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"marinerefuge/backend/internal/cache"
	"marinerefuge/backend/internal/config"
	"marinerefuge/backend/internal/health"
	"marinerefuge/backend/internal/logger"
	"marinerefuge/backend/internal/monitoring"
	"marinerefuge/backend/internal/notify"
	"marinerefuge/backend/internal/pool"
	"marinerefuge/backend/internal/ratelimit"
	"marinerefuge/backend/internal/security"
	"marinerefuge/backend/internal/service"
	"marinerefuge/backend/internal/storage"
	"marinerefuge/backend/internal/storage/memory"
	"marinerefuge/backend/internal/storage/mongodb"
	"marinerefuge/backend/internal/storage/postgres"
	redisstore "marinerefuge/backend/internal/storage/redis"
	httptransport "marinerefuge/backend/internal/transport/http"
)

// version 构建时通过 -ldflags "-X main.version=..." 注入
var version = "dev"

const (
	countCacheTTL      = 30 * time.Second
	countCacheInterval = time.Minute
	// 任务超时在单封邮件超时之外留出余量
	taskTimeoutSlack = 5 * time.Second
)

// main 启动 Marine Refuge API 服务。
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	if cfg.Log.Development {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
		File:        cfg.Log.File,
		Compress:    true,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting marine refuge server",
		zap.String("version", version),
		zap.String("environment", cfg.Server.Environment),
		zap.String("log_level", cfg.Log.Level),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 监控
	registry := monitoring.NewRegistry()
	metrics := monitoring.NewMetrics(registry)

	// 存储层
	store := openStore(ctx, cfg, log)

	// Redis 仅用于分布式限流，不可用时退回进程内限流
	var (
		redisClient *redisstore.Client
		redisPinger health.Pinger
	)
	if cfg.Redis.Address != "" {
		redisClient, err = redisstore.New(ctx, cfg.Redis, log.Named("redis"))
		if err != nil {
			log.Warn("redis unavailable, falling back to in-process rate limiting", zap.Error(err))
			redisClient = nil
		} else {
			redisPinger = redisClient
		}
	}
	limiter := newLimiter(cfg.RateLimit, redisClient, log)

	// 邮件通知
	mailer := newMailer(cfg.Email, log)
	notifier := notify.NewNotifier(mailer, notify.Config{
		Sender:          cfg.Email.Sender,
		AdminRecipients: cfg.Email.AdminRecipients,
		ReplyTo:         cfg.Email.ReplyTo,
		SendTimeout:     cfg.Email.SendTimeout,
	}, log.Named("notify"), metrics)

	// 后台任务执行器
	dispatcher := pool.NewDispatcher(
		cfg.Dispatch.Workers,
		cfg.Dispatch.QueueSize,
		log.Named("dispatch"),
		metrics,
		pool.WithTaskTimeout(cfg.Email.SendTimeout+taskTimeoutSlack),
	)
	dispatcher.Start(ctx)

	// 服务层
	counts := cache.NewLocalCache(countCacheTTL, countCacheInterval)
	subscriptions := service.NewSubscriptionService(store, notifier, counts, log.Named("subscription"), metrics)
	contacts := service.NewContactService(store, notifier, dispatcher, security.NewContentFilter(), log.Named("contact"), metrics)

	healthChecker := health.NewChecker(store, redisPinger, registry, log.Named("health"))

	httpAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	router := httptransport.NewRouter(httptransport.RouterDependencies{
		Config:        cfg,
		Subscriptions: subscriptions,
		Contacts:      contacts,
		Health:        healthChecker,
		Metrics:       metrics,
		Gatherer:      registry,
		Limiter:       limiter,
		Logger:        log,
	})

	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	// HTTP 服务器 goroutine
	group.Go(func() error {
		log.Info("starting HTTP server", zap.String("address", httpAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", zap.Error(err))
			return err
		}
		return nil
	})

	// 优雅关闭 goroutine
	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutdown signal received, gracefully shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// 先停止接收请求，再等待已提交的邮件任务
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown error", zap.Error(err))
		}
		if err := dispatcher.Stop(shutdownCtx); err != nil {
			log.Warn("dispatcher did not drain before timeout", zap.Error(err))
		}
		if err := store.Close(shutdownCtx); err != nil {
			log.Warn("store close error", zap.Error(err))
		}
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				log.Warn("redis close error", zap.Error(err))
			}
		}
		counts.Close()

		log.Info("server stopped")
		return nil
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("server error", zap.Error(err))
	}

	log.Info("server exited cleanly")
}

// openStore 按配置打开存储
//
// 数据库连接失败时不退出，使用 storage.Unavailable：接口返回 503，就绪检查失败。
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) storage.Store {
	dbLog := log.Named("storage")

	switch cfg.Database.Driver {
	case config.DriverMongo:
		store, err := mongodb.New(ctx, mongodb.Config{
			URI:            cfg.Database.URI,
			Database:       cfg.Database.Name,
			ConnectTimeout: cfg.Database.ConnectTimeout,
			MaxPoolSize:    uint64(max(cfg.Database.MaxPoolSize, 0)),
		}, dbLog)
		if err != nil {
			dbLog.Error("MongoDB connection failed, persistence disabled", zap.Error(err))
			return storage.Unavailable{}
		}
		if err := store.EnsureIndexes(ctx); err != nil {
			dbLog.Warn("failed to ensure MongoDB indexes", zap.Error(err))
		}
		dbLog.Info("using MongoDB storage", zap.String("database", cfg.Database.Name))
		return store

	case config.DriverPostgres:
		pgPool, err := postgres.NewPool(ctx, postgres.PoolConfig{
			DSN:            cfg.Database.URI,
			MaxConns:       int32(max(cfg.Database.MaxPoolSize, 0)),
			ConnectTimeout: cfg.Database.ConnectTimeout,
		})
		if err != nil {
			dbLog.Error("PostgreSQL connection failed, persistence disabled", zap.Error(err))
			return storage.Unavailable{}
		}
		dbLog.Info("using PostgreSQL storage")
		return postgres.NewStore(pgPool)

	case config.DriverMemory:
		dbLog.Warn("using memory storage (development mode), data is lost on restart")
		return memory.NewStore()

	default:
		dbLog.Warn("no database configured, persistence disabled")
		return storage.Unavailable{}
	}
}

// newMailer 按配置选择发送通道，未配置时返回 nil（通知软禁用）
func newMailer(cfg config.EmailConfig, log *zap.Logger) notify.Mailer {
	if cfg.LegacySendGridKey {
		log.Warn("SENDGRID_API_KEY is set but SendGrid is not supported; set MARINE_EMAIL_API_KEY to a Resend key or configure SMTP",
			zap.String("provider", cfg.Provider),
		)
	}
	switch cfg.Provider {
	case config.ProviderResend:
		log.Info("email provider configured", zap.String("provider", config.ProviderResend))
		return notify.NewResendMailer(cfg.APIKey)
	case config.ProviderSMTP:
		log.Info("email provider configured",
			zap.String("provider", config.ProviderSMTP),
			zap.String("relay", cfg.SMTP.Addr()),
		)
		return notify.NewSMTPMailer(cfg.SMTP)
	default:
		return nil
	}
}

// newLimiter 选择限流实现：禁用时不限流，有 Redis 时跨实例共享计数
func newLimiter(cfg config.RateLimitConfig, rdb *redisstore.Client, log *zap.Logger) ratelimit.Limiter {
	if !cfg.Enabled {
		log.Info("rate limiting disabled")
		return ratelimit.Nop{}
	}
	if rdb != nil {
		log.Info("using redis rate limiter", zap.Int("requests", cfg.Requests), zap.Duration("window", cfg.Window))
		return ratelimit.NewRedis(rdb.Redis(), cfg.Requests, cfg.Window)
	}
	log.Info("using in-process rate limiter", zap.Int("requests", cfg.Requests), zap.Duration("window", cfg.Window))
	return ratelimit.NewMemory(cfg.Requests, cfg.Window)
}
