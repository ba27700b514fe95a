package config

import (
	"fmt"
	"net/netip"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ServerConfig 定义 HTTP 服务器的监听配置参数
type ServerConfig struct {
	Host            string        // 监听地址，默认 "0.0.0.0"
	Port            int           // 监听端口，默认 5000
	Environment     string        // 运行环境: development / production
	ShutdownTimeout time.Duration // 优雅关闭超时，默认 15 秒
	TrustedProxies  []string      // 可信反向代理 IP/CIDR，为空时忽略 X-Forwarded-For
}

// IsProduction 是否为生产环境
func (s ServerConfig) IsProduction() bool {
	return s.Environment == "production"
}

// DatabaseConfig 定义持久化后端配置
type DatabaseConfig struct {
	Driver         string        // mongo / postgres / memory，留空时根据 URI 推断
	URI            string        // 连接字符串，MongoDB 或 PostgreSQL
	Name           string        // MongoDB 数据库名，默认 marine_refuge
	ConnectTimeout time.Duration // 建立连接超时
	MaxPoolSize    int           // 最大连接数
}

// SMTPRelayConfig 定义外发 SMTP 中继
type SMTPRelayConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

// Addr 返回 host:port
func (s SMTPRelayConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// EmailConfig 定义事务邮件配置
type EmailConfig struct {
	Provider        string        // resend / smtp / none，留空时根据凭证推断
	APIKey          string        // Resend API Key，为空时邮件功能软禁用
	Sender          string        // 发件人，形如 "Name <addr>"
	AdminRecipients []string      // 联系表单通知收件人
	ReplyTo         string        // 用户确认邮件的回复地址
	SendTimeout     time.Duration // 单封邮件发送超时
	SMTP            SMTPRelayConfig

	// LegacySendGridKey 设置了旧部署的 SENDGRID_API_KEY。该密钥不能用于 Resend，只在启动时告警。
	LegacySendGridKey bool
}

// DispatchConfig 后台任务执行器配置
type DispatchConfig struct {
	Workers   int // 并发 worker 数
	QueueSize int // 队列长度，满时丢弃新任务
}

// RedisConfig 定义 Redis 配置（用于分布式限流）
type RedisConfig struct {
	Address  string // Redis 服务地址，留空表示不启用
	Password string // Redis 认证密码
	DB       int    // Redis 数据库编号
}

// RateLimitConfig 定义公开写接口的限流参数
type RateLimitConfig struct {
	Enabled  bool
	Requests int           // 窗口内允许的请求数
	Window   time.Duration // 窗口长度
}

// AdminConfig 定义管理接口的访问控制
//
// AllowedIPs 与 TokenHash 同时为空时不做限制。
type AdminConfig struct {
	AllowedIPs []string
	TokenHash  string // X-Admin-Token 的 bcrypt 哈希
}

// CORSConfig 定义跨域资源共享 (CORS) 配置
type CORSConfig struct {
	AllowedOrigins []string // 允许的来源列表，"*" 表示允许所有来源
}

// LogConfig 定义日志系统配置
type LogConfig struct {
	Level       string // 日志级别: debug, info, warn, error
	Development bool   // 开发模式: 彩色控制台输出
	File        string // 日志文件路径，留空只输出到标准输出
}

// Config 是服务配置的根结构体
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Email     EmailConfig
	Dispatch  DispatchConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Admin     AdminConfig
	CORS      CORSConfig
	Log       LogConfig
}

// 数据库驱动
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// 邮件提供方
const (
	ProviderResend = "resend"
	ProviderSMTP   = "smtp"
	ProviderNone   = "none"
)

// legacyEnv 旧部署使用的环境变量名，作为带前缀变量的别名
var legacyEnv = map[string][]string{
	"server.port":            {"PORT"},
	"server.environment":     {"NODE_ENV", "APP_ENV"},
	"database.uri":           {"MONGODB_URI", "DATABASE_URL"},
	"email.api_key":          {"RESEND_API_KEY"},
	"email.sender":           {"SENDGRID_SENDER_EMAIL", "EMAIL_SENDER"},
	"email.admin_recipients": {"ADMIN_EMAIL"},
	"admin.allowed_ips":      {"ADMIN_IPS"},
}

// Load 从环境变量和 .env 文件加载配置
//
// 优先级（从高到低）：MARINE_ 前缀环境变量、旧变量名（PORT、MONGODB_URI 等）、.env 文件、默认值。
// 例如: MARINE_SERVER_PORT, MARINE_EMAIL_API_KEY
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetEnvPrefix("marine")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, names := range legacyEnv {
		args := append([]string{key, "MARINE_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, names...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.BindEnv("email.legacy_sendgrid_key", "SENDGRID_API_KEY"); err != nil {
		return nil, fmt.Errorf("bind env SENDGRID_API_KEY: %w", err)
	}

	setDefaults(v)

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("server.trusted_proxies", "")
	v.SetDefault("database.driver", "")
	v.SetDefault("database.uri", "")
	v.SetDefault("database.name", "marine_refuge")
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_pool_size", 20)
	v.SetDefault("email.provider", "")
	v.SetDefault("email.api_key", "")
	v.SetDefault("email.sender", "Marine Refuge Updates <marinerefugestartup@gmail.com>")
	v.SetDefault("email.admin_recipients", "marinerefugestartup@gmail.com")
	v.SetDefault("email.reply_to", "marinerefuge@gmail.com")
	v.SetDefault("email.send_timeout", "15s")
	v.SetDefault("email.smtp.host", "")
	v.SetDefault("email.smtp.port", 587)
	v.SetDefault("email.smtp.username", "")
	v.SetDefault("email.smtp.password", "")
	v.SetDefault("dispatch.workers", 4)
	v.SetDefault("dispatch.queue_size", 256)
	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 10)
	v.SetDefault("rate_limit.window", "1m")
	v.SetDefault("admin.allowed_ips", "")
	v.SetDefault("admin.token_hash", "")
	v.SetDefault("cors.allowed_origins", "*")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("log.file", "")
}

func fromViper(v *viper.Viper) (*Config, error) {
	port := v.GetInt("server.port")
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid server.port: %d", port)
	}

	shutdownTimeout, err := parseDuration(v, "server.shutdown_timeout")
	if err != nil {
		return nil, err
	}
	connectTimeout, err := parseDuration(v, "database.connect_timeout")
	if err != nil {
		return nil, err
	}
	sendTimeout, err := parseDuration(v, "email.send_timeout")
	if err != nil {
		return nil, err
	}
	window, err := parseDuration(v, "rate_limit.window")
	if err != nil {
		return nil, err
	}

	trustedProxies := parseList(v.GetString("server.trusted_proxies"))
	if err := validateProxies(trustedProxies); err != nil {
		return nil, err
	}

	uri := strings.TrimSpace(v.GetString("database.uri"))
	driver, err := resolveDriver(strings.ToLower(v.GetString("database.driver")), uri)
	if err != nil {
		return nil, err
	}

	email := EmailConfig{
		APIKey:            strings.TrimSpace(v.GetString("email.api_key")),
		Sender:            v.GetString("email.sender"),
		AdminRecipients:   parseList(v.GetString("email.admin_recipients")),
		ReplyTo:           v.GetString("email.reply_to"),
		SendTimeout:       sendTimeout,
		LegacySendGridKey: strings.TrimSpace(v.GetString("email.legacy_sendgrid_key")) != "",
		SMTP: SMTPRelayConfig{
			Host:     v.GetString("email.smtp.host"),
			Port:     v.GetInt("email.smtp.port"),
			Username: v.GetString("email.smtp.username"),
			Password: v.GetString("email.smtp.password"),
		},
	}
	email.Provider, err = resolveProvider(strings.ToLower(v.GetString("email.provider")), email)
	if err != nil {
		return nil, err
	}

	workers := v.GetInt("dispatch.workers")
	queueSize := v.GetInt("dispatch.queue_size")
	if workers <= 0 || queueSize <= 0 {
		return nil, fmt.Errorf("dispatch.workers and dispatch.queue_size must be positive")
	}

	requests := v.GetInt("rate_limit.requests")
	if requests <= 0 {
		requests = 10
	}

	corsOrigins := parseList(v.GetString("cors.allowed_origins"))
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	env := strings.ToLower(v.GetString("server.environment"))

	cfg := &Config{
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			Port:            port,
			Environment:     env,
			ShutdownTimeout: shutdownTimeout,
			TrustedProxies:  trustedProxies,
		},
		Database: DatabaseConfig{
			Driver:         driver,
			URI:            uri,
			Name:           v.GetString("database.name"),
			ConnectTimeout: connectTimeout,
			MaxPoolSize:    v.GetInt("database.max_pool_size"),
		},
		Email: email,
		Dispatch: DispatchConfig{
			Workers:   workers,
			QueueSize: queueSize,
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		RateLimit: RateLimitConfig{
			Enabled:  v.GetBool("rate_limit.enabled"),
			Requests: requests,
			Window:   window,
		},
		Admin: AdminConfig{
			AllowedIPs: parseList(v.GetString("admin.allowed_ips")),
			TokenHash:  v.GetString("admin.token_hash"),
		},
		CORS: CORSConfig{
			AllowedOrigins: corsOrigins,
		},
		Log: LogConfig{
			Level:       v.GetString("log.level"),
			Development: v.GetBool("log.development") || env == "development",
			File:        v.GetString("log.file"),
		},
	}

	return cfg, nil
}

// resolveDriver 确定存储后端
//
// 显式配置优先；否则根据 URI scheme 推断，URI 为空时返回空字符串（持久化不可用）。
func resolveDriver(driver, uri string) (string, error) {
	switch driver {
	case DriverMongo, DriverPostgres, DriverMemory:
		return driver, nil
	case "":
	default:
		return "", fmt.Errorf("unknown database.driver %q", driver)
	}

	if uri == "" {
		return "", nil
	}
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("invalid database.uri: %w", err)
	}
	switch u.Scheme {
	case "mongodb", "mongodb+srv":
		return DriverMongo, nil
	case "postgres", "postgresql":
		return DriverPostgres, nil
	case "memory":
		return DriverMemory, nil
	}
	return "", fmt.Errorf("cannot infer database driver from scheme %q", u.Scheme)
}

// resolveProvider 确定邮件提供方，没有任何凭证时返回 none
func resolveProvider(provider string, email EmailConfig) (string, error) {
	switch provider {
	case ProviderResend, ProviderSMTP, ProviderNone:
		return provider, nil
	case "":
	default:
		return "", fmt.Errorf("unknown email.provider %q", provider)
	}

	switch {
	case email.APIKey != "":
		return ProviderResend, nil
	case email.SMTP.Host != "":
		return ProviderSMTP, nil
	}
	return ProviderNone, nil
}

// validateProxies 每一项必须是 IP 或 CIDR
func validateProxies(proxies []string) error {
	for _, p := range proxies {
		if _, err := netip.ParsePrefix(p); err == nil {
			continue
		}
		if _, err := netip.ParseAddr(p); err != nil {
			return fmt.Errorf("invalid server.trusted_proxies entry %q", p)
		}
	}
	return nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}

// parseList 将逗号分隔的字符串解析为字符串切片，去除空白和空项
func parseList(value string) []string {
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// loadEnvFile 尝试加载 .env 文件（当前目录或父目录），文件不存在时静默跳过
//
// godotenv.Load 不会覆盖已存在的环境变量。
func loadEnvFile() {
	candidates := []string{".env"}
	if wd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(wd), ".env"))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}
