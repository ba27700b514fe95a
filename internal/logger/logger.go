package logger

import (
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config 日志配置
type Config struct {
	Level       string
	Development bool
	File        string // 为空时只写标准输出
	MaxSize     int    // MB
	MaxBackups  int
	MaxAge      int // days
	Compress    bool
}

// withRotationDefaults 填充未设置的轮转参数
func (c Config) withRotationDefaults() Config {
	if c.MaxSize <= 0 {
		c.MaxSize = 100
	}
	if c.MaxBackups <= 0 {
		c.MaxBackups = 3
	}
	if c.MaxAge <= 0 {
		c.MaxAge = 28
	}
	return c
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// New 创建日志记录器
//
// 开发模式使用控制台编码并在 error 级别附带堆栈，生产模式输出 JSON。
// 配置了 File 时同时写入轮转文件和标准输出。
func New(cfg Config) (*zap.Logger, error) {
	var sinks []zapcore.WriteSyncer
	sinks = append(sinks, zapcore.AddSync(os.Stdout))

	if cfg.File != "" {
		cfg = cfg.withRotationDefaults()
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, err
		}
		sinks = append(sinks, zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}))
	}

	return build(cfg, zapcore.NewMultiWriteSyncer(sinks...)), nil
}

// NewWithWriter 将日志写入指定 writer，主要用于测试
func NewWithWriter(cfg Config, w io.Writer) *zap.Logger {
	return build(cfg, zapcore.AddSync(w))
}

func build(cfg Config, ws zapcore.WriteSyncer) *zap.Logger {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var encoder zapcore.Encoder
	if cfg.Development {
		encoder = zapcore.NewConsoleEncoder(encoderConfig())
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig())
	}

	core := zapcore.NewCore(encoder, ws, level)
	opts := []zap.Option{zap.AddCaller()}
	if cfg.Development {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel), zap.Development())
	}
	return zap.New(core, opts...)
}
