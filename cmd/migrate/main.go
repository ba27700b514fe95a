package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"marinerefuge/backend/internal/config"
	"marinerefuge/backend/internal/storage/mongodb"
	"marinerefuge/backend/internal/storage/postgres"
)

// 为配置的存储后端建立表结构或集合校验规则与索引。
//
// 连接参数取自与服务相同的配置（环境变量 / .env），命令行参数可覆盖。
func main() {
	driver := flag.String("driver", "", "数据库驱动: mongo 或 postgres，默认读取配置")
	uri := flag.String("uri", "", "连接字符串，默认读取配置")
	timeout := flag.Duration("timeout", time.Minute, "迁移超时")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("错误: 加载配置失败: %v\n", err)
		os.Exit(1)
	}
	if *driver != "" {
		cfg.Database.Driver = *driver
	}
	if *uri != "" {
		cfg.Database.URI = *uri
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := migrate(ctx, cfg.Database); err != nil {
		fmt.Printf("错误: %v\n", err)
		os.Exit(1)
	}
}

func migrate(ctx context.Context, db config.DatabaseConfig) error {
	if db.URI == "" {
		return fmt.Errorf("未配置数据库连接字符串，请设置 MARINE_DATABASE_URI 或使用 -uri")
	}

	switch db.Driver {
	case config.DriverMongo:
		store, err := mongodb.New(ctx, mongodb.Config{
			URI:            db.URI,
			Database:       db.Name,
			ConnectTimeout: db.ConnectTimeout,
		}, zap.NewNop())
		if err != nil {
			return fmt.Errorf("连接 MongoDB 失败: %w", err)
		}
		defer func() { _ = store.Close(context.Background()) }()

		fmt.Printf("✓ 成功连接到 MongoDB (%s)\n", db.Name)
		if err := store.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("迁移失败: %w", err)
		}
		fmt.Println("✓ 集合校验规则与索引已就绪")
		return nil

	case config.DriverPostgres:
		if err := postgres.Migrate(db.URI); err != nil {
			return fmt.Errorf("迁移失败: %w", err)
		}
		fmt.Println("✓ PostgreSQL 表结构已更新")
		return nil

	default:
		return fmt.Errorf("不支持的数据库驱动 %q（可选 mongo、postgres）", db.Driver)
	}
}
