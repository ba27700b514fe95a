package storage

import (
	"context"
	"errors"
	"time"

	"marinerefuge/backend/internal/domain"
)

// 各存储后端统一返回的结果错误，驱动相关的错误码只在后端内部翻译。
var (
	// ErrAlreadyExists 违反唯一约束（例如订阅邮箱重复）
	ErrAlreadyExists = errors.New("storage: record already exists")
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("storage: record not found")
	// ErrInvalid 记录未通过模式或约束校验
	ErrInvalid = errors.New("storage: record failed validation")
	// ErrUnavailable 未配置数据库或数据库不可用
	ErrUnavailable = errors.New("storage: database unavailable")
)

// SubscriberRepository 定义订阅者数据存取操作。
type SubscriberRepository interface {
	// CreateSubscriber 插入新订阅者并回填 ID；邮箱重复时返回 ErrAlreadyExists
	CreateSubscriber(ctx context.Context, sub *domain.Subscriber) error
	GetSubscriberByEmail(ctx context.Context, email string) (*domain.Subscriber, error)
	// ReactivateSubscriber 将已存在的订阅者置为激活并刷新订阅时间
	ReactivateSubscriber(ctx context.Context, email string, at time.Time) (*domain.Subscriber, error)
	DeactivateSubscriber(ctx context.Context, email string) (*domain.Subscriber, error)
	CountActiveSubscribers(ctx context.Context) (int64, error)
}

// ContactRepository 定义联系消息数据存取操作。
type ContactRepository interface {
	CreateContact(ctx context.Context, msg *domain.ContactMessage) error
	// ListContacts 按 timestamp 倒序分页，同时返回总数
	ListContacts(ctx context.Context, limit, offset int) ([]domain.ContactMessage, int64, error)
	MarkContactRead(ctx context.Context, id string) (*domain.ContactMessage, error)
}

// Store 聚合所有仓储接口，由各后端实现。
type Store interface {
	SubscriberRepository
	ContactRepository

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
