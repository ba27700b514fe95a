package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"marinerefuge/backend/internal/cache"
	"marinerefuge/backend/internal/domain"
	"marinerefuge/backend/internal/storage"
)

const activeCountKey = "subscribers:active"

// 订阅结果，用于指标统计
const (
	SubscriptionCreated      = "created"
	SubscriptionReactivated  = "reactivated"
	SubscriptionDuplicate    = "duplicate"
	SubscriptionUnsubscribed = "unsubscribed"
	SubscriptionRejected     = "rejected"
	SubscriptionFailed       = "failed"
)

// WelcomeSender 发送欢迎邮件
type WelcomeSender interface {
	SendWelcome(ctx context.Context, email string) error
}

// SubscriptionObserver 接收订阅结果
type SubscriptionObserver interface {
	ObserveSubscription(outcome string)
}

// SubscribeResult 订阅结果
type SubscribeResult struct {
	Subscriber  *domain.Subscriber
	Reactivated bool
	// WelcomeEmailErr 欢迎邮件发送失败的原因，订阅本身已经成功
	WelcomeEmailErr error
}

// SubscriptionService 管理邮件订阅
type SubscriptionService struct {
	repo     storage.SubscriberRepository
	welcome  WelcomeSender
	counts   *cache.LocalCache
	countGen atomic.Uint64 // 每次失效递增
	log      *zap.Logger
	observer SubscriptionObserver
	now      func() time.Time
}

// NewSubscriptionService 创建订阅服务，counts 为 nil 时不缓存订阅者数量
func NewSubscriptionService(
	repo storage.SubscriberRepository,
	welcome WelcomeSender,
	counts *cache.LocalCache,
	log *zap.Logger,
	observer SubscriptionObserver,
) *SubscriptionService {
	return &SubscriptionService{
		repo:     repo,
		welcome:  welcome,
		counts:   counts,
		log:      log,
		observer: observer,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Subscribe 订阅邮件
//
// 已存在且活跃的地址返回 ErrAlreadySubscribed；已退订的地址原地重新激活。
// 欢迎邮件同步发送，失败不影响订阅结果，原因记录在 WelcomeEmailErr。
func (s *SubscriptionService) Subscribe(ctx context.Context, rawEmail string) (*SubscribeResult, error) {
	email, err := normalizeSubscriberEmail(rawEmail)
	if err != nil {
		s.observe(SubscriptionRejected)
		return nil, err
	}

	existing, err := s.repo.GetSubscriberByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.IsActive {
			s.observe(SubscriptionDuplicate)
			return nil, ErrAlreadySubscribed
		}
		return s.reactivate(ctx, email)
	case errors.Is(err, storage.ErrNotFound):
		return s.create(ctx, email)
	default:
		s.observe(SubscriptionFailed)
		return nil, fmt.Errorf("lookup subscriber: %w", err)
	}
}

func (s *SubscriptionService) create(ctx context.Context, email string) (*SubscribeResult, error) {
	sub := domain.NewSubscriber(email, s.now())
	if err := s.repo.CreateSubscriber(ctx, sub); err != nil {
		switch {
		// 查询与插入之间的并发订阅由唯一约束兜底
		case errors.Is(err, storage.ErrAlreadyExists):
			s.observe(SubscriptionDuplicate)
			return nil, ErrAlreadySubscribed
		case errors.Is(err, storage.ErrInvalid):
			s.observe(SubscriptionRejected)
			return nil, fmt.Errorf("%w: %v", ErrInvalidSubscriber, err)
		default:
			s.observe(SubscriptionFailed)
			return nil, fmt.Errorf("create subscriber: %w", err)
		}
	}

	s.invalidateCount()
	s.observe(SubscriptionCreated)
	s.log.Info("new subscriber", zap.String("email", email), zap.String("id", sub.ID))

	result := &SubscribeResult{Subscriber: sub}
	if err := s.welcome.SendWelcome(ctx, email); err != nil {
		s.log.Warn("welcome email failed", zap.String("email", email), zap.Error(err))
		result.WelcomeEmailErr = err
	}
	return result, nil
}

func (s *SubscriptionService) reactivate(ctx context.Context, email string) (*SubscribeResult, error) {
	sub, err := s.repo.ReactivateSubscriber(ctx, email, s.now())
	if err != nil {
		s.observe(SubscriptionFailed)
		return nil, fmt.Errorf("reactivate subscriber: %w", err)
	}

	s.invalidateCount()
	s.observe(SubscriptionReactivated)
	s.log.Info("subscriber reactivated", zap.String("email", email))

	result := &SubscribeResult{Subscriber: sub, Reactivated: true}
	if err := s.welcome.SendWelcome(ctx, email); err != nil {
		s.log.Warn("welcome email failed", zap.String("email", email), zap.Error(err))
		result.WelcomeEmailErr = err
	}
	return result, nil
}

// Unsubscribe 退订，记录保留并标记为不活跃
func (s *SubscriptionService) Unsubscribe(ctx context.Context, rawEmail string) (*domain.Subscriber, error) {
	email, err := normalizeSubscriberEmail(rawEmail)
	if err != nil {
		return nil, err
	}

	sub, err := s.repo.DeactivateSubscriber(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrSubscriberNotFound
		}
		return nil, fmt.Errorf("deactivate subscriber: %w", err)
	}

	s.invalidateCount()
	s.observe(SubscriptionUnsubscribed)
	s.log.Info("subscriber unsubscribed", zap.String("email", email))
	return sub, nil
}

// CountActive 活跃订阅者数量
//
// 查询期间发生订阅变更时，查到的值不会写入缓存。
func (s *SubscriptionService) CountActive(ctx context.Context) (int64, error) {
	if s.counts != nil {
		if v, ok := s.counts.Get(activeCountKey); ok {
			return v.(int64), nil
		}
	}

	gen := s.countGen.Load()
	n, err := s.repo.CountActiveSubscribers(ctx)
	if err != nil {
		return 0, fmt.Errorf("count subscribers: %w", err)
	}
	if s.counts != nil {
		s.counts.Set(activeCountKey, n, 0)
		// Set 之后再比较版本，查询期间发生过失效则丢弃刚写入的值
		if s.countGen.Load() != gen {
			s.counts.Delete(activeCountKey)
		}
	}
	return n, nil
}

func (s *SubscriptionService) invalidateCount() {
	if s.counts != nil {
		s.countGen.Add(1)
		s.counts.Delete(activeCountKey)
	}
}

func (s *SubscriptionService) observe(outcome string) {
	if s.observer != nil {
		s.observer.ObserveSubscription(outcome)
	}
}

func normalizeSubscriberEmail(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", ErrEmailRequired
	}
	if !domain.IsValidEmail(raw) {
		return "", ErrInvalidEmail
	}
	email := domain.SanitizeEmail(raw)
	if domain.RuneLen(email) > domain.MaxEmailLength {
		return "", ErrInvalidEmail
	}
	return email, nil
}
