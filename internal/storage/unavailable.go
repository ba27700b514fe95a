package storage

import (
	"context"
	"time"

	"marinerefuge/backend/internal/domain"
)

// Unavailable 在未配置数据库时使用，所有操作都返回 ErrUnavailable。
type Unavailable struct{}

var _ Store = Unavailable{}

func (Unavailable) CreateSubscriber(context.Context, *domain.Subscriber) error { return ErrUnavailable }

func (Unavailable) GetSubscriberByEmail(context.Context, string) (*domain.Subscriber, error) {
	return nil, ErrUnavailable
}

func (Unavailable) ReactivateSubscriber(context.Context, string, time.Time) (*domain.Subscriber, error) {
	return nil, ErrUnavailable
}

func (Unavailable) DeactivateSubscriber(context.Context, string) (*domain.Subscriber, error) {
	return nil, ErrUnavailable
}

func (Unavailable) CountActiveSubscribers(context.Context) (int64, error) { return 0, ErrUnavailable }

func (Unavailable) CreateContact(context.Context, *domain.ContactMessage) error { return ErrUnavailable }

func (Unavailable) ListContacts(context.Context, int, int) ([]domain.ContactMessage, int64, error) {
	return nil, 0, ErrUnavailable
}

func (Unavailable) MarkContactRead(context.Context, string) (*domain.ContactMessage, error) {
	return nil, ErrUnavailable
}

func (Unavailable) Ping(context.Context) error { return ErrUnavailable }

func (Unavailable) Close(context.Context) error { return nil }
