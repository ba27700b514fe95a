package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"marinerefuge/backend/internal/domain"
	"marinerefuge/backend/internal/storage"
)

// Store 使用内存保存订阅者与联系消息，主要用于开发和测试。
//
// 读写都返回副本，调用方修改返回值不会影响存储内容。
type Store struct {
	mu          sync.RWMutex
	subscribers map[string]*domain.Subscriber     // email -> subscriber
	contacts    map[string]*domain.ContactMessage // id -> contact
	now         func() time.Time
}

var _ storage.Store = (*Store)(nil)

// NewStore 创建一个内存存储实例。
func NewStore() *Store {
	return &Store{
		subscribers: make(map[string]*domain.Subscriber),
		contacts:    make(map[string]*domain.ContactMessage),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CreateSubscriber 插入订阅者，邮箱已存在时返回 storage.ErrAlreadyExists
func (s *Store) CreateSubscriber(_ context.Context, sub *domain.Subscriber) error {
	if sub.Email == "" {
		return storage.ErrInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.subscribers[sub.Email]; exists {
		return storage.ErrAlreadyExists
	}

	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	cp := *sub
	s.subscribers[sub.Email] = &cp
	return nil
}

func (s *Store) GetSubscriberByEmail(_ context.Context, email string) (*domain.Subscriber, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subscribers[email]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *sub
	return &cp, nil
}

func (s *Store) ReactivateSubscriber(_ context.Context, email string, at time.Time) (*domain.Subscriber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subscribers[email]
	if !ok {
		return nil, storage.ErrNotFound
	}
	sub.IsActive = true
	sub.SubscribedAt = at
	sub.UpdatedAt = s.now()
	cp := *sub
	return &cp, nil
}

func (s *Store) DeactivateSubscriber(_ context.Context, email string) (*domain.Subscriber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subscribers[email]
	if !ok {
		return nil, storage.ErrNotFound
	}
	sub.IsActive = false
	sub.UpdatedAt = s.now()
	cp := *sub
	return &cp, nil
}

func (s *Store) CountActiveSubscribers(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, sub := range s.subscribers {
		if sub.IsActive {
			n++
		}
	}
	return n, nil
}

// CreateContact 保存联系消息并回填 ID
func (s *Store) CreateContact(_ context.Context, msg *domain.ContactMessage) error {
	if !msg.Status.Valid() {
		return storage.ErrInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	cp := *msg
	s.contacts[msg.ID] = &cp
	return nil
}

// ListContacts 按 timestamp 倒序分页
func (s *Store) ListContacts(_ context.Context, limit, offset int) ([]domain.ContactMessage, int64, error) {
	s.mu.RLock()
	all := make([]domain.ContactMessage, 0, len(s.contacts))
	for _, c := range s.contacts {
		all = append(all, *c)
	}
	s.mu.RUnlock()

	// 时间相同时按 ID 倒序，保证分页稳定
	sort.Slice(all, func(i, j int) bool {
		if !all[i].Timestamp.Equal(all[j].Timestamp) {
			return all[i].Timestamp.After(all[j].Timestamp)
		}
		return all[i].ID > all[j].ID
	})

	total := int64(len(all))
	if offset >= len(all) {
		return []domain.ContactMessage{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (s *Store) MarkContactRead(_ context.Context, id string) (*domain.ContactMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.contacts[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	c.Read = true
	c.Status = domain.StatusRead
	c.UpdatedAt = s.now()
	cp := *c
	return &cp, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close(context.Context) error { return nil }
