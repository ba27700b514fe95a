package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"marinerefuge/backend/internal/domain"
	"marinerefuge/backend/internal/pool"
	"marinerefuge/backend/internal/storage"
	"marinerefuge/backend/internal/storage/memory"
)

// MockNotifier 模拟通知器
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendWelcome(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *MockNotifier) SendAdminNotification(ctx context.Context, msg *domain.ContactMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockNotifier) SendUserConfirmation(ctx context.Context, msg *domain.ContactMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// inlineTasks 同步执行提交的任务
type inlineTasks struct {
	mu    sync.Mutex
	names []string
	errs  []error
}

func (t *inlineTasks) Submit(name string, task pool.Task) bool {
	err := task(context.Background())
	t.mu.Lock()
	defer t.mu.Unlock()
	t.names = append(t.names, name)
	t.errs = append(t.errs, err)
	return true
}

// faultyStore 在内存存储基础上注入错误
type faultyStore struct {
	*memory.Store
	createSubscriberErr error
	getSubscriberErr    error
	createContactErr    error
	listErr             error
	countCalls          int
	afterCount          func() // 读取数量之后、返回之前调用
}

func (f *faultyStore) CreateSubscriber(ctx context.Context, sub *domain.Subscriber) error {
	if f.createSubscriberErr != nil {
		return f.createSubscriberErr
	}
	return f.Store.CreateSubscriber(ctx, sub)
}

func (f *faultyStore) GetSubscriberByEmail(ctx context.Context, email string) (*domain.Subscriber, error) {
	if f.getSubscriberErr != nil {
		return nil, f.getSubscriberErr
	}
	return f.Store.GetSubscriberByEmail(ctx, email)
}

func (f *faultyStore) CountActiveSubscribers(ctx context.Context) (int64, error) {
	f.countCalls++
	n, err := f.Store.CountActiveSubscribers(ctx)
	if hook := f.afterCount; hook != nil {
		f.afterCount = nil
		hook()
	}
	return n, err
}

func (f *faultyStore) CreateContact(ctx context.Context, msg *domain.ContactMessage) error {
	if f.createContactErr != nil {
		return f.createContactErr
	}
	return f.Store.CreateContact(ctx, msg)
}

func (f *faultyStore) ListContacts(ctx context.Context, limit, offset int) ([]domain.ContactMessage, int64, error) {
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	return f.Store.ListContacts(ctx, limit, offset)
}

var _ storage.Store = (*faultyStore)(nil)

func newFaultyStore() *faultyStore {
	return &faultyStore{Store: memory.NewStore()}
}

type countingObserver struct {
	mu       sync.Mutex
	outcomes map[string]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{outcomes: make(map[string]int)}
}

func (o *countingObserver) ObserveSubscription(outcome string) { o.inc(outcome) }
func (o *countingObserver) ObserveContact(status string)       { o.inc(status) }

func (o *countingObserver) inc(key string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes[key]++
}

func (o *countingObserver) get(key string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.outcomes[key]
}

var errBoom = errors.New("boom")

func fixedNow() time.Time {
	return time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
}

func nopLogger() *zap.Logger { return zap.NewNop() }
