package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"marinerefuge/backend/internal/cache"
	"marinerefuge/backend/internal/storage"
)

func newSubscriptionService(t *testing.T, store storage.SubscriberRepository) (*SubscriptionService, *MockNotifier, *countingObserver) {
	t.Helper()
	notifier := new(MockNotifier)
	obs := newCountingObserver()
	counts := cache.NewLocalCache(time.Minute, 0)
	t.Cleanup(counts.Close)

	svc := NewSubscriptionService(store, notifier, counts, nopLogger(), obs)
	svc.now = fixedNow
	return svc, notifier, obs
}

func TestSubscriptionService_Subscribe(t *testing.T) {
	ctx := context.Background()

	t.Run("新订阅者", func(t *testing.T) {
		svc, notifier, obs := newSubscriptionService(t, newFaultyStore())
		notifier.On("SendWelcome", mock.Anything, "new@example.com").Return(nil).Once()

		res, err := svc.Subscribe(ctx, "  New@Example.COM ")
		require.NoError(t, err)
		assert.Equal(t, "new@example.com", res.Subscriber.Email)
		assert.True(t, res.Subscriber.IsActive)
		assert.Equal(t, fixedNow(), res.Subscriber.SubscribedAt)
		assert.False(t, res.Reactivated)
		assert.NoError(t, res.WelcomeEmailErr)
		assert.Equal(t, 1, obs.get(SubscriptionCreated))
		notifier.AssertExpectations(t)
	})

	t.Run("欢迎邮件失败仍然成功", func(t *testing.T) {
		svc, notifier, _ := newSubscriptionService(t, newFaultyStore())
		notifier.On("SendWelcome", mock.Anything, "a@b.co").Return(errBoom)

		res, err := svc.Subscribe(ctx, "a@b.co")
		require.NoError(t, err)
		assert.ErrorIs(t, res.WelcomeEmailErr, errBoom)
		assert.NotEmpty(t, res.Subscriber.ID)
	})

	t.Run("重复订阅", func(t *testing.T) {
		store := newFaultyStore()
		svc, notifier, obs := newSubscriptionService(t, store)
		notifier.On("SendWelcome", mock.Anything, "a@b.co").Return(nil).Once()

		_, err := svc.Subscribe(ctx, "a@b.co")
		require.NoError(t, err)
		_, err = svc.Subscribe(ctx, "A@B.CO")
		assert.ErrorIs(t, err, ErrAlreadySubscribed)
		assert.Equal(t, 1, obs.get(SubscriptionDuplicate))

		n, err := store.CountActiveSubscribers(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		notifier.AssertExpectations(t)
	})

	t.Run("已退订地址重新激活", func(t *testing.T) {
		store := newFaultyStore()
		svc, notifier, obs := newSubscriptionService(t, store)
		notifier.On("SendWelcome", mock.Anything, "a@b.co").Return(nil)

		first, err := svc.Subscribe(ctx, "a@b.co")
		require.NoError(t, err)
		_, err = svc.Unsubscribe(ctx, "a@b.co")
		require.NoError(t, err)

		later := fixedNow().Add(48 * time.Hour)
		svc.now = func() time.Time { return later }
		res, err := svc.Subscribe(ctx, "a@b.co")
		require.NoError(t, err)
		assert.True(t, res.Reactivated)
		assert.True(t, res.Subscriber.IsActive)
		assert.Equal(t, first.Subscriber.ID, res.Subscriber.ID)
		assert.Equal(t, later, res.Subscriber.SubscribedAt)
		assert.Equal(t, 1, obs.get(SubscriptionReactivated))

		n, _ := store.CountActiveSubscribers(ctx)
		assert.Equal(t, int64(1), n)
	})

	t.Run("并发插入冲突视为已订阅", func(t *testing.T) {
		store := newFaultyStore()
		store.createSubscriberErr = storage.ErrAlreadyExists
		svc, notifier, _ := newSubscriptionService(t, store)

		_, err := svc.Subscribe(ctx, "a@b.co")
		assert.ErrorIs(t, err, ErrAlreadySubscribed)
		notifier.AssertNotCalled(t, "SendWelcome", mock.Anything, mock.Anything)
	})

	t.Run("模式校验失败", func(t *testing.T) {
		store := newFaultyStore()
		store.createSubscriberErr = storage.ErrInvalid
		svc, _, _ := newSubscriptionService(t, store)

		_, err := svc.Subscribe(ctx, "a@b.co")
		assert.ErrorIs(t, err, ErrInvalidSubscriber)
	})

	t.Run("存储故障", func(t *testing.T) {
		store := newFaultyStore()
		store.getSubscriberErr = storage.ErrUnavailable
		svc, _, obs := newSubscriptionService(t, store)

		_, err := svc.Subscribe(ctx, "a@b.co")
		assert.ErrorIs(t, err, storage.ErrUnavailable)
		assert.Equal(t, 1, obs.get(SubscriptionFailed))
	})

	t.Run("输入校验", func(t *testing.T) {
		svc, _, _ := newSubscriptionService(t, newFaultyStore())

		_, err := svc.Subscribe(ctx, "   ")
		assert.ErrorIs(t, err, ErrEmailRequired)
		_, err = svc.Subscribe(ctx, "invalid-email")
		assert.ErrorIs(t, err, ErrInvalidEmail)
		_, err = svc.Subscribe(ctx, "missing@domain")
		assert.ErrorIs(t, err, ErrInvalidEmail)
	})
}

func TestSubscriptionService_Unsubscribe(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newSubscriptionService(t, newFaultyStore())

	_, err := svc.Unsubscribe(ctx, "ghost@b.co")
	assert.ErrorIs(t, err, ErrSubscriberNotFound)

	_, err = svc.Unsubscribe(ctx, "")
	assert.ErrorIs(t, err, ErrEmailRequired)
}

func TestSubscriptionService_CountActive(t *testing.T) {
	ctx := context.Background()
	store := newFaultyStore()
	svc, notifier, _ := newSubscriptionService(t, store)
	notifier.On("SendWelcome", mock.Anything, mock.Anything).Return(nil)

	n, err := svc.CountActive(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	// 第二次命中缓存
	_, _ = svc.CountActive(ctx)
	assert.Equal(t, 1, store.countCalls)

	// 订阅后缓存失效
	_, err = svc.Subscribe(ctx, "a@b.co")
	require.NoError(t, err)
	n, err = svc.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 2, store.countCalls)

	_, err = svc.Unsubscribe(ctx, "a@b.co")
	require.NoError(t, err)
	n, _ = svc.CountActive(ctx)
	assert.Zero(t, n)
}

func TestSubscriptionService_CountActiveConcurrentSubscribe(t *testing.T) {
	ctx := context.Background()
	store := newFaultyStore()
	svc, notifier, _ := newSubscriptionService(t, store)
	notifier.On("SendWelcome", mock.Anything, mock.Anything).Return(nil)

	// 计数查询返回旧值的同时完成一次订阅
	store.afterCount = func() {
		_, err := svc.Subscribe(ctx, "late@b.co")
		require.NoError(t, err)
	}

	n, err := svc.CountActive(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = svc.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 2, store.countCalls)
}

func TestSubscriptionService_CountActiveWithoutCache(t *testing.T) {
	store := newFaultyStore()
	svc := NewSubscriptionService(store, new(MockNotifier), nil, nopLogger(), nil)

	_, _ = svc.CountActive(context.Background())
	_, _ = svc.CountActive(context.Background())
	assert.Equal(t, 2, store.countCalls)
}
