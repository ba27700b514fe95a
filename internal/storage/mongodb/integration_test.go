package mongodb

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcmongo "github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.uber.org/zap"

	"marinerefuge/backend/internal/domain"
	"marinerefuge/backend/internal/storage"
)

// 需要 Docker，设置 MARINE_INTEGRATION=1 时运行
func TestStore_Integration(t *testing.T) {
	if os.Getenv("MARINE_INTEGRATION") != "1" {
		t.Skip("set MARINE_INTEGRATION=1 to run MongoDB integration tests")
	}

	ctx := context.Background()
	container, err := tcmongo.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	store, err := New(ctx, Config{URI: uri, Database: "marine_test", ConnectTimeout: 20 * time.Second}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	require.NoError(t, store.EnsureSchema(ctx))
	// 再次执行不报错
	require.NoError(t, store.EnsureSchema(ctx))

	t.Run("订阅者唯一约束", func(t *testing.T) {
		now := time.Now().UTC().Truncate(time.Millisecond)
		sub := domain.NewSubscriber("reef@b.co", now)
		require.NoError(t, store.CreateSubscriber(ctx, sub))
		assert.NotEmpty(t, sub.ID)

		err := store.CreateSubscriber(ctx, domain.NewSubscriber("reef@b.co", now))
		assert.ErrorIs(t, err, storage.ErrAlreadyExists)

		_, err = store.DeactivateSubscriber(ctx, "reef@b.co")
		require.NoError(t, err)
		n, err := store.CountActiveSubscribers(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)

		re, err := store.ReactivateSubscriber(ctx, "reef@b.co", now.Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, sub.ID, re.ID)
		assert.True(t, re.IsActive)
	})

	t.Run("模式校验失败映射为 ErrInvalid", func(t *testing.T) {
		err := store.CreateContact(ctx, &domain.ContactMessage{
			FirstName: "Ann", LastName: "Lee", Email: "ann@b.co", Phone: "5551234567",
			Message: "Hello from the reef", Source: "carrier-pigeon", Timestamp: time.Now(), Status: domain.StatusReceived,
		})
		assert.ErrorIs(t, err, storage.ErrInvalid)
	})

	t.Run("联系消息分页与标记已读", func(t *testing.T) {
		base := time.Now().UTC().Truncate(time.Millisecond)
		for i := 0; i < 3; i++ {
			require.NoError(t, store.CreateContact(ctx, &domain.ContactMessage{
				FirstName: "Ann", LastName: "Lee", Email: "ann@b.co", Phone: "5551234567",
				Message: "Hello from the reef", Source: domain.SourceWebsiteContactForm,
				Timestamp: base.Add(time.Duration(i) * time.Second), Status: domain.StatusReceived,
			}))
		}

		items, total, err := store.ListContacts(ctx, 2, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, items, 2)
		assert.True(t, items[0].Timestamp.After(items[1].Timestamp))

		read, err := store.MarkContactRead(ctx, items[0].ID)
		require.NoError(t, err)
		assert.True(t, read.Read)
		assert.Equal(t, domain.StatusRead, read.Status)

		_, err = store.MarkContactRead(ctx, "not-an-object-id")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}
