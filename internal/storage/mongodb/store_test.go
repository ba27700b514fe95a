package mongodb

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"marinerefuge/backend/internal/domain"
	"marinerefuge/backend/internal/storage"
)

func TestTranslateError(t *testing.T) {
	t.Run("无文档映射为 ErrNotFound", func(t *testing.T) {
		assert.ErrorIs(t, translateError(mongo.ErrNoDocuments), storage.ErrNotFound)
	})

	t.Run("重复键映射为 ErrAlreadyExists", func(t *testing.T) {
		err := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key"}}}
		assert.ErrorIs(t, translateError(err), storage.ErrAlreadyExists)
	})

	t.Run("文档校验失败映射为 ErrInvalid", func(t *testing.T) {
		err := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 121, Message: "Document failed validation"}}}
		assert.ErrorIs(t, translateError(err), storage.ErrInvalid)
	})

	t.Run("其他错误保留原始错误", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := translateError(cause)
		assert.ErrorIs(t, err, cause)
		assert.NotErrorIs(t, err, storage.ErrInvalid)
	})

	assert.NoError(t, translateError(nil))
}

func TestDocumentConversion(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("subscriber", func(t *testing.T) {
		doc := subscriberFromDomain(domain.NewSubscriber("a@b.co", now))
		doc.ID = bson.NewObjectID()

		sub := doc.toDomain()
		assert.Equal(t, doc.ID.Hex(), sub.ID)
		assert.Equal(t, "a@b.co", sub.Email)
		assert.True(t, sub.IsActive)
		assert.Equal(t, now, sub.SubscribedAt)
	})

	t.Run("contact", func(t *testing.T) {
		doc := contactFromDomain(&domain.ContactMessage{
			FirstName: "Ann",
			LastName:  "Lee",
			Email:     "ann@b.co",
			Phone:     "5551234567",
			Message:   "Hello from the reef",
			Source:    domain.SourceAPI,
			Timestamp: now,
			Status:    domain.StatusReceived,
		})
		doc.ID = bson.NewObjectID()

		msg := doc.toDomain()
		assert.Equal(t, doc.ID.Hex(), msg.ID)
		assert.Equal(t, domain.SourceAPI, msg.Source)
		assert.Equal(t, domain.StatusReceived, msg.Status)
		assert.False(t, msg.Read)
	})
}

func TestSchemasRequireCoreFields(t *testing.T) {
	assert.Contains(t, subscriberSchema()["required"], "email")
	assert.Contains(t, contactSchema()["required"], "message")
}
