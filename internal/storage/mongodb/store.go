package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"

	"marinerefuge/backend/internal/domain"
	"marinerefuge/backend/internal/storage"
)

const (
	subscribersCollection = "subscribers"
	contactsCollection    = "contacts"

	// MongoDB 服务器错误码
	codeDocumentValidationFailure = 121
	codeNamespaceExists           = 48
)

// Config MongoDB 连接参数
type Config struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
	MaxPoolSize    uint64
}

// Store MongoDB 存储实现
type Store struct {
	client      *mongo.Client
	db          *mongo.Database
	subscribers *mongo.Collection
	contacts    *mongo.Collection
	log         *zap.Logger
	now         func() time.Time
}

var _ storage.Store = (*Store)(nil)

// New 连接 MongoDB 并验证连通性
//
// 连接失败时返回错误，调用方决定是否降级为 storage.Unavailable。
func New(ctx context.Context, cfg Config, log *zap.Logger) (*Store, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo: URI is required")
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ConnectTimeout)
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}

	log.Info("connected to MongoDB", zap.String("database", cfg.Database))
	return newStore(client, cfg.Database, log), nil
}

func newStore(client *mongo.Client, database string, log *zap.Logger) *Store {
	db := client.Database(database)
	return &Store{
		client:      client,
		db:          db,
		subscribers: db.Collection(subscribersCollection),
		contacts:    db.Collection(contactsCollection),
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// EnsureSchema 创建集合校验规则与索引，可重复执行
func (s *Store) EnsureSchema(ctx context.Context) error {
	for name, schema := range map[string]bson.M{
		subscribersCollection: subscriberSchema(),
		contactsCollection:    contactSchema(),
	} {
		err := s.db.CreateCollection(ctx, name, options.CreateCollection().SetValidator(bson.M{"$jsonSchema": schema}))
		if err != nil && !hasServerCode(err, codeNamespaceExists) {
			return fmt.Errorf("mongo: create collection %s: %w", name, err)
		}
	}
	return s.EnsureIndexes(ctx)
}

// EnsureIndexes 创建唯一索引和查询索引
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.subscribers.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("email_unique")},
		{Keys: bson.D{{Key: "isActive", Value: 1}}, Options: options.Index().SetName("is_active")},
	})
	if err != nil {
		return fmt.Errorf("mongo: subscriber indexes: %w", err)
	}

	_, err = s.contacts.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetName("email")},
		{Keys: bson.D{{Key: "timestamp", Value: -1}}, Options: options.Index().SetName("timestamp_desc")},
		{Keys: bson.D{{Key: "status", Value: 1}}, Options: options.Index().SetName("status")},
	})
	if err != nil {
		return fmt.Errorf("mongo: contact indexes: %w", err)
	}
	return nil
}

func (s *Store) CreateSubscriber(ctx context.Context, sub *domain.Subscriber) error {
	doc := subscriberFromDomain(sub)
	doc.ID = bson.NewObjectID()

	if _, err := s.subscribers.InsertOne(ctx, doc); err != nil {
		return translateError(err)
	}
	sub.ID = doc.ID.Hex()
	return nil
}

func (s *Store) GetSubscriberByEmail(ctx context.Context, email string) (*domain.Subscriber, error) {
	var doc subscriberDoc
	if err := s.subscribers.FindOne(ctx, bson.M{"email": email}).Decode(&doc); err != nil {
		return nil, translateError(err)
	}
	return doc.toDomain(), nil
}

func (s *Store) ReactivateSubscriber(ctx context.Context, email string, at time.Time) (*domain.Subscriber, error) {
	return s.updateSubscriber(ctx, email, bson.M{
		"isActive":     true,
		"subscribedAt": at,
		"updatedAt":    s.now(),
	})
}

func (s *Store) DeactivateSubscriber(ctx context.Context, email string) (*domain.Subscriber, error) {
	return s.updateSubscriber(ctx, email, bson.M{
		"isActive":  false,
		"updatedAt": s.now(),
	})
}

func (s *Store) updateSubscriber(ctx context.Context, email string, set bson.M) (*domain.Subscriber, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc subscriberDoc
	err := s.subscribers.FindOneAndUpdate(ctx, bson.M{"email": email}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		return nil, translateError(err)
	}
	return doc.toDomain(), nil
}

func (s *Store) CountActiveSubscribers(ctx context.Context) (int64, error) {
	n, err := s.subscribers.CountDocuments(ctx, bson.M{"isActive": true})
	if err != nil {
		return 0, translateError(err)
	}
	return n, nil
}

func (s *Store) CreateContact(ctx context.Context, msg *domain.ContactMessage) error {
	doc := contactFromDomain(msg)
	doc.ID = bson.NewObjectID()

	if _, err := s.contacts.InsertOne(ctx, doc); err != nil {
		return translateError(err)
	}
	msg.ID = doc.ID.Hex()
	return nil
}

func (s *Store) ListContacts(ctx context.Context, limit, offset int) ([]domain.ContactMessage, int64, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cursor, err := s.contacts.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, translateError(err)
	}

	var docs []contactDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, translateError(err)
	}

	total, err := s.contacts.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, translateError(err)
	}

	items := make([]domain.ContactMessage, 0, len(docs))
	for i := range docs {
		items = append(items, docs[i].toDomain())
	}
	return items, total, nil
}

func (s *Store) MarkContactRead(ctx context.Context, id string) (*domain.ContactMessage, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, storage.ErrNotFound
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$set": bson.M{
		"read":      true,
		"status":    string(domain.StatusRead),
		"updatedAt": s.now(),
	}}

	var doc contactDoc
	if err := s.contacts.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		return nil, translateError(err)
	}
	msg := doc.toDomain()
	return &msg, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// translateError 将驱动错误翻译为 storage 包的结果错误，其他错误原样包装
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return storage.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", storage.ErrAlreadyExists, err)
	case hasServerCode(err, codeDocumentValidationFailure):
		return fmt.Errorf("%w: %v", storage.ErrInvalid, err)
	}
	return fmt.Errorf("mongo: %w", err)
}

func hasServerCode(err error, code int) bool {
	var se mongo.ServerError
	return errors.As(err, &se) && se.HasErrorCode(code)
}
