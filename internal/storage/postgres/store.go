package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"marinerefuge/backend/internal/domain"
	"marinerefuge/backend/internal/storage"
)

// PostgreSQL 错误码
const (
	codeUniqueViolation  = "23505"
	codeCheckViolation   = "23514"
	codeNotNullViolation = "23502"
	codeStringTooLong    = "22001"
)

const subscriberColumns = `id, email, subscribed_at, is_active, created_at, updated_at`

const contactColumns = `id, first_name, last_name, email, phone, message, source, submitted_at,
	ip_address, user_agent, status, is_read, notes, responded_at, created_at, updated_at`

// Store PostgreSQL 存储实现，表结构由 Migrate 维护
type Store struct {
	pool Pool
	now  func() time.Time
}

var _ storage.Store = (*Store)(nil)

// NewStore 使用已建立的连接池创建存储
func NewStore(pool Pool) *Store {
	return &Store{
		pool: pool,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) CreateSubscriber(ctx context.Context, sub *domain.Subscriber) error {
	id := uuid.NewString()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO subscribers (`+subscriberColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, sub.Email, sub.SubscribedAt, sub.IsActive, sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		return translateError(err)
	}
	sub.ID = id
	return nil
}

func (s *Store) GetSubscriberByEmail(ctx context.Context, email string) (*domain.Subscriber, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+subscriberColumns+` FROM subscribers WHERE email = $1`, email)
	return scanSubscriber(row)
}

func (s *Store) ReactivateSubscriber(ctx context.Context, email string, at time.Time) (*domain.Subscriber, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE subscribers SET is_active = TRUE, subscribed_at = $2, updated_at = $3
		WHERE email = $1 RETURNING `+subscriberColumns,
		email, at, s.now(),
	)
	return scanSubscriber(row)
}

func (s *Store) DeactivateSubscriber(ctx context.Context, email string) (*domain.Subscriber, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE subscribers SET is_active = FALSE, updated_at = $2
		WHERE email = $1 RETURNING `+subscriberColumns,
		email, s.now(),
	)
	return scanSubscriber(row)
}

func (s *Store) CountActiveSubscribers(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM subscribers WHERE is_active`).Scan(&n); err != nil {
		return 0, translateError(err)
	}
	return n, nil
}

func (s *Store) CreateContact(ctx context.Context, msg *domain.ContactMessage) error {
	id := uuid.NewString()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO contact_messages (`+contactColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		id, msg.FirstName, msg.LastName, msg.Email, msg.Phone, msg.Message, string(msg.Source), msg.Timestamp,
		msg.IPAddress, msg.UserAgent, string(msg.Status), msg.Read, msg.Notes, msg.RespondedAt, msg.CreatedAt, msg.UpdatedAt,
	)
	if err != nil {
		return translateError(err)
	}
	msg.ID = id
	return nil
}

func (s *Store) ListContacts(ctx context.Context, limit, offset int) ([]domain.ContactMessage, int64, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+contactColumns+` FROM contact_messages ORDER BY submitted_at DESC, id DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, translateError(err)
	}
	defer rows.Close()

	items := make([]domain.ContactMessage, 0, limit)
	for rows.Next() {
		msg, err := scanContact(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *msg)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, translateError(err)
	}

	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM contact_messages`).Scan(&total); err != nil {
		return nil, 0, translateError(err)
	}
	return items, total, nil
}

func (s *Store) MarkContactRead(ctx context.Context, id string) (*domain.ContactMessage, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, storage.ErrNotFound
	}
	row := s.pool.QueryRow(ctx,
		`UPDATE contact_messages SET is_read = TRUE, status = $2, updated_at = $3
		WHERE id = $1 RETURNING `+contactColumns,
		id, string(domain.StatusRead), s.now(),
	)
	return scanContact(row)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close(context.Context) error {
	s.pool.Close()
	return nil
}

func scanSubscriber(row pgx.Row) (*domain.Subscriber, error) {
	var sub domain.Subscriber
	err := row.Scan(&sub.ID, &sub.Email, &sub.SubscribedAt, &sub.IsActive, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return nil, translateError(err)
	}
	return &sub, nil
}

func scanContact(row pgx.Row) (*domain.ContactMessage, error) {
	var (
		msg            domain.ContactMessage
		source, status string
	)
	err := row.Scan(
		&msg.ID, &msg.FirstName, &msg.LastName, &msg.Email, &msg.Phone, &msg.Message, &source, &msg.Timestamp,
		&msg.IPAddress, &msg.UserAgent, &status, &msg.Read, &msg.Notes, &msg.RespondedAt, &msg.CreatedAt, &msg.UpdatedAt,
	)
	if err != nil {
		return nil, translateError(err)
	}
	msg.Source = domain.ContactSource(source)
	msg.Status = domain.ContactStatus(status)
	return &msg, nil
}

// translateError 将 pgx 错误翻译为 storage 包的结果错误
func translateError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%w: %s", storage.ErrAlreadyExists, pgErr.ConstraintName)
		case codeCheckViolation, codeNotNullViolation, codeStringTooLong:
			return fmt.Errorf("%w: %s", storage.ErrInvalid, pgErr.Message)
		}
	}
	return fmt.Errorf("postgres: %w", err)
}
