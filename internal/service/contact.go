package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"marinerefuge/backend/internal/domain"
	"marinerefuge/backend/internal/pool"
	"marinerefuge/backend/internal/security"
	"marinerefuge/backend/internal/storage"
)

// 分页参数
const (
	DefaultContactLimit = 50
	MaxContactLimit     = 100
)

const (
	maxPhoneLength     = 50
	maxUserAgentLength = 512
)

// ContactNotifier 联系表单相关的通知
type ContactNotifier interface {
	SendAdminNotification(ctx context.Context, msg *domain.ContactMessage) error
	SendUserConfirmation(ctx context.Context, msg *domain.ContactMessage) error
}

// TaskSubmitter 后台任务提交，*pool.Dispatcher 满足
type TaskSubmitter interface {
	Submit(name string, task pool.Task) bool
}

// ContactObserver 接收联系表单处理结果
type ContactObserver interface {
	ObserveContact(status string)
}

// ContactInput 联系表单原始输入与请求元数据
type ContactInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Message   string
	Source    string
	IPAddress string
	UserAgent string
}

// ContactPage 分页结果
type ContactPage struct {
	Items   []domain.ContactMessage
	Total   int64
	HasMore bool
}

// ContactService 处理联系表单
type ContactService struct {
	repo     storage.ContactRepository
	notifier ContactNotifier
	tasks    TaskSubmitter
	filter   *security.ContentFilter
	log      *zap.Logger
	observer ContactObserver
	now      func() time.Time
}

// NewContactService 创建联系表单服务，filter 为 nil 时不做垃圾内容检测
func NewContactService(
	repo storage.ContactRepository,
	notifier ContactNotifier,
	tasks TaskSubmitter,
	filter *security.ContentFilter,
	log *zap.Logger,
	observer ContactObserver,
) *ContactService {
	return &ContactService{
		repo:     repo,
		notifier: notifier,
		tasks:    tasks,
		filter:   filter,
		log:      log,
		observer: observer,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Submit 校验、清洗并保存联系表单，保存成功后异步发送通知
//
// 通知只在记录写入后提交，发送结果不影响返回值。
// 被判定为垃圾内容的留言以 spam 状态保存，不通知管理员。
func (s *ContactService) Submit(ctx context.Context, in ContactInput) (*domain.ContactMessage, error) {
	msg, err := s.buildMessage(in)
	if err != nil {
		s.observe("rejected")
		return nil, err
	}

	if err := s.repo.CreateContact(ctx, msg); err != nil {
		s.observe("failed")
		if errors.Is(err, storage.ErrInvalid) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidContact, err)
		}
		return nil, fmt.Errorf("save contact: %w", err)
	}

	s.observe(string(msg.Status))
	s.log.Info("contact message saved",
		zap.String("id", msg.ID),
		zap.String("email", msg.Email),
		zap.String("status", string(msg.Status)),
	)

	s.dispatchNotifications(msg)
	return msg, nil
}

func (s *ContactService) buildMessage(in ContactInput) (*domain.ContactMessage, error) {
	for _, v := range []string{in.FirstName, in.LastName, in.Email, in.Phone, in.Message} {
		if strings.TrimSpace(v) == "" {
			return nil, ErrMissingFields
		}
	}

	var verdict security.Verdict
	if s.filter != nil {
		verdict = s.filter.Classify(in.FirstName, in.LastName, in.Message)
	}

	firstName := domain.SanitizeInput(in.FirstName)
	lastName := domain.SanitizeInput(in.LastName)
	phone := domain.SanitizeInput(in.Phone)
	message := strings.TrimSpace(domain.SanitizeInput(in.Message))
	email := domain.SanitizeEmail(in.Email)

	if firstName == "" || lastName == "" || phone == "" || message == "" {
		return nil, ErrMissingFields
	}
	if !domain.IsValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if domain.RuneLen(message) < domain.MinMessageLength {
		return nil, ErrMessageTooShort
	}
	if domain.RuneLen(firstName) > domain.MaxNameLength ||
		domain.RuneLen(lastName) > domain.MaxNameLength ||
		domain.RuneLen(email) > domain.MaxEmailLength ||
		domain.RuneLen(phone) > maxPhoneLength ||
		domain.RuneLen(message) > domain.MaxMessageLength {
		return nil, ErrFieldTooLong
	}

	now := s.now()
	msg := &domain.ContactMessage{
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Phone:     phone,
		Message:   message,
		Source:    domain.ParseContactSource(in.Source),
		Timestamp: now,
		IPAddress: in.IPAddress,
		UserAgent: truncateRunes(in.UserAgent, maxUserAgentLength),
		Status:    domain.StatusReceived,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if verdict.Flagged {
		msg.Status = domain.StatusSpam
		s.log.Warn("contact message flagged",
			zap.String("email", email),
			zap.String("ip", in.IPAddress),
			zap.String("reason", verdict.Reason),
		)
	}
	return msg, nil
}

func (s *ContactService) dispatchNotifications(msg *domain.ContactMessage) {
	snapshot := *msg

	if snapshot.Status != domain.StatusSpam {
		s.tasks.Submit("contact.admin_notification", func(ctx context.Context) error {
			return s.notifier.SendAdminNotification(ctx, &snapshot)
		})
	}
	s.tasks.Submit("contact.user_confirmation", func(ctx context.Context) error {
		return s.notifier.SendUserConfirmation(ctx, &snapshot)
	})
}

// List 按提交时间倒序分页列出联系消息
func (s *ContactService) List(ctx context.Context, limit, offset int) (*ContactPage, error) {
	if limit <= 0 {
		limit = DefaultContactLimit
	}
	if limit > MaxContactLimit {
		limit = MaxContactLimit
	}
	if offset < 0 {
		offset = 0
	}

	items, total, err := s.repo.ListContacts(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return &ContactPage{
		Items:   items,
		Total:   total,
		HasMore: int64(offset+limit) < total,
	}, nil
}

// MarkRead 标记为已读
func (s *ContactService) MarkRead(ctx context.Context, id string) (*domain.ContactMessage, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrContactNotFound
	}

	msg, err := s.repo.MarkContactRead(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrContactNotFound
		}
		return nil, fmt.Errorf("mark contact read: %w", err)
	}
	return msg, nil
}

func (s *ContactService) observe(status string) {
	if s.observer != nil {
		s.observer.ObserveContact(status)
	}
}

func truncateRunes(s string, n int) string {
	if domain.RuneLen(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
