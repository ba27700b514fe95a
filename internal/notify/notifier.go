package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"marinerefuge/backend/internal/domain"
)

// 邮件类型
const (
	KindWelcome          = "welcome"
	KindAdminNotify      = "admin_notification"
	KindUserConfirmation = "user_confirmation"
)

// 发送结果
const (
	ResultSent    = "sent"
	ResultFailed  = "failed"
	ResultSkipped = "skipped"
)

// Observer 接收邮件发送结果
type Observer interface {
	ObserveEmail(kind, result string, duration time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveEmail(string, string, time.Duration) {}

// Config 通知参数
type Config struct {
	Sender          string
	AdminRecipients []string
	ReplyTo         string
	SendTimeout     time.Duration
}

// Notifier 组装并发送业务邮件
//
// mailer 为 nil 时处于软禁用状态：所有发送记录为 skipped 并返回 nil。
type Notifier struct {
	mailer   Mailer
	cfg      Config
	log      *zap.Logger
	observer Observer
	now      func() time.Time
}

// NewNotifier 创建通知器
func NewNotifier(mailer Mailer, cfg Config, log *zap.Logger, observer Observer) *Notifier {
	if observer == nil {
		observer = nopObserver{}
	}
	if mailer == nil {
		log.Warn("email notifications are disabled, no mail provider configured")
	}
	return &Notifier{
		mailer:   mailer,
		cfg:      cfg,
		log:      log,
		observer: observer,
		now:      time.Now,
	}
}

// Enabled 是否配置了发送通道
func (n *Notifier) Enabled() bool {
	return n.mailer != nil
}

// SendWelcome 向新订阅者发送欢迎邮件
func (n *Notifier) SendWelcome(ctx context.Context, to string) error {
	data := welcomeData{Year: n.now().Year()}

	html, err := render(welcomeHTMLTmpl, data)
	if err != nil {
		return fmt.Errorf("render welcome html: %w", err)
	}
	text, err := render(welcomeTextTmpl, data)
	if err != nil {
		return fmt.Errorf("render welcome text: %w", err)
	}

	return n.send(ctx, KindWelcome, &Email{
		From:    n.cfg.Sender,
		To:      []string{to},
		Subject: subjectWelcome,
		HTML:    html,
		Text:    text,
	})
}

// SendAdminNotification 通知管理员有新的联系表单，回复地址为提交者
func (n *Notifier) SendAdminNotification(ctx context.Context, msg *domain.ContactMessage) error {
	if len(n.cfg.AdminRecipients) == 0 {
		n.observer.ObserveEmail(KindAdminNotify, ResultSkipped, 0)
		n.log.Debug("admin notification skipped, no recipients configured")
		return nil
	}

	html, err := render(adminHTMLTmpl, adminData{
		FirstName: msg.FirstName,
		LastName:  msg.LastName,
		Email:     msg.Email,
		Phone:     domain.FormatPhone(msg.Phone),
		Submitted: formatSubmitted(msg.Timestamp),
		Message:   msg.Message,
		IPAddress: msg.IPAddress,
		Source:    string(msg.Source),
	})
	if err != nil {
		return fmt.Errorf("render admin notification: %w", err)
	}

	return n.send(ctx, KindAdminNotify, &Email{
		From:    n.cfg.Sender,
		To:      n.cfg.AdminRecipients,
		ReplyTo: msg.Email,
		Subject: subjectAdmin(msg.FirstName, msg.LastName, msg.Email),
		HTML:    html,
	})
}

// SendUserConfirmation 向提交者确认已收到留言
func (n *Notifier) SendUserConfirmation(ctx context.Context, msg *domain.ContactMessage) error {
	html, err := render(confirmationHTMLTmpl, confirmationData{
		FirstName: msg.FirstName,
		Submitted: formatSubmitted(msg.Timestamp),
		Year:      n.now().Year(),
	})
	if err != nil {
		return fmt.Errorf("render confirmation: %w", err)
	}

	return n.send(ctx, KindUserConfirmation, &Email{
		From:    n.cfg.Sender,
		To:      []string{msg.Email},
		ReplyTo: n.cfg.ReplyTo,
		Subject: subjectConfirmation,
		HTML:    html,
	})
}

func (n *Notifier) send(ctx context.Context, kind string, email *Email) error {
	if n.mailer == nil {
		n.observer.ObserveEmail(kind, ResultSkipped, 0)
		n.log.Info("email skipped, notifications disabled",
			zap.String("kind", kind),
			zap.Strings("to", email.To),
		)
		return nil
	}

	if n.cfg.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.cfg.SendTimeout)
		defer cancel()
	}

	start := time.Now()
	err := n.mailer.Send(ctx, email)
	elapsed := time.Since(start)

	if err != nil {
		n.observer.ObserveEmail(kind, ResultFailed, elapsed)
		n.log.Error("failed to send email",
			zap.String("kind", kind),
			zap.String("provider", n.mailer.Name()),
			zap.Strings("to", email.To),
			zap.Duration("duration", elapsed),
			zap.Error(err),
		)
		return err
	}

	n.observer.ObserveEmail(kind, ResultSent, elapsed)
	n.log.Info("email sent",
		zap.String("kind", kind),
		zap.String("provider", n.mailer.Name()),
		zap.Strings("to", email.To),
		zap.Duration("duration", elapsed),
	)
	return nil
}
