package notify

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
)

// resendEmails 是 resend.Client.Emails 中用到的部分
type resendEmails interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendMailer 通过 Resend API 发送邮件
type ResendMailer struct {
	emails resendEmails
}

// NewResendMailer 使用 API Key 创建 Resend 通道
func NewResendMailer(apiKey string) *ResendMailer {
	return &ResendMailer{emails: resend.NewClient(apiKey).Emails}
}

func (m *ResendMailer) Name() string { return "resend" }

func (m *ResendMailer) Send(ctx context.Context, email *Email) error {
	if len(email.To) == 0 {
		return ErrNoRecipients
	}

	params := &resend.SendEmailRequest{
		From:    email.From,
		To:      email.To,
		Subject: email.Subject,
		ReplyTo: email.ReplyTo,
		Html:    email.HTML,
		Text:    email.Text,
	}

	if _, err := m.emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("resend: send %q: %w", email.Subject, err)
	}
	return nil
}
