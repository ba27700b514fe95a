// Package notify 负责事务邮件：模板渲染、发送通道与发送结果统计
package notify

import (
	"context"
	"errors"
)

// ErrNoRecipients 邮件没有收件人
var ErrNoRecipients = errors.New("notify: email has no recipients")

// Email 一封待发送的邮件
type Email struct {
	From    string
	To      []string
	ReplyTo string
	Subject string
	HTML    string
	Text    string
}

// Mailer 邮件发送通道
type Mailer interface {
	Send(ctx context.Context, email *Email) error
	Name() string
}
