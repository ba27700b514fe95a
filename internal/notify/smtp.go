package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	gosmtp "github.com/emersion/go-smtp"
	"github.com/google/uuid"

	"marinerefuge/backend/internal/config"
)

type sendMailFunc func(addr string, auth sasl.Client, from string, to []string, r io.Reader) error

// SMTPMailer 通过 SMTP 中继发送邮件，服务器支持时自动 STARTTLS
type SMTPMailer struct {
	addr     string
	host     string
	username string
	password string
	send     sendMailFunc
	now      func() time.Time
}

// NewSMTPMailer 创建 SMTP 通道，用户名为空时不做认证
func NewSMTPMailer(cfg config.SMTPRelayConfig) *SMTPMailer {
	return &SMTPMailer{
		addr:     cfg.Addr(),
		host:     cfg.Host,
		username: cfg.Username,
		password: cfg.Password,
		send:     gosmtp.SendMail,
		now:      time.Now,
	}
}

func (m *SMTPMailer) Name() string { return "smtp" }

func (m *SMTPMailer) Send(ctx context.Context, email *Email) error {
	if len(email.To) == 0 {
		return ErrNoRecipients
	}

	from, err := mail.ParseAddress(email.From)
	if err != nil {
		return fmt.Errorf("smtp: invalid sender %q: %w", email.From, err)
	}

	raw, err := m.compose(from, email)
	if err != nil {
		return err
	}

	var auth sasl.Client
	if m.username != "" {
		auth = sasl.NewPlainClient("", m.username, m.password)
	}

	// go-smtp 的 SendMail 不接受 context，超时后放弃等待
	done := make(chan error, 1)
	go func() {
		done <- m.send(m.addr, auth, from.Address, email.To, bytes.NewReader(raw))
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp: send via %s: %w", m.addr, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp: send via %s: %w", m.addr, ctx.Err())
	}
}

// compose 生成 multipart/alternative 邮件正文
func (m *SMTPMailer) compose(from *mail.Address, email *Email) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := []struct{ key, value string }{
		{"From", from.String()},
		{"To", strings.Join(email.To, ", ")},
		{"Subject", mime.QEncoding.Encode("utf-8", email.Subject)},
		{"Date", m.now().Format(time.RFC1123Z)},
		{"Message-ID", fmt.Sprintf("<%s@%s>", uuid.NewString(), m.messageIDHost(from))},
		{"MIME-Version", "1.0"},
		{"Content-Type", fmt.Sprintf("multipart/alternative; boundary=%q", mw.Boundary())},
	}
	if email.ReplyTo != "" {
		header = append(header, struct{ key, value string }{"Reply-To", email.ReplyTo})
	}
	for _, h := range header {
		fmt.Fprintf(&buf, "%s: %s\r\n", h.key, h.value)
	}
	buf.WriteString("\r\n")

	parts := []struct{ contentType, body string }{
		{"text/plain; charset=utf-8", email.Text},
		{"text/html; charset=utf-8", email.HTML},
	}
	for _, p := range parts {
		if p.body == "" {
			continue
		}
		pw, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {p.contentType},
			"Content-Transfer-Encoding": {"quoted-printable"},
		})
		if err != nil {
			return nil, fmt.Errorf("smtp: create part: %w", err)
		}
		qp := quotedprintable.NewWriter(pw)
		if _, err := qp.Write([]byte(p.body)); err != nil {
			return nil, fmt.Errorf("smtp: encode part: %w", err)
		}
		if err := qp.Close(); err != nil {
			return nil, fmt.Errorf("smtp: encode part: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("smtp: close multipart: %w", err)
	}
	return buf.Bytes(), nil
}

func (m *SMTPMailer) messageIDHost(from *mail.Address) string {
	if at := strings.LastIndex(from.Address, "@"); at >= 0 {
		return from.Address[at+1:]
	}
	return m.host
}
