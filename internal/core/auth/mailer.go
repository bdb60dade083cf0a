package auth

import (
	"context"
	"fmt"
	"net/smtp"

	"go.uber.org/zap"

	"github.com/codeseed-ai/codeseed/internal/core"
)

// SMTPMailer sends plain-text transactional mail over SMTP.
type SMTPMailer struct {
	host   string
	port   string
	user   string
	pass   string
	sender string
}

func NewSMTPMailer(host, port, user, pass, sender string) *SMTPMailer {
	return &SMTPMailer{host: host, port: port, user: user, pass: pass, sender: sender}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		m.sender, to, subject, body)

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.pass, m.host)
	}
	if err := smtp.SendMail(m.host+":"+m.port, auth, m.sender, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

var _ core.Mailer = (*SMTPMailer)(nil)

// LogMailer stands in when SMTP is not configured; it logs instead of
// sending so OTP flows stay testable in development.
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, to, subject, body string) error {
	m.logger.Info("mail not sent (SMTP not configured)",
		zap.String("to", to),
		zap.String("subject", subject))
	return nil
}

var _ core.Mailer = (*LogMailer)(nil)
