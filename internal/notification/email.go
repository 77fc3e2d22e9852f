package notification

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=Sender --dir=. --output=./mocks --outpkg=mocks

// Sender delivers one email.
type Sender interface {
	Send(ctx context.Context, to, subject, html string) error
}

// SMTPConfig configures the SMTP sender.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender sends HTML email through an SMTP relay with PLAIN auth.
type SMTPSender struct {
	logger *zap.Logger
	cfg    SMTPConfig
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPSender(logger *zap.Logger, cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{logger: logger, cfg: cfg, send: smtp.SendMail}
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, html string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))

	if err := s.send(addr, auth, s.cfg.From, []string{to}, buildMessage(s.cfg.From, to, subject, html)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Debug("email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

func buildMessage(from, to, subject, html string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + strings.NewReplacer("\r", "", "\n", "").Replace(subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(html)
	return []byte(b.String())
}

// NoOpSender logs instead of sending, for local runs and tests.
type NoOpSender struct {
	logger *zap.Logger
}

func NewNoOpSender(logger *zap.Logger) *NoOpSender {
	return &NoOpSender{logger: logger}
}

func (s *NoOpSender) Send(ctx context.Context, to, subject, html string) error {
	s.logger.Debug("no-op sender: email not sent",
		zap.String("to", to),
		zap.String("subject", subject),
	)
	return nil
}
