package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"
	"time"

	"titlehub/internal/config"
)

// Mailer delivers the one-time confirmation code. Delivery failure is
// non-fatal for signup; the registration service only logs it.
type Mailer interface {
	SendConfirmationCode(ctx context.Context, to, username, code string) error
}

// SMTPMailer sends over plain SMTP with an optional STARTTLS upgrade.
type SMTPMailer struct {
	host     string
	port     int
	from     string
	username string
	password string
	timeout  time.Duration
}

func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	return &SMTPMailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		from:     cfg.SMTPFrom,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		timeout:  30 * time.Second,
	}
}

func (m *SMTPMailer) SendConfirmationCode(ctx context.Context, to, username, code string) error {
	msg := m.buildMessage(to, username, code)

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	dialer := &net.Dialer{Timeout: m.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("connect to SMTP server: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, m.host)
	if err != nil {
		return fmt.Errorf("create SMTP client: %w", err)
	}
	defer client.Close()

	if m.username != "" && m.password != "" {
		auth := smtp.PlainAuth("", m.username, m.password, m.host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(m.from); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("open message body: %w", err)
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("write message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close message body: %w", err)
	}

	return client.Quit()
}

func (m *SMTPMailer) buildMessage(to, username, code string) string {
	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: TitleHub <%s>\r\n", m.from))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	msg.WriteString(fmt.Sprintf("Subject: %s, welcome to TitleHub\r\n", username))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(fmt.Sprintf("Your confirmation code: %s\r\n", code))
	msg.WriteString("POST it with your username to /api/v1/auth/token to receive an access token.\r\n")
	return msg.String()
}

// LogMailer is used when no SMTP host is configured: the code goes to
// the log instead of the wire. Development only.
type LogMailer struct {
	Logger *slog.Logger
}

func (m *LogMailer) SendConfirmationCode(ctx context.Context, to, username, code string) error {
	m.Logger.Info("confirmation code issued", "to", to, "username", username, "code", code)
	return nil
}
