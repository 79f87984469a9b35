// Package mailer delivers confirmation codes by email.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"reviewhub/internal/config"

	"github.com/wneessen/go-mail"
)

const sendTimeout = 15 * time.Second

// Mailer sends a plain text message to one recipient.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// New picks the backend named by EMAIL_BACKEND.
func New(cfg *config.Config, logger *slog.Logger) (Mailer, error) {
	switch cfg.EmailBackend {
	case "console":
		return NewConsoleMailer(cfg.NoReplyEmail, logger), nil
	case "smtp":
		return NewSMTPMailer(cfg)
	default:
		return nil, fmt.Errorf("unknown email backend %q", cfg.EmailBackend)
	}
}

// ConsoleMailer logs messages instead of sending them.
type ConsoleMailer struct {
	from   string
	logger *slog.Logger
}

func NewConsoleMailer(from string, logger *slog.Logger) *ConsoleMailer {
	return &ConsoleMailer{from: from, logger: logger}
}

func (m *ConsoleMailer) Send(ctx context.Context, to, subject, body string) error {
	m.logger.InfoContext(ctx, "email_sent",
		"backend", "console",
		"from", m.from,
		"to", to,
		"subject", subject,
		"body", body,
	)
	return nil
}

// SMTPMailer delivers through an SMTP relay using STARTTLS when the server
// offers it, with PLAIN auth when a username is configured.
type SMTPMailer struct {
	from string
	send func(ctx context.Context, msgs ...*mail.Msg) error
}

func NewSMTPMailer(cfg *config.Config) (*SMTPMailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.SMTPPort),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(sendTimeout),
	}
	if cfg.SMTPUsername != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.SMTPUsername),
			mail.WithPassword(cfg.SMTPPassword),
		)
	}

	client, err := mail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPMailer{from: cfg.NoReplyEmail, send: client.DialAndSendWithContext}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("sender %q: %w", m.from, err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("recipient %q: %w", to, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	if err := m.send(ctx, msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}
