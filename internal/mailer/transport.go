package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gomail "github.com/wneessen/go-mail"

	"github.com/kakuu-clinic/contact-service/internal/config"
)

// Receipt describes a completed delivery.
type Receipt struct {
	// DryRun is true when no transport was configured and the message
	// was logged instead of sent.
	DryRun      bool
	DeliveredAt time.Time
}

// Transport delivers a rendered message. Implementations are selected
// at startup: a real SMTP client when mail is configured, a logging
// no-op otherwise.
type Transport interface {
	Send(ctx context.Context, msg *Message) (*Receipt, error)
}

// NewTransport selects the transport for the given configuration.
func NewTransport(cfg config.MailConfig, logger *slog.Logger) Transport {
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.Configured() {
		logger.Info("mail transport not configured, running in dry-run mode")
		return &LogTransport{logger: logger}
	}
	return &SMTPTransport{cfg: cfg, logger: logger}
}

// LogTransport is the development/dry-run transport: it logs the
// rendered message and reports success. Callers must not treat it as an
// error path.
type LogTransport struct {
	logger *slog.Logger
}

// Send logs the would-be message and succeeds.
func (t *LogTransport) Send(ctx context.Context, msg *Message) (*Receipt, error) {
	t.logger.Info("mail dry-run",
		slog.String("subject", msg.Subject),
		slog.String("reply_to", msg.ReplyTo),
		slog.String("text", msg.TextBody),
	)
	return &Receipt{DryRun: true, DeliveredAt: time.Now()}, nil
}

// SMTPTransport sends mail through the configured SMTP server.
type SMTPTransport struct {
	cfg    config.MailConfig
	logger *slog.Logger
}

// Send connects to the SMTP server and sends the message in a single
// attempt. Failures are returned to the caller; there is no retry.
func (t *SMTPTransport) Send(ctx context.Context, msg *Message) (*Receipt, error) {
	m := gomail.NewMsg()
	if err := m.From(t.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if err := m.To(t.cfg.To); err != nil {
		return nil, fmt.Errorf("invalid to address: %w", err)
	}
	if msg.ReplyTo != "" {
		if err := m.ReplyTo(msg.ReplyTo); err != nil {
			return nil, fmt.Errorf("invalid reply-to address: %w", err)
		}
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextPlain, msg.TextBody)
	if msg.HTMLBody != "" {
		m.AddAlternativeString(gomail.TypeTextHTML, msg.HTMLBody)
	}

	opts := []gomail.Option{
		gomail.WithPort(t.cfg.Port),
		gomail.WithTimeout(t.cfg.Timeout),
	}
	if t.cfg.User != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(t.cfg.User),
			gomail.WithPassword(t.cfg.Password),
		)
	}
	// SMTPS convention: implicit TLS on 465, STARTTLS elsewhere.
	if t.cfg.Port == 465 {
		opts = append(opts, gomail.WithSSLPort(false))
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSOpportunistic))
	}

	client, err := gomail.NewClient(t.cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return nil, fmt.Errorf("smtp send: %w", err)
	}

	t.logger.Info("mail delivered",
		slog.String("subject", msg.Subject),
		slog.String("host", t.cfg.Host),
	)
	return &Receipt{DeliveredAt: time.Now()}, nil
}
