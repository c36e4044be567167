// Package smtp implements the Notifier port over SMTP using go-mail.
package smtp

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/ericfisherdev/breachwatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Notifier = (*Notifier)(nil)

// Config holds SMTP connection settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Notifier sends plain-text alert mail. A client is created per Send so a
// dropped SMTP connection never poisons later deliveries.
type Notifier struct {
	cfg Config
}

// NewNotifier creates a Notifier with the given SMTP settings.
func NewNotifier(cfg Config) *Notifier {
	return &Notifier{cfg: cfg}
}

// Send delivers a plain-text message to address.
func (n *Notifier) Send(ctx context.Context, address, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(n.cfg.From); err != nil {
		return fmt.Errorf("set mail from %q: %w", n.cfg.From, err)
	}
	if err := msg.To(address); err != nil {
		return fmt.Errorf("set mail to %q: %w", address, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	client, err := mail.NewClient(n.cfg.Host,
		mail.WithPort(n.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(n.cfg.Username),
		mail.WithPassword(n.cfg.Password),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail to %q: %w", address, err)
	}

	return nil
}
