package mailer

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/noah-isme/freightdesk-api/pkg/config"
)

// Message is a single outbound e-mail.
type Message struct {
	To      []string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer delivers messages through an SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer builds a mailer from notification settings.
func NewSMTPMailer(cfg config.NotificationsConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		from:   cfg.From,
	}
}

// Send dials the relay and writes one message. The context is only checked
// before dialing because gomail has no cancellation hooks.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	built, err := Build(m.from, msg)
	if err != nil {
		return err
	}
	if err := m.dialer.DialAndSend(built); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// Build converts a Message into a gomail message.
func Build(from string, msg Message) (*gomail.Message, error) {
	if len(msg.To) == 0 {
		return nil, fmt.Errorf("mail has no recipients")
	}
	if msg.Subject == "" {
		return nil, fmt.Errorf("mail subject required")
	}
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)
	if msg.Text != "" {
		m.SetBody("text/plain", msg.Text)
	}
	if msg.HTML != "" {
		if msg.Text != "" {
			m.AddAlternative("text/html", msg.HTML)
		} else {
			m.SetBody("text/html", msg.HTML)
		}
	}
	return m, nil
}

// NopMailer discards every message.
type NopMailer struct{}

// Send implements Sender.
func (NopMailer) Send(context.Context, Message) error { return nil }
