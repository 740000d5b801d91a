// Package mailer sends outbound email and SMS. Both channels are
// best-effort side channels: callers log delivery failures but never fail
// the business operation that triggered them.
package mailer

import (
	"fmt"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

// Message is an outbound email. Attachments are paths to local files,
// typically rendered invoice PDFs.
type Message struct {
	To          []string
	Subject     string
	HTMLBody    string
	Attachments []string
}

type Mailer interface {
	Send(msg Message) error
}

type smtpMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer builds a mailer backed by a standard SMTP server
func NewSMTPMailer(host string, port int, username, password, from string) Mailer {
	if from == "" {
		from = username
	}
	return &smtpMailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (m *smtpMailer) Send(msg Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("mailer: message has no recipients")
	}

	mail := gomail.NewMessage()
	mail.SetHeader("From", m.from)
	mail.SetHeader("To", msg.To...)
	mail.SetHeader("Subject", msg.Subject)
	mail.SetBody("text/html", msg.HTMLBody)
	for _, attachment := range msg.Attachments {
		mail.Attach(attachment)
	}

	if err := m.dialer.DialAndSend(mail); err != nil {
		return fmt.Errorf("mailer: send to %v failed: %w", msg.To, err)
	}
	return nil
}

type disabledMailer struct {
	log zerolog.Logger
}

// NewDisabledMailer returns a mailer that drops every message. Used when
// SMTP credentials are not configured so the rest of the system can treat
// email as always wired.
func NewDisabledMailer(log zerolog.Logger) Mailer {
	return &disabledMailer{log: log.With().Str("component", "mailer").Logger()}
}

func (m *disabledMailer) Send(msg Message) error {
	m.log.Debug().Strs("to", msg.To).Str("subject", msg.Subject).Msg("email delivery disabled, message dropped")
	return nil
}
