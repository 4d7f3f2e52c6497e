package notify

import (
	"context"
	"fmt"
	"net/mail"
	"net/smtp"
	"strings"
)

// SMTPSender sends mail via unauthenticated SMTP (Mailpit-compatible).
type SMTPSender struct {
	addr string
	from string
}

func NewSMTPSender(host string, port string, from string) *SMTPSender {
	host = strings.TrimSpace(host)
	port = strings.TrimSpace(port)
	from = strings.TrimSpace(from)
	if from == "" {
		from = "incidents@opskit.local"
	}
	return &SMTPSender{
		addr: fmt.Sprintf("%s:%s", host, port),
		from: from,
	}
}

func (s *SMTPSender) ProviderID() string {
	return "email-smtp"
}

func (s *SMTPSender) Send(_ context.Context, recipients []string, subject string, body string) error {
	if len(recipients) == 0 {
		return nil
	}
	for _, r := range recipients {
		if _, err := mail.ParseAddress(r); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidRecipient, r)
		}
	}
	msg := buildMessage(s.from, recipients, subject, body)
	if err := smtp.SendMail(s.addr, nil, s.from, recipients, []byte(msg)); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func buildMessage(from string, to []string, subject, body string) string {
	// Minimal RFC 5322 message; enough for Mailpit and most SMTP relays.
	return fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		from,
		strings.Join(to, ", "),
		subject,
		body,
	)
}
