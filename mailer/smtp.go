package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/google/uuid"
	"github.com/jordan-wright/email"
)

// SMTP relays messages through a mail server with PLAIN auth, falling back
// to an unauthenticated send when the server does not offer AUTH.
type SMTP struct {
	Host     string
	Port     int
	User     string
	Password string
}

func (s *SMTP) addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (s *SMTP) Send(ctx context.Context, msg Message) (string, error) {
	if err := msg.validate(); err != nil {
		return "", err
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := fmt.Sprintf("<%s@%s>", uuid.New().String(), s.Host)

	mail := email.NewEmail()
	mail.From = msg.From
	mail.To = msg.To
	mail.Subject = msg.Subject
	mail.Text = []byte(msg.Text)
	mail.Headers.Set("Message-Id", id)

	var auth smtp.Auth
	if s.User != "" {
		auth = smtp.PlainAuth("", s.User, s.Password, s.Host)
	}

	err := mail.Send(s.addr(), auth)
	if err != nil && auth != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(s.addr(), nil)
	}

	if err != nil {
		return "", fmt.Errorf("smtp send to %s: %w", s.addr(), err)
	}

	return id, nil
}
