// Package mailer sends single outreach messages through Resend's HTTP API
// or a plain SMTP relay.
package mailer

import (
	"context"
	"errors"
)

var ErrNoRecipient = errors.New("message has no recipient")

// Message is one plain-text email. Outreach always sends to exactly one
// address, but To is a list to match both transports.
type Message struct {
	From    string
	To      []string
	Subject string
	Text    string
}

func (m *Message) validate() error {
	if len(m.To) == 0 || m.To[0] == "" {
		return ErrNoRecipient
	}

	return nil
}

// Sender delivers a message and returns the transport's message id.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}
