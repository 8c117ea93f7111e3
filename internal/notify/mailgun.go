package notify

import (
	"context"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
)

const sendTimeout = 10 * time.Second

// Sender delivers a rendered email.
type Sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// Mailgun sends through the Mailgun HTTP API.
type Mailgun struct {
	client *mg.MailgunImpl
	sender string
}

func NewMailgun(domain, apiKey, sender string) *Mailgun {
	return &Mailgun{client: mg.NewMailgun(domain, apiKey), sender: sender}
}

// Send sends an email. html is optional.
func (m *Mailgun) Send(ctx context.Context, to, subject, text, html string) error {
	msg := m.client.NewMessage(m.sender, subject, text, to)
	if html != "" {
		msg.SetHtml(html)
	}
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	_, _, err := m.client.Send(ctx, msg)
	return err
}
