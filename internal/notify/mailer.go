package notify

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	sendgrid "github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer delivers a single HTML email.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

var _ Mailer = (*SendGridMailer)(nil)

// SendGridMailer implements Mailer using the SendGrid v3 API.
type SendGridMailer struct {
	client *sendgrid.Client
	from   *mail.Email
}

// NewSendGridMailer creates a mailer sending from the given identity.
func NewSendGridMailer(apiKey, fromName, fromAddress string) *SendGridMailer {
	return &SendGridMailer{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, fromAddress),
	}
}

// Send delivers the message. SendGrid signals rejection through the
// response status code, not the error value, so both are checked.
func (m *SendGridMailer) Send(ctx context.Context, to, subject, html string) error {
	msg := mail.NewSingleEmail(m.from, subject, mail.NewEmail("", to), "", html)

	resp, err := m.client.SendWithContext(ctx, msg)
	if err != nil {
		return errors.Wrap(err, "sendgrid send")
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
