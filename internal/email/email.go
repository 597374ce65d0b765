// Package email sends transactional mail. Delivery is best-effort: a
// booking is never rolled back because the confirmation could not be sent.
package email

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/gomail.v2"
)

// Attachment is an inline file on an outbound mail.
type Attachment struct {
	Filename string
	Content  []byte
}

// Message is a single outbound mail.
type Message struct {
	To          string
	Subject     string
	HTMLBody    string
	Attachments []Attachment
}

// Sender delivers mail.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender sends mail through a plain SMTP relay.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	const op = "email.SMTPSender.Send"

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTMLBody)
	for _, a := range msg.Attachments {
		content := a.Content
		m.Attach(a.Filename, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(content)
			return err
		}))
	}

	// gomail has no context support; honor cancellation before dialing.
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
