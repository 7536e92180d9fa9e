package tools

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/folioai/folio/internal/log"
)

// Mailer delivers a single message to the portfolio owner.
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer sends mail over SMTP.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer configures an SMTP mailer. from is the sender address
// put on outgoing messages.
func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}
	return nil
}

// Contact relays a visitor's message to the portfolio owner's mailbox.
type Contact struct {
	mailer     Mailer
	ownerEmail string
	logger     log.Logger
}

// NewContact creates the contact tool. A nil mailer disables delivery;
// messages are then logged instead of sent, which keeps the tool usable
// in development without SMTP credentials.
func NewContact(mailer Mailer, ownerEmail string, logger log.Logger) *Contact {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Contact{mailer: mailer, ownerEmail: ownerEmail, logger: logger}
}

func (c *Contact) Name() string { return "contact" }

// Run sends the visitor's message. args may carry "from" (the visitor's
// reply address) and "message"; when "message" is absent the raw query
// is used as the body.
func (c *Contact) Run(ctx context.Context, query string, args map[string]string) (string, error) {
	body := strings.TrimSpace(args["message"])
	if body == "" {
		body = strings.TrimSpace(query)
	}
	if body == "" {
		return "No message content was provided, so nothing was sent.", nil
	}

	if from := strings.TrimSpace(args["from"]); from != "" {
		body = fmt.Sprintf("From: %s\n\n%s", from, body)
	}

	if c.mailer == nil {
		c.logger.Info("contact message logged, mail delivery not configured", "body_len", len(body))
		return "Your message was recorded. Mail delivery is not configured, so it was logged for the owner to review.", nil
	}

	if err := c.mailer.Send(c.ownerEmail, "Portfolio contact message", body); err != nil {
		return "", err
	}
	return "Your message was sent to the portfolio owner. They will get back to you soon.", nil
}
