// Package notify delivers transactional emails. SendGrid is used when an API key is configured,
// otherwise messages are only written to the log.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// Message is a single email.
type Message struct {
	ToName  string
	ToEmail string
	Subject string
	Text    string
	HTML    string
}

// Notifier sends messages.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// ErrNoRecipient is returned for a message without an address.
var ErrNoRecipient = errors.New("notify: message has no recipient")

// Sender identifies the From header.
type Sender struct {
	Name    string
	Address string
}

// SendGridNotifier delivers messages through the SendGrid v3 API.
type SendGridNotifier struct {
	send   func(ctx context.Context, email *mail.SGMailV3) (int, string, error)
	from   Sender
	logger *zap.Logger
}

// NewSendGridNotifier builds a notifier using apiKey.
func NewSendGridNotifier(apiKey string, from Sender, logger *zap.Logger) *SendGridNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SendGridNotifier{
		send: func(_ context.Context, email *mail.SGMailV3) (int, string, error) {
			req := sendgrid.GetRequest(apiKey, sendgridEndpoint, sendgridHost)
			req.Method = http.MethodPost
			req.Body = mail.GetRequestBody(email)
			res, err := sendgrid.API(req)
			if err != nil {
				return 0, "", err
			}
			return res.StatusCode, res.Body, nil
		},
		from:   from,
		logger: logger,
	}
}

// Send implements Notifier.
func (n *SendGridNotifier) Send(ctx context.Context, msg Message) error {
	if msg.ToEmail == "" {
		return ErrNoRecipient
	}
	from := mail.NewEmail(n.from.Name, n.from.Address)
	to := mail.NewEmail(msg.ToName, msg.ToEmail)
	html := msg.HTML
	if html == "" {
		html = "<p>" + msg.Text + "</p>"
	}
	email := mail.NewSingleEmail(from, msg.Subject, to, msg.Text, html)
	status, body, err := n.send(ctx, email)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if status >= 300 {
		return fmt.Errorf("sendgrid send: status %d: %s", status, body)
	}
	n.logger.Debug("email sent", zap.String("to", msg.ToEmail), zap.String("subject", msg.Subject))
	return nil
}

// LogNotifier writes messages to the log instead of sending them.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier builds a LogNotifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// Send implements Notifier.
func (n *LogNotifier) Send(_ context.Context, msg Message) error {
	if msg.ToEmail == "" {
		return ErrNoRecipient
	}
	n.logger.Info("email not sent, no mail provider configured",
		zap.String("to", msg.ToEmail),
		zap.String("subject", msg.Subject))
	return nil
}

// New picks SendGrid when apiKey is set, the log notifier otherwise.
func New(apiKey string, from Sender, logger *zap.Logger) Notifier {
	if apiKey == "" {
		return NewLogNotifier(logger)
	}
	return NewSendGridNotifier(apiKey, from, logger)
}
