// Package smtp submits notification emails through an SMTP relay.
package smtp

import (
	"context"
	"fmt"
	"log/slog"

	"gopkg.in/gomail.v2"

	"github.com/paintops/go-notification-service/pkg/dispatch"
)

// Dialer is the subset of *gomail.Dialer we use.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type Sender struct {
	dialer Dialer
	from   string
	logger *slog.Logger
}

// NewDialer builds the gomail dialer for cfg.
func NewDialer(cfg Config) *gomail.Dialer {
	port := cfg.Port
	if port == 0 {
		port = 587
	}
	return gomail.NewDialer(cfg.Host, port, cfg.Username, cfg.Password)
}

func NewSender(dialer Dialer, from string, logger *slog.Logger) *Sender {
	return &Sender{
		dialer: dialer,
		from:   from,
		logger: logger.With("component", "SMTPSender"),
	}
}

// Send dials the relay and submits one message. gomail has no context
// support, so cancellation is only honoured before dialling.
func (s *Sender) Send(ctx context.Context, msg dispatch.EmailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}
	s.logger.Debug("Email relayed", "to", msg.To)
	return nil
}

var _ dispatch.EmailSender = (*Sender)(nil)
