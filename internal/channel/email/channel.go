// Package email implements the email delivery channel: it renders a
// notification as HTML and submits it through an EmailSender, one call per recipient.
package email

import (
	"context"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/paintops/go-notification-service/pkg/dispatch"
)

// Channel delivers notification emails. A nil *Channel is never constructed;
// callers model a disabled channel by not holding one.
type Channel struct {
	sender   dispatch.EmailSender
	renderer *Renderer
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// NewChannel creates an email channel. ratePerSec <= 0 disables rate limiting.
func NewChannel(sender dispatch.EmailSender, renderer *Renderer, ratePerSec int, logger *slog.Logger) *Channel {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if ratePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec)
	}
	return &Channel{
		sender:   sender,
		renderer: renderer,
		limiter:  limiter,
		logger:   logger.With("component", "EmailChannel"),
	}
}

// Deliver renders and sends msg to a single recipient. It reports success and
// never returns an error: failures are aggregated by the caller.
func (c *Channel) Deliver(ctx context.Context, to string, msg Message) bool {
	html, err := c.renderer.Render(msg)
	if err != nil {
		c.logger.Error("Email render failed", "to", to, "type", msg.Type, "err", err)
		return false
	}

	if err := c.limiter.Wait(ctx); err != nil {
		c.logger.Warn("Email rate limiter aborted", "to", to, "err", err)
		return false
	}

	err = c.sender.Send(ctx, dispatch.EmailMessage{
		To:      to,
		Subject: msg.Title,
		HTML:    html,
	})
	if err != nil {
		c.logger.Warn("Email delivery failed", "to", to, "type", msg.Type, "err", err)
		return false
	}
	c.logger.Debug("Email delivered", "to", to, "type", msg.Type)
	return true
}
