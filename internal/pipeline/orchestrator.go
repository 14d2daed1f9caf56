package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/paintops/go-notification-service/internal/channel/email"
	"github.com/paintops/go-notification-service/internal/channel/push"
	"github.com/paintops/go-notification-service/internal/metrics"
	"github.com/paintops/go-notification-service/internal/routing"
	"github.com/paintops/go-notification-service/pkg/dispatch"
	"github.com/paintops/go-notification-service/pkg/notification"
)

// EmailChannel delivers one email per recipient. *email.Channel implements it.
type EmailChannel interface {
	Deliver(ctx context.Context, to string, msg email.Message) bool
}

// PushChannel delivers one batched push per dispatch. *push.Channel implements it.
type PushChannel interface {
	Send(ctx context.Context, userIDs []string, msg push.Message) push.Outcome
}

type OrchestratorConfig struct {
	// RecipientWorkers bounds how many recipients are processed at once.
	// 1 processes recipients strictly in order.
	RecipientWorkers int
}

// Orchestrator turns one Request into deliveries across the in-app store,
// email and push, isolating failures per recipient and per channel.
type Orchestrator struct {
	directory dispatch.Directory
	store     dispatch.NotificationStore
	email     EmailChannel
	push      PushChannel
	workers   int
	now       func() time.Time
	logger    *slog.Logger
}

// NewOrchestrator wires the dispatch orchestrator. A nil email or push channel
// disables that channel: requests asking for it are served without it.
// Pass an untyped nil, not a nil pointer, for a disabled channel.
func NewOrchestrator(
	directory dispatch.Directory,
	store dispatch.NotificationStore,
	emailChannel EmailChannel,
	pushChannel PushChannel,
	cfg OrchestratorConfig,
	logger *slog.Logger,
) *Orchestrator {
	workers := cfg.RecipientWorkers
	if workers <= 0 {
		workers = 1
	}
	return &Orchestrator{
		directory: directory,
		store:     store,
		email:     emailChannel,
		push:      pushChannel,
		workers:   workers,
		now:       time.Now,
		logger:    logger.With("component", "Orchestrator"),
	}
}

type recipientOutcome struct {
	started       bool
	email         string
	stored        bool
	emailAttempt  bool
	emailSent     bool
	pushCandidate string
}

// resolved is the request after defaults from the routing policy are applied.
type resolved struct {
	*notification.Request
	title string
	link  string
}

// Dispatch validates req and fans it out. It only returns an error for an
// invalid request; every delivery failure is reported in the Result. If ctx
// ends early, recipients not yet started are skipped, the push batch is not
// sent and the Result is flagged Partial.
func (o *Orchestrator) Dispatch(ctx context.Context, req *notification.Request) (*notification.Result, error) {
	if req == nil {
		return nil, &notification.ValidationError{Field: "request", Reason: "is required"}
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	r := resolved{Request: req, title: req.Title, link: req.LinkTo}
	if strings.TrimSpace(r.title) == "" {
		r.title = routing.DefaultTitle(req.Type)
	}
	if strings.TrimSpace(r.link) == "" {
		r.link = routing.DefaultLink(req.Type)
	}

	dLogger := o.logger.With("type", req.Type, "recipients", len(req.RecipientEmails))
	dLogger.Debug("Dispatch started", "send_email", req.SendEmail, "send_push", req.SendPush)

	outcomes := make([]recipientOutcome, len(req.RecipientEmails))
	var g errgroup.Group
	g.SetLimit(o.workers)
	for i, addr := range req.RecipientEmails {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			// Each goroutine owns outcomes[i]; the slice is read only after Wait.
			outcomes[i] = o.processRecipient(ctx, addr, r)
			return nil
		})
	}
	_ = g.Wait()

	var details notification.Details
	var candidates []string
	seen := make(map[string]struct{})
	partial := false
	for _, out := range outcomes {
		if !out.started {
			partial = true
			continue
		}
		if out.stored {
			details.NotificationsCreated = append(details.NotificationsCreated, out.email)
		} else {
			details.NotificationsFailed = append(details.NotificationsFailed, out.email)
		}
		if out.emailAttempt {
			if out.emailSent {
				details.EmailsSent = append(details.EmailsSent, out.email)
			} else {
				details.EmailsFailed = append(details.EmailsFailed, out.email)
			}
		}
		if out.pushCandidate != "" {
			if _, dup := seen[out.pushCandidate]; !dup {
				seen[out.pushCandidate] = struct{}{}
				candidates = append(candidates, out.pushCandidate)
			}
		}
	}

	if len(candidates) > 0 && o.push != nil {
		if ctx.Err() != nil {
			dLogger.Warn("Context ended before push batch; skipping push", "candidates", len(candidates), "err", ctx.Err())
		} else {
			outcome := o.push.Send(ctx, candidates, push.Message{
				Type:      req.Type,
				Title:     r.title,
				Body:      req.Message,
				Link:      r.link,
				ProjectID: req.ProjectID,
			})
			details.PushSent = outcome.Sent
			details.PushFailed = outcome.Failed
		}
	}

	if ctx.Err() != nil {
		partial = true
	}
	result := notification.NewResult(details, partial)
	o.record(req.Type, result, time.Since(start))

	dLogger.Info("Dispatch complete",
		"notifications_created", result.NotificationsCreated,
		"notifications_failed", result.NotificationsFailed,
		"emails_sent", result.EmailsSent,
		"emails_failed", result.EmailsFailed,
		"push_sent", result.PushSent,
		"push_failed", result.PushFailed,
		"partial", result.Partial,
	)
	return result, nil
}

// processRecipient runs resolve -> store -> email for one recipient.
func (o *Orchestrator) processRecipient(ctx context.Context, rawEmail string, r resolved) recipientOutcome {
	addr := strings.ToLower(strings.TrimSpace(rawEmail))
	out := recipientOutcome{started: true, email: addr}
	rLogger := o.logger.With("recipient", addr, "type", r.Type)

	identity, err := o.directory.Lookup(ctx, addr)
	found := err == nil && identity.ID != ""
	if err != nil && !errors.Is(err, notification.ErrRecipientNotFound) {
		rLogger.Warn("Recipient lookup failed; recording anonymously", "err", err)
	}

	data := r.Data
	if data == nil {
		data = map[string]any{}
	}
	record := notification.Record{
		ID:             uuid.NewString(),
		RecipientEmail: addr,
		CompanyID:      notification.OptionalString(r.CompanyID),
		Type:           r.Type,
		Title:          r.title,
		Message:        r.Message,
		Link:           r.link,
		ProjectID:      notification.OptionalString(r.ProjectID),
		Data:           data,
		Read:           false,
		CreatedAt:      o.now().UTC(),
		TriggeredBy:    notification.OptionalString(r.TriggeringUserName),
	}
	if found {
		record.UserID = notification.OptionalString(identity.ID)
	}

	if err := o.store.Create(ctx, record); err != nil {
		rLogger.Error("Failed to store notification", "err", err)
	} else {
		out.stored = true
		if found && routing.IsPushEligible(r.Type, identity.Role, r.SendPush) {
			out.pushCandidate = identity.ID
		}
	}

	if r.SendEmail && o.email != nil {
		out.emailAttempt = true
		out.emailSent = o.email.Deliver(ctx, addr, email.Message{
			Type:        r.Type,
			Title:       r.title,
			Body:        r.Message,
			Link:        r.link,
			TriggeredBy: r.TriggeringUserName,
		})
	}
	return out
}

func (o *Orchestrator) record(notificationType string, res *notification.Result, elapsed time.Duration) {
	metrics.RecordDeliveries(metrics.ChannelInApp, metrics.OutcomeSent, res.NotificationsCreated)
	metrics.RecordDeliveries(metrics.ChannelInApp, metrics.OutcomeFailed, res.NotificationsFailed)
	metrics.RecordDeliveries(metrics.ChannelEmail, metrics.OutcomeSent, res.EmailsSent)
	metrics.RecordDeliveries(metrics.ChannelEmail, metrics.OutcomeFailed, res.EmailsFailed)
	metrics.RecordDeliveries(metrics.ChannelPush, metrics.OutcomeSent, res.PushSent)
	metrics.RecordDeliveries(metrics.ChannelPush, metrics.OutcomeFailed, res.PushFailed)

	if !routing.IsKnown(notificationType) {
		notificationType = "other"
	}
	metrics.ObserveDispatch(notificationType, res.Partial, elapsed.Seconds())
}
