// Package push implements the batched push channel: one provider call per
// dispatch covering every eligible user's active devices.
package push

import (
	"context"
	"log/slog"
	"time"

	"github.com/paintops/go-notification-service/internal/routing"
	"github.com/paintops/go-notification-service/pkg/dispatch"
	"github.com/paintops/go-notification-service/pkg/notification"
)

// Message is the notification content pushed to every candidate.
type Message struct {
	Type      string
	Title     string
	Body      string
	Link      string
	ProjectID string
}

// Outcome lists user ids by delivery result. Users without an active
// subscription appear in neither list.
type Outcome struct {
	Sent   []string
	Failed []string
}

type Channel struct {
	subscriptions dispatch.SubscriptionStore
	provider      dispatch.PushProvider
	logs          dispatch.DeliveryLogStore
	baseURL       string
	logger        *slog.Logger
}

func NewChannel(
	subscriptions dispatch.SubscriptionStore,
	provider dispatch.PushProvider,
	logs dispatch.DeliveryLogStore,
	baseURL string,
	logger *slog.Logger,
) *Channel {
	return &Channel{
		subscriptions: subscriptions,
		provider:      provider,
		logs:          logs,
		baseURL:       baseURL,
		logger:        logger.With("component", "PushChannel"),
	}
}

// Send resolves the active devices of userIDs and submits a single batch.
func (c *Channel) Send(ctx context.Context, userIDs []string, msg Message) Outcome {
	if len(userIDs) == 0 {
		return Outcome{}
	}
	chLogger := c.logger.With("type", msg.Type, "candidates", len(userIDs))

	subs, err := c.subscriptions.ActiveForUsers(ctx, userIDs)
	if err != nil {
		chLogger.Error("Failed to resolve push subscriptions", "err", err)
		return Outcome{Failed: append([]string(nil), userIDs...)}
	}

	var deviceIDs []string
	var resolvedUsers []string
	seenDevice := make(map[string]struct{})
	seenUser := make(map[string]struct{})
	for _, sub := range subs {
		if !sub.Active || sub.DeviceID == "" {
			continue
		}
		if _, ok := seenDevice[sub.DeviceID]; !ok {
			seenDevice[sub.DeviceID] = struct{}{}
			deviceIDs = append(deviceIDs, sub.DeviceID)
		}
		if _, ok := seenUser[sub.UserID]; !ok {
			seenUser[sub.UserID] = struct{}{}
			resolvedUsers = append(resolvedUsers, sub.UserID)
		}
	}

	if len(deviceIDs) == 0 {
		chLogger.Info("No active push subscriptions; skipping push.")
		return Outcome{}
	}

	url := routing.AbsoluteLink(c.baseURL, msg.Link)
	raw, err := c.provider.Send(ctx, deviceIDs, dispatch.PushMessage{
		Title: msg.Title,
		Body:  msg.Body,
		URL:   url,
		Topic: msg.Type,
		Data: map[string]string{
			"type":       msg.Type,
			"project_id": msg.ProjectID,
			"url":        url,
		},
	})
	if err != nil {
		chLogger.Error("Push batch failed", "devices", len(deviceIDs), "err", err)
		return Outcome{Failed: append([]string(nil), userIDs...)}
	}
	chLogger.Info("Push batch dispatched", "devices", len(deviceIDs), "users", len(resolvedUsers))

	c.appendLogs(ctx, resolvedUsers, msg, raw)
	return Outcome{Sent: resolvedUsers}
}

// appendLogs writes the audit trail. Failures never change the push outcome.
func (c *Channel) appendLogs(ctx context.Context, userIDs []string, msg Message, raw string) {
	if c.logs == nil {
		return
	}
	now := time.Now().UTC()
	for _, userID := range userIDs {
		entry := notification.PushDeliveryLogEntry{
			UserID:           userID,
			ProjectID:        notification.OptionalString(msg.ProjectID),
			Type:             msg.Type,
			Title:            msg.Title,
			Message:          msg.Body,
			ProviderResponse: raw,
			CreatedAt:        now,
		}
		if err := c.logs.AppendDeliveryLog(ctx, entry); err != nil {
			c.logger.Warn("Failed to write push delivery log", "user_id", userID, "err", err)
		}
	}
}
