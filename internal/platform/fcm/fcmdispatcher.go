// --- File: internal/platform/fcm/fcmdispatcher.go ---
package fcm

import (
	"context"
	"fmt"
	"log/slog"

	"firebase.google.com/go/v4/messaging"

	"github.com/paintops/go-notification-service/pkg/dispatch"
)

// MessagingClient defines the subset of the Firebase Messaging API we use.
// This interface allows us to mock the client for unit testing.
type MessagingClient interface {
	SendEachForMulticast(ctx context.Context, msg *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

type Dispatcher struct {
	client MessagingClient
	logger *slog.Logger
}

// NewDispatcher accepts the concrete client but stores it as the interface.
// Note: *messaging.Client automatically satisfies this interface.
func NewDispatcher(client MessagingClient, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		client: client,
		logger: logger.With("component", "FCMDispatcher"),
	}
}

// Send delivers one multicast covering every registration token. The batch
// counts as failed when the transport fails or not a single token succeeded.
func (d *Dispatcher) Send(ctx context.Context, tokens []string, msg dispatch.PushMessage) (string, error) {
	if len(tokens) == 0 {
		return "", fmt.Errorf("no device ids")
	}

	data := make(map[string]string, len(msg.Data)+2)
	for k, v := range msg.Data {
		data[k] = v
	}
	data["url"] = msg.URL
	data["topic"] = msg.Topic

	mm := &messaging.MulticastMessage{
		Tokens: tokens,
		Data:   data,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Webpush: &messaging.WebpushConfig{
			Notification: &messaging.WebpushNotification{
				Title: msg.Title,
				Body:  msg.Body,
				Icon:  "/assets/icons/icon-192x192.png",
				Tag:   msg.Topic,
			},
			FCMOptions: &messaging.WebpushFCMOptions{Link: msg.URL},
		},
	}

	br, err := d.client.SendEachForMulticast(ctx, mm)
	if err != nil {
		return "", fmt.Errorf("fcm transport failed: %w", err)
	}

	invalid := 0
	for _, resp := range br.Responses {
		if resp.Success {
			continue
		}
		if messaging.IsInvalidArgument(resp.Error) || messaging.IsRegistrationTokenNotRegistered(resp.Error) {
			invalid++
		}
	}
	receipt := fmt.Sprintf("success:%d failure:%d invalid:%d", br.SuccessCount, br.FailureCount, invalid)

	if br.SuccessCount == 0 {
		return "", fmt.Errorf("fcm batch failed: %s", receipt)
	}
	if br.FailureCount > 0 {
		d.logger.Warn("FCM batch partially failed", "receipt", receipt)
	}
	return receipt, nil
}

var _ dispatch.PushProvider = (*Dispatcher)(nil)
