package dispatch

import (
	"context"

	"github.com/paintops/go-notification-service/pkg/notification"
)

// Directory resolves a recipient email to an internal identity.
type Directory interface {
	// Lookup returns notification.ErrRecipientNotFound when no user matches.
	// The email is expected to be lower-cased already.
	Lookup(ctx context.Context, email string) (notification.Identity, error)
}

// NotificationStore persists in-app notification records. It is append only.
type NotificationStore interface {
	Create(ctx context.Context, record notification.Record) error
}

// SubscriptionStore reads push subscriptions owned by the wider platform.
type SubscriptionStore interface {
	// ActiveForUsers returns every active subscription belonging to the given users.
	ActiveForUsers(ctx context.Context, userIDs []string) ([]notification.PushSubscription, error)
}

// DeliveryLogStore appends push delivery audit rows.
type DeliveryLogStore interface {
	AppendDeliveryLog(ctx context.Context, entry notification.PushDeliveryLogEntry) error
}

// PushMessage is the provider-neutral content of one batched push.
type PushMessage struct {
	Title string
	Body  string
	URL   string
	Topic string
	Data  map[string]string
}

// PushProvider defines the contract for a push platform that accepts a batch
// of device identifiers in a single request (e.g., OneSignal, FCM multicast).
type PushProvider interface {
	// Send returns the raw provider response on success. Any error means the
	// whole batch failed.
	Send(ctx context.Context, deviceIDs []string, msg PushMessage) (string, error)
}

// EmailMessage is one rendered email for a single recipient.
type EmailMessage struct {
	To      string
	Subject string
	HTML    string
}

// EmailSender submits a single email to a delivery provider.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}
