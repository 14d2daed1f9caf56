package firestore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/paintops/go-notification-service/pkg/dispatch"
	"github.com/paintops/go-notification-service/pkg/notification"
)

const (
	usersCollection         = "users"
	notificationsCollection = "notifications"
	subscriptionsCollection = "push_subscriptions"
	deliveryLogsCollection  = "push_delivery_logs"

	// Firestore caps the number of values in an "in" filter.
	maxInValues = 30
)

var (
	_ dispatch.Directory         = (*FirestoreStore)(nil)
	_ dispatch.NotificationStore = (*FirestoreStore)(nil)
	_ dispatch.SubscriptionStore = (*FirestoreStore)(nil)
	_ dispatch.DeliveryLogStore  = (*FirestoreStore)(nil)
)

// FirestoreStore implements the dispatch storage interfaces using Google Cloud Firestore.
type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

// userRecord is the subset of the platform's user document we read.
// The document id is the internal user id.
type userRecord struct {
	Email string `firestore:"email"`
	Role  string `firestore:"role"`
}

// Lookup resolves an email to the user that owns it.
func (s *FirestoreStore) Lookup(ctx context.Context, email string) (notification.Identity, error) {
	iter := s.client.Collection(usersCollection).Where("email", "==", email).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return notification.Identity{}, notification.ErrRecipientNotFound
	}
	if err != nil {
		return notification.Identity{}, fmt.Errorf("firestore user lookup failed: %w", err)
	}

	var user userRecord
	if err := doc.DataTo(&user); err != nil {
		return notification.Identity{}, fmt.Errorf("failed to decode user %s: %w", doc.Ref.ID, err)
	}
	return notification.Identity{ID: doc.Ref.ID, Role: user.Role}, nil
}

// Create writes one in-app notification keyed by its id.
func (s *FirestoreStore) Create(ctx context.Context, record notification.Record) error {
	if record.ID == "" {
		return errors.New("notification record has no id")
	}
	if _, err := s.client.Collection(notificationsCollection).Doc(record.ID).Create(ctx, record); err != nil {
		return fmt.Errorf("failed to create notification %s: %w", record.ID, err)
	}
	return nil
}

// ActiveForUsers returns the active subscriptions of userIDs, querying in
// chunks that fit Firestore's "in" limit.
func (s *FirestoreStore) ActiveForUsers(ctx context.Context, userIDs []string) ([]notification.PushSubscription, error) {
	var subs []notification.PushSubscription
	for start := 0; start < len(userIDs); start += maxInValues {
		end := min(start+maxInValues, len(userIDs))

		iter := s.client.Collection(subscriptionsCollection).
			Where("user_id", "in", userIDs[start:end]).
			Where("active", "==", true).
			Documents(ctx)

		for {
			doc, err := iter.Next()
			if errors.Is(err, iterator.Done) {
				break
			}
			if err != nil {
				iter.Stop()
				return nil, fmt.Errorf("firestore iteration failed: %w", err)
			}

			var sub notification.PushSubscription
			if err := doc.DataTo(&sub); err != nil {
				// Corrupt rows are skipped.
				continue
			}
			subs = append(subs, sub)
		}
		iter.Stop()
	}
	return subs, nil
}

// AppendDeliveryLog adds one audit entry under an auto-generated id.
func (s *FirestoreStore) AppendDeliveryLog(ctx context.Context, entry notification.PushDeliveryLogEntry) error {
	if _, err := s.client.Collection(deliveryLogsCollection).NewDoc().Create(ctx, entry); err != nil {
		return fmt.Errorf("failed to append push delivery log: %w", err)
	}
	return nil
}
