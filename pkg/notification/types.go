// Package notification contains the public domain models for the
// notification dispatch service.
package notification

import (
	"errors"
	"time"
)

// GenericType is used when a request does not name a notification type.
const GenericType = "generic"

// ErrRecipientNotFound is returned by a Directory when no user matches an email.
// It is a normal outcome: the notification is recorded anonymously.
var ErrRecipientNotFound = errors.New("recipient not found")

// Request is a single logical event to be delivered to one or more recipients.
type Request struct {
	RecipientEmails    []string       `json:"recipient_emails" validate:"required,min=1"`
	Type               string         `json:"type"`
	Title              string         `json:"title,omitempty"`
	Message            string         `json:"message" validate:"required"`
	LinkTo             string         `json:"link_to,omitempty"`
	ProjectID          string         `json:"project_id,omitempty"`
	CompanyID          string         `json:"company_id,omitempty"`
	Data               map[string]any `json:"data,omitempty"`
	SendEmail          bool           `json:"send_email"`
	SendPush           bool           `json:"send_push"`
	TriggeringUserName string         `json:"triggering_user_name,omitempty"`
}

// Identity is the internal user a recipient email resolved to.
type Identity struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// Record is the durable in-app notification written once per recipient.
type Record struct {
	ID             string         `json:"id" firestore:"id"`
	RecipientEmail string         `json:"recipient_email" firestore:"recipient_email"`
	UserID         *string        `json:"user_id" firestore:"user_id"`
	CompanyID      *string        `json:"company_id" firestore:"company_id"`
	Type           string         `json:"type" firestore:"type"`
	Title          string         `json:"title" firestore:"title"`
	Message        string         `json:"message" firestore:"message"`
	Link           string         `json:"link" firestore:"link"`
	ProjectID      *string        `json:"project_id" firestore:"project_id"`
	Data           map[string]any `json:"data" firestore:"data"`
	Read           bool           `json:"read" firestore:"read"`
	CreatedAt      time.Time      `json:"created_at" firestore:"created_at"`
	TriggeredBy    *string        `json:"triggering_user_name" firestore:"triggering_user_name"`
}

// PushSubscription maps an internal user to a push provider device identifier.
type PushSubscription struct {
	UserID   string `json:"user_id" firestore:"user_id"`
	DeviceID string `json:"device_id" firestore:"device_id"`
	Active   bool   `json:"active" firestore:"active"`
}

// PushDeliveryLogEntry is the audit row written per user after a successful batched push.
type PushDeliveryLogEntry struct {
	UserID           string    `json:"user_id" firestore:"user_id"`
	ProjectID        *string   `json:"project_id" firestore:"project_id"`
	Type             string    `json:"type" firestore:"type"`
	Title            string    `json:"title" firestore:"title"`
	Message          string    `json:"message" firestore:"message"`
	ProviderResponse string    `json:"provider_response" firestore:"provider_response"`
	CreatedAt        time.Time `json:"created_at" firestore:"created_at"`
}

// OptionalString returns nil for an empty string.
func OptionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
