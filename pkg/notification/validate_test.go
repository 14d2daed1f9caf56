package notification_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paintops/go-notification-service/pkg/notification"
)

func TestRequest_Validate(t *testing.T) {
	testCases := []struct {
		name          string
		req           notification.Request
		expectedField string
	}{
		{
			name:          "Failure - Nil recipients",
			req:           notification.Request{Message: "hello"},
			expectedField: "recipient_emails",
		},
		{
			name:          "Failure - Empty recipients",
			req:           notification.Request{RecipientEmails: []string{}, Message: "hello"},
			expectedField: "recipient_emails",
		},
		{
			name:          "Failure - Missing message",
			req:           notification.Request{RecipientEmails: []string{"a@x.com"}},
			expectedField: "message",
		},
		{
			name:          "Failure - Blank message",
			req:           notification.Request{RecipientEmails: []string{"a@x.com"}, Message: "   "},
			expectedField: "message",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			require.Error(t, err)

			var ve *notification.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tc.expectedField, ve.Field)
			assert.True(t, notification.IsValidationError(err))
		})
	}

	t.Run("Success - Defaults type to generic", func(t *testing.T) {
		req := notification.Request{RecipientEmails: []string{"a@x.com"}, Message: "Leak found"}
		require.NoError(t, req.Validate())
		assert.Equal(t, notification.GenericType, req.Type)
	})

	t.Run("Success - Keeps explicit type", func(t *testing.T) {
		req := notification.Request{RecipientEmails: []string{"a@x.com"}, Type: "damage_reported", Message: "Leak found"}
		require.NoError(t, req.Validate())
		assert.Equal(t, "damage_reported", req.Type)
	})
}

func TestNewResult(t *testing.T) {
	res := notification.NewResult(notification.Details{
		NotificationsCreated: []string{"a@x.com", "b@x.com"},
		NotificationsFailed:  []string{"c@x.com"},
		PushSent:             []string{"user-1"},
	}, false)

	assert.True(t, res.Success)
	assert.False(t, res.Partial)
	assert.Equal(t, 2, res.NotificationsCreated)
	assert.Equal(t, 1, res.NotificationsFailed)
	assert.Equal(t, 0, res.EmailsSent)
	assert.Equal(t, 1, res.PushSent)
	assert.NotNil(t, res.Details.EmailsSent)
	assert.Empty(t, res.Details.EmailsFailed)
}
