package push_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/paintops/go-notification-service/internal/channel/push"
	"github.com/paintops/go-notification-service/pkg/dispatch"
	"github.com/paintops/go-notification-service/pkg/notification"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Mocks ---

type mockSubscriptions struct {
	mock.Mock
}

func (m *mockSubscriptions) ActiveForUsers(ctx context.Context, userIDs []string) ([]notification.PushSubscription, error) {
	args := m.Called(ctx, userIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]notification.PushSubscription), args.Error(1)
}

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Send(ctx context.Context, deviceIDs []string, msg dispatch.PushMessage) (string, error) {
	args := m.Called(ctx, deviceIDs, msg)
	return args.String(0), args.Error(1)
}

type mockLogs struct {
	mock.Mock
}

func (m *mockLogs) AppendDeliveryLog(ctx context.Context, entry notification.PushDeliveryLogEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func TestChannel_Send(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	msg := push.Message{Type: "damage_reported", Title: "Damage reported", Body: "Leak found", Link: "/DamageReports", ProjectID: "p-1"}

	t.Run("Batches every device into one call and logs per user", func(t *testing.T) {
		subs := new(mockSubscriptions)
		provider := new(mockProvider)
		logs := new(mockLogs)

		subs.On("ActiveForUsers", ctx, []string{"u1", "u2", "u3"}).Return([]notification.PushSubscription{
			{UserID: "u1", DeviceID: "d1", Active: true},
			{UserID: "u1", DeviceID: "d2", Active: true},
			{UserID: "u2", DeviceID: "d3", Active: true},
			{UserID: "u3", DeviceID: "d4", Active: false},
		}, nil)
		provider.On("Send", ctx, []string{"d1", "d2", "d3"}, mock.MatchedBy(func(m dispatch.PushMessage) bool {
			return m.URL == "https://app.example.com/DamageReports" &&
				m.Topic == "damage_reported" &&
				m.Data["project_id"] == "p-1" &&
				m.Data["type"] == "damage_reported" &&
				m.Data["url"] == m.URL
		})).Return(`{"id":"n-1"}`, nil).Once()
		logs.On("AppendDeliveryLog", ctx, mock.MatchedBy(func(e notification.PushDeliveryLogEntry) bool {
			return e.ProviderResponse == `{"id":"n-1"}` && e.ProjectID != nil && *e.ProjectID == "p-1"
		})).Return(nil).Twice()

		channel := push.NewChannel(subs, provider, logs, "https://app.example.com", logger)
		outcome := channel.Send(ctx, []string{"u1", "u2", "u3"}, msg)

		assert.Equal(t, []string{"u1", "u2"}, outcome.Sent)
		assert.Empty(t, outcome.Failed)
		provider.AssertExpectations(t)
		logs.AssertExpectations(t)
	})

	t.Run("No active subscriptions is a no-op", func(t *testing.T) {
		subs := new(mockSubscriptions)
		provider := new(mockProvider)

		subs.On("ActiveForUsers", ctx, []string{"u1"}).Return([]notification.PushSubscription{}, nil)

		channel := push.NewChannel(subs, provider, nil, "https://app.example.com", logger)
		outcome := channel.Send(ctx, []string{"u1"}, msg)

		assert.Empty(t, outcome.Sent)
		assert.Empty(t, outcome.Failed)
		provider.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Provider failure fails every requested user", func(t *testing.T) {
		subs := new(mockSubscriptions)
		provider := new(mockProvider)
		logs := new(mockLogs)

		subs.On("ActiveForUsers", ctx, []string{"u1", "u2"}).Return([]notification.PushSubscription{
			{UserID: "u1", DeviceID: "d1", Active: true},
		}, nil)
		provider.On("Send", ctx, []string{"d1"}, mock.Anything).Return("", errors.New("status 500"))

		channel := push.NewChannel(subs, provider, logs, "https://app.example.com", logger)
		outcome := channel.Send(ctx, []string{"u1", "u2"}, msg)

		assert.Empty(t, outcome.Sent)
		assert.Equal(t, []string{"u1", "u2"}, outcome.Failed)
		logs.AssertNotCalled(t, "AppendDeliveryLog", mock.Anything, mock.Anything)
	})

	t.Run("Subscription lookup failure fails every requested user", func(t *testing.T) {
		subs := new(mockSubscriptions)
		provider := new(mockProvider)

		subs.On("ActiveForUsers", ctx, []string{"u1"}).Return(nil, errors.New("firestore unavailable"))

		channel := push.NewChannel(subs, provider, nil, "", logger)
		outcome := channel.Send(ctx, []string{"u1"}, msg)

		assert.Equal(t, []string{"u1"}, outcome.Failed)
	})

	t.Run("Delivery log failure does not flip the outcome", func(t *testing.T) {
		subs := new(mockSubscriptions)
		provider := new(mockProvider)
		logs := new(mockLogs)

		subs.On("ActiveForUsers", ctx, []string{"u1"}).Return([]notification.PushSubscription{
			{UserID: "u1", DeviceID: "d1", Active: true},
		}, nil)
		provider.On("Send", ctx, []string{"d1"}, mock.Anything).Return("ok", nil)
		logs.On("AppendDeliveryLog", ctx, mock.Anything).Return(errors.New("write failed"))

		channel := push.NewChannel(subs, provider, logs, "https://app.example.com", logger)
		outcome := channel.Send(ctx, []string{"u1"}, msg)

		assert.Equal(t, []string{"u1"}, outcome.Sent)
		assert.Empty(t, outcome.Failed)
	})
}
