package cache_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/paintops/go-notification-service/internal/storage/cache"
	"github.com/paintops/go-notification-service/pkg/notification"
)

// --- Mocks ---
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string, dest any) error {
	args := m.Called(ctx, key, dest)
	return args.Error(0)
}
func (m *MockCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}

type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) Lookup(ctx context.Context, email string) (notification.Identity, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(notification.Identity), args.Error(1)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCachedDirectory(t *testing.T) {
	ctx := context.Background()
	email := "anna@example.com"
	key := "notify:recipient:anna@example.com"
	anna := notification.Identity{ID: "u-anna", Role: "admin"}

	t.Run("Hit is served from cache", func(t *testing.T) {
		mockCache := new(MockCache)
		mockDB := new(MockDirectory)
		mockCache.On("Get", ctx, key, mock.Anything).Run(func(args mock.Arguments) {
			*args.Get(2).(*notification.Identity) = anna
		}).Return(nil)

		dir := cache.NewCachedDirectory(mockDB, mockCache, time.Hour, newTestLogger())
		got, err := dir.Lookup(ctx, email)

		require.NoError(t, err)
		assert.Equal(t, anna, got)
		mockDB.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything)
	})

	t.Run("Miss falls through and fills the cache", func(t *testing.T) {
		mockCache := new(MockCache)
		mockDB := new(MockDirectory)
		mockCache.On("Get", ctx, key, mock.Anything).Return(cache.ErrMiss)
		mockDB.On("Lookup", ctx, email).Return(anna, nil)
		mockCache.On("Set", ctx, key, anna, time.Hour).Return(nil).Once()

		dir := cache.NewCachedDirectory(mockDB, mockCache, time.Hour, newTestLogger())
		got, err := dir.Lookup(ctx, email)

		require.NoError(t, err)
		assert.Equal(t, anna, got)
		mockCache.AssertExpectations(t)
	})

	t.Run("Not found is never cached", func(t *testing.T) {
		mockCache := new(MockCache)
		mockDB := new(MockDirectory)
		mockCache.On("Get", ctx, key, mock.Anything).Return(cache.ErrMiss)
		mockDB.On("Lookup", ctx, email).Return(notification.Identity{}, notification.ErrRecipientNotFound)

		dir := cache.NewCachedDirectory(mockDB, mockCache, time.Hour, newTestLogger())
		_, err := dir.Lookup(ctx, email)

		assert.ErrorIs(t, err, notification.ErrRecipientNotFound)
		mockCache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Cache errors degrade to the real directory", func(t *testing.T) {
		mockCache := new(MockCache)
		mockDB := new(MockDirectory)
		mockCache.On("Get", ctx, key, mock.Anything).Return(assert.AnError)
		mockDB.On("Lookup", ctx, email).Return(anna, nil)
		mockCache.On("Set", ctx, key, anna, time.Hour).Return(assert.AnError)

		dir := cache.NewCachedDirectory(mockDB, mockCache, time.Hour, newTestLogger())
		got, err := dir.Lookup(ctx, email)

		require.NoError(t, err)
		assert.Equal(t, anna, got)
	})
}
