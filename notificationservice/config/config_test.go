package config_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paintops/go-notification-service/notificationservice/config"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestUpdateConfigWithEnvOverrides(t *testing.T) {
	logger := newTestLogger()

	baseConfig := func() *config.Config {
		return &config.Config{
			ProjectID:          "base-project",
			ListenAddr:         ":8080",
			SubscriptionID:     "base-sub",
			NumPipelineWorkers: 2,
			Email: config.EmailConfig{
				APIKey: "base-key",
				From:   "PaintOps <noreply@example.com>",
			},
		}
	}

	t.Run("Success - All overrides applied", func(t *testing.T) {
		cfg := baseConfig()

		t.Setenv("PROJECT_ID", "env-project")
		t.Setenv("PORT", "9090")
		t.Setenv("SUBSCRIPTION_ID", "env-sub")
		t.Setenv("RECIPIENT_WORKERS", "8")
		t.Setenv("APP_BASE_URL", "https://app.example.com")
		t.Setenv("STORAGE_BACKEND", "Postgres")
		t.Setenv("POSTGRES_DSN", "postgres://localhost/notify")
		t.Setenv("REDIS_ADDR", "localhost:6379")
		t.Setenv("REDIS_TTL", "1m")
		t.Setenv("EMAIL_PROVIDER", "smtp")
		t.Setenv("SMTP_HOST", "smtp.example.com")
		t.Setenv("SMTP_PORT", "2525")
		t.Setenv("PUSH_PROVIDER", "fcm")
		t.Setenv("PUSH_APP_ID", "firebase-project")
		t.Setenv("PUSH_API_KEY", "/secrets/sa.json")
		t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com,")

		finalCfg, err := config.UpdateConfigWithEnvOverrides(cfg, logger)
		require.NoError(t, err)

		assert.Equal(t, "env-project", finalCfg.ProjectID)
		assert.Equal(t, ":9090", finalCfg.ListenAddr)
		assert.Equal(t, "env-sub", finalCfg.SubscriptionID)
		assert.Equal(t, "env-sub", finalCfg.PubsubConsumerConfig.SubscriptionID)
		assert.Equal(t, 8, finalCfg.RecipientWorkers)
		assert.Equal(t, "https://app.example.com", finalCfg.AppBaseURL)
		assert.Equal(t, config.StoragePostgres, finalCfg.Storage.Backend)
		assert.True(t, finalCfg.Redis.Enabled)
		assert.Equal(t, time.Minute, finalCfg.Redis.TTL)
		assert.Equal(t, 2525, finalCfg.Email.SMTP.Port)
		assert.True(t, finalCfg.Email.Enabled())
		assert.Equal(t, config.PushProviderFCM, finalCfg.Push.Provider)
		assert.True(t, finalCfg.Push.Enabled())
		assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, finalCfg.CorsConfig.AllowedOrigins)
	})

	t.Run("Success - Defaults applied", func(t *testing.T) {
		cfg := baseConfig()
		finalCfg, err := config.UpdateConfigWithEnvOverrides(cfg, logger)
		require.NoError(t, err)

		assert.Equal(t, "base-project", finalCfg.ProjectID)
		assert.Equal(t, 1, finalCfg.RecipientWorkers)
		assert.Equal(t, config.StorageFirestore, finalCfg.Storage.Backend)
		assert.Equal(t, config.EmailProviderResend, finalCfg.Email.Provider)
		assert.Equal(t, config.PushProviderOneSignal, finalCfg.Push.Provider)
		assert.Equal(t, 15*time.Minute, finalCfg.Redis.TTL)
		assert.True(t, finalCfg.Email.Enabled())
		assert.False(t, finalCfg.Push.Enabled())
	})

	t.Run("Validation Failure - Missing ProjectID", func(t *testing.T) {
		t.Setenv("PROJECT_ID", "")
		cfg := &config.Config{SubscriptionID: "sub"}
		_, err := config.UpdateConfigWithEnvOverrides(cfg, logger)
		assert.Error(t, err)
	})

	t.Run("Validation Failure - Postgres without DSN", func(t *testing.T) {
		cfg := baseConfig()
		cfg.Storage.Backend = config.StoragePostgres
		_, err := config.UpdateConfigWithEnvOverrides(cfg, logger)
		assert.ErrorContains(t, err, "postgres_dsn")
	})

	t.Run("Validation Failure - Unknown push provider", func(t *testing.T) {
		cfg := baseConfig()
		cfg.Push.Provider = "pigeon"
		_, err := config.UpdateConfigWithEnvOverrides(cfg, logger)
		assert.Error(t, err)
	})
}

func TestChannelCapabilities(t *testing.T) {
	assert.False(t, config.EmailConfig{}.Enabled())
	assert.True(t, config.EmailConfig{Provider: config.EmailProviderResend, APIKey: "k"}.Enabled())
	assert.False(t, config.EmailConfig{Provider: config.EmailProviderSMTP, APIKey: "k"}.Enabled(), "smtp needs a host")
	assert.True(t, config.EmailConfig{Provider: config.EmailProviderSMTP, From: "a@example.com", SMTP: config.SMTPConfig{Host: "h"}}.Enabled())

	assert.False(t, config.PushConfig{AppID: "app"}.Enabled())
	assert.True(t, config.PushConfig{AppID: "app", APIKey: "key"}.Enabled())
}
