package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
)

// Storage backends.
const (
	StorageFirestore = "firestore"
	StoragePostgres  = "postgres"
)

// Email providers.
const (
	EmailProviderResend = "resend"
	EmailProviderSMTP   = "smtp"
)

// Push providers.
const (
	PushProviderOneSignal = "onesignal"
	PushProviderFCM       = "fcm"
)

const defaultRedisTTL = 15 * time.Minute

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type StorageConfig struct {
	Backend     string
	PostgresDSN string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

type EmailConfig struct {
	Provider      string
	APIKey        string
	APIURL        string
	From          string
	RatePerSecond int
	SMTP          SMTPConfig
}

// Enabled reports whether the configured provider has what it needs to send.
func (c EmailConfig) Enabled() bool {
	if c.Provider == EmailProviderSMTP {
		return c.SMTP.Host != "" && c.From != ""
	}
	return c.APIKey != ""
}

// PushConfig configures the batched push provider. For fcm, AppID is the
// Firebase project and APIKey the path of a service account credentials file.
type PushConfig struct {
	Provider string
	AppID    string
	APIKey   string
	APIURL   string
}

func (c PushConfig) Enabled() bool {
	return c.AppID != "" && c.APIKey != ""
}

// Config defines the *single*, authoritative configuration.
type Config struct {
	ProjectID              string
	ListenAddr             string
	SubscriptionID         string
	SubscriptionDLQTopicID string
	NumPipelineWorkers     int
	RecipientWorkers       int
	AppBaseURL             string
	IdentityServiceURL     string

	CorsConfig middleware.CorsConfig
	Redis      RedisConfig
	Storage    StorageConfig
	Email      EmailConfig
	Push       PushConfig

	TopicID              string
	PubsubConsumerConfig *messagepipeline.GooglePubsubConsumerConfig
}

// UpdateConfigWithEnvOverrides applies environment variables and final validation.
func UpdateConfigWithEnvOverrides(cfg *Config, logger *slog.Logger) (*Config, error) {
	logger.Debug("Applying environment variable overrides...")

	// 1. Apply Environment Overrides
	if val := os.Getenv("PROJECT_ID"); val != "" {
		logger.Debug("Overriding config value", "key", "PROJECT_ID", "source", "env")
		cfg.ProjectID = val
	}
	if val := os.Getenv("PORT"); val != "" {
		logger.Debug("Overriding config value", "key", "PORT", "source", "env")
		cfg.ListenAddr = ":" + val
	}
	if val := os.Getenv("TOPIC_ID"); val != "" {
		logger.Debug("Overriding config value", "key", "TOPIC_ID", "source", "env")
		cfg.TopicID = val
	}
	if val := os.Getenv("SUBSCRIPTION_ID"); val != "" {
		logger.Debug("Overriding config value", "key", "SUBSCRIPTION_ID", "source", "env")
		cfg.SubscriptionID = val
		cfg.PubsubConsumerConfig = messagepipeline.NewGooglePubsubConsumerDefaults(val)
	}
	if val := os.Getenv("SUBSCRIPTION_DLQ_TOPIC_ID"); val != "" {
		logger.Debug("Overriding config value", "key", "SUBSCRIPTION_DLQ_TOPIC_ID", "source", "env")
		cfg.SubscriptionDLQTopicID = val
	}
	if val := os.Getenv("NUM_PIPELINE_WORKERS"); val != "" {
		if workers, err := strconv.Atoi(val); err == nil && workers > 0 {
			logger.Debug("Overriding config value", "key", "NUM_PIPELINE_WORKERS", "source", "env")
			cfg.NumPipelineWorkers = workers
		}
	}
	if val := os.Getenv("RECIPIENT_WORKERS"); val != "" {
		if workers, err := strconv.Atoi(val); err == nil && workers > 0 {
			logger.Debug("Overriding config value", "key", "RECIPIENT_WORKERS", "source", "env")
			cfg.RecipientWorkers = workers
		}
	}
	if val := os.Getenv("APP_BASE_URL"); val != "" {
		logger.Debug("Overriding config value", "key", "APP_BASE_URL", "source", "env")
		cfg.AppBaseURL = val
	}
	if val := os.Getenv("IDENTITY_SERVICE_URL"); val != "" {
		logger.Debug("Overriding config value", "key", "IDENTITY_SERVICE_URL", "source", "env")
		cfg.IdentityServiceURL = val
	}

	// Storage Overrides
	if val := os.Getenv("STORAGE_BACKEND"); val != "" {
		logger.Debug("Overriding config value", "key", "STORAGE_BACKEND", "source", "env")
		cfg.Storage.Backend = strings.ToLower(val)
	}
	if val := os.Getenv("POSTGRES_DSN"); val != "" {
		logger.Debug("Overriding config value", "key", "POSTGRES_DSN", "source", "env")
		cfg.Storage.PostgresDSN = val
	}

	// Redis Overrides
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		cfg.Redis.Addr = val
		cfg.Redis.Enabled = true
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		cfg.Redis.Password = val
	}
	if val := os.Getenv("REDIS_DB"); val != "" {
		if db, err := strconv.Atoi(val); err == nil {
			cfg.Redis.DB = db
		}
	}
	if val := os.Getenv("REDIS_TTL"); val != "" {
		if ttl, err := time.ParseDuration(val); err == nil {
			cfg.Redis.TTL = ttl
		}
	}
	if val := os.Getenv("REDIS_ENABLED"); val != "" {
		enabled, _ := strconv.ParseBool(val)
		cfg.Redis.Enabled = enabled
	}

	// Email Overrides
	if val := os.Getenv("EMAIL_PROVIDER"); val != "" {
		logger.Debug("Overriding config value", "key", "EMAIL_PROVIDER", "source", "env")
		cfg.Email.Provider = strings.ToLower(val)
	}
	if val := os.Getenv("EMAIL_API_KEY"); val != "" {
		logger.Debug("Overriding config value", "key", "EMAIL_API_KEY", "source", "env")
		cfg.Email.APIKey = val
	}
	if val := os.Getenv("EMAIL_FROM"); val != "" {
		logger.Debug("Overriding config value", "key", "EMAIL_FROM", "source", "env")
		cfg.Email.From = val
	}
	if val := os.Getenv("EMAIL_RATE_PER_SECOND"); val != "" {
		if rps, err := strconv.Atoi(val); err == nil {
			cfg.Email.RatePerSecond = rps
		}
	}
	if val := os.Getenv("SMTP_HOST"); val != "" {
		cfg.Email.SMTP.Host = val
	}
	if val := os.Getenv("SMTP_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			cfg.Email.SMTP.Port = port
		}
	}
	if val := os.Getenv("SMTP_USERNAME"); val != "" {
		cfg.Email.SMTP.Username = val
	}
	if val := os.Getenv("SMTP_PASSWORD"); val != "" {
		cfg.Email.SMTP.Password = val
	}

	// Push Overrides
	if val := os.Getenv("PUSH_PROVIDER"); val != "" {
		logger.Debug("Overriding config value", "key", "PUSH_PROVIDER", "source", "env")
		cfg.Push.Provider = strings.ToLower(val)
	}
	if val := os.Getenv("PUSH_APP_ID"); val != "" {
		logger.Debug("Overriding config value", "key", "PUSH_APP_ID", "source", "env")
		cfg.Push.AppID = val
	}
	if val := os.Getenv("PUSH_API_KEY"); val != "" {
		logger.Debug("Overriding config value", "key", "PUSH_API_KEY", "source", "env")
		cfg.Push.APIKey = val
	}

	// CORS Overrides
	if corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS"); corsOrigins != "" {
		logger.Debug("Overriding config value", "key", "CORS_ALLOWED_ORIGINS", "source", "env")
		rawOrigins := strings.Split(corsOrigins, ",")
		var cleanOrigins []string
		for _, o := range rawOrigins {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				cleanOrigins = append(cleanOrigins, trimmed)
			}
		}
		cfg.CorsConfig.AllowedOrigins = cleanOrigins
	}

	// 2. Defaults
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.NumPipelineWorkers <= 0 {
		cfg.NumPipelineWorkers = 1
	}
	if cfg.RecipientWorkers <= 0 {
		cfg.RecipientWorkers = 1
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = StorageFirestore
	}
	if cfg.Email.Provider == "" {
		cfg.Email.Provider = EmailProviderResend
	}
	if cfg.Push.Provider == "" {
		cfg.Push.Provider = PushProviderOneSignal
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = defaultRedisTTL
	}

	// 3. Final Validation
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("project_id is required (set via YAML or PROJECT_ID env var)")
	}
	if cfg.SubscriptionID == "" {
		return nil, fmt.Errorf("subscription_id is required (set via YAML or SUBSCRIPTION_ID env var)")
	}
	switch cfg.Storage.Backend {
	case StorageFirestore:
	case StoragePostgres:
		if cfg.Storage.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres_dsn is required when storage backend is postgres (set via YAML or POSTGRES_DSN env var)")
		}
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	if cfg.Email.Provider != EmailProviderResend && cfg.Email.Provider != EmailProviderSMTP {
		return nil, fmt.Errorf("unknown email provider %q", cfg.Email.Provider)
	}
	if cfg.Push.Provider != PushProviderOneSignal && cfg.Push.Provider != PushProviderFCM {
		return nil, fmt.Errorf("unknown push provider %q", cfg.Push.Provider)
	}

	if cfg.PubsubConsumerConfig == nil && cfg.SubscriptionID != "" {
		cfg.PubsubConsumerConfig = messagepipeline.NewGooglePubsubConsumerDefaults(cfg.SubscriptionID)
	}

	logger.Debug("Configuration finalized and validated successfully",
		"storage", cfg.Storage.Backend,
		"email_enabled", cfg.Email.Enabled(),
		"push_enabled", cfg.Push.Enabled(),
	)
	return cfg, nil
}
