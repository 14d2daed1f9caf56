package config

import (
	"log/slog"
	"time"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
)

type YamlCorsConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	Role           string   `yaml:"role"`
}

type YamlRedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Enabled  bool   `yaml:"enabled"`
	TTL      string `yaml:"ttl"`
}

type YamlStorageConfig struct {
	Backend     string `yaml:"backend"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

type YamlEmailConfig struct {
	Provider      string `yaml:"provider"`
	APIKey        string `yaml:"api_key"`
	APIURL        string `yaml:"api_url"`
	From          string `yaml:"from"`
	RatePerSecond int    `yaml:"rate_per_second"`
	SMTPHost      string `yaml:"smtp_host"`
	SMTPPort      int    `yaml:"smtp_port"`
	SMTPUsername  string `yaml:"smtp_username"`
	SMTPPassword  string `yaml:"smtp_password"`
}

type YamlPushConfig struct {
	Provider string `yaml:"provider"`
	AppID    string `yaml:"app_id"`
	APIKey   string `yaml:"api_key"`
	APIURL   string `yaml:"api_url"`
}

// YamlConfig is the structure that mirrors the raw config.yaml file.
type YamlConfig struct {
	ProjectID              string            `yaml:"project_id"`
	ListenAddr             string            `yaml:"listen_addr"`
	TopicID                string            `yaml:"topic_id"`
	SubscriptionID         string            `yaml:"subscription_id"`
	SubscriptionDLQTopicID string            `yaml:"subscription_dlq_topic_id"`
	NumPipelineWorkers     int               `yaml:"num_pipeline_workers"`
	RecipientWorkers       int               `yaml:"recipient_workers"`
	AppBaseURL             string            `yaml:"app_base_url"`
	IdentityServiceURL     string            `yaml:"identity_service_url"`
	CorsConfig             YamlCorsConfig    `yaml:"cors"`
	RedisConfig            YamlRedisConfig   `yaml:"redis"`
	StorageConfig          YamlStorageConfig `yaml:"storage"`
	EmailConfig            YamlEmailConfig   `yaml:"email"`
	PushConfig             YamlPushConfig    `yaml:"push"`
}

// NewConfigFromYaml converts the YamlConfig into a clean, base Config struct.
func NewConfigFromYaml(baseCfg *YamlConfig, logger *slog.Logger) (*Config, error) {
	logger.Debug("Mapping YAML config to base config struct")

	cfg := &Config{
		ProjectID:          baseCfg.ProjectID,
		ListenAddr:         baseCfg.ListenAddr,
		TopicID:            baseCfg.TopicID,
		SubscriptionID:     baseCfg.SubscriptionID,
		RecipientWorkers:   baseCfg.RecipientWorkers,
		AppBaseURL:         baseCfg.AppBaseURL,
		IdentityServiceURL: baseCfg.IdentityServiceURL,
		CorsConfig: middleware.CorsConfig{
			AllowedOrigins: baseCfg.CorsConfig.AllowedOrigins,
			Role:           middleware.CorsRole(baseCfg.CorsConfig.Role),
		},
		Redis: RedisConfig{
			Addr:     baseCfg.RedisConfig.Addr,
			Password: baseCfg.RedisConfig.Password,
			DB:       baseCfg.RedisConfig.DB,
			Enabled:  baseCfg.RedisConfig.Enabled,
		},
		Storage: StorageConfig{
			Backend:     baseCfg.StorageConfig.Backend,
			PostgresDSN: baseCfg.StorageConfig.PostgresDSN,
		},
		Email: EmailConfig{
			Provider:      baseCfg.EmailConfig.Provider,
			APIKey:        baseCfg.EmailConfig.APIKey,
			APIURL:        baseCfg.EmailConfig.APIURL,
			From:          baseCfg.EmailConfig.From,
			RatePerSecond: baseCfg.EmailConfig.RatePerSecond,
			SMTP: SMTPConfig{
				Host:     baseCfg.EmailConfig.SMTPHost,
				Port:     baseCfg.EmailConfig.SMTPPort,
				Username: baseCfg.EmailConfig.SMTPUsername,
				Password: baseCfg.EmailConfig.SMTPPassword,
			},
		},
		Push: PushConfig{
			Provider: baseCfg.PushConfig.Provider,
			AppID:    baseCfg.PushConfig.AppID,
			APIKey:   baseCfg.PushConfig.APIKey,
			APIURL:   baseCfg.PushConfig.APIURL,
		},
		SubscriptionDLQTopicID: baseCfg.SubscriptionDLQTopicID,
		NumPipelineWorkers:     baseCfg.NumPipelineWorkers,
	}

	if raw := baseCfg.RedisConfig.TTL; raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			logger.Warn("Ignoring invalid redis ttl", "ttl", raw, "err", err)
		} else {
			cfg.Redis.TTL = ttl
		}
	}

	if cfg.SubscriptionID != "" {
		cfg.PubsubConsumerConfig = messagepipeline.NewGooglePubsubConsumerDefaults(cfg.SubscriptionID)
	}

	logger.Debug("YAML config mapping complete",
		"project_id", cfg.ProjectID,
		"listen_addr", cfg.ListenAddr,
		"subscription_id", cfg.SubscriptionID,
		"storage", cfg.Storage.Backend,
	)

	return cfg, nil
}
