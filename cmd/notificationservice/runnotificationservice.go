package main

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"

	"github.com/paintops/go-notification-service/internal/channel/email"
	"github.com/paintops/go-notification-service/internal/channel/push"
	"github.com/paintops/go-notification-service/internal/pipeline"
	"github.com/paintops/go-notification-service/internal/platform"
	"github.com/paintops/go-notification-service/internal/platform/fcm"
	"github.com/paintops/go-notification-service/internal/platform/onesignal"
	"github.com/paintops/go-notification-service/internal/platform/resend"
	"github.com/paintops/go-notification-service/internal/platform/smtp"

	"github.com/paintops/go-notification-service/internal/storage/cache"
	fsStore "github.com/paintops/go-notification-service/internal/storage/firestore"
	pgStore "github.com/paintops/go-notification-service/internal/storage/postgres"
	"github.com/paintops/go-notification-service/pkg/dispatch"

	"github.com/paintops/go-notification-service/notificationservice"
	"github.com/paintops/go-notification-service/notificationservice/config"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gopkg.in/yaml.v3"
)

//go:embed local.yaml
var configFile []byte

const providerTimeout = 10 * time.Second

// stores groups the storage roles; a single backend serves all of them.
type stores struct {
	directory     dispatch.Directory
	notifications dispatch.NotificationStore
	subscriptions dispatch.SubscriptionStore
	deliveryLogs  dispatch.DeliveryLogStore
	close         func()
}

func main() {
	var logLevel slog.Level
	switch os.Getenv("LOG_LEVEL") {
	case "debug", "DEBUG":
		logLevel = slog.LevelDebug
	case "info", "INFO":
		logLevel = slog.LevelInfo
	case "warn", "WARN":
		logLevel = slog.LevelWarn
	case "error", "ERROR":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})).With("service", "go-notification-service")
	slog.SetDefault(logger)

	ctx := context.Background()

	// --- Config Loading ---
	var yamlCfg config.YamlConfig
	if err := yaml.Unmarshal(configFile, &yamlCfg); err != nil {
		logger.Error("Failed to unmarshal embedded yaml config", "err", err)
		os.Exit(1)
	}
	baseCfg, _ := config.NewConfigFromYaml(&yamlCfg, logger)
	cfg, err := config.UpdateConfigWithEnvOverrides(baseCfg, logger)
	if err != nil {
		logger.Error("Config failed", "err", err)
		os.Exit(1)
	}

	// --- Infrastructure Clients ---
	psClient, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		logger.Error("PubSub client failed", "err", err)
		os.Exit(1)
	}
	defer psClient.Close()

	// --- Storage ---
	st, err := newStores(ctx, cfg, logger)
	if err != nil {
		logger.Error("Storage initialization failed", "err", err)
		os.Exit(1)
	}
	defer st.close()

	if cfg.Redis.Enabled {
		logger.Info("Initializing Redis Cache layer...", "addr", cfg.Redis.Addr)
		redisClient, err := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Error("Failed to connect to Redis", "err", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		st.directory = cache.NewCachedDirectory(st.directory, redisClient, cfg.Redis.TTL, logger)
		logger.Info("Directory upgraded", "type", "redis_cached_"+cfg.Storage.Backend, "ttl", cfg.Redis.TTL)
	}

	// --- Auth ---
	identityURL := cfg.IdentityServiceURL
	if identityURL == "" {
		identityURL = "http://localhost:3000"
	}
	jwksURL, err := middleware.DiscoverAndValidateJWTConfig(identityURL, middleware.RSA256, logger)
	if err != nil {
		logger.Error("JWT config discovery failed", "identity_url", identityURL, "err", err)
		os.Exit(1)
	}
	authMiddleware, err := middleware.NewJWKSAuthMiddleware(jwksURL, logger)
	if err != nil {
		logger.Error("Auth middleware failed", "err", err)
		os.Exit(1)
	}

	// --- Channels ---
	// Disabled channels stay untyped nil so the orchestrator skips them.
	httpClient := platform.NewHTTPClient(providerTimeout)

	var emailChannel pipeline.EmailChannel
	if cfg.Email.Enabled() {
		sender := newEmailSender(cfg.Email, httpClient, logger)
		emailChannel = email.NewChannel(sender, email.NewRenderer(cfg.AppBaseURL), cfg.Email.RatePerSecond, logger)
		logger.Info("Email channel enabled", "provider", cfg.Email.Provider)
	} else {
		logger.Warn("Email channel disabled: provider credentials missing")
	}

	var pushChannel pipeline.PushChannel
	if cfg.Push.Enabled() {
		provider, err := newPushProvider(ctx, cfg.Push, httpClient, logger)
		if err != nil {
			logger.Error("Failed to initialize push provider", "provider", cfg.Push.Provider, "err", err)
			os.Exit(1)
		}
		pushChannel = push.NewChannel(st.subscriptions, provider, st.deliveryLogs, cfg.AppBaseURL, logger)
		logger.Info("Push channel enabled", "provider", cfg.Push.Provider)
	} else {
		logger.Warn("Push channel disabled: provider credentials missing")
	}

	orchestrator := pipeline.NewOrchestrator(
		st.directory,
		st.notifications,
		emailChannel,
		pushChannel,
		pipeline.OrchestratorConfig{RecipientWorkers: cfg.RecipientWorkers},
		logger,
	)

	// --- Consumer & Service ---
	consumer, err := newIngestionConsumer(ctx, cfg, psClient, logger)
	if err != nil {
		logger.Error("Consumer creation failed", "err", err)
		os.Exit(1)
	}

	service, err := notificationservice.New(
		cfg,
		consumer,
		orchestrator,
		authMiddleware,
		logger,
	)
	if err != nil {
		logger.Error("Service creation failed", "err", err)
		os.Exit(1)
	}

	logger.Info("Starting service...")
	if err := service.Start(ctx); err != nil {
		logger.Error("Service shutdown with error", "err", err)
		os.Exit(1)
	}
}

func newStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*stores, error) {
	switch cfg.Storage.Backend {
	case config.StoragePostgres:
		pool, err := pgStore.Connect(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, err
		}
		store := pgStore.NewStore(pool)
		if err := store.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("Storage initialized", "type", "postgres")
		return &stores{store, store, store, store, pool.Close}, nil
	default:
		fsClient, err := firestore.NewClient(ctx, cfg.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("firestore client failed: %w", err)
		}
		store := fsStore.NewFirestoreStore(fsClient)
		logger.Info("Storage initialized", "type", "firestore")
		return &stores{store, store, store, store, func() { _ = fsClient.Close() }}, nil
	}
}

func newEmailSender(cfg config.EmailConfig, httpClient *http.Client, logger *slog.Logger) dispatch.EmailSender {
	if cfg.Provider == config.EmailProviderSMTP {
		dialer := smtp.NewDialer(smtp.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.From,
		})
		return smtp.NewSender(dialer, cfg.From, logger)
	}
	return resend.NewSender(resend.Config{
		APIKey: cfg.APIKey,
		APIURL: cfg.APIURL,
		From:   cfg.From,
	}, httpClient, logger)
}

func newPushProvider(ctx context.Context, cfg config.PushConfig, httpClient *http.Client, logger *slog.Logger) (dispatch.PushProvider, error) {
	if cfg.Provider == config.PushProviderFCM {
		fbApp, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.AppID}, option.WithCredentialsFile(cfg.APIKey))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Firebase App: %w", err)
		}
		fcmMessaging, err := fbApp.Messaging(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create FCM messaging client: %w", err)
		}
		return fcm.NewDispatcher(fcmMessaging, logger), nil
	}
	return onesignal.NewDispatcher(onesignal.Config{
		AppID:  cfg.AppID,
		APIKey: cfg.APIKey,
		APIURL: cfg.APIURL,
	}, httpClient, logger), nil
}

func newIngestionConsumer(ctx context.Context, cfg *config.Config, psClient *pubsub.Client, logger *slog.Logger) (messagepipeline.MessageConsumer, error) {
	sub := convertPubsub(cfg.ProjectID, cfg.PubsubConsumerConfig.SubscriptionID, "subscriptions")
	topicID := convertPubsub(cfg.ProjectID, cfg.TopicID, "topics")
	dlt := convertPubsub(cfg.ProjectID, cfg.SubscriptionDLQTopicID, "topics")

	subConfig := &pubsubpb.Subscription{
		Name:               sub,
		Topic:              topicID,
		AckDeadlineSeconds: 30,
		DeadLetterPolicy: &pubsubpb.DeadLetterPolicy{
			DeadLetterTopic:     dlt,
			MaxDeliveryAttempts: 5,
		},
		EnableMessageOrdering: false,
	}
	logger.Debug("Ensuring subscription exists", "sub", subConfig.Name, "topic", subConfig.Topic)
	_, err := psClient.SubscriptionAdminClient.CreateSubscription(ctx, subConfig)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			logger.Debug("Subscription already exists, skipping creation", "sub", subConfig.Name)
		} else {
			logger.Error("Failed to create subscription", "sub", subConfig.Name, "err", err)
			return nil, fmt.Errorf("could not create sub: %s", sub)
		}
	}

	return messagepipeline.NewGooglePubsubConsumer(
		messagepipeline.NewGooglePubsubConsumerDefaults(subConfig.Name), psClient, logger,
	)
}

type PS string

func convertPubsub(project, id string, ps PS) string {
	return fmt.Sprintf("projects/%s/%s/%s", project, ps, id)
}
