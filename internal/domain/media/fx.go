// Package media contains the media download domain module
package media

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/Marinerbyte/Ytmagic/config"
	httpDelivery "github.com/Marinerbyte/Ytmagic/internal/domain/media/delivery/http"
	telegramDelivery "github.com/Marinerbyte/Ytmagic/internal/domain/media/delivery/telegram"
	"github.com/Marinerbyte/Ytmagic/internal/domain/media/deps"
	kafkaRepo "github.com/Marinerbyte/Ytmagic/internal/domain/media/repository/kafka"
	postgresRepo "github.com/Marinerbyte/Ytmagic/internal/domain/media/repository/postgres"
	"github.com/Marinerbyte/Ytmagic/internal/domain/media/repository/provider"
	"github.com/Marinerbyte/Ytmagic/internal/domain/media/repository/session"
	"github.com/Marinerbyte/Ytmagic/internal/domain/media/usecase/buissines"
	"github.com/Marinerbyte/Ytmagic/internal/infrastructure/http/server"
	"github.com/Marinerbyte/Ytmagic/internal/infrastructure/metrics"
	"github.com/Marinerbyte/Ytmagic/internal/infrastructure/staging"
	"github.com/Marinerbyte/Ytmagic/internal/infrastructure/telegram"
)

const (
	janitorMinInterval = time.Minute
	startupTimeout     = 10 * time.Minute
	stagingGrace       = time.Hour
)

// Module provides media domain components for fx dependency injection
var Module = fx.Module("media",
	// Repository
	fx.Provide(
		fx.Annotate(provider.NewYTDLP, fx.As(new(deps.MediaProvider))),
		provideSessionStore,
		provideHistory,
		provideEvents,
	),

	// Staging area for downloads
	fx.Provide(staging.NewArea),

	// UseCase
	fx.Provide(
		buissines.NewResolver,
		buissines.NewExecutor,
		buissines.NewUseCase,
	),

	// Delivery - Telegram
	fx.Provide(
		provideSender,
		telegramDelivery.NewHandlers,
		telegramDelivery.NewRouter,
	),

	// Delivery - HTTP
	fx.Provide(
		provideWebhookBot,
		httpDelivery.NewHandler,
		httpDelivery.NewRouter,
	),

	fx.Invoke(registerRoutes, registerLifecycle),
)

// SenderResult exposes the sender both as itself and as the pipeline's messenger
type SenderResult struct {
	fx.Out

	Sender    *telegramDelivery.Sender
	Messenger deps.Messenger
}

func provideSender(bot *telegram.Bot, cfg *config.TelegramConfig, logger zerolog.Logger) SenderResult {
	sender := telegramDelivery.NewSender(bot.Raw(), cfg, logger)
	return SenderResult{Sender: sender, Messenger: sender}
}

func provideWebhookBot(bot *telegram.Bot) httpDelivery.WebhookBot {
	return bot
}

// SessionStoreResult provides the configured session backend
type SessionStoreResult struct {
	fx.Out

	Store    deps.SessionStore
	Checkers []deps.HealthChecker `group:"health_checkers,flatten"`
}

func provideSessionStore(
	lc fx.Lifecycle,
	cfg *config.SessionConfig,
	client *goredis.Client,
	logger zerolog.Logger,
) SessionStoreResult {
	if cfg.Backend == config.SessionBackendRedis && client != nil {
		store := session.NewRedis(client, cfg.TTL, logger)
		logger.Info().Dur("ttl", cfg.TTL).Msg("Using Redis session store")
		return SessionStoreResult{Store: store, Checkers: []deps.HealthChecker{store}}
	}

	store := session.NewMemory(cfg.TTL, logger)
	interval := cfg.TTL / 4
	if interval < janitorMinInterval {
		interval = janitorMinInterval
	}

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			store.StartJanitor(interval)
			return nil
		},
		OnStop: func(_ context.Context) error {
			store.Stop()
			return nil
		},
	})

	logger.Info().Dur("ttl", cfg.TTL).Msg("Using in-memory session store")
	return SessionStoreResult{Store: store}
}

// HistoryResult provides the delivery history repository
type HistoryResult struct {
	fx.Out

	History  deps.DeliveryRepository
	Checkers []deps.HealthChecker `group:"health_checkers,flatten"`
}

func provideHistory(db *gorm.DB) HistoryResult {
	if db == nil {
		return HistoryResult{History: postgresRepo.NoopDeliveryRepository{}}
	}
	repo := postgresRepo.NewDeliveryRepository(db)
	return HistoryResult{History: repo, Checkers: []deps.HealthChecker{repo}}
}

func provideEvents(
	lc fx.Lifecycle,
	cfg *config.KafkaConfig,
	m *metrics.Metrics,
	logger zerolog.Logger,
) (deps.DeliveryEventProducer, error) {
	if len(cfg.Brokers) == 0 {
		logger.Info().Msg("Kafka brokers not configured, delivery events are not published")
		return kafkaRepo.NoopProducer{}, nil
	}

	producer, err := kafkaRepo.NewProducer(cfg, m, logger)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return producer.Close()
		},
	})

	return producer, nil
}

// registerRoutes registers Telegram handlers and HTTP routes
func registerRoutes(
	bot *telegram.Bot,
	router *telegramDelivery.Router,
	httpRouter *httpDelivery.Router,
	srv *server.Server,
) {
	router.RegisterRoutes(bot.Raw())
	httpRouter.RegisterRoutes(srv.Router)
}

// stagingPurgeAge is how long a request dir must sit untouched before startup
// treats it as abandoned. Another instance may share DOWNLOAD_PATH.
func stagingPurgeAge(cfg *config.TelegramConfig) time.Duration {
	return cfg.UploadTimeout + stagingGrace
}

// registerLifecycle prepares the provider and staging area on start and drains deliveries on stop
func registerLifecycle(
	lc fx.Lifecycle,
	bot *telegram.Bot,
	router *telegramDelivery.Router,
	uc *buissines.UseCase,
	area *staging.Area,
	mediaCfg *config.MediaConfig,
	telegramCfg *config.TelegramConfig,
	logger zerolog.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if removed, err := area.Purge(stagingPurgeAge(telegramCfg)); err != nil {
				logger.Warn().Err(err).Msg("Failed to purge staging area")
			} else if removed > 0 {
				logger.Info().Int("removed", removed).Msg("Purged leftover staged downloads")
			}

			installCtx, cancel := context.WithTimeout(context.Background(), startupTimeout)
			defer cancel()
			if err := provider.Install(installCtx, mediaCfg, logger); err != nil {
				return err
			}

			if err := router.RegisterCommands(ctx, bot.Raw()); err != nil {
				logger.Warn().Err(err).Msg("Failed to register bot commands")
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("Waiting for in-flight deliveries")
			return uc.Shutdown(ctx)
		},
	})
}
