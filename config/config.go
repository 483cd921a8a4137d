package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Telegram's Bot API refuses uploads above 50 MiB
const maxBotUploadSize int64 = 50 * 1024 * 1024

// Transport modes
const (
	ModePolling = "polling"
	ModeWebhook = "webhook"
)

// Session backends
const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
)

// Config holds all configuration for the bot
type Config struct {
	Telegram TelegramConfig
	Media    MediaConfig
	Session  SessionConfig
	Redis    RedisConfig
	Database DatabaseConfig
	Kafka    KafkaConfig
	Logging  LoggingConfig
	Service  ServiceConfig
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken       string
	Mode           string
	WebhookURL     string
	WebhookSecret  string
	RequestTimeout time.Duration
	UploadTimeout  time.Duration
	LinkRate       int // links per minute per chat, 0 disables limiting
}

// MediaConfig holds download pipeline configuration
type MediaConfig struct {
	MaxFileSize       int64
	DownloadPath      string
	MaxConcurrent     int
	ProviderRetries   int
	ProviderRetryWait time.Duration
	AutoInstall       bool
}

// SessionConfig holds session store configuration
type SessionConfig struct {
	Backend string
	TTL     time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// DatabaseConfig holds PostgreSQL configuration for delivery history
type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// KafkaConfig holds Kafka configuration, empty Brokers disables event publishing
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string // "console" or "json"
}

// ServiceConfig holds service configuration
type ServiceConfig struct {
	Name string
	Port string
}

// Result provides config parts for fx dependency injection using fx.Out pattern
type Result struct {
	fx.Out

	Config   *Config
	Telegram *TelegramConfig
	Media    *MediaConfig
	Session  *SessionConfig
	Redis    *RedisConfig
	Database *DatabaseConfig
	Kafka    *KafkaConfig
	Logging  *LoggingConfig
	Service  *ServiceConfig
}

// Out loads configuration and returns Result for fx injection
func Out() (Result, error) {
	cfg, err := Load()
	if err != nil {
		return Result{}, err
	}

	return Result{
		Config:   cfg,
		Telegram: &cfg.Telegram,
		Media:    &cfg.Media,
		Session:  &cfg.Session,
		Redis:    &cfg.Redis,
		Database: &cfg.Database,
		Kafka:    &cfg.Kafka,
		Logging:  &cfg.Logging,
		Service:  &cfg.Service,
	}, nil
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	requestTimeout, err := time.ParseDuration(getEnv("REQUEST_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid REQUEST_TIMEOUT: %w", err)
	}

	uploadTimeout, err := time.ParseDuration(getEnv("UPLOAD_TIMEOUT", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid UPLOAD_TIMEOUT: %w", err)
	}

	retryWait, err := time.ParseDuration(getEnv("PROVIDER_RETRY_DELAY", "2s"))
	if err != nil {
		return nil, fmt.Errorf("invalid PROVIDER_RETRY_DELAY: %w", err)
	}

	sessionTTL, err := time.ParseDuration(getEnv("SESSION_TTL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}

	maxSizeMB, err := strconv.Atoi(getEnv("MAX_FILE_SIZE_MB", "50"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_FILE_SIZE_MB: %w", err)
	}

	ints := map[string]int{}
	for key, def := range map[string]string{
		"MAX_CONCURRENT_DOWNLOADS": "4",
		"PROVIDER_MAX_RETRIES":     "1",
		"LINK_RATE_PER_MINUTE":     "10",
		"REDIS_DB":                 "0",
	} {
		v, err := strconv.Atoi(getEnv(key, def))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", key, err)
		}
		ints[key] = v
	}

	webhookURL := strings.TrimRight(getEnv("WEBHOOK_URL", ""), "/")
	mode := ModePolling
	if webhookURL != "" {
		mode = ModeWebhook
	}

	var brokers []string
	if raw := getEnv("KAFKA_BROKERS", ""); raw != "" {
		brokers = strings.Split(raw, ",")
	}

	cfg := &Config{
		Telegram: TelegramConfig{
			BotToken:       getEnv("TELEGRAM_BOT_TOKEN", ""),
			Mode:           strings.ToLower(getEnv("TELEGRAM_MODE", mode)),
			WebhookURL:     webhookURL,
			WebhookSecret:  getEnv("WEBHOOK_SECRET", ""),
			RequestTimeout: requestTimeout,
			UploadTimeout:  uploadTimeout,
			LinkRate:       ints["LINK_RATE_PER_MINUTE"],
		},
		Media: MediaConfig{
			MaxFileSize:       int64(maxSizeMB) * 1024 * 1024,
			DownloadPath:      getEnv("DOWNLOAD_PATH", filepath.Join(os.TempDir(), "ytmagic")),
			MaxConcurrent:     ints["MAX_CONCURRENT_DOWNLOADS"],
			ProviderRetries:   ints["PROVIDER_MAX_RETRIES"],
			ProviderRetryWait: retryWait,
			AutoInstall:       getEnv("YTDLP_AUTO_INSTALL", "false") == "true",
		},
		Session: SessionConfig{
			Backend: strings.ToLower(getEnv("SESSION_BACKEND", SessionBackendMemory)),
			TTL:     sessionTTL,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       ints["REDIS_DB"],
		},
		Database: DatabaseConfig{
			Enabled:  getEnv("DB_ENABLED", "false") == "true",
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "ytmagic"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Kafka: KafkaConfig{
			Brokers: brokers,
			Topic:   getEnv("KAFKA_TOPIC", "media.deliveries"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "console")),
		},
		Service: ServiceConfig{
			Name: getEnv("SERVICE_NAME", "ytmagic"),
			Port: getEnv("SERVICE_PORT", getEnv("PORT", "8080")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	switch c.Telegram.Mode {
	case ModePolling:
	case ModeWebhook:
		if c.Telegram.WebhookURL == "" {
			return fmt.Errorf("WEBHOOK_URL is required in webhook mode")
		}
	default:
		return fmt.Errorf("TELEGRAM_MODE must be %q or %q", ModePolling, ModeWebhook)
	}

	if c.Media.MaxFileSize <= 0 || c.Media.MaxFileSize > maxBotUploadSize {
		return fmt.Errorf("MAX_FILE_SIZE_MB must be between 1 and 50")
	}

	if c.Media.MaxConcurrent < 1 {
		return fmt.Errorf("MAX_CONCURRENT_DOWNLOADS must be positive")
	}

	if c.Media.ProviderRetries < 0 {
		return fmt.Errorf("PROVIDER_MAX_RETRIES cannot be negative")
	}

	switch c.Session.Backend {
	case SessionBackendMemory, SessionBackendRedis:
	default:
		return fmt.Errorf("SESSION_BACKEND must be %q or %q", SessionBackendMemory, SessionBackendRedis)
	}

	if c.Kafka.Topic == "" && len(c.Kafka.Brokers) > 0 {
		return fmt.Errorf("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	return nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
