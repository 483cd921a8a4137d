// Package telegram contains Telegram bot infrastructure
package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"

	"github.com/Marinerbyte/Ytmagic/config"
)

// Bot wraps the Telegram bot for infrastructure layer
type Bot struct {
	bot    *tgbot.Bot
	cfg    *config.TelegramConfig
	logger zerolog.Logger
}

// NewBot creates a new Telegram bot wrapper
func NewBot(cfg *config.TelegramConfig, logger zerolog.Logger, extra ...tgbot.Option) (*Bot, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("telegram token is required")
	}

	logger = logger.With().Str("component", "telegram_bot").Logger()

	opts := []tgbot.Option{
		tgbot.WithDefaultHandler(defaultHandler(logger)),
		// uploads of up to 50 MB need more than the library's default client timeout
		tgbot.WithHTTPClient(cfg.RequestTimeout, &http.Client{Timeout: cfg.UploadTimeout + cfg.RequestTimeout}),
	}
	if cfg.WebhookSecret != "" {
		opts = append(opts, tgbot.WithWebhookSecretToken(cfg.WebhookSecret))
	}
	opts = append(opts, extra...)

	bot, err := tgbot.New(cfg.BotToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	logger.Info().Str("mode", cfg.Mode).Msg("Telegram bot created successfully")

	return &Bot{
		bot:    bot,
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Raw returns the underlying telegram bot for handler registration
func (b *Bot) Raw() *tgbot.Bot {
	return b.bot
}

// Webhook reports whether updates arrive through the webhook endpoint
func (b *Bot) Webhook() bool {
	return b.cfg.Mode == config.ModeWebhook
}

// WebhookURL returns the URL Telegram posts updates to
func (b *Bot) WebhookURL() string {
	return b.cfg.WebhookURL + "/" + b.cfg.BotToken
}

// WebhookHandler returns the handler that feeds posted updates to the bot
func (b *Bot) WebhookHandler() http.HandlerFunc {
	return b.bot.WebhookHandler()
}

// Start starts processing updates (blocking call)
func (b *Bot) Start(ctx context.Context) error {
	if b.Webhook() {
		b.logger.Info().Msg("Starting Telegram bot in webhook mode...")
		b.bot.StartWebhook(ctx)
	} else {
		// getUpdates is refused while a webhook is registered
		if _, err := b.bot.DeleteWebhook(ctx, &tgbot.DeleteWebhookParams{}); err != nil {
			b.logger.Warn().Err(err).Msg("Failed to delete webhook before polling")
		}
		b.logger.Info().Msg("Starting Telegram bot in polling mode...")
		b.bot.Start(ctx)
	}
	b.logger.Info().Msg("Telegram bot stopped")
	return nil
}

// Stop stops the bot
func (b *Bot) Stop() error {
	b.logger.Info().Msg("Stopping Telegram bot...")
	return nil
}

// SetWebhook registers WebhookURL with Telegram. The returned URL is the
// public base only; the token path Telegram posts to is never exposed.
func (b *Bot) SetWebhook(ctx context.Context) (string, error) {
	if b.cfg.WebhookURL == "" {
		return "", fmt.Errorf("WEBHOOK_URL is not configured")
	}

	ok, err := b.bot.SetWebhook(ctx, &tgbot.SetWebhookParams{
		URL:         b.WebhookURL(),
		SecretToken: b.cfg.WebhookSecret,
	})
	if err != nil {
		return b.cfg.WebhookURL, fmt.Errorf("failed to set webhook: %s", b.redact(err.Error()))
	}
	if !ok {
		return b.cfg.WebhookURL, fmt.Errorf("telegram refused webhook %s", b.cfg.WebhookURL)
	}

	b.logger.Info().Str("url", b.cfg.WebhookURL).Msg("Webhook registered")
	return b.cfg.WebhookURL, nil
}

// redact strips the bot token from transport errors, which quote the request URL
func (b *Bot) redact(msg string) string {
	if b.cfg.BotToken == "" {
		return msg
	}
	return strings.ReplaceAll(msg, b.cfg.BotToken, "<token>")
}

// DeleteWebhook removes the registered webhook
func (b *Bot) DeleteWebhook(ctx context.Context) error {
	if _, err := b.bot.DeleteWebhook(ctx, &tgbot.DeleteWebhookParams{}); err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}
	b.logger.Info().Msg("Webhook deleted")
	return nil
}

// defaultHandler logs updates no route claimed
func defaultHandler(logger zerolog.Logger) tgbot.HandlerFunc {
	return func(_ context.Context, _ *tgbot.Bot, update *models.Update) {
		logger.Debug().Int64("update_id", update.ID).Msg("Unhandled update")
	}
}
