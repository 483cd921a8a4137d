package http

import (
	"github.com/fasthttp/router"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/Marinerbyte/Ytmagic/config"
)

// Router registers media HTTP routes
type Router struct {
	handler *Handler
	bot     WebhookBot
	token   string
	logger  zerolog.Logger
}

// NewRouter creates a new media router
func NewRouter(handler *Handler, bot WebhookBot, cfg *config.TelegramConfig, logger zerolog.Logger) *Router {
	return &Router{
		handler: handler,
		bot:     bot,
		token:   cfg.BotToken,
		logger:  logger,
	}
}

// RegisterRoutes registers media routes on the router
func (r *Router) RegisterRoutes(rt *router.Router) {
	rt.GET("/", r.handler.HandleAlive)
	rt.GET("/health", r.handler.HandleHealth)
	rt.GET("/set_webhook", r.handler.HandleSetWebhook)
	rt.POST("/set_webhook", r.handler.HandleSetWebhook)

	if r.bot.Webhook() {
		// updates are pushed by Telegram to /<bot token>
		rt.POST("/"+r.token, fasthttpadaptor.NewFastHTTPHandlerFunc(r.bot.WebhookHandler()))
		r.logger.Info().Msg("Webhook route registered")
	}
}
