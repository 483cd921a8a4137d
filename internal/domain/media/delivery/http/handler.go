// Package http serves the keep-alive, health and webhook routes
package http

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
	"go.uber.org/fx"

	"github.com/Marinerbyte/Ytmagic/config"
	"github.com/Marinerbyte/Ytmagic/internal/domain/media/deps"
)

const (
	alivePage          = "<h1>Bot is alive!</h1>"
	healthCheckTimeout = 5 * time.Second
	setWebhookTimeout  = 30 * time.Second
	secretHeader       = "X-Telegram-Bot-Api-Secret-Token"
	secretQueryArg     = "secret"
)

// WebhookBot is the part of the Telegram bot the HTTP routes need
type WebhookBot interface {
	Webhook() bool
	WebhookHandler() http.HandlerFunc
	SetWebhook(ctx context.Context) (string, error)
}

// HealthStatus represents the overall health status
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// ComponentHealth represents health status of a single component
type ComponentHealth struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// HealthResponse represents the JSON response for health check
type HealthResponse struct {
	Status     HealthStatus      `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Uptime     string            `json:"uptime"`
	Components []ComponentHealth `json:"components"`
}

// Handler handles the keep-alive HTTP routes
type Handler struct {
	bot       WebhookBot
	checkers  []deps.HealthChecker
	secret    string
	startedAt time.Time
	logger    zerolog.Logger
}

// HandlerParams defines parameters for Handler
type HandlerParams struct {
	fx.In

	Bot      WebhookBot
	Checkers []deps.HealthChecker `group:"health_checkers"`
	Config   *config.TelegramConfig
	Logger   zerolog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(params HandlerParams) *Handler {
	var secret string
	if params.Config != nil {
		secret = params.Config.WebhookSecret
	}
	return &Handler{
		bot:       params.Bot,
		checkers:  params.Checkers,
		secret:    secret,
		startedAt: time.Now(),
		logger:    params.Logger.With().Str("component", "http_handler").Logger(),
	}
}

// HandleAlive serves the fixed keep-alive page
func (h *Handler) HandleAlive(ctx *fasthttp.RequestCtx) {
	ctx.SetContentType("text/html; charset=utf-8")
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetBodyString(alivePage)
}

// HandleHealth reports the liveness of the process and its optional backends
func (h *Handler) HandleHealth(ctx *fasthttp.RequestCtx) {
	checkCtx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()

	components := make([]ComponentHealth, 0, len(h.checkers)+1)
	components = append(components, ComponentHealth{Name: "process", Healthy: true})

	status := HealthStatusHealthy
	for _, checker := range h.checkers {
		component := ComponentHealth{Name: checker.Name(), Healthy: true}
		if err := checker.HealthCheck(checkCtx); err != nil {
			component.Healthy = false
			component.Message = err.Error()
			status = HealthStatusUnhealthy
		}
		components = append(components, component)
	}

	statusCode := fasthttp.StatusOK
	logEvent := h.logger.Debug()
	if status == HealthStatusUnhealthy {
		statusCode = fasthttp.StatusServiceUnavailable
		logEvent = h.logger.Warn()
	}
	logEvent.
		Str("status", string(status)).
		Int("status_code", statusCode).
		Msg("Health check completed")

	h.writeJSON(ctx, statusCode, HealthResponse{
		Status:     status,
		Timestamp:  time.Now().UTC(),
		Uptime:     time.Since(h.startedAt).Round(time.Second).String(),
		Components: components,
	})
}

// HandleSetWebhook registers the webhook URL with Telegram. When WEBHOOK_SECRET
// is set the caller must present it in the secret header or query argument.
func (h *Handler) HandleSetWebhook(ctx *fasthttp.RequestCtx) {
	if !h.authorized(ctx) {
		h.logger.Warn().Str("remote", ctx.RemoteIP().String()).Msg("Unauthorized set_webhook call")
		h.writeJSON(ctx, fasthttp.StatusForbidden, map[string]any{
			"ok":    false,
			"error": "forbidden",
		})
		return
	}

	if !h.bot.Webhook() {
		h.writeJSON(ctx, fasthttp.StatusConflict, map[string]any{
			"ok":    false,
			"error": "bot is running in polling mode",
		})
		return
	}

	reqCtx, cancel := context.WithTimeout(context.Background(), setWebhookTimeout)
	defer cancel()

	url, err := h.bot.SetWebhook(reqCtx)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to set webhook")
		h.writeJSON(ctx, fasthttp.StatusInternalServerError, map[string]any{
			"ok":    false,
			"error": err.Error(),
		})
		return
	}

	h.logger.Info().Msg("Webhook set via HTTP")
	h.writeJSON(ctx, fasthttp.StatusOK, map[string]any{
		"ok":  true,
		"url": url,
	})
}

func (h *Handler) authorized(ctx *fasthttp.RequestCtx) bool {
	if h.secret == "" {
		return true
	}
	given := ctx.Request.Header.Peek(secretHeader)
	if len(given) == 0 {
		given = ctx.QueryArgs().Peek(secretQueryArg)
	}
	return subtle.ConstantTimeCompare(given, []byte(h.secret)) == 1
}

func (h *Handler) writeJSON(ctx *fasthttp.RequestCtx, statusCode int, body any) {
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(statusCode)
	if err := json.NewEncoder(ctx).Encode(body); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}
