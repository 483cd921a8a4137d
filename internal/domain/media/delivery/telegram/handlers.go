package telegram

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"

	"github.com/Marinerbyte/Ytmagic/config"
	"github.com/Marinerbyte/Ytmagic/internal/domain/media/consts"
	"github.com/Marinerbyte/Ytmagic/internal/domain/media/dto"
	"github.com/Marinerbyte/Ytmagic/internal/domain/media/usecase/buissines"
	"github.com/Marinerbyte/Ytmagic/internal/infrastructure/metrics"
)

// Handlers contains Telegram update handlers
type Handlers struct {
	uc      *buissines.UseCase
	sender  *Sender
	limiter *chatLimiter
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewHandlers creates new Telegram handlers
func NewHandlers(uc *buissines.UseCase, sender *Sender, cfg *config.TelegramConfig, m *metrics.Metrics, logger zerolog.Logger) *Handlers {
	return &Handlers{
		uc:      uc,
		sender:  sender,
		limiter: newChatLimiter(cfg.LinkRate),
		metrics: m,
		logger:  logger.With().Str("component", "telegram_handlers").Logger(),
	}
}

// HandleStart handles /start command
func (h *Handlers) HandleStart(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	req := textEventFrom(update)
	h.logCommand(req.UserID, "/start", "processing")

	resp, err := h.uc.HandleStart(ctx, req)
	if err != nil {
		h.logError(req.UserID, "/start", err)
		h.sendResponse(ctx, req.ChatID, consts.MsgUnknownError)
		return
	}

	h.sendResponse(ctx, req.ChatID, resp.Message)
	h.logCommand(req.UserID, "/start", "success")
}

// HandleHelp handles /help command
func (h *Handlers) HandleHelp(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	req := textEventFrom(update)

	resp, err := h.uc.HandleHelp(ctx)
	if err != nil {
		h.logError(req.UserID, "/help", err)
		h.sendResponse(ctx, req.ChatID, consts.MsgUnknownError)
		return
	}

	h.sendResponse(ctx, req.ChatID, resp.Message)
	h.logCommand(req.UserID, "/help", "success")
}

// HandleHistory handles /history command
func (h *Handlers) HandleHistory(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	req := textEventFrom(update)

	resp, err := h.uc.HandleHistory(ctx, req.ChatID)
	if err != nil {
		h.logError(req.UserID, "/history", err)
		h.sendResponse(ctx, req.ChatID, consts.MsgUnknownError)
		return
	}

	h.sendResponse(ctx, req.ChatID, resp.Message)
	h.logCommand(req.UserID, "/history", "success")
}

// HandleLink handles any non-command text as a submitted link
func (h *Handlers) HandleLink(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	req := textEventFrom(update)

	if !h.limiter.Allow(req.ChatID) {
		h.metrics.RecordRateLimited()
		h.logger.Info().Int64("chat_id", req.ChatID).Msg("Link rate limit hit")
		h.sendResponse(ctx, req.ChatID, consts.MsgRateLimited)
		return
	}

	if err := h.uc.HandleLink(ctx, req); err != nil {
		h.logError(req.UserID, "link", err)
	}
}

// HandleSelection handles inline button presses
func (h *Handlers) HandleSelection(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	req, ok := selectionEventFrom(update)
	if !ok {
		h.logger.Warn().Int64("update_id", update.ID).Msg("Callback query without a message")
		if update.CallbackQuery != nil {
			if err := h.sender.AnswerSelection(ctx, update.CallbackQuery.ID, ""); err != nil {
				h.logger.Debug().Err(err).Str("query_id", update.CallbackQuery.ID).Msg("Failed to answer callback query")
			}
		}
		return
	}

	h.uc.HandleSelection(ctx, req)
}

// textEventFrom extracts a TextEvent from a message update
func textEventFrom(update *models.Update) *dto.TextEvent {
	msg := update.Message
	req := &dto.TextEvent{
		ChatID: msg.Chat.ID,
		Text:   msg.Text,
	}
	if msg.From != nil {
		req.UserID = msg.From.ID
		req.Username = msg.From.Username
		if req.Username == "" {
			req.Username = msg.From.FirstName
		}
	}
	return req
}

// selectionEventFrom extracts a SelectionEvent from a callback query update
func selectionEventFrom(update *models.Update) (*dto.SelectionEvent, bool) {
	q := update.CallbackQuery
	if q == nil {
		return nil, false
	}

	req := &dto.SelectionEvent{
		QueryID: q.ID,
		UserID:  q.From.ID,
		Token:   q.Data,
	}

	switch {
	case q.Message.Message != nil:
		req.ChatID = q.Message.Message.Chat.ID
		req.MessageID = q.Message.Message.ID
	case q.Message.InaccessibleMessage != nil:
		req.ChatID = q.Message.InaccessibleMessage.Chat.ID
		req.MessageID = q.Message.InaccessibleMessage.MessageID
	default:
		return nil, false
	}

	return req, true
}

func (h *Handlers) sendResponse(ctx context.Context, chatID int64, text string) {
	if _, err := h.sender.SendText(ctx, chatID, text); err != nil {
		h.logger.Error().Int64("chat_id", chatID).Err(err).Msg("Failed to send Telegram response")
	}
}

func (h *Handlers) logCommand(userID int64, command, result string) {
	h.logger.Info().Int64("user_id", userID).Str("command", command).Str("result", result).Msg("Command processed")
}

func (h *Handlers) logError(userID int64, command string, err error) {
	h.logger.Error().Int64("user_id", userID).Str("command", command).Err(err).Msg("Command failed")
}
