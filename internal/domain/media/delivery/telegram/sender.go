// Package telegram contains Telegram delivery handlers
package telegram

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"

	"github.com/Marinerbyte/Ytmagic/config"
	"github.com/Marinerbyte/Ytmagic/internal/domain/media/deps"
	"github.com/Marinerbyte/Ytmagic/internal/domain/media/entities"
)

// Sender talks to chats through the Bot API. Implements deps.Messenger.
type Sender struct {
	bot            *tgbot.Bot
	requestTimeout time.Duration
	logger         zerolog.Logger
}

var _ deps.Messenger = (*Sender)(nil)

// NewSender creates new Sender
func NewSender(bot *tgbot.Bot, cfg *config.TelegramConfig, logger zerolog.Logger) *Sender {
	return &Sender{
		bot:            bot,
		requestTimeout: cfg.RequestTimeout,
		logger:         logger.With().Str("component", "telegram_sender").Logger(),
	}
}

// SendText implements deps.Messenger
func (s *Sender) SendText(ctx context.Context, chatID int64, text string) (entities.MessageRef, error) {
	if text == "" {
		return entities.MessageRef{}, fmt.Errorf("message text cannot be empty")
	}

	msgCtx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	msg, err := s.bot.SendMessage(msgCtx, &tgbot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return entities.MessageRef{}, s.handleError(chatID, "send message", err)
	}

	return entities.MessageRef{ChatID: chatID, MessageID: msg.ID}, nil
}

// EditText implements deps.Messenger
func (s *Sender) EditText(ctx context.Context, ref entities.MessageRef, text string, keyboard [][]entities.Button) error {
	msgCtx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	params := &tgbot.EditMessageTextParams{
		ChatID:    ref.ChatID,
		MessageID: ref.MessageID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if markup := inlineKeyboard(keyboard); markup != nil {
		params.ReplyMarkup = markup
	}

	if _, err := s.bot.EditMessageText(msgCtx, params); err != nil {
		// editing to identical content is not a failure
		if strings.Contains(err.Error(), "message is not modified") {
			return nil
		}
		return s.handleError(ref.ChatID, "edit message", err)
	}
	return nil
}

// DeleteMessage implements deps.Messenger
func (s *Sender) DeleteMessage(ctx context.Context, ref entities.MessageRef) error {
	msgCtx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	if _, err := s.bot.DeleteMessage(msgCtx, &tgbot.DeleteMessageParams{
		ChatID:    ref.ChatID,
		MessageID: ref.MessageID,
	}); err != nil {
		return s.handleError(ref.ChatID, "delete message", err)
	}
	return nil
}

// SendFile implements deps.Messenger. The upload gets its own timeout,
// independent of the one used for text requests.
func (s *Sender) SendFile(ctx context.Context, chatID int64, path, caption string, streamable bool, timeout time.Duration) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open staged file: %w", err)
	}
	defer f.Close()

	uploadCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	_, err = s.bot.SendVideo(uploadCtx, &tgbot.SendVideoParams{
		ChatID:            chatID,
		Video:             &models.InputFileUpload{Filename: filepath.Base(path), Data: f},
		Caption:           caption,
		ParseMode:         models.ParseModeHTML,
		SupportsStreaming: streamable,
	})
	if err != nil {
		return s.handleError(chatID, "send video", err)
	}

	s.logger.Debug().
		Int64("chat_id", chatID).
		Dur("took", time.Since(start)).
		Msg("Video uploaded")
	return nil
}

// AnswerSelection implements deps.Messenger
func (s *Sender) AnswerSelection(ctx context.Context, queryID, text string) error {
	msgCtx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	if _, err := s.bot.AnswerCallbackQuery(msgCtx, &tgbot.AnswerCallbackQueryParams{
		CallbackQueryID: queryID,
		Text:            text,
	}); err != nil {
		return fmt.Errorf("answer callback query: %w", err)
	}
	return nil
}

func inlineKeyboard(keyboard [][]entities.Button) *models.InlineKeyboardMarkup {
	if len(keyboard) == 0 {
		return nil
	}

	rows := make([][]models.InlineKeyboardButton, 0, len(keyboard))
	for _, row := range keyboard {
		buttons := make([]models.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, models.InlineKeyboardButton{Text: b.Text, CallbackData: b.Data})
		}
		rows = append(rows, buttons)
	}

	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func (s *Sender) handleError(chatID int64, op string, err error) error {
	errorMsg := err.Error()

	switch {
	case strings.Contains(errorMsg, "Forbidden"):
		s.logger.Warn().Int64("chat_id", chatID).Str("op", op).Msg("User blocked the bot or chat not found")
		return fmt.Errorf("%s: user blocked the bot or chat not found: %w", op, err)

	case strings.Contains(errorMsg, "Too Many Requests"):
		s.logger.Warn().Int64("chat_id", chatID).Str("op", op).Msg("Rate limit exceeded")
		return fmt.Errorf("%s: rate limit exceeded: %w", op, err)

	case strings.Contains(errorMsg, "Request Entity Too Large"):
		s.logger.Warn().Int64("chat_id", chatID).Str("op", op).Msg("File rejected as too large")
		return fmt.Errorf("%s: file too large: %w", op, err)

	case strings.Contains(errorMsg, "context deadline exceeded"):
		s.logger.Warn().Int64("chat_id", chatID).Str("op", op).Msg("Telegram request timed out")
		return fmt.Errorf("%s: timeout: %w", op, err)

	default:
		s.logger.Error().Int64("chat_id", chatID).Str("op", op).Err(err).Msg("Telegram request failed")
		return fmt.Errorf("%s: %w", op, err)
	}
}
