package buissines

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/Marinerbyte/Ytmagic/config"
	"github.com/Marinerbyte/Ytmagic/internal/domain/media/consts"
	"github.com/Marinerbyte/Ytmagic/internal/domain/media/deps"
	"github.com/Marinerbyte/Ytmagic/internal/domain/media/dto"
	"github.com/Marinerbyte/Ytmagic/internal/domain/media/entities"
	mediaerrors "github.com/Marinerbyte/Ytmagic/internal/domain/media/errors"
	"github.com/Marinerbyte/Ytmagic/internal/domain/media/selection"
	"github.com/Marinerbyte/Ytmagic/internal/infrastructure/metrics"
	pkgerrors "github.com/Marinerbyte/Ytmagic/pkg/errors"
)

// UseCase orchestrates link resolution and selection delivery
type UseCase struct {
	resolver  *Resolver
	executor  *Executor
	sessions  deps.SessionStore
	messenger deps.Messenger
	history   deps.DeliveryRepository
	events    deps.DeliveryEventProducer
	metrics   *metrics.Metrics
	maxSizeMB int64
	logger    zerolog.Logger

	// background deliveries outlive the update that started them
	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	closed  bool
	// status messages with a delivery in flight
	busy map[entities.MessageRef]struct{}
}

// UseCaseParams defines dependencies of the UseCase
type UseCaseParams struct {
	fx.In

	Resolver  *Resolver
	Executor  *Executor
	Sessions  deps.SessionStore
	Messenger deps.Messenger
	History   deps.DeliveryRepository
	Events    deps.DeliveryEventProducer
	Metrics   *metrics.Metrics
	Media     *config.MediaConfig
	Logger    zerolog.Logger
}

// NewUseCase creates a new UseCase instance
func NewUseCase(p UseCaseParams) *UseCase {
	ctx, cancel := context.WithCancel(context.Background())

	return &UseCase{
		resolver:  p.Resolver,
		executor:  p.Executor,
		sessions:  p.Sessions,
		messenger: p.Messenger,
		history:   p.History,
		events:    p.Events,
		metrics:   p.Metrics,
		maxSizeMB: p.Media.MaxFileSize / (1024 * 1024),
		logger:    p.Logger.With().Str("component", "media_usecase").Logger(),
		baseCtx:   ctx,
		busy:      make(map[entities.MessageRef]struct{}),
		cancel:    cancel,
	}
}

// HandleStart handles /start command
func (uc *UseCase) HandleStart(ctx context.Context, req *dto.TextEvent) (*dto.CommandResponse, error) {
	uc.logger.Info().
		Int64("user_id", req.UserID).
		Str("username", req.Username).
		Msg("User started bot")

	name := req.Username
	if name == "" {
		name = "there"
	}

	return &dto.CommandResponse{
		Message: fmt.Sprintf(consts.MsgWelcome, html.EscapeString(name), uc.maxSizeMB),
	}, nil
}

// HandleHelp handles /help command
func (uc *UseCase) HandleHelp(ctx context.Context) (*dto.CommandResponse, error) {
	return &dto.CommandResponse{Message: fmt.Sprintf(consts.MsgHelp, uc.maxSizeMB)}, nil
}

// HandleHistory lists the latest deliveries of a chat
func (uc *UseCase) HandleHistory(ctx context.Context, chatID int64) (*dto.CommandResponse, error) {
	attempts, err := uc.history.ListByChat(ctx, chatID, consts.HistoryLimit)
	if errors.Is(err, mediaerrors.ErrHistoryDisabled) {
		return &dto.CommandResponse{Message: consts.MsgHistoryDisabled}, nil
	}
	if err != nil {
		uc.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to list deliveries")
		return nil, fmt.Errorf("failed to list deliveries: %w", err)
	}

	if len(attempts) == 0 {
		return &dto.CommandResponse{Message: consts.MsgHistoryEmpty}, nil
	}

	var b strings.Builder
	b.WriteString(consts.MsgHistoryHeader)
	for _, a := range attempts {
		mark := "✅"
		if a.Outcome != entities.OutcomeDelivered {
			mark = "❌"
		}
		title := a.Title
		if title == "" {
			title = a.VideoID
		}
		b.WriteString(fmt.Sprintf("%s %s <i>(%s)</i>\n",
			mark, html.EscapeString(title), a.CreatedAt.UTC().Format("2006-01-02 15:04")))
	}

	return &dto.CommandResponse{Message: b.String()}, nil
}

// HandleLink resolves a submitted link and offers one button per eligible encoding.
// Resolution failures are reported to the chat; only transport errors are returned.
func (uc *UseCase) HandleLink(ctx context.Context, req *dto.TextEvent) error {
	link, err := uc.resolver.Validate(req.Text)
	if err != nil {
		uc.logger.Debug().Int64("chat_id", req.ChatID).Msg("Rejected non-video text")
		_, sendErr := uc.messenger.SendText(ctx, req.ChatID, uc.messageFor(err))
		return sendErr
	}

	status, err := uc.messenger.SendText(ctx, req.ChatID, consts.MsgProcessing)
	if err != nil {
		return fmt.Errorf("failed to send status message: %w", err)
	}

	start := time.Now()
	res, err := uc.resolver.Resolve(ctx, link)
	if err != nil {
		uc.metrics.RecordResolution(pkgerrors.KindOf(err).String(), 0, time.Since(start).Seconds())
		uc.logger.Info().
			Err(err).
			Int64("chat_id", req.ChatID).
			Str("url", link).
			Msg("Link could not be resolved")
		uc.editStatus(ctx, status, uc.messageFor(err), nil)
		return nil
	}
	uc.metrics.RecordResolution("ok", len(res.Candidates), time.Since(start).Seconds())

	key := entities.SessionKey{ChatID: req.ChatID, VideoID: res.Video.ID}
	if err := uc.sessions.Put(ctx, key, res.URL); err != nil {
		uc.logger.Error().Err(err).Str("key", key.String()).Msg("Failed to store session")
		uc.editStatus(ctx, status, consts.MsgUnknownError, nil)
		return nil
	}

	keyboard := make([][]entities.Button, 0, len(res.Candidates))
	for _, enc := range res.Candidates {
		keyboard = append(keyboard, []entities.Button{{
			Text: enc.Label(),
			Data: selection.Encode(res.Video.ID, enc.FormatID),
		}})
	}

	uc.logger.Info().
		Int64("chat_id", req.ChatID).
		Str("video_id", res.Video.ID).
		Int("candidates", len(res.Candidates)).
		Msg("Offered encodings")

	uc.editStatus(ctx, status, fmt.Sprintf(consts.MsgChooseTitle, html.EscapeString(res.Video.Title)), keyboard)
	return nil
}

// HandleSelection acknowledges a button press and delivers the selection in the background.
// A press on a status message that is already being delivered is only acknowledged.
func (uc *UseCase) HandleSelection(ctx context.Context, req *dto.SelectionEvent) {
	status := entities.MessageRef{ChatID: req.ChatID, MessageID: req.MessageID}

	uc.mu.Lock()
	if uc.closed {
		uc.mu.Unlock()
		uc.logger.Warn().Int64("chat_id", req.ChatID).Msg("Selection ignored during shutdown")
		uc.answer(ctx, req.QueryID, consts.MsgAckRestarting)
		uc.editStatus(ctx, status, consts.MsgRestarting, [][]entities.Button{{{Text: consts.BtnRetry, Data: req.Token}}})
		return
	}
	if _, ok := uc.busy[status]; ok {
		uc.mu.Unlock()
		uc.logger.Debug().Int64("chat_id", req.ChatID).Int("message_id", req.MessageID).Msg("Selection ignored, delivery in progress")
		uc.answer(ctx, req.QueryID, consts.MsgAckBusy)
		return
	}
	uc.busy[status] = struct{}{}
	uc.wg.Add(1)
	uc.mu.Unlock()

	uc.answer(ctx, req.QueryID, consts.MsgAckWorking)

	go func() {
		defer uc.wg.Done()
		defer uc.release(status)
		uc.deliver(uc.baseCtx, req)
	}()
}

func (uc *UseCase) answer(ctx context.Context, queryID, text string) {
	if err := uc.messenger.AnswerSelection(ctx, queryID, text); err != nil {
		uc.logger.Warn().Err(err).Str("query_id", queryID).Msg("Failed to answer callback query")
	}
}

func (uc *UseCase) release(status entities.MessageRef) {
	uc.mu.Lock()
	delete(uc.busy, status)
	uc.mu.Unlock()
}

// Shutdown stops accepting selections and waits for running deliveries.
// Deliveries still running when ctx ends are cancelled.
func (uc *UseCase) Shutdown(ctx context.Context) error {
	uc.mu.Lock()
	uc.closed = true
	uc.mu.Unlock()

	done := make(chan struct{})
	go func() {
		uc.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		uc.cancel()
		return nil
	case <-ctx.Done():
		uc.cancel()
		<-done
		return ctx.Err()
	}
}

// deliver runs one selection to a terminal status
func (uc *UseCase) deliver(ctx context.Context, req *dto.SelectionEvent) {
	defer func() {
		if r := recover(); r != nil {
			uc.logger.Error().Interface("panic", r).Int64("chat_id", req.ChatID).Msg("Delivery panicked")
		}
	}()

	status := entities.MessageRef{ChatID: req.ChatID, MessageID: req.MessageID}

	sel, err := selection.Decode(req.Token)
	if err == nil && sel.Action != entities.ActionDownload {
		err = &mediaerrors.TokenError{Reason: mediaerrors.ReasonUnknownAction, Token: req.Token}
	}
	if err != nil {
		uc.logger.Warn().Err(err).Int64("chat_id", req.ChatID).Msg("Rejected selection token")
		uc.editStatus(ctx, status, uc.messageFor(err), nil)
		return
	}

	key := entities.SessionKey{ChatID: req.ChatID, VideoID: sel.VideoID}
	link, err := uc.sessions.Take(ctx, key)
	if err != nil {
		if pkgerrors.Is(err, pkgerrors.KindSessionExpired) {
			uc.metrics.RecordSessionExpired()
		}
		uc.logger.Info().Err(err).Str("key", key.String()).Msg("Selection without a pending session")
		uc.editStatus(ctx, status, uc.messageFor(err), nil)
		return
	}

	result, err := uc.executor.Execute(ctx, ExecuteRequest{
		ChatID:   req.ChatID,
		VideoID:  sel.VideoID,
		FormatID: sel.FormatID,
		Status:   status,
	})

	attempt := &entities.DeliveryAttempt{
		ChatID:    req.ChatID,
		VideoID:   sel.VideoID,
		FormatID:  sel.FormatID,
		CreatedAt: time.Now().UTC(),
	}

	if err != nil {
		attempt.Outcome = entities.OutcomeFailed
		attempt.Reason = deliveryReason(err)
		uc.metrics.RecordDeliveryError(attempt.Reason)
		uc.record(ctx, attempt)

		var keyboard [][]entities.Button
		var delErr *mediaerrors.DeliveryError
		if errors.As(err, &delErr) && delErr.Retriable() {
			if putErr := uc.sessions.Put(ctx, key, link); putErr != nil {
				uc.logger.Error().Err(putErr).Str("key", key.String()).Msg("Failed to restore session")
			} else {
				keyboard = [][]entities.Button{{{Text: consts.BtnRetry, Data: req.Token}}}
			}
		}

		uc.editStatus(ctx, status, uc.messageFor(err), keyboard)
		return
	}

	attempt.Outcome = entities.OutcomeDelivered
	attempt.Title = result.Title
	attempt.Bytes = result.Bytes
	attempt.Duration = result.Duration
	uc.metrics.RecordDelivery(result.Bytes, result.Duration.Seconds())
	uc.record(ctx, attempt)

	if err := uc.messenger.DeleteMessage(ctx, status); err != nil {
		uc.logger.Debug().Err(err).Int64("chat_id", req.ChatID).Msg("Failed to delete status message")
	}
}

// record stores and publishes a finished attempt; failures are only logged
func (uc *UseCase) record(ctx context.Context, attempt *entities.DeliveryAttempt) {
	if err := uc.history.Save(ctx, attempt); err != nil && !errors.Is(err, mediaerrors.ErrHistoryDisabled) {
		uc.logger.Error().Err(err).Int64("chat_id", attempt.ChatID).Msg("Failed to save delivery attempt")
	}
	if err := uc.events.SendDeliveryFinished(ctx, attempt); err != nil {
		uc.logger.Error().Err(err).Int64("chat_id", attempt.ChatID).Msg("Failed to publish delivery event")
	}
}

// editStatus updates the status message; a failed edit never replaces the error being reported
func (uc *UseCase) editStatus(ctx context.Context, ref entities.MessageRef, text string, keyboard [][]entities.Button) {
	if err := uc.messenger.EditText(ctx, ref, text, keyboard); err != nil {
		uc.logger.Debug().Err(err).Int64("chat_id", ref.ChatID).Msg("Failed to edit status message")
	}
}

// messageFor maps an error to the single message shown to the user
func (uc *UseCase) messageFor(err error) string {
	var resErr *mediaerrors.ResolutionError
	var tokErr *mediaerrors.TokenError
	var sesErr *mediaerrors.SessionError
	var delErr *mediaerrors.DeliveryError

	switch {
	case errors.As(err, &resErr):
		switch resErr.Reason {
		case mediaerrors.ReasonInvalidURL:
			return consts.MsgInvalidURL
		case mediaerrors.ReasonProviderUnreachable:
			return consts.MsgProviderUnreachable
		case mediaerrors.ReasonRestricted:
			return consts.MsgRestricted
		case mediaerrors.ReasonNoEligibleEncoding:
			return fmt.Sprintf(consts.MsgNoEligible, uc.maxSizeMB)
		}
	case errors.As(err, &tokErr):
		return consts.MsgBadSelection
	case errors.As(err, &sesErr):
		return consts.MsgSessionExpired
	case errors.As(err, &delErr):
		switch delErr.Reason {
		case mediaerrors.ReasonFormatGone:
			return consts.MsgFormatGone
		case mediaerrors.ReasonDownloadFailed:
			return consts.MsgDownloadFailed
		case mediaerrors.ReasonUploadFailed:
			return consts.MsgUploadFailed
		}
	}

	return consts.MsgUnknownError
}

func deliveryReason(err error) string {
	var delErr *mediaerrors.DeliveryError
	if errors.As(err, &delErr) {
		return string(delErr.Reason)
	}
	return pkgerrors.KindOf(err).String()
}
