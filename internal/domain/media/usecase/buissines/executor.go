package buissines

import (
	"context"
	"errors"
	"fmt"
	"html"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/Marinerbyte/Ytmagic/config"
	"github.com/Marinerbyte/Ytmagic/internal/domain/media/consts"
	"github.com/Marinerbyte/Ytmagic/internal/domain/media/deps"
	"github.com/Marinerbyte/Ytmagic/internal/domain/media/entities"
	mediaerrors "github.com/Marinerbyte/Ytmagic/internal/domain/media/errors"
	"github.com/Marinerbyte/Ytmagic/internal/infrastructure/metrics"
	"github.com/Marinerbyte/Ytmagic/internal/infrastructure/staging"
)

// ExecuteRequest is one accepted selection
type ExecuteRequest struct {
	ChatID   int64
	VideoID  string
	FormatID int
	Status   entities.MessageRef
}

// Executor downloads a selected encoding, uploads it and removes the staged file
type Executor struct {
	resolver      *Resolver
	provider      deps.MediaProvider
	messenger     deps.Messenger
	staging       *staging.Area
	slots         *semaphore.Weighted
	maxSize       int64
	uploadTimeout time.Duration
	metrics       *metrics.Metrics
	logger        zerolog.Logger
}

// NewExecutor creates a new Executor
func NewExecutor(
	resolver *Resolver,
	provider deps.MediaProvider,
	messenger deps.Messenger,
	area *staging.Area,
	mediaCfg *config.MediaConfig,
	telegramCfg *config.TelegramConfig,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Executor {
	return &Executor{
		resolver:      resolver,
		provider:      provider,
		messenger:     messenger,
		staging:       area,
		slots:         semaphore.NewWeighted(int64(mediaCfg.MaxConcurrent)),
		maxSize:       mediaCfg.MaxFileSize,
		uploadTimeout: telegramCfg.UploadTimeout,
		metrics:       m,
		logger:        logger.With().Str("component", "executor").Logger(),
	}
}

// Execute runs one delivery. The staged file never outlives the call.
func (e *Executor) Execute(ctx context.Context, req ExecuteRequest) (*entities.DeliveryResult, error) {
	log := e.logger.With().
		Int64("chat_id", req.ChatID).
		Str("video_id", req.VideoID).
		Int("format_id", req.FormatID).
		Logger()

	if err := e.slots.Acquire(ctx, 1); err != nil {
		return nil, &mediaerrors.DeliveryError{Reason: mediaerrors.ReasonDownloadFailed, Err: err}
	}
	defer e.slots.Release(1)

	e.metrics.DownloadStarted()
	defer e.metrics.DownloadFinished()

	start := time.Now()

	// Resolving
	video, _, err := e.resolver.Lookup(ctx, req.VideoID, req.FormatID)
	if err != nil {
		if errors.Is(err, mediaerrors.ErrFormatGone) {
			log.Info().Msg("Selected format is no longer offered")
			return nil, &mediaerrors.DeliveryError{Reason: mediaerrors.ReasonFormatGone, Err: err}
		}
		log.Warn().Err(err).Msg("Refetch before download failed")
		return nil, &mediaerrors.DeliveryError{Reason: mediaerrors.ReasonDownloadFailed, Err: err}
	}

	// Downloading
	e.editStatus(ctx, req.Status, consts.MsgDownloading)

	stage, err := e.staging.NewRequest()
	if err != nil {
		return nil, &mediaerrors.DeliveryError{Reason: mediaerrors.ReasonDownloadFailed, Err: err}
	}
	defer e.staging.Release(stage)

	path := stage.FilePath(req.VideoID, req.FormatID)
	if err := e.provider.Download(ctx, CanonicalURL(req.VideoID), req.FormatID, path); err != nil {
		log.Warn().Err(err).Msg("Download failed")
		return nil, &mediaerrors.DeliveryError{Reason: mediaerrors.ReasonDownloadFailed, Err: err}
	}

	info, err := os.Stat(path)
	if err != nil {
		log.Warn().Err(err).Msg("Downloaded file is missing")
		return nil, &mediaerrors.DeliveryError{Reason: mediaerrors.ReasonDownloadFailed, Err: err}
	}
	if info.Size() > e.maxSize {
		log.Warn().Int64("bytes", info.Size()).Msg("Downloaded file exceeds the ceiling")
		return nil, &mediaerrors.DeliveryError{
			Reason: mediaerrors.ReasonDownloadFailed,
			Err:    fmt.Errorf("%d bytes: %w", info.Size(), mediaerrors.ErrFileTooLarge),
		}
	}

	// Uploading
	e.editStatus(ctx, req.Status, consts.MsgUploading)

	caption := fmt.Sprintf(consts.MsgDoneCaption, html.EscapeString(video.Title))
	if err := e.messenger.SendFile(ctx, req.ChatID, path, caption, true, e.uploadTimeout); err != nil {
		log.Warn().Err(err).Msg("Upload failed")
		return nil, &mediaerrors.DeliveryError{Reason: mediaerrors.ReasonUploadFailed, Err: err}
	}

	result := &entities.DeliveryResult{
		Title:    video.Title,
		Bytes:    info.Size(),
		Duration: time.Since(start),
	}

	log.Info().
		Int64("bytes", result.Bytes).
		Dur("duration", result.Duration).
		Msg("Video delivered")

	return result, nil
}

// editStatus updates the status message; failures are logged and dropped
func (e *Executor) editStatus(ctx context.Context, ref entities.MessageRef, text string) {
	if ref.MessageID == 0 {
		return
	}
	if err := e.messenger.EditText(ctx, ref, text, nil); err != nil {
		e.logger.Debug().Err(err).Int64("chat_id", ref.ChatID).Msg("Failed to edit status message")
	}
}
