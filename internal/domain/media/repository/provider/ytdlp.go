// Package provider contains MediaProvider implementations
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lrstanley/go-ytdlp"
	"github.com/rs/zerolog"

	"github.com/Marinerbyte/Ytmagic/config"
	"github.com/Marinerbyte/Ytmagic/internal/domain/media/deps"
	"github.com/Marinerbyte/Ytmagic/internal/domain/media/entities"
	mediaerrors "github.com/Marinerbyte/Ytmagic/internal/domain/media/errors"
)

// Stderr fragments yt-dlp prints for videos that exist but cannot be fetched
var restrictedMarkers = []string{
	"Private video",
	"Sign in to confirm your age",
	"Video unavailable",
	"members-only",
	"This video is not available",
	"This live event will begin",
}

// YTDLP fetches metadata and files through the yt-dlp binary
type YTDLP struct {
	logger zerolog.Logger
}

var _ deps.MediaProvider = (*YTDLP)(nil)

// NewYTDLP creates the provider
func NewYTDLP(logger zerolog.Logger) *YTDLP {
	return &YTDLP{
		logger: logger.With().Str("component", "ytdlp_provider").Logger(),
	}
}

// Install makes sure a yt-dlp binary is available, downloading it when needed
func Install(ctx context.Context, cfg *config.MediaConfig, logger zerolog.Logger) error {
	if !cfg.AutoInstall {
		return nil
	}

	resolved, err := ytdlp.Install(ctx, &ytdlp.InstallOptions{})
	if err != nil {
		return fmt.Errorf("install yt-dlp: %w", err)
	}

	logger.Info().
		Str("executable", resolved.Executable).
		Str("version", resolved.Version).
		Msg("yt-dlp is ready")
	return nil
}

// FetchMetadata implements deps.MediaProvider
func (y *YTDLP) FetchMetadata(ctx context.Context, url string) (*entities.Video, error) {
	res, err := ytdlp.New().
		DumpSingleJSON().
		NoPlaylist().
		NoWarnings().
		Run(ctx, url)
	if err != nil {
		return nil, y.classify("fetch metadata", res, err)
	}

	video, err := parseMetadata([]byte(res.Stdout))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", mediaerrors.ErrProviderUnavailable, err)
	}

	y.logger.Debug().
		Str("video_id", video.ID).
		Int("encodings", len(video.Encodings)).
		Msg("Fetched video metadata")

	return video, nil
}

// Download implements deps.MediaProvider
func (y *YTDLP) Download(ctx context.Context, url string, formatID int, dest string) error {
	res, err := ytdlp.New().
		Format(strconv.Itoa(formatID)).
		Output(dest).
		NoPlaylist().
		NoWarnings().
		ForceOverwrites().
		Run(ctx, url)
	if err != nil {
		return y.classify("download", res, err)
	}

	y.logger.Debug().Str("dest", dest).Int("format_id", formatID).Msg("Download finished")
	return nil
}

func (y *YTDLP) classify(op string, res *ytdlp.Result, err error) error {
	if ctxErr := contextError(err); ctxErr != nil {
		return fmt.Errorf("%s: %w", op, ctxErr)
	}

	stderr := ""
	if res != nil {
		stderr = res.Stderr
	}

	y.logger.Warn().Err(err).Str("op", op).Str("stderr", lastLine(stderr)).Msg("yt-dlp call failed")

	return classifyFailure(op, stderr, err)
}

func classifyFailure(op, stderr string, err error) error {
	for _, marker := range restrictedMarkers {
		if strings.Contains(stderr, marker) {
			return fmt.Errorf("%s: %w: %s", op, mediaerrors.ErrRestricted, lastLine(stderr))
		}
	}

	return fmt.Errorf("%s: %w: %v", op, mediaerrors.ErrProviderUnavailable, err)
}

func contextError(err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return context.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return context.DeadlineExceeded
	default:
		return nil
	}
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// rawVideo is the subset of yt-dlp's info JSON the bot reads
type rawVideo struct {
	ID       string      `json:"id"`
	Title    string      `json:"title"`
	Uploader string      `json:"uploader"`
	Channel  string      `json:"channel"`
	Duration float64     `json:"duration"`
	Formats  []rawFormat `json:"formats"`
}

type rawFormat struct {
	FormatID       string   `json:"format_id"`
	Ext            string   `json:"ext"`
	VCodec         string   `json:"vcodec"`
	ACodec         string   `json:"acodec"`
	Height         *int     `json:"height"`
	FormatNote     string   `json:"format_note"`
	FileSize       *int64   `json:"filesize"`
	FileSizeApprox *float64 `json:"filesize_approx"`
}

func parseMetadata(data []byte) (*entities.Video, error) {
	var raw rawVideo
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode yt-dlp output: %w", err)
	}
	if raw.ID == "" {
		return nil, fmt.Errorf("yt-dlp output has no video id")
	}

	author := raw.Uploader
	if author == "" {
		author = raw.Channel
	}

	video := &entities.Video{
		ID:              raw.ID,
		Title:           raw.Title,
		Author:          author,
		DurationSeconds: int(raw.Duration),
		Encodings:       make([]entities.Encoding, 0, len(raw.Formats)),
	}

	for _, f := range raw.Formats {
		enc, ok := toEncoding(f)
		if !ok {
			continue
		}
		video.Encodings = append(video.Encodings, enc)
	}

	return video, nil
}

// toEncoding maps one yt-dlp format; formats with non-numeric ids cannot be put in a token
func toEncoding(f rawFormat) (entities.Encoding, bool) {
	id, err := strconv.Atoi(f.FormatID)
	if err != nil {
		return entities.Encoding{}, false
	}

	enc := entities.Encoding{
		FormatID:    id,
		Container:   f.Ext,
		Progressive: hasCodec(f.VCodec) && hasCodec(f.ACodec),
	}

	switch {
	case f.Height != nil && *f.Height > 0:
		enc.ResolutionLabel = fmt.Sprintf("%dp", *f.Height)
	default:
		enc.ResolutionLabel = f.FormatNote
	}

	switch {
	case f.FileSize != nil:
		size := *f.FileSize
		enc.DeclaredSize = &size
	case f.FileSizeApprox != nil:
		size := int64(*f.FileSizeApprox)
		enc.DeclaredSize = &size
	}

	return enc, true
}

func hasCodec(codec string) bool {
	return codec != "" && codec != "none"
}
