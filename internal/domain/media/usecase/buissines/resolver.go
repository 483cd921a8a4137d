// Package buissines contains business logic for the media domain
package buissines

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Marinerbyte/Ytmagic/config"
	"github.com/Marinerbyte/Ytmagic/internal/domain/media/deps"
	"github.com/Marinerbyte/Ytmagic/internal/domain/media/entities"
	mediaerrors "github.com/Marinerbyte/Ytmagic/internal/domain/media/errors"
)

// allowedHosts are the hosts a submitted link may point at
var allowedHosts = map[string]struct{}{
	"youtube.com":              {},
	"www.youtube.com":          {},
	"m.youtube.com":            {},
	"music.youtube.com":        {},
	"youtu.be":                 {},
	"www.youtu.be":             {},
	"youtube-nocookie.com":     {},
	"www.youtube-nocookie.com": {},
}

// CanonicalURL returns the watch URL for a video id
func CanonicalURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(videoID)
}

// Resolver turns a submitted link into a ranked list of deliverable encodings
type Resolver struct {
	provider  deps.MediaProvider
	maxSize   int64
	retries   int
	retryWait time.Duration
	logger    zerolog.Logger
}

// NewResolver creates a new Resolver
func NewResolver(provider deps.MediaProvider, cfg *config.MediaConfig, logger zerolog.Logger) *Resolver {
	return &Resolver{
		provider:  provider,
		maxSize:   cfg.MaxFileSize,
		retries:   cfg.ProviderRetries,
		retryWait: cfg.ProviderRetryWait,
		logger:    logger.With().Str("component", "resolver").Logger(),
	}
}

// Validate checks that raw looks like a video link on an allowed host.
// It never touches the network.
func (r *Resolver) Validate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.ContainsAny(raw, " \t\n") {
		return "", &mediaerrors.ResolutionError{Reason: mediaerrors.ReasonInvalidURL}
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", &mediaerrors.ResolutionError{Reason: mediaerrors.ReasonInvalidURL, Err: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", &mediaerrors.ResolutionError{
			Reason: mediaerrors.ReasonInvalidURL,
			Err:    fmt.Errorf("unsupported scheme %q", u.Scheme),
		}
	}
	if _, ok := allowedHosts[strings.ToLower(u.Hostname())]; !ok {
		return "", &mediaerrors.ResolutionError{
			Reason: mediaerrors.ReasonInvalidURL,
			Err:    fmt.Errorf("host %q is not allowed", u.Hostname()),
		}
	}

	return u.String(), nil
}

// Resolve validates raw, fetches its metadata and returns the eligible encodings,
// best first. It never writes sessions.
func (r *Resolver) Resolve(ctx context.Context, raw string) (*entities.Resolution, error) {
	link, err := r.Validate(raw)
	if err != nil {
		return nil, err
	}

	video, err := r.fetch(ctx, link)
	if err != nil {
		return nil, toResolutionError(err)
	}

	candidates := Eligible(video.Encodings, r.maxSize)
	if len(candidates) == 0 {
		r.logger.Info().
			Str("video_id", video.ID).
			Int("encodings", len(video.Encodings)).
			Msg("No encoding fits the size ceiling")
		return nil, &mediaerrors.ResolutionError{Reason: mediaerrors.ReasonNoEligibleEncoding}
	}

	return &entities.Resolution{
		URL:        link,
		Video:      video,
		Candidates: candidates,
	}, nil
}

// Lookup refetches a video by id and returns the eligible encoding with formatID.
// Returns ErrFormatGone when that encoding is no longer offered or no longer fits.
func (r *Resolver) Lookup(ctx context.Context, videoID string, formatID int) (*entities.Video, *entities.Encoding, error) {
	video, err := r.fetch(ctx, CanonicalURL(videoID))
	if err != nil {
		return nil, nil, err
	}

	for _, enc := range Eligible(video.Encodings, r.maxSize) {
		if enc.FormatID == formatID {
			enc := enc
			return video, &enc, nil
		}
	}

	return video, nil, fmt.Errorf("video %s format %d: %w", videoID, formatID, mediaerrors.ErrFormatGone)
}

// Eligible keeps progressive mp4 encodings with a declared size within maxSize,
// ordered by resolution descending. Ties keep provider order.
func Eligible(encodings []entities.Encoding, maxSize int64) []entities.Encoding {
	out := make([]entities.Encoding, 0, len(encodings))
	for _, enc := range encodings {
		if !enc.Progressive || enc.Container != "mp4" {
			continue
		}
		if enc.DeclaredSize == nil || *enc.DeclaredSize > maxSize {
			continue
		}
		out = append(out, enc)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Height() > out[j].Height()
	})

	return out
}

// fetch calls the provider, retrying only when it could not be reached
func (r *Resolver) fetch(ctx context.Context, link string) (*entities.Video, error) {
	var lastErr error

	for attempt := 0; attempt <= r.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(r.retryWait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			r.logger.Warn().Str("url", link).Int("attempt", attempt+1).Msg("Retrying metadata fetch")
		}

		video, err := r.provider.FetchMetadata(ctx, link)
		if err == nil {
			return video, nil
		}
		lastErr = err

		if ctx.Err() != nil || !errors.Is(err, mediaerrors.ErrProviderUnavailable) {
			break
		}
	}

	return nil, lastErr
}

func toResolutionError(err error) error {
	if errors.Is(err, mediaerrors.ErrRestricted) {
		return &mediaerrors.ResolutionError{Reason: mediaerrors.ReasonRestricted, Err: err}
	}
	return &mediaerrors.ResolutionError{Reason: mediaerrors.ReasonProviderUnreachable, Err: err}
}
