package buissines

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Marinerbyte/Ytmagic/internal/domain/media/entities"
	mediaerrors "github.com/Marinerbyte/Ytmagic/internal/domain/media/errors"
	pkgerrors "github.com/Marinerbyte/Ytmagic/pkg/errors"
)

func TestEligible_FiltersAndOrders(t *testing.T) {
	encodings := []entities.Encoding{
		{FormatID: 18, ResolutionLabel: "360p", DeclaredSize: size(10 * mib), Container: "mp4", Progressive: true},
		{FormatID: 137, ResolutionLabel: "1080p", DeclaredSize: size(20 * mib), Container: "mp4", Progressive: false},
		{FormatID: 43, ResolutionLabel: "360p", DeclaredSize: size(5 * mib), Container: "webm", Progressive: true},
		{FormatID: 22, ResolutionLabel: "720p", DeclaredSize: size(40 * mib), Container: "mp4", Progressive: true},
		{FormatID: 59, ResolutionLabel: "480p", DeclaredSize: nil, Container: "mp4", Progressive: true},
		{FormatID: 38, ResolutionLabel: "1440p", DeclaredSize: size(51 * mib), Container: "mp4", Progressive: true},
		{FormatID: 91, ResolutionLabel: "360p", DeclaredSize: size(50 * mib), Container: "mp4", Progressive: true},
	}

	got := Eligible(encodings, 50*mib)

	ids := make([]int, len(got))
	for i, enc := range got {
		ids[i] = enc.FormatID
	}
	// 360p tie keeps provider order; exactly-at-ceiling is allowed
	assert.Equal(t, []int{22, 18, 91}, ids)

	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Height(), got[i].Height())
	}
	for _, enc := range got {
		assert.True(t, enc.Progressive)
		assert.Equal(t, "mp4", enc.Container)
		require.NotNil(t, enc.DeclaredSize)
		assert.LessOrEqual(t, *enc.DeclaredSize, int64(50*mib))
	}
}

func TestEligible_Empty(t *testing.T) {
	assert.Empty(t, Eligible(nil, 50*mib))
}

func TestResolver_Validate(t *testing.T) {
	env := newTestEnv(t, nil)

	valid := map[string]string{
		"https://youtu.be/abc123":                     "https://youtu.be/abc123",
		"  https://www.youtube.com/watch?v=abc123 \n": "https://www.youtube.com/watch?v=abc123",
		"http://m.youtube.com/watch?v=abc123":         "http://m.youtube.com/watch?v=abc123",
		"youtu.be/abc123":                             "https://youtu.be/abc123",
		"https://music.youtube.com/watch?v=abc123":    "https://music.youtube.com/watch?v=abc123",
		"https://WWW.YouTube.com/shorts/abc123":       "https://WWW.YouTube.com/shorts/abc123",
	}
	for in, want := range valid {
		got, err := env.resolver.Validate(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	invalid := []string{
		"",
		"hello there",
		"https://vimeo.com/123",
		"https://youtube.com.evil.example/watch?v=abc123",
		"ftp://youtube.com/watch?v=abc123",
		"javascript:alert(1)",
		"https://notyoutu.be/abc123",
	}
	for _, in := range invalid {
		_, err := env.resolver.Validate(in)
		var resErr *mediaerrors.ResolutionError
		require.ErrorAs(t, err, &resErr, in)
		assert.Equal(t, mediaerrors.ReasonInvalidURL, resErr.Reason)
		assert.Equal(t, pkgerrors.KindInvalidInput, pkgerrors.KindOf(err))
	}

	assert.Zero(t, env.provider.fetchCalls())
}

func TestResolver_Resolve_Scenario(t *testing.T) {
	env := newTestEnv(t, nil)

	res, err := env.resolver.Resolve(context.Background(), "https://youtu.be/abc123")
	require.NoError(t, err)

	require.Len(t, res.Candidates, 1)
	assert.Equal(t, 22, res.Candidates[0].FormatID)
	assert.Equal(t, "720p (40.0 MB)", res.Candidates[0].Label())
	assert.Equal(t, "abc123", res.Video.ID)
	assert.Equal(t, "https://youtu.be/abc123", res.URL)
}

func TestResolver_Resolve_NoEligible(t *testing.T) {
	env := newTestEnv(t, nil)
	env.provider.FetchFunc = func(context.Context, string) (*entities.Video, error) {
		return &entities.Video{ID: "abc123", Encodings: []entities.Encoding{
			{FormatID: 22, ResolutionLabel: "720p", Container: "mp4", Progressive: true},
			{FormatID: 18, ResolutionLabel: "360p", Container: "mp4", Progressive: true},
		}}, nil
	}

	_, err := env.resolver.Resolve(context.Background(), "https://youtu.be/abc123")

	var resErr *mediaerrors.ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, mediaerrors.ReasonNoEligibleEncoding, resErr.Reason)
	assert.Equal(t, pkgerrors.KindNoEligibleContent, pkgerrors.KindOf(err))
}

func TestResolver_Resolve_Restricted_NotRetried(t *testing.T) {
	cfg := testMediaConfig(t)
	cfg.ProviderRetries = 3
	env := newTestEnv(t, cfg)
	env.provider.FetchFunc = func(context.Context, string) (*entities.Video, error) {
		return nil, fmt.Errorf("fetch: %w", mediaerrors.ErrRestricted)
	}

	_, err := env.resolver.Resolve(context.Background(), "https://youtu.be/abc123")

	var resErr *mediaerrors.ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, mediaerrors.ReasonRestricted, resErr.Reason)
	assert.Equal(t, 1, env.provider.fetchCalls())
}

func TestResolver_Resolve_Unreachable_Retried(t *testing.T) {
	cfg := testMediaConfig(t)
	cfg.ProviderRetries = 2
	cfg.ProviderRetryWait = time.Millisecond
	env := newTestEnv(t, cfg)
	env.provider.FetchFunc = func(context.Context, string) (*entities.Video, error) {
		return nil, fmt.Errorf("fetch: %w", mediaerrors.ErrProviderUnavailable)
	}

	_, err := env.resolver.Resolve(context.Background(), "https://youtu.be/abc123")

	var resErr *mediaerrors.ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, mediaerrors.ReasonProviderUnreachable, resErr.Reason)
	assert.Equal(t, pkgerrors.KindProviderUnavailable, pkgerrors.KindOf(err))
	assert.Equal(t, 3, env.provider.fetchCalls())
}

func TestResolver_Resolve_RecoversOnRetry(t *testing.T) {
	cfg := testMediaConfig(t)
	cfg.ProviderRetries = 1
	cfg.ProviderRetryWait = time.Millisecond
	env := newTestEnv(t, cfg)

	calls := 0
	env.provider.FetchFunc = func(context.Context, string) (*entities.Video, error) {
		calls++
		if calls == 1 {
			return nil, mediaerrors.ErrProviderUnavailable
		}
		return sampleVideo(), nil
	}

	res, err := env.resolver.Resolve(context.Background(), "https://youtu.be/abc123")
	require.NoError(t, err)
	assert.Len(t, res.Candidates, 1)
}

func TestResolver_Resolve_ContextCancelledDuringBackoff(t *testing.T) {
	cfg := testMediaConfig(t)
	cfg.ProviderRetries = 1
	cfg.ProviderRetryWait = time.Hour
	env := newTestEnv(t, cfg)
	env.provider.FetchFunc = func(context.Context, string) (*entities.Video, error) {
		return nil, mediaerrors.ErrProviderUnavailable
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := env.resolver.Resolve(ctx, "https://youtu.be/abc123")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, 1, env.provider.fetchCalls())
}

func TestResolver_Lookup(t *testing.T) {
	env := newTestEnv(t, nil)

	video, enc, err := env.resolver.Lookup(context.Background(), "abc123", 22)
	require.NoError(t, err)
	assert.Equal(t, "abc123", video.ID)
	assert.Equal(t, 22, enc.FormatID)
	assert.Equal(t, []string{"https://www.youtube.com/watch?v=abc123"}, env.provider.fetchURLs)

	// 18 exists but is over the ceiling, 99 does not exist
	for _, formatID := range []int{18, 99} {
		_, _, err := env.resolver.Lookup(context.Background(), "abc123", formatID)
		assert.ErrorIs(t, err, mediaerrors.ErrFormatGone)
	}
}

func TestCanonicalURL(t *testing.T) {
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", CanonicalURL("dQw4w9WgXcQ"))
}
