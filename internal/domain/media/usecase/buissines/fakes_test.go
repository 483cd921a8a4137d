package buissines

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/Marinerbyte/Ytmagic/config"
	"github.com/Marinerbyte/Ytmagic/internal/domain/media/entities"
	mediaerrors "github.com/Marinerbyte/Ytmagic/internal/domain/media/errors"
	"github.com/Marinerbyte/Ytmagic/internal/domain/media/repository/session"
	"github.com/Marinerbyte/Ytmagic/internal/infrastructure/metrics"
	"github.com/Marinerbyte/Ytmagic/internal/infrastructure/staging"
)

const mib = 1024 * 1024

func size(n int64) *int64 { return &n }

// sampleVideo is the video from the abc123 scenario: only the 720p encoding fits
func sampleVideo() *entities.Video {
	return &entities.Video{
		ID:    "abc123",
		Title: "Cats & <Dogs>",
		Encodings: []entities.Encoding{
			{FormatID: 22, ResolutionLabel: "720p", DeclaredSize: size(40 * mib), Container: "mp4", Progressive: true},
			{FormatID: 18, ResolutionLabel: "360p", DeclaredSize: size(60 * mib), Container: "mp4", Progressive: true},
			{FormatID: 37, ResolutionLabel: "1080p", DeclaredSize: size(70 * mib), Container: "mp4", Progressive: true},
		},
	}
}

// mockProvider is a hand-written deps.MediaProvider
type mockProvider struct {
	mu sync.Mutex

	FetchFunc    func(ctx context.Context, url string) (*entities.Video, error)
	DownloadFunc func(ctx context.Context, url string, formatID int, dest string) error

	fetchURLs    []string
	downloadURLs []string
}

func (m *mockProvider) FetchMetadata(ctx context.Context, url string) (*entities.Video, error) {
	m.mu.Lock()
	m.fetchURLs = append(m.fetchURLs, url)
	m.mu.Unlock()
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, url)
	}
	return sampleVideo(), nil
}

func (m *mockProvider) Download(ctx context.Context, url string, formatID int, dest string) error {
	m.mu.Lock()
	m.downloadURLs = append(m.downloadURLs, url)
	m.mu.Unlock()
	if m.DownloadFunc != nil {
		return m.DownloadFunc(ctx, url, formatID, dest)
	}
	return os.WriteFile(dest, make([]byte, 1024), 0o644)
}

func (m *mockProvider) fetchCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.fetchURLs)
}

func (m *mockProvider) downloadCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.downloadURLs)
}

type edit struct {
	Ref      entities.MessageRef
	Text     string
	Keyboard [][]entities.Button
}

type sentFile struct {
	ChatID     int64
	Path       string
	Caption    string
	Streamable bool
	Timeout    time.Duration
	Existed    bool
}

// mockMessenger is a hand-written deps.Messenger that records every call
type mockMessenger struct {
	mu     sync.Mutex
	nextID int

	SendFileFunc func(ctx context.Context, chatID int64, path string) error
	EditFunc     func(ctx context.Context, ref entities.MessageRef, text string) error

	texts   []string
	edits   []edit
	deletes []entities.MessageRef
	files   []sentFile
	answers []string
	acks    []string
}

func (m *mockMessenger) SendText(_ context.Context, chatID int64, text string) (entities.MessageRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.texts = append(m.texts, text)
	return entities.MessageRef{ChatID: chatID, MessageID: m.nextID}, nil
}

func (m *mockMessenger) EditText(ctx context.Context, ref entities.MessageRef, text string, keyboard [][]entities.Button) error {
	m.mu.Lock()
	m.edits = append(m.edits, edit{Ref: ref, Text: text, Keyboard: keyboard})
	m.mu.Unlock()
	if m.EditFunc != nil {
		return m.EditFunc(ctx, ref, text)
	}
	return nil
}

func (m *mockMessenger) DeleteMessage(_ context.Context, ref entities.MessageRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, ref)
	return nil
}

func (m *mockMessenger) SendFile(ctx context.Context, chatID int64, path, caption string, streamable bool, timeout time.Duration) error {
	_, statErr := os.Stat(path)
	m.mu.Lock()
	m.files = append(m.files, sentFile{
		ChatID:     chatID,
		Path:       path,
		Caption:    caption,
		Streamable: streamable,
		Timeout:    timeout,
		Existed:    statErr == nil,
	})
	m.mu.Unlock()
	if m.SendFileFunc != nil {
		return m.SendFileFunc(ctx, chatID, path)
	}
	return nil
}

func (m *mockMessenger) AnswerSelection(_ context.Context, queryID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answers = append(m.answers, queryID)
	m.acks = append(m.acks, text)
	return nil
}

func (m *mockMessenger) lastEdit(t *testing.T) edit {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.edits)
	return m.edits[len(m.edits)-1]
}

func (m *mockMessenger) editTexts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.edits))
	for i, e := range m.edits {
		out[i] = e.Text
	}
	return out
}

// mockHistory is a hand-written deps.DeliveryRepository
type mockHistory struct {
	mu       sync.Mutex
	saved    []entities.DeliveryAttempt
	ListFunc func(ctx context.Context, chatID int64, limit int) ([]entities.DeliveryAttempt, error)
}

func (m *mockHistory) Save(_ context.Context, attempt *entities.DeliveryAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, *attempt)
	return nil
}

func (m *mockHistory) ListByChat(ctx context.Context, chatID int64, limit int) ([]entities.DeliveryAttempt, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, chatID, limit)
	}
	return nil, mediaerrors.ErrHistoryDisabled
}

// mockEvents is a hand-written deps.DeliveryEventProducer
type mockEvents struct {
	mu   sync.Mutex
	sent []entities.DeliveryAttempt
}

func (m *mockEvents) SendDeliveryFinished(_ context.Context, attempt *entities.DeliveryAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, *attempt)
	return nil
}

func (m *mockEvents) Close() error { return nil }

func testMediaConfig(t *testing.T) *config.MediaConfig {
	t.Helper()
	return &config.MediaConfig{
		MaxFileSize:       50 * mib,
		DownloadPath:      filepath.Join(t.TempDir(), "staging"),
		MaxConcurrent:     2,
		ProviderRetries:   0,
		ProviderRetryWait: 0,
	}
}

func testTelegramConfig() *config.TelegramConfig {
	return &config.TelegramConfig{
		RequestTimeout: 30 * time.Second,
		UploadTimeout:  5 * time.Minute,
	}
}

type testEnv struct {
	cfg       *config.MediaConfig
	provider  *mockProvider
	messenger *mockMessenger
	sessions  *session.Memory
	history   *mockHistory
	events    *mockEvents
	area      *staging.Area
	resolver  *Resolver
	executor  *Executor
	uc        *UseCase
}

func newTestEnv(t *testing.T, cfg *config.MediaConfig) *testEnv {
	t.Helper()
	if cfg == nil {
		cfg = testMediaConfig(t)
	}

	logger := zerolog.Nop()
	area, err := staging.NewArea(cfg, logger)
	require.NoError(t, err)

	env := &testEnv{
		cfg:       cfg,
		provider:  &mockProvider{},
		messenger: &mockMessenger{},
		sessions:  session.NewMemory(0, logger),
		history:   &mockHistory{},
		events:    &mockEvents{},
		area:      area,
	}

	env.resolver = NewResolver(env.provider, cfg, logger)
	env.executor = NewExecutor(env.resolver, env.provider, env.messenger, area, cfg, testTelegramConfig(),
		metrics.GetDefaultMetrics(), logger)
	env.uc = NewUseCase(UseCaseParams{
		Resolver:  env.resolver,
		Executor:  env.executor,
		Sessions:  env.sessions,
		Messenger: env.messenger,
		History:   env.history,
		Events:    env.events,
		Metrics:   metrics.GetDefaultMetrics(),
		Media:     cfg,
		Logger:    logger,
	})

	return env
}

// stagedEntries lists what is left in the staging root
func (e *testEnv) stagedEntries(t *testing.T) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(e.area.Root())
	require.NoError(t, err)
	return entries
}
