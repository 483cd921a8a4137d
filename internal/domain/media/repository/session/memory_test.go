package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Marinerbyte/Ytmagic/internal/domain/media/entities"
	pkgerrors "github.com/Marinerbyte/Ytmagic/pkg/errors"
)

func TestMemory_TakeConsumesOnce(t *testing.T) {
	store := NewMemory(0, zerolog.Nop())
	ctx := context.Background()
	key := entities.SessionKey{ChatID: 1, VideoID: "abc123"}

	require.NoError(t, store.Put(ctx, key, "https://youtu.be/abc123"))

	url, err := store.Take(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "https://youtu.be/abc123", url)

	_, err = store.Take(ctx, key)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.KindSessionExpired, pkgerrors.KindOf(err))
}

func TestMemory_TakeUnknownKey(t *testing.T) {
	store := NewMemory(0, zerolog.Nop())

	_, err := store.Take(context.Background(), entities.SessionKey{ChatID: 7, VideoID: "nope"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.KindSessionExpired))
}

func TestMemory_PutOverwrites(t *testing.T) {
	store := NewMemory(0, zerolog.Nop())
	ctx := context.Background()
	key := entities.SessionKey{ChatID: 1, VideoID: "abc123"}

	require.NoError(t, store.Put(ctx, key, "first"))
	require.NoError(t, store.Put(ctx, key, "second"))

	url, err := store.Take(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "second", url)
}

func TestMemory_KeysPerVideoDoNotCollide(t *testing.T) {
	store := NewMemory(0, zerolog.Nop())
	ctx := context.Background()
	first := entities.SessionKey{ChatID: 1, VideoID: "aaa"}
	second := entities.SessionKey{ChatID: 1, VideoID: "bbb"}

	require.NoError(t, store.Put(ctx, first, "https://youtu.be/aaa"))
	require.NoError(t, store.Put(ctx, second, "https://youtu.be/bbb"))

	url, err := store.Take(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "https://youtu.be/aaa", url)
}

func TestMemory_Expiry(t *testing.T) {
	store := NewMemory(time.Minute, zerolog.Nop())
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()
	key := entities.SessionKey{ChatID: 1, VideoID: "abc123"}

	require.NoError(t, store.Put(ctx, key, "url"))
	now = now.Add(2 * time.Minute)

	_, err := store.Take(ctx, key)
	assert.True(t, pkgerrors.Is(err, pkgerrors.KindSessionExpired))
	assert.Equal(t, 0, store.Len())
}

func TestMemory_Sweep(t *testing.T) {
	store := NewMemory(time.Minute, zerolog.Nop())
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, entities.SessionKey{ChatID: 1, VideoID: "old"}, "url"))
	now = now.Add(30 * time.Second)
	require.NoError(t, store.Put(ctx, entities.SessionKey{ChatID: 1, VideoID: "new"}, "url"))
	now = now.Add(45 * time.Second)

	assert.Equal(t, 1, store.Sweep())
	assert.Equal(t, 1, store.Len())
}

func TestMemory_ConcurrentDifferentKeys(t *testing.T) {
	store := NewMemory(0, zerolog.Nop())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := entities.SessionKey{ChatID: int64(i), VideoID: "v"}
			want := fmt.Sprintf("url-%d", i)
			assert.NoError(t, store.Put(ctx, key, want))
			got, err := store.Take(ctx, key)
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, store.Len())
}

func TestMemory_JanitorStops(t *testing.T) {
	store := NewMemory(time.Millisecond, zerolog.Nop())
	store.StartJanitor(time.Millisecond)
	store.Stop()
	store.Stop()
}
