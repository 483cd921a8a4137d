package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Marinerbyte/Ytmagic/internal/domain/media/entities"
	pkgerrors "github.com/Marinerbyte/Ytmagic/pkg/errors"
)

// fakeRedis implements the two commands the store uses
type fakeRedis struct {
	redis.Cmdable
	data    map[string]string
	ttls    map[string]time.Duration
	failErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.failErr != nil {
		return redis.NewStatusResult("", f.failErr)
	}
	f.data[key] = value.(string)
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) GetDel(_ context.Context, key string) *redis.StringCmd {
	if f.failErr != nil {
		return redis.NewStringResult("", f.failErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	delete(f.data, key)
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Ping(context.Context) *redis.StatusCmd {
	if f.failErr != nil {
		return redis.NewStatusResult("", f.failErr)
	}
	return redis.NewStatusResult("PONG", nil)
}

func TestRedis_PutTake(t *testing.T) {
	client := newFakeRedis()
	store := NewRedis(client, time.Hour, zerolog.Nop())
	ctx := context.Background()
	key := entities.SessionKey{ChatID: 42, VideoID: "abc123"}

	require.NoError(t, store.Put(ctx, key, "https://youtu.be/abc123"))
	assert.Equal(t, time.Hour, client.ttls["ytmagic:session:42:abc123"])

	url, err := store.Take(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "https://youtu.be/abc123", url)

	_, err = store.Take(ctx, key)
	assert.True(t, pkgerrors.Is(err, pkgerrors.KindSessionExpired))
}

func TestRedis_Overwrite(t *testing.T) {
	store := NewRedis(newFakeRedis(), 0, zerolog.Nop())
	ctx := context.Background()
	key := entities.SessionKey{ChatID: 42, VideoID: "abc123"}

	require.NoError(t, store.Put(ctx, key, "first"))
	require.NoError(t, store.Put(ctx, key, "second"))

	url, err := store.Take(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "second", url)
}

func TestRedis_BackendError(t *testing.T) {
	client := newFakeRedis()
	client.failErr = errors.New("connection refused")
	store := NewRedis(client, time.Hour, zerolog.Nop())
	key := entities.SessionKey{ChatID: 1, VideoID: "v"}

	assert.Error(t, store.Put(context.Background(), key, "url"))

	_, err := store.Take(context.Background(), key)
	require.Error(t, err)
	assert.False(t, pkgerrors.Is(err, pkgerrors.KindSessionExpired))
}

func TestRedis_HealthCheck(t *testing.T) {
	client := newFakeRedis()
	store := NewRedis(client, 0, zerolog.Nop())

	assert.Equal(t, "redis", store.Name())
	assert.NoError(t, store.HealthCheck(context.Background()))

	client.failErr = errors.New("connection refused")
	assert.Error(t, store.HealthCheck(context.Background()))
}
