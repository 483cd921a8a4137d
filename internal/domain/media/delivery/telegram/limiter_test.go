package telegram

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestChatLimiter_Disabled(t *testing.T) {
	l := newChatLimiter(0)
	assert.Nil(t, l)
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow(1))
	}
}

func TestChatLimiter_PerChat(t *testing.T) {
	l := newChatLimiter(2)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow(1))
	assert.True(t, l.Allow(1))
	assert.False(t, l.Allow(1))

	// another chat has its own budget
	assert.True(t, l.Allow(2))

	// two per minute refills one token every 30s
	now = now.Add(30 * time.Second)
	assert.True(t, l.Allow(1))
	assert.False(t, l.Allow(1))
}

func TestChatLimiter_Prune(t *testing.T) {
	l := newChatLimiter(1)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	for i := 0; i < limiterPruneThreshold; i++ {
		l.Allow(int64(i))
	}
	now = now.Add(2 * time.Minute)
	l.Allow(-1)

	assert.Len(t, l.limiters, 1)
}
