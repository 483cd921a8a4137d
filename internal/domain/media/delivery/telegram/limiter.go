package telegram

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// idle limiters are dropped once the map grows past this size
const limiterPruneThreshold = 1024

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// chatLimiter limits how many links one chat may submit per minute
type chatLimiter struct {
	mu       sync.Mutex
	perMin   int
	limiters map[int64]*limiterEntry
	now      func() time.Time
}

// newChatLimiter returns nil when perMinute <= 0, which allows everything
func newChatLimiter(perMinute int) *chatLimiter {
	if perMinute <= 0 {
		return nil
	}
	return &chatLimiter{
		perMin:   perMinute,
		limiters: make(map[int64]*limiterEntry),
		now:      time.Now,
	}
}

// Allow reports whether chatID may submit another link now
func (l *chatLimiter) Allow(chatID int64) bool {
	if l == nil {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, ok := l.limiters[chatID]
	if !ok {
		if len(l.limiters) >= limiterPruneThreshold {
			l.prune(now)
		}
		entry = &limiterEntry{
			limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMin)), l.perMin),
		}
		l.limiters[chatID] = entry
	}
	entry.lastSeen = now

	return entry.limiter.AllowN(now, 1)
}

// prune drops limiters idle long enough to have refilled completely
func (l *chatLimiter) prune(now time.Time) {
	for id, entry := range l.limiters {
		if now.Sub(entry.lastSeen) > time.Minute {
			delete(l.limiters, id)
		}
	}
}
