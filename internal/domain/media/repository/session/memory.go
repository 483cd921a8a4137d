// Package session contains SessionStore implementations
package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Marinerbyte/Ytmagic/internal/domain/media/deps"
	"github.com/Marinerbyte/Ytmagic/internal/domain/media/entities"
	mediaerrors "github.com/Marinerbyte/Ytmagic/internal/domain/media/errors"
)

type memoryEntry struct {
	url       string
	expiresAt time.Time // zero means no expiry
}

// Memory is a process-local SessionStore with optional per-entry expiry
type Memory struct {
	data   map[entities.SessionKey]memoryEntry
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	logger zerolog.Logger
	done   chan struct{}
	once   sync.Once
}

var _ deps.SessionStore = (*Memory)(nil)

// NewMemory creates an in-memory store; ttl <= 0 disables expiry
func NewMemory(ttl time.Duration, logger zerolog.Logger) *Memory {
	return &Memory{
		data:   make(map[entities.SessionKey]memoryEntry),
		ttl:    ttl,
		now:    time.Now,
		logger: logger.With().Str("component", "memory_session_store").Logger(),
		done:   make(chan struct{}),
	}
}

// Put stores url under key, last write wins
func (m *Memory) Put(_ context.Context, key entities.SessionKey, url string) error {
	entry := memoryEntry{url: url}
	if m.ttl > 0 {
		entry.expiresAt = m.now().Add(m.ttl)
	}

	m.mu.Lock()
	m.data[key] = entry
	m.mu.Unlock()

	return nil
}

// Take atomically reads and removes the entry under key
func (m *Memory) Take(_ context.Context, key entities.SessionKey) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.data[key]
	if !ok {
		return "", mediaerrors.NewSessionExpired(key.String())
	}
	delete(m.data, key)

	if m.expired(entry) {
		return "", mediaerrors.NewSessionExpired(key.String())
	}

	return entry.url, nil
}

// Len returns the number of stored entries, expired ones included
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

// Sweep drops expired entries and returns how many were removed
func (m *Memory) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, entry := range m.data {
		if m.expired(entry) {
			delete(m.data, key)
			removed++
		}
	}
	return removed
}

// StartJanitor sweeps expired entries every interval until Stop is called
func (m *Memory) StartJanitor(interval time.Duration) {
	if m.ttl <= 0 || interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-m.done:
				return
			case <-ticker.C:
				if n := m.Sweep(); n > 0 {
					m.logger.Debug().Int("removed", n).Msg("swept expired sessions")
				}
			}
		}
	}()
}

// Stop stops the janitor
func (m *Memory) Stop() {
	m.once.Do(func() { close(m.done) })
}

func (m *Memory) expired(entry memoryEntry) bool {
	return !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt)
}
