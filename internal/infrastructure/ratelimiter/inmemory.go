package ratelimiter

import (
	"sync"
	"time"
)

type inMemoryEntry struct {
	value     int
	expiresAt time.Time
}

type InMemory struct {
	entries   map[string]inMemoryEntry
	mu        sync.RWMutex
	stopClean chan struct{}
	cleanOnce sync.Once
}

func NewInMemory() Store {
	im := &InMemory{
		entries:   make(map[string]inMemoryEntry),
		stopClean: make(chan struct{}),
	}

	go im.cleanupExpired()

	return im
}

func (im *InMemory) Get(key string) (int, error) {
	im.mu.RLock()
	defer im.mu.RUnlock()

	entry, ok := im.entries[key]
	if !ok {
		return 0, ErrStoreMiss
	}

	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		return 0, ErrStoreMiss
	}

	return entry.value, nil
}

func (im *InMemory) Set(key string, value int) error {
	return im.SetWithExpiration(key, value, 0)
}

func (im *InMemory) SetWithExpiration(key string, value int, expiration time.Duration) error {
	var expiresAt time.Time
	if expiration > 0 {
		expiresAt = time.Now().Add(expiration)
	}

	im.mu.Lock()
	im.entries[key] = inMemoryEntry{value: value, expiresAt: expiresAt}
	im.mu.Unlock()

	return nil
}

func (im *InMemory) cleanupExpired() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			im.removeExpired()
		case <-im.stopClean:
			return
		}
	}
}

func (im *InMemory) removeExpired() {
	now := time.Now()

	im.mu.Lock()
	defer im.mu.Unlock()

	for key, entry := range im.entries {
		if !entry.expiresAt.IsZero() && now.After(entry.expiresAt) {
			delete(im.entries, key)
		}
	}
}

func (im *InMemory) Close() error {
	im.cleanOnce.Do(func() {
		close(im.stopClean)
	})
	return nil
}
