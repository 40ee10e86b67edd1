// Package cache keeps embedding vectors so repeated texts skip the provider.
//
// A Store holds raw bytes under string keys. MemoryStore serves a single process;
// RedisStore shares vectors between processes.
package cache

import (
	"context"
	"sync"
	"time"
)

// Store is a byte cache with per-entry TTL
type Store interface {
	// GetMany returns one value per key, nil for a miss
	GetMany(ctx context.Context, keys []string) ([][]byte, error)

	// SetMany stores every entry with the same TTL. ttl <= 0 stores nothing.
	SetMany(ctx context.Context, entries map[string][]byte, ttl time.Duration) error
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is an in-process Store. Expired entries are dropped when read.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]memoryEntry
	now   func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]memoryEntry), now: time.Now}
}

// GetMany implements Store
func (s *MemoryStore) GetMany(ctx context.Context, keys []string) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := s.now()
	values := make([][]byte, len(keys))
	var expired []string

	s.mu.RLock()
	for i, key := range keys {
		entry, ok := s.items[key]
		if !ok {
			continue
		}
		if now.After(entry.expiresAt) {
			expired = append(expired, key)
			continue
		}
		values[i] = entry.value
	}
	s.mu.RUnlock()

	if len(expired) > 0 {
		s.mu.Lock()
		for _, key := range expired {
			if e, ok := s.items[key]; ok && now.After(e.expiresAt) {
				delete(s.items, key)
			}
		}
		s.mu.Unlock()
	}
	return values, nil
}

// SetMany implements Store
func (s *MemoryStore) SetMany(ctx context.Context, entries map[string][]byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ttl <= 0 {
		return nil
	}

	expiresAt := s.now().Add(ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, value := range entries {
		// copy to decouple from the caller's buffer
		s.items[key] = memoryEntry{value: append([]byte(nil), value...), expiresAt: expiresAt}
	}
	return nil
}

// Len returns the number of entries, expired ones included
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
