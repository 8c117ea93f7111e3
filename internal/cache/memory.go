package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is an in-process Store used when Redis is not configured.
// Values are kept JSON-encoded so callers get the same copy semantics as Redis.
type MemoryStore struct {
	mu      sync.RWMutex
	entries  map[string]memoryEntry
	counters map[string]int64
	now      func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:  make(map[string]memoryEntry),
		counters: make(map[string]int64),
		now:      time.Now,
	}
}

func (s *MemoryStore) GetJSON(_ context.Context, key string, dest any) (bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return false, nil
	}
	if err := json.Unmarshal(entry.value, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON stores value; a non-positive ttl never expires.
func (s *MemoryStore) SetJSON(_ context.Context, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	entry := memoryEntry{value: b}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) DeletePrefix(_ context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
		}
	}
	return nil
}

func (s *MemoryStore) Counter(_ context.Context, key string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counters[key], nil
}

func (s *MemoryStore) Incr(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[key]++
	return s.counters[key], nil
}

// Len reports the number of stored entries, expired ones included. Counters
// are not counted.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
