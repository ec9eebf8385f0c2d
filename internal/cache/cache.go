package cache

import (
	"strings"
	"sync"
	"time"
)

type entry struct {
	storedAt time.Time
	payload  any
}

// Store is a TTL keyed cache. TTL is the only eviction trigger; reading an
// expired entry behaves as a miss and drops it.
type Store struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry
	now     func() time.Time
}

// New creates a Store with the given time-to-live.
func New(ttl time.Duration) *Store {
	return &Store{
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Key builds a composite cache key; any change to query parameters must
// change the key.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// Get returns the cached payload for key, or misses if absent or expired.
func (s *Store) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if s.now().Sub(e.storedAt) > s.ttl {
		delete(s.entries, key)
		return nil, false
	}
	return e.payload, true
}

// Set stores value under key, stamping it with the current time. Concurrent
// writers for the same key race benignly; last writer wins.
func (s *Store) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{storedAt: s.now(), payload: value}
}

// Sweep drops all expired entries and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	now := s.now()
	for k, e := range s.entries {
		if now.Sub(e.storedAt) > s.ttl {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}

// Len reports the number of live entries, expired or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
