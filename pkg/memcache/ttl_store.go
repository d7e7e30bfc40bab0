// pkg/memcache/ttl_store.go
package mem

import (
	"sync"
	"time"
)

// TTLStore is an in-process key/value store with per-key expiry. It backs the
// session repository when no Redis address is configured.
type TTLStore interface {
	Set(key string, value []byte, ttl time.Duration)

	// Get returns the value for key if present and not expired.
	Get(key string) ([]byte, bool)

	Delete(keys ...string)

	// Sweep drops expired entries and reports how many were removed.
	Sweep() int
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

type Store struct {
	mu   sync.RWMutex
	data map[string]entry
	now  func() time.Time
}

func NewStore() *Store {
	return &Store{
		data: make(map[string]entry),
		now:  time.Now,
	}
}

func (s *Store) Set(key string, value []byte, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	s.data[key] = entry{
		value:     v,
		expiresAt: s.now().Add(ttl),
	}
}

func (s *Store) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	e, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if s.now().After(e.expiresAt) {
		s.mu.Lock()
		// re-check, a concurrent Set may have refreshed it
		if cur, ok := s.data[key]; ok && s.now().After(cur.expiresAt) {
			delete(s.data, key)
		}
		s.mu.Unlock()
		return nil, false
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, true
}

func (s *Store) Delete(keys ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.data, k)
	}
}

func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for k, e := range s.data {
		if now.After(e.expiresAt) {
			delete(s.data, k)
			n++
		}
	}
	return n
}
