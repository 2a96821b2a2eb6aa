package mem

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MemoryStore is the in-process Cache and RateLimiter.
type MemoryStore struct {
	mu      sync.Mutex
	values  map[string]cached
	windows map[string]window
	now     func() time.Time
}

type cached struct {
	raw       []byte
	expiresAt time.Time
}

type window struct {
	count   int
	resetAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values:  make(map[string]cached),
		windows: make(map[string]window),
		now:     time.Now,
	}
}

func (s *MemoryStore) GetJSON(_ context.Context, key string, v any) (bool, error) {
	s.mu.Lock()
	c, ok := s.values[key]
	if ok && s.now().After(c.expiresAt) {
		delete(s.values, key)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(c.raw, v)
}

func (s *MemoryStore) SetJSON(_ context.Context, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = cached{raw: raw, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Allow(_ context.Context, key string, limit int, win time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	w := s.windows[key]
	if now.After(w.resetAt) {
		w = window{resetAt: now.Add(win)}
	}
	w.count++
	s.windows[key] = w
	return w.count <= limit, nil
}
