// pkg/memcache/reset_tokens.go
package mem

import (
	"context"
	"sync"
	"time"
)

type ResetTokenStore interface {
	Set(ctx context.Context, token string, accountEmail string, ttl time.Duration) error

	// Consume returns the email for token if not expired,
	// and removes the token (single-use). Returns "" if missing/expired.
	Consume(ctx context.Context, token string) (string, error)
}

type entry struct {
	email     string
	expiresAt time.Time
}

// ResetTokens is the in-process store, used when Redis is not configured and in tests.
type ResetTokens struct {
	mu   sync.Mutex
	data map[string]entry
	now  func() time.Time
}

func NewResetTokens() *ResetTokens {
	return &ResetTokens{
		data: make(map[string]entry),
		now:  time.Now,
	}
}

func (s *ResetTokens) Set(_ context.Context, token string, accountEmail string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[token] = entry{
		email:     accountEmail,
		expiresAt: s.now().Add(ttl),
	}
	return nil
}

func (s *ResetTokens) Consume(_ context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[token]
	if !ok {
		return "", nil
	}
	delete(s.data, token)
	if s.now().After(e.expiresAt) {
		return "", nil
	}
	return e.email, nil
}
