package mem

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResetTokensSingleUse(t *testing.T) {
	ctx := context.Background()
	s := NewResetTokens()
	require.NoError(t, s.Set(ctx, "tok", "a@b.com", time.Minute))

	email, err := s.Consume(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", email)

	email, err = s.Consume(ctx, "tok")
	require.NoError(t, err)
	assert.Empty(t, email)
}

func TestResetTokensExpire(t *testing.T) {
	ctx := context.Background()
	s := NewResetTokens()
	base := time.Now()
	s.now = func() time.Time { return base }
	require.NoError(t, s.Set(ctx, "tok", "a@b.com", time.Minute))

	s.now = func() time.Time { return base.Add(2 * time.Minute) }
	email, err := s.Consume(ctx, "tok")
	require.NoError(t, err)
	assert.Empty(t, email)
}

func TestMemoryStoreCache(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Now()
	s.now = func() time.Time { return base }

	require.NoError(t, s.SetJSON(ctx, "k", map[string]int{"a": 1}, time.Minute))
	var out map[string]int
	ok, err := s.GetJSON(ctx, "k", &out)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, out["a"])

	s.now = func() time.Time { return base.Add(time.Hour) }
	ok, err = s.GetJSON(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreRateLimit(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Now()
	s.now = func() time.Time { return base }

	for i := 0; i < 3; i++ {
		ok, err := s.Allow(ctx, "ip", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := s.Allow(ctx, "ip", 3, time.Minute)
	assert.False(t, ok)

	ok, _ = s.Allow(ctx, "other", 3, time.Minute)
	assert.True(t, ok)

	s.now = func() time.Time { return base.Add(2 * time.Minute) }
	ok, _ = s.Allow(ctx, "ip", 3, time.Minute)
	assert.True(t, ok)
}
