package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(start time.Time) (*MemoryStore, *time.Time) {
	now := start
	s := NewMemoryStore()
	s.now = func() time.Time { return now }
	return s, &now
}

func TestMemoryStoreAdmitWithinLimit(t *testing.T) {
	s, _ := newTestStore(time.Unix(1_700_000_000, 0))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		res, err := s.Admit(ctx, "rl:test:1.2.3.4", 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d should be admitted", i+1)
		assert.Equal(t, 5-i-1, res.Remaining)
	}

	res, err := s.Admit(ctx, "rl:test:1.2.3.4", 5, time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
}

func TestMemoryStoreRejectionKeepsResetAt(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	s, now := newTestStore(start)
	ctx := context.Background()

	first, err := s.Admit(ctx, "k", 1, time.Minute)
	require.NoError(t, err)
	require.True(t, first.Allowed)

	*now = start.Add(30 * time.Second)
	res, err := s.Admit(ctx, "k", 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, first.ResetAt, res.ResetAt, "rejection must not extend the window")
}

func TestMemoryStoreWindowReset(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	s, now := newTestStore(start)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.Admit(ctx, "k", 3, time.Minute)
		require.NoError(t, err)
	}
	res, err := s.Admit(ctx, "k", 3, time.Minute)
	require.NoError(t, err)
	require.False(t, res.Allowed)

	*now = start.Add(time.Minute)
	res, err = s.Admit(ctx, "k", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed, "a fresh window starts once resetAt passes")
	assert.Equal(t, 2, res.Remaining)
	assert.Equal(t, start.Add(2*time.Minute), res.ResetAt)
}

func TestMemoryStoreKeysAreIndependent(t *testing.T) {
	s, _ := newTestStore(time.Unix(1_700_000_000, 0))
	ctx := context.Background()

	_, err := s.Admit(ctx, "rl:a:ip", 1, time.Minute)
	require.NoError(t, err)
	res, err := s.Admit(ctx, "rl:a:ip", 1, time.Minute)
	require.NoError(t, err)
	require.False(t, res.Allowed)

	res, err = s.Admit(ctx, "rl:b:ip", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed, "another route's budget is untouched")
}

func TestMemoryStoreSweepDropsExpired(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	s, now := newTestStore(start)

	s.entries["old"] = &windowRecord{count: 3, resetAt: start.Add(-time.Second)}
	s.entries["live"] = &windowRecord{count: 1, resetAt: start.Add(time.Minute)}

	*now = start
	s.mu.Lock()
	s.sweep(*now)
	s.mu.Unlock()

	assert.NotContains(t, s.entries, "old")
	assert.Contains(t, s.entries, "live")
}
