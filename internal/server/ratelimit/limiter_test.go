package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/silentvoice/internal/common"
	"github.com/dmitrijs2005/silentvoice/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCounter mimics INCR plus EXPIRE NX: a key expires one window after
// the hit that created it.
type fakeCounter struct {
	hits    map[string]int64
	expires map[string]time.Time
	keys    []string
	window  time.Duration
	now     time.Time
	err     error
}

func (f *fakeCounter) incr(_ context.Context, key string, window time.Duration) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	if f.hits == nil {
		f.hits = map[string]int64{}
		f.expires = map[string]time.Time{}
	}
	if exp, ok := f.expires[key]; ok && !f.now.Before(exp) {
		delete(f.hits, key)
		delete(f.expires, key)
	}
	f.hits[key]++
	if _, ok := f.expires[key]; !ok {
		f.expires[key] = f.now.Add(window)
	}
	f.keys = append(f.keys, key)
	f.window = window
	return f.hits[key], nil
}

func newTestLimiter(f *fakeCounter, limit int) *RedisLimiter {
	return &RedisLimiter{prefix: "otp:send", limit: int64(limit), window: 10 * time.Minute, incr: f.incr}
}

func TestRedisLimiter_FixedWindow(t *testing.T) {
	f := &fakeCounter{}
	l := newTestLimiter(f, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, "abc")
		require.NoError(t, err)
		assert.True(t, ok, "hit %d", i+1)
	}
	ok, err := l.Allow(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = l.Allow(ctx, "other")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, "otp:send:abc", f.keys[0])
	assert.Equal(t, 10*time.Minute, f.window)
}

func TestRedisLimiter_DeniedHitsDoNotExtendWindow(t *testing.T) {
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	f := &fakeCounter{now: start}
	l := newTestLimiter(f, 5)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		ok, err := l.Allow(ctx, "abc")
		require.NoError(t, err)
		require.True(t, ok)
	}

	f.now = start.Add(9 * time.Minute)
	ok, err := l.Allow(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok)

	f.now = start.Add(10 * time.Minute)
	ok, err = l.Allow(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, ok, "a new window starts ten minutes after the first hit")
}

func TestRedisLimiter_CounterError(t *testing.T) {
	l := newTestLimiter(&fakeCounter{err: errors.New("conn reset")}, 3)
	ok, err := l.Allow(context.Background(), "abc")
	assert.False(t, ok)
	assert.ErrorContains(t, err, "conn reset")
}

func TestCheck(t *testing.T) {
	ctx := context.Background()
	log := logging.Discard()

	assert.NoError(t, Check(ctx, Noop{}, "k", log))

	l := newTestLimiter(&fakeCounter{}, 1)
	assert.NoError(t, Check(ctx, l, "k", log))
	assert.ErrorIs(t, Check(ctx, l, "k", log), common.ErrRateLimited)

	failing := newTestLimiter(&fakeCounter{err: errors.New("down")}, 1)
	assert.NoError(t, Check(ctx, failing, "k", log))
}

func TestConnect_BadURL(t *testing.T) {
	_, err := Connect(context.Background(), "http://not-redis")
	assert.ErrorContains(t, err, "parse redis url")
}
