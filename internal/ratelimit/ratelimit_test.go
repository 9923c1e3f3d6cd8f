package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(perMinute, perHour, perDay int) (*RateLimiter, *time.Time) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(perMinute, perHour, perDay, true)
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestRateLimiter_MinuteWindow(t *testing.T) {
	rl, now := newTestLimiter(2, 0, 0)

	assert.True(t, rl.AllowRequest())
	assert.True(t, rl.AllowRequest())
	assert.False(t, rl.AllowRequest())

	*now = now.Add(61 * time.Second)
	assert.True(t, rl.AllowRequest())
}

func TestRateLimiter_HourAndDayWindows(t *testing.T) {
	rl, now := newTestLimiter(10, 3, 4)

	for i := 0; i < 3; i++ {
		require.True(t, rl.AllowRequest())
		*now = now.Add(2 * time.Minute)
	}
	assert.False(t, rl.AllowRequest(), "hour limit")

	*now = now.Add(time.Hour)
	assert.True(t, rl.AllowRequest())
	assert.False(t, rl.AllowRequest(), "day limit")

	stats := rl.GetStats()
	assert.Equal(t, 4, stats.RequestsLastDay)
	assert.Equal(t, 0, stats.RemainingThisDay)
	assert.Equal(t, 9, stats.RemainingThisMinute)
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := NewRateLimiter(1, 1, 1, false)
	for i := 0; i < 5; i++ {
		assert.True(t, rl.AllowRequest())
	}
	assert.Equal(t, Stats{Enabled: false}, rl.GetStats())
}

func TestRateLimiter_WaitFailsFastPastDeadline(t *testing.T) {
	rl, _ := newTestLimiter(1, 0, 0)
	require.True(t, rl.AllowRequest())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, rl.Wait(ctx), ErrLimitExceeded)
}

func TestRateLimiter_WaitReturnsWhenAllowed(t *testing.T) {
	rl, _ := newTestLimiter(1, 0, 0)
	assert.NoError(t, rl.Wait(context.Background()))
	assert.Equal(t, 1, rl.GetStats().RequestsLastMinute)

	rl.Reset()
	assert.Equal(t, 0, rl.GetStats().RequestsLastMinute)
}
