package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrLimitExceeded is returned by Wait when the wait would exceed the
// caller's deadline.
var ErrLimitExceeded = errors.New("provider rate limit exceeded")

// window counts calls in the trailing span.
type window struct {
	span  time.Duration
	limit int
	calls []time.Time
}

func (w *window) prune(now time.Time) {
	cutoff := now.Add(-w.span)
	i := 0
	for i < len(w.calls) && !w.calls[i].After(cutoff) {
		i++
	}
	w.calls = w.calls[i:]
}

func (w *window) full() bool {
	return w.limit > 0 && len(w.calls) >= w.limit
}

// freeAt is when the oldest call leaves the window.
func (w *window) freeAt() time.Time {
	if len(w.calls) == 0 {
		return time.Time{}
	}
	return w.calls[0].Add(w.span)
}

func (w *window) remaining() int {
	if w.limit <= 0 {
		return 0
	}
	return max(0, w.limit-len(w.calls))
}

// RateLimiter caps calls to the listings provider per minute, hour and day.
// A limit of zero leaves that window unbounded.
type RateLimiter struct {
	enabled bool
	now     func() time.Time

	mu     sync.Mutex
	minute window
	hour   window
	day    window
}

// NewRateLimiter creates a limiter with the given limits.
func NewRateLimiter(requestsPerMinute, requestsPerHour, requestsPerDay int, enabled bool) *RateLimiter {
	return &RateLimiter{
		enabled: enabled,
		now:     time.Now,
		minute:  window{span: time.Minute, limit: requestsPerMinute},
		hour:    window{span: time.Hour, limit: requestsPerHour},
		day:     window{span: 24 * time.Hour, limit: requestsPerDay},
	}
}

func (rl *RateLimiter) windows() []*window {
	return []*window{&rl.minute, &rl.hour, &rl.day}
}

// AllowRequest records a call and returns true if every window has room.
func (rl *RateLimiter) AllowRequest() bool {
	ok, _ := rl.reserve()
	return ok
}

// reserve records a call if allowed; otherwise it reports when to retry.
func (rl *RateLimiter) reserve() (bool, time.Duration) {
	if !rl.enabled {
		return true, 0
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	var retryAt time.Time
	for _, w := range rl.windows() {
		w.prune(now)
		if w.full() && w.freeAt().After(retryAt) {
			retryAt = w.freeAt()
		}
	}
	if !retryAt.IsZero() {
		return false, retryAt.Sub(now)
	}

	for _, w := range rl.windows() {
		w.calls = append(w.calls, now)
	}
	return true, 0
}

// Wait blocks until a call is allowed. It fails fast with ErrLimitExceeded
// when ctx's deadline would pass first.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		ok, retryIn := rl.reserve()
		if ok {
			return nil
		}
		if deadline, has := ctx.Deadline(); has && rl.now().Add(retryIn).After(deadline) {
			return ErrLimitExceeded
		}

		timer := time.NewTimer(retryIn)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// GetStats returns current rate limiter statistics
func (rl *RateLimiter) GetStats() Stats {
	if !rl.enabled {
		return Stats{Enabled: false}
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for _, w := range rl.windows() {
		w.prune(now)
	}

	return Stats{
		Enabled:             true,
		RequestsLastMinute:  len(rl.minute.calls),
		RequestsLastHour:    len(rl.hour.calls),
		RequestsLastDay:     len(rl.day.calls),
		LimitPerMinute:      rl.minute.limit,
		LimitPerHour:        rl.hour.limit,
		LimitPerDay:         rl.day.limit,
		RemainingThisMinute: rl.minute.remaining(),
		RemainingThisHour:   rl.hour.remaining(),
		RemainingThisDay:    rl.day.remaining(),
	}
}

// Stats contains rate limiter statistics
type Stats struct {
	Enabled             bool `json:"enabled"`
	RequestsLastMinute  int  `json:"requests_last_minute"`
	RequestsLastHour    int  `json:"requests_last_hour"`
	RequestsLastDay     int  `json:"requests_last_day"`
	LimitPerMinute      int  `json:"limit_per_minute"`
	LimitPerHour        int  `json:"limit_per_hour"`
	LimitPerDay         int  `json:"limit_per_day"`
	RemainingThisMinute int  `json:"remaining_this_minute"`
	RemainingThisHour   int  `json:"remaining_this_hour"`
	RemainingThisDay    int  `json:"remaining_this_day"`
}

// Reset clears all tracked requests.
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for _, w := range rl.windows() {
		w.calls = nil
	}
}
