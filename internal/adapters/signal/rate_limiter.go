package signal

import (
	"sync"
	"time"

	"github.com/dkeye/VoiceCall/internal/domain"
	"golang.org/x/time/rate"
)

// CallRateLimiter caps call attempts per user with a token bucket each.
// A nil limiter allows everything.
type CallRateLimiter struct {
	mu        sync.Mutex
	limiters  map[domain.UserID]*rate.Limiter
	every     rate.Limit
	burst     int
	interval  time.Duration
	lastSweep time.Time

	now func() time.Time
}

// NewCallRateLimiter allows limit attempts per interval. limit <= 0
// disables limiting.
func NewCallRateLimiter(limit int, interval time.Duration) *CallRateLimiter {
	if limit <= 0 || interval <= 0 {
		return nil
	}
	return &CallRateLimiter{
		limiters: make(map[domain.UserID]*rate.Limiter),
		every:    rate.Every(interval / time.Duration(limit)),
		burst:    limit,
		interval: interval,
		now:      time.Now,
	}
}

func (rl *CallRateLimiter) Allow(uid domain.UserID) bool {
	if rl == nil {
		return true
	}
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.sweepLocked(now)

	l, ok := rl.limiters[uid]
	if !ok {
		l = rate.NewLimiter(rl.every, rl.burst)
		rl.limiters[uid] = l
	}
	return l.AllowN(now, 1)
}

// sweepLocked drops buckets that have refilled completely. A full bucket
// allows exactly what a new one would, so dropping it loses nothing.
func (rl *CallRateLimiter) sweepLocked(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.interval {
		return
	}
	rl.lastSweep = now
	for uid, l := range rl.limiters {
		if l.TokensAt(now) >= float64(rl.burst) {
			delete(rl.limiters, uid)
		}
	}
}

// Len is the number of users currently tracked.
func (rl *CallRateLimiter) Len() int {
	if rl == nil {
		return 0
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}
