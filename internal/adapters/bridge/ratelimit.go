package bridge

import (
	"sync"
	"time"
)

// commandLimiter is a sliding-window limiter for one bridge connection.
type commandLimiter struct {
	mu       sync.Mutex
	history  []time.Time
	limit    int
	interval time.Duration
}

func newCommandLimiter(limit int, interval time.Duration) *commandLimiter {
	return &commandLimiter{limit: limit, interval: interval}
}

func (rl *commandLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-rl.interval)

	fresh := rl.history[:0]
	for _, t := range rl.history {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}
	if len(fresh) >= rl.limit {
		rl.history = fresh
		return false
	}
	rl.history = append(fresh, now)
	return true
}
