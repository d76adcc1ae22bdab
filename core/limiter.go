package core

import (
	"sync"
	"time"
)

// ActionLimiter enforces a maximum number of attempted actions per minute
// using a fixed one-minute window. If max == 0, unlimited actions are allowed.
type ActionLimiter struct {
	max         int
	count       int
	windowStart time.Time
	now         func() time.Time
	mu          sync.Mutex
}

// NewActionLimiter creates a new limiter with a per-minute cap.
func NewActionLimiter(max int) *ActionLimiter {
	return &ActionLimiter{max: max, now: time.Now}
}

// Allow consumes one slot from the current window and reports whether the
// action may proceed.
func (al *ActionLimiter) Allow() bool {
	al.mu.Lock()
	defer al.mu.Unlock()

	if al.max <= 0 {
		return true
	}

	now := al.now()
	if now.Sub(al.windowStart) >= time.Minute {
		al.windowStart = now
		al.count = 0
	}

	if al.count >= al.max {
		return false
	}

	al.count++
	return true
}

// SetMax changes the per-minute cap. The current window keeps its count.
func (al *ActionLimiter) SetMax(max int) {
	al.mu.Lock()
	al.max = max
	al.mu.Unlock()
}

// Remaining returns how many actions are left in the current window, or -1
// when unlimited.
func (al *ActionLimiter) Remaining() int {
	al.mu.Lock()
	defer al.mu.Unlock()

	if al.max <= 0 {
		return -1
	}
	if al.now().Sub(al.windowStart) >= time.Minute {
		return al.max
	}
	return al.max - al.count
}
