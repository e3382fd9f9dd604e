// Package ratelimit caps outbound actions per channel per rolling hour.
package ratelimit

import (
	"sync"
	"time"
)

type window struct {
	start time.Time
	count int
}

// Limiter tracks one counting window per channel. The window resets a full
// hour after its first action, not on wall-clock hour boundaries.
type Limiter struct {
	limit   int
	windows map[string]*window
	mu      sync.Mutex
	now     func() time.Time
}

func New(limit int) *Limiter {
	return &Limiter{
		limit:   limit,
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

func (l *Limiter) roll(channel string) *window {
	w, ok := l.windows[channel]
	if !ok {
		w = &window{start: l.now()}
		l.windows[channel] = w
		return w
	}
	if l.now().Sub(w.start) >= time.Hour {
		w.start = l.now()
		w.count = 0
	}
	return w
}

// Allow reports whether the channel has budget left in the current window.
// It does not consume budget; pair with Record after a successful dispatch.
func (l *Limiter) Allow(channel string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.roll(channel).count < l.limit
}

// Record consumes one unit of the channel's window.
func (l *Limiter) Record(channel string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.roll(channel).count++
}

// Remaining returns the channel's unused budget for the current window.
func (l *Limiter) Remaining(channel string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	left := l.limit - l.roll(channel).count
	if left < 0 {
		return 0
	}
	return left
}
