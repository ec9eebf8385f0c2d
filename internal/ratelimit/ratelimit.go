package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type chatLimiter struct {
	lim         *rate.Limiter
	lastAllowed time.Time
	lastSeen    time.Time
}

// Limiter enforces a per-chat cooldown: one command per window. The token
// is taken before any work starts, so two concurrent requests from the same
// chat can never both pass.
type Limiter struct {
	mu     sync.Mutex
	window time.Duration
	chats  map[string]*chatLimiter
}

// New creates a Limiter with the given cooldown window.
func New(window time.Duration) *Limiter {
	return &Limiter{
		window: window,
		chats:  make(map[string]*chatLimiter),
	}
}

// Acquire tries to take the chat's cooldown token. When denied it reports
// how long the caller should wait, rounded up to whole seconds and never
// less than one second.
func (l *Limiter) Acquire(chatID string) (bool, time.Duration) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()
	cl, ok := l.chats[chatID]
	if !ok {
		cl = &chatLimiter{lim: rate.NewLimiter(rate.Every(l.window), 1)}
		l.chats[chatID] = cl
	}
	cl.lastSeen = now

	if cl.lim.AllowN(now, 1) {
		cl.lastAllowed = now
		return true, 0
	}

	wait := l.window - now.Sub(cl.lastAllowed)
	return false, ceilSeconds(wait)
}

// Sweep drops chats idle for longer than maxIdle and returns how many were
// removed. Not required for correctness, only to bound memory.
func (l *Limiter) Sweep(maxIdle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	cutoff := time.Now().Add(-maxIdle)
	for id, cl := range l.chats {
		if cl.lastSeen.Before(cutoff) {
			delete(l.chats, id)
			removed++
		}
	}
	return removed
}

// ceilSeconds rounds d up to whole seconds, never below one second, so a
// denied caller is never told to wait zero.
func ceilSeconds(d time.Duration) time.Duration {
	w := d.Truncate(time.Second)
	if w < d {
		w += time.Second
	}
	if w < time.Second {
		w = time.Second
	}
	return w
}
