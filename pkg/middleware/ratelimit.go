package middleware

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// UserRateLimiter keeps one token bucket per key (a chat user id). A limiter
// built with a non-positive budget allows everything.
type UserRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*userLimiter
	every    rate.Limit
	burst    int
	idle     time.Duration
	now      func() time.Time
}

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewUserRateLimiter(requests int, interval time.Duration) *UserRateLimiter {
	l := &UserRateLimiter{
		limiters: make(map[string]*userLimiter),
		burst:    requests,
		idle:     10 * time.Minute,
		now:      time.Now,
	}
	if requests > 0 && interval > 0 {
		perRequest := interval / time.Duration(requests)
		if perRequest <= 0 {
			perRequest = time.Second
		}
		l.every = rate.Every(perRequest)
		if interval*2 > l.idle {
			l.idle = interval * 2
		}
	}
	return l
}

func (l *UserRateLimiter) Allow(key string) bool {
	if l == nil || l.burst <= 0 || l.every == 0 {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	ul, ok := l.limiters[key]
	if !ok {
		ul = &userLimiter{limiter: rate.NewLimiter(l.every, l.burst)}
		l.limiters[key] = ul
	}
	ul.lastSeen = now
	return ul.limiter.AllowN(now, 1)
}

// Cleanup forgets keys not seen for a while and returns how many were dropped.
func (l *UserRateLimiter) Cleanup() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-l.idle)
	n := 0
	for k, ul := range l.limiters {
		if ul.lastSeen.Before(cutoff) {
			delete(l.limiters, k)
			n++
		}
	}
	return n
}
