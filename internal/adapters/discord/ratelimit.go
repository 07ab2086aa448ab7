package discord

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// userLimiter deja pasar una propuesta por usuario cada win.
type userLimiter struct {
	mu  sync.Mutex
	per map[string]*userBucket
	win time.Duration
	now func() time.Time
}

type userBucket struct {
	lim  *rate.Limiter
	seen time.Time
}

func newUserLimiter(window time.Duration) *userLimiter {
	return &userLimiter{per: map[string]*userBucket{}, win: window, now: time.Now}
}

func (l *userLimiter) Allow(userID string) bool {
	if l == nil || l.win <= 0 {
		return true
	}
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.per[userID]
	if !ok {
		b = &userBucket{lim: rate.NewLimiter(rate.Every(l.win), 1)}
		l.per[userID] = b
	}
	b.seen = now
	allowed := b.lim.AllowN(now, 1)
	l.gc(now)
	return allowed
}

// gc descarta buckets que ya volvieron a estar llenos.
func (l *userLimiter) gc(now time.Time) {
	if len(l.per) < 256 {
		return
	}
	for id, b := range l.per {
		if now.Sub(b.seen) > l.win {
			delete(l.per, id)
		}
	}
}
