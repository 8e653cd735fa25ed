// Package ratelimit provides in-memory per-IP rate limiting for the HTTP
// surface. The engine runs as a single process next to its history store,
// so token buckets per client are sufficient; there is no distributed
// state to coordinate.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter tracks one token bucket per client IP.
type Limiter struct {
	perMinute int

	mu       sync.Mutex
	buckets  map[string]*entry
	lastSeen map[string]time.Time
}

type entry struct {
	limiter *rate.Limiter
}

// NewLimiter creates a limiter allowing perMinute requests per IP with a
// 2x burst.
func NewLimiter(perMinute int) *Limiter {
	l := &Limiter{
		perMinute: perMinute,
		buckets:   make(map[string]*entry),
		lastSeen:  make(map[string]time.Time),
	}
	go l.cleanup()
	return l
}

// Allow reports whether the IP may make a request now.
func (l *Limiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.buckets[ip]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(rate.Limit(float64(l.perMinute)/60), l.perMinute*2)}
		l.buckets[ip] = e
	}
	l.lastSeen[ip] = time.Now()
	return e.limiter.Allow()
}

// cleanup drops buckets idle for more than an hour.
func (l *Limiter) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-time.Hour)
		l.mu.Lock()
		for ip, seen := range l.lastSeen {
			if seen.Before(cutoff) {
				delete(l.buckets, ip)
				delete(l.lastSeen, ip)
			}
		}
		l.mu.Unlock()
	}
}
