package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a sliding-window rate limiter keyed by client. It guards the
// login and register endpoints against credential brute-forcing.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	maxReqs int
	window  time.Duration
	cleanup *time.Ticker
	done    chan struct{}
}

type bucket struct {
	requests []time.Time
	lastSeen time.Time
}

// NewLimiter creates a limiter allowing maxRequests per window per key
func NewLimiter(maxRequests int, window time.Duration) *Limiter {
	limiter := &Limiter{
		buckets: make(map[string]*bucket),
		maxReqs: maxRequests,
		window:  window,
		cleanup: time.NewTicker(5 * time.Minute),
		done:    make(chan struct{}),
	}
	go limiter.cleanupOldBuckets()
	return limiter
}

// Allow reports whether the key may make another request now
func (l *Limiter) Allow(key string) bool {
	if key == "" {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, exists := l.buckets[key]
	if !exists {
		b = &bucket{}
		l.buckets[key] = b
	}

	cutoff := now.Add(-l.window)
	var reqs []time.Time
	for _, t := range b.requests {
		if t.After(cutoff) {
			reqs = append(reqs, t)
		}
	}
	b.requests = reqs
	b.lastSeen = now

	if len(b.requests) >= l.maxReqs {
		return false
	}

	b.requests = append(b.requests, now)
	return true
}

func (l *Limiter) cleanupOldBuckets() {
	for {
		select {
		case <-l.done:
			return
		case <-l.cleanup.C:
			l.mu.Lock()
			staleThreshold := time.Now().Add(-15 * time.Minute)
			for key, b := range l.buckets {
				if b.lastSeen.Before(staleThreshold) {
					delete(l.buckets, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

// Stop halts the background cleanup
func (l *Limiter) Stop() {
	l.cleanup.Stop()
	close(l.done)
}
