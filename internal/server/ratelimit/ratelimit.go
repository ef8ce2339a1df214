// Package ratelimit provides per-client token bucket rate limiting for the status server.
package ratelimit

import (
	"sync"
	"time"
)

// Config holds rate limiting configuration.
type Config struct {
	Enabled bool
	Limit   int           // requests per window
	Window  time.Duration // refill window
	Burst   int           // bucket capacity; defaults to Limit

	// CleanupInterval controls how often idle buckets are dropped. Zero disables cleanup.
	CleanupInterval time.Duration

	// Exempt lists paths that are never limited.
	Exempt []string
}

// PerMinute returns a Config allowing limit requests per minute per client,
// with /health exempt. A non-positive limit disables limiting.
func PerMinute(limit int) *Config {
	return &Config{
		Enabled:         limit > 0,
		Limit:           limit,
		Window:          time.Minute,
		Burst:           limit,
		CleanupInterval: 5 * time.Minute,
		Exempt:          []string{"/health"},
	}
}

// tokenBucket allows capacity requests in a burst, refilling at a steady rate.
type tokenBucket struct {
	mu         sync.Mutex
	capacity   float64
	refillRate float64 // tokens per second
	tokens     float64
	lastRefill time.Time
}

func newTokenBucket(capacity int, refillRate float64, now time.Time) *tokenBucket {
	return &tokenBucket{
		capacity:   float64(capacity),
		refillRate: refillRate,
		tokens:     float64(capacity),
		lastRefill: now,
	}
}

// take refills the bucket, then consumes a token if one is available. It
// returns whether the request is allowed, the tokens left and when the
// bucket will next hold a token.
func (tb *tokenBucket) take(now time.Time) (bool, int, time.Time) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	elapsed := now.Sub(tb.lastRefill).Seconds()
	if elapsed > 0 {
		tb.tokens = min(tb.capacity, tb.tokens+elapsed*tb.refillRate)
		tb.lastRefill = now
	}

	if tb.tokens >= 1 {
		tb.tokens--
		return true, int(tb.tokens), now
	}

	wait := time.Duration((1 - tb.tokens) / tb.refillRate * float64(time.Second))
	return false, 0, now.Add(wait)
}

// Info describes the outcome of a rate limit check.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter tracks one bucket per client.
type Limiter struct {
	config *Config
	now    func() time.Time

	mu         sync.Mutex
	buckets    map[string]*tokenBucket
	lastAccess map[string]time.Time

	cleanupStop chan struct{}
	stopOnce    sync.Once
}

// NewLimiter creates a limiter. A nil config disables limiting.
func NewLimiter(config *Config) *Limiter {
	if config == nil {
		config = &Config{}
	}
	l := &Limiter{
		config:     config,
		now:        time.Now,
		buckets:    make(map[string]*tokenBucket),
		lastAccess: make(map[string]time.Time),
	}

	if config.Enabled && config.CleanupInterval > 0 {
		l.cleanupStop = make(chan struct{})
		go l.cleanup(config.CleanupInterval)
	}
	return l
}

// Allow checks whether clientID may request path now.
func (l *Limiter) Allow(clientID, path string) (bool, Info) {
	if !l.config.Enabled || l.config.Limit <= 0 || l.exempt(path) {
		return true, Info{Allowed: true}
	}

	now := l.now()
	bucket := l.bucket(clientID, now)
	allowed, remaining, next := bucket.take(now)

	info := Info{Allowed: allowed, Limit: l.config.Limit, Remaining: remaining}
	if !allowed {
		info.RetryAfter = max(next.Sub(now), 0)
	}
	return allowed, info
}

func (l *Limiter) exempt(path string) bool {
	for _, p := range l.config.Exempt {
		if p == path {
			return true
		}
	}
	return false
}

func (l *Limiter) bucket(clientID string, now time.Time) *tokenBucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.lastAccess[clientID] = now
	if b, ok := l.buckets[clientID]; ok {
		return b
	}

	capacity := l.config.Burst
	if capacity <= 0 {
		capacity = l.config.Limit
	}
	b := newTokenBucket(capacity, float64(l.config.Limit)/l.config.Window.Seconds(), now)
	l.buckets[clientID] = b
	return b
}

func (l *Limiter) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.evictIdle(l.now().Add(-time.Hour))
		case <-l.cleanupStop:
			return
		}
	}
}

// evictIdle drops buckets not touched since cutoff.
func (l *Limiter) evictIdle(cutoff time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, last := range l.lastAccess {
		if last.Before(cutoff) {
			delete(l.buckets, key)
			delete(l.lastAccess, key)
		}
	}
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() {
		if l.cleanupStop != nil {
			close(l.cleanupStop)
		}
	})
}
