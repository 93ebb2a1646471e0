package service

import (
	"strings"
	"sync"
	"time"
)

// RateLimiter limita la frecuencia de acciones por clave (email).
type RateLimiter interface {
	Allow(key string) bool
}

type memoryRateLimiter struct {
	mu        sync.Mutex
	window    time.Duration
	max       int
	now       func() time.Time
	lastSweep time.Time
	hits      map[string][]time.Time
}

// NewRateLimiter crea un rate limiter de ventana deslizante en memoria.
func NewRateLimiter(window time.Duration, max int) RateLimiter {
	return newMemoryRateLimiter(window, max, time.Now)
}

func newMemoryRateLimiter(window time.Duration, max int, now func() time.Time) *memoryRateLimiter {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &memoryRateLimiter{
		window:    window,
		max:       max,
		now:       now,
		lastSweep: now(),
		hits:      make(map[string][]time.Time),
	}
}

func (l *memoryRateLimiter) Allow(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now().UTC()
	cutoff := now.Add(-l.window)

	// Claves cuya ultima marca salio de la ventana se descartan una vez por ventana.
	if now.Sub(l.lastSweep) > l.window {
		for k, entries := range l.hits {
			if len(entries) == 0 || !entries[len(entries)-1].After(cutoff) {
				delete(l.hits, k)
			}
		}
		l.lastSweep = now
	}

	entries := l.hits[key]
	kept := entries[:0]
	for _, ts := range entries {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.hits[key] = kept
		return false
	}
	l.hits[key] = append(kept, now)
	return true
}

type allowAll struct{}

func (allowAll) Allow(string) bool { return true }
