package service

import (
	"strings"
	"sync"
	"time"
)

// LoginLimiter cuenta los intentos de login fallidos por clave (email normalizado).
// Allow es false cuando la clave acumula max fallos dentro de la ventana; un login exitoso la limpia.
type LoginLimiter interface {
	Allow(key string) bool
	Failure(key string)
	Reset(key string)
}

type loginLimiter struct {
	mu        sync.Mutex
	window    time.Duration
	max       int
	now       func() time.Time
	lastSweep time.Time
	failures  map[string][]time.Time
}

// NewLoginLimiter crea un limiter de ventana deslizante en memoria.
func NewLoginLimiter(window time.Duration, max int) LoginLimiter {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &loginLimiter{
		window:   window,
		max:      max,
		now:      time.Now,
		failures: make(map[string][]time.Time),
	}
}

func normalizeLimiterKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

func (l *loginLimiter) Allow(key string) bool {
	key = normalizeLimiterKey(key)
	if key == "" {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.recent(key, l.now())) < l.max
}

func (l *loginLimiter) Failure(key string) {
	key = normalizeLimiterKey(key)
	if key == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	l.sweep(now)
	l.failures[key] = append(l.recent(key, now), now)
}

func (l *loginLimiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.failures, normalizeLimiterKey(key))
}

// recent poda los fallos vencidos de la clave y la borra si no queda ninguno. Se llama con mu tomado.
func (l *loginLimiter) recent(key string, now time.Time) []time.Time {
	entries := l.failures[key]
	cutoff := now.Add(-l.window)
	kept := entries[:0]
	for _, ts := range entries {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) == 0 {
		delete(l.failures, key)
		return nil
	}
	l.failures[key] = kept
	return kept
}

// sweep recorre todas las claves como mucho una vez por ventana. Se llama con mu tomado.
func (l *loginLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.window {
		return
	}
	l.lastSweep = now
	for key := range l.failures {
		l.recent(key, now)
	}
}

func (l *loginLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.failures)
}
