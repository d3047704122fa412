// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
)

// Limiter is a fixed-window rate limiter keyed by string. Safe for
// concurrent use.
type Limiter struct {
	mu       sync.Mutex
	windows  map[string]*window
	limit    int
	duration time.Duration
}

type window struct {
	count     int
	expiresAt time.Time
}

// New creates a limiter allowing limit requests per key per duration.
// A background goroutine evicts expired windows.
func New(limit int, duration time.Duration) *Limiter {
	l := &Limiter{
		windows:  make(map[string]*window),
		limit:    limit,
		duration: duration,
	}
	go l.evictLoop()
	return l
}

// Allow records a request for key and reports whether it is within the
// limit for the current window.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, ok := l.windows[key]
	if !ok || now.After(w.expiresAt) {
		l.windows[key] = &window{count: 1, expiresAt: now.Add(l.duration)}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// Reset clears the window for key, forgiving its attempts.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

func (l *Limiter) evictLoop() {
	ticker := time.NewTicker(l.duration * 2)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		now := time.Now()
		for key, w := range l.windows {
			if now.After(w.expiresAt) {
				delete(l.windows, key)
			}
		}
		l.mu.Unlock()
	}
}

// ClientIP extracts the client IP from a request, honoring
// X-Forwarded-For and X-Real-IP for proxied deployments before falling
// back to RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// LoginLimiter throttles credential attempts on two axes: per source
// IP, so one host cannot spray many accounts, and per target email, so
// many hosts cannot gang up on one account.
type LoginLimiter struct {
	ipLimiter    *Limiter
	emailLimiter *Limiter
}

// NewLoginLimiter returns a LoginLimiter with default budgets of
// 10 attempts per IP per minute and 5 attempts per email per 5 minutes.
func NewLoginLimiter() *LoginLimiter {
	return &LoginLimiter{
		ipLimiter:    New(10, time.Minute),
		emailLimiter: New(5, 5*time.Minute),
	}
}

// Check records an attempt and reports whether it is allowed. The
// second return value is a client-facing reason when blocked.
func (ll *LoginLimiter) Check(r *http.Request, email string) (bool, string) {
	if !ll.ipLimiter.Allow(ClientIP(r)) {
		return false, "too many attempts, wait a minute before trying again"
	}
	if email != "" && !ll.emailLimiter.Allow(text.Fold(email)) {
		return false, "too many attempts for this account, wait a few minutes"
	}
	return true, ""
}

// ResetEmail clears the per-email window after a successful sign-in.
func (ll *LoginLimiter) ResetEmail(email string) {
	if email != "" {
		ll.emailLimiter.Reset(text.Fold(email))
	}
}
