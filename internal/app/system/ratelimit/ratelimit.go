// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Limiter counts attempts per key in fixed windows. The first attempt for a
// key opens a window of the configured length; once limit attempts were
// counted in it, further attempts are refused until it closes.
// It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]bucket
	limit   int
	window  time.Duration
	now     func() time.Time

	nextSweep time.Time
}

type bucket struct {
	count  int
	closes time.Time
}

// New creates a limiter allowing limit attempts per key per window.
func New(limit int, window time.Duration) *Limiter {
	return &Limiter{
		buckets: make(map[string]bucket),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

// SetClock replaces the time source.
func (l *Limiter) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// Allow counts an attempt for key and reports whether it is within the limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	b, ok := l.buckets[key]
	if !ok || !now.Before(b.closes) {
		l.buckets[key] = bucket{count: 1, closes: now.Add(l.window)}
		return true
	}
	if b.count >= l.limit {
		return false
	}
	b.count++
	l.buckets[key] = b
	return true
}

// Remaining reports how many attempts key has left in its current window.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok || !l.now().Before(b.closes) {
		return l.limit
	}
	return max(l.limit-b.count, 0)
}

// Reset forgets key's window.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// sweep drops closed windows at most once per window length. l.mu must be held.
func (l *Limiter) sweep(now time.Time) {
	if now.Before(l.nextSweep) {
		return
	}
	for key, b := range l.buckets {
		if !now.Before(b.closes) {
			delete(l.buckets, key)
		}
	}
	l.nextSweep = now.Add(l.window)
}

// ClientIP returns the caller's address: the first X-Forwarded-For hop, then
// X-Real-IP, then RemoteAddr without its port.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Middleware answers 429 Too Many Requests to a client IP over the limit.
// Only unsafe methods are counted.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}
		if !l.Allow(ClientIP(r)) {
			w.Header().Set("Retry-After", strconv.Itoa(int(l.window.Seconds())))
			http.Error(w, "Too many requests. Please wait a moment and try again.", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Scope names which login limit refused an attempt. The value is recorded
// in the audit log.
type Scope string

const (
	ScopeIP    Scope = "ip"
	ScopeEmail Scope = "email"
)

// Block describes a refused login attempt.
type Block struct {
	Scope   Scope
	Message string
}

// LoginLimiter limits sign-in attempts per client IP and per email address,
// so neither one address spraying many accounts nor many addresses guessing
// one account get unlimited tries.
type LoginLimiter struct {
	byIP    *Limiter
	byEmail *Limiter
}

// NewLoginLimiter allows 10 attempts per IP per minute and 5 per email per
// 5 minutes.
func NewLoginLimiter() *LoginLimiter {
	return NewLoginLimiterWithConfig(10, time.Minute, 5, 5*time.Minute)
}

// NewLoginLimiterWithConfig creates a login limiter with custom limits.
func NewLoginLimiterWithConfig(ipLimit int, ipWindow time.Duration, emailLimit int, emailWindow time.Duration) *LoginLimiter {
	return &LoginLimiter{
		byIP:    New(ipLimit, ipWindow),
		byEmail: New(emailLimit, emailWindow),
	}
}

// Check counts a sign-in attempt. It returns nil when the attempt may
// proceed, otherwise the limit that refused it.
func (ll *LoginLimiter) Check(r *http.Request, email string) *Block {
	if !ll.byIP.Allow(ClientIP(r)) {
		return &Block{Scope: ScopeIP, Message: "Too many login attempts. Please wait a minute before trying again."}
	}
	if key := emailKey(email); key != "" && !ll.byEmail.Allow(key) {
		return &Block{Scope: ScopeEmail, Message: "Too many login attempts for this account. Please wait a few minutes."}
	}
	return nil
}

// ResetEmail clears the email's window after a successful sign-in.
func (ll *LoginLimiter) ResetEmail(email string) {
	if key := emailKey(email); key != "" {
		ll.byEmail.Reset(key)
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
