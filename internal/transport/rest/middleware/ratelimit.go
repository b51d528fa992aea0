package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// RateLimiter grants each client address a fixed request budget per
// window. Counters reset when a window elapses; requests past the
// budget get 429 until then.
type RateLimiter struct {
	limit  int
	window time.Duration

	mu      sync.Mutex
	clients map[string]*clientWindow
}

type clientWindow struct {
	count       int
	windowStart time.Time
}

// NewRateLimiter creates a limiter allowing limit requests per window
// per client address.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		clients: make(map[string]*clientWindow),
	}
}

// Allow consumes one request from addr's budget.
func (l *RateLimiter) Allow(addr string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	cw, ok := l.clients[addr]
	if !ok || now.Sub(cw.windowStart) >= l.window {
		l.clients[addr] = &clientWindow{count: 1, windowStart: now}
		return true
	}
	if cw.count >= l.limit {
		return false
	}
	cw.count++
	return true
}

// Middleware applies the limiter keyed by the request's client address.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(clientAddr(r)) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"rate limit exceeded"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
