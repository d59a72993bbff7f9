package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per key. The key is the client IP for
// anonymous routes and the user id for routes behind JWTMiddleware.
type RateLimiter struct {
	buckets map[string]*rate.Limiter
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	keyFor  func(*http.Request) string
}

// NewIPRateLimiter buckets by client IP. limit is events per second;
// for N per minute use rate.Limit(float64(N)/60.0).
func NewIPRateLimiter(limit rate.Limit, burst int) *RateLimiter {
	return newRateLimiter(limit, burst, clientIP)
}

// NewUserRateLimiter buckets by the authenticated user, falling back to the
// client IP when the request carries no user.
func NewUserRateLimiter(limit rate.Limit, burst int) *RateLimiter {
	return newRateLimiter(limit, burst, func(r *http.Request) string {
		if u, ok := GetUser(r.Context()); ok {
			return "user:" + u.ID
		}
		return "ip:" + clientIP(r)
	})
}

func newRateLimiter(limit rate.Limit, burst int, keyFor func(*http.Request) string) *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*rate.Limiter),
		limit:   limit,
		burst:   burst,
		keyFor:  keyFor,
	}
}

func (l *RateLimiter) bucket(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[key]
	if !ok {
		b = rate.NewLimiter(l.limit, l.burst)
		l.buckets[key] = b
	}
	return b
}

// clientIP is the first X-Forwarded-For hop, then X-Real-IP, then RemoteAddr without its port.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// Middleware answers 429 with a Retry-After hint once the caller's bucket is empty.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.bucket(l.keyFor(r)).Allow() {
			if l.limit > 0 {
				secs := int(math.Ceil(1 / float64(l.limit)))
				w.Header().Set("Retry-After", strconv.Itoa(secs))
			}
			writeError(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// LoginRateLimiter allows 10 logins per minute per IP with a burst of 5.
func LoginRateLimiter() *RateLimiter {
	return NewIPRateLimiter(rate.Limit(10.0/60.0), 5)
}

// IssueReportRateLimiter allows 6 issue reports per minute per user with a
// burst of 3, so one person cannot flood the admin inbox.
func IssueReportRateLimiter() *RateLimiter {
	return NewUserRateLimiter(rate.Limit(6.0/60.0), 3)
}
