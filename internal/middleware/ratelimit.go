package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL  = 10 * time.Minute
	limiterGCThresh = 1000
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware applies a per-client requests-per-minute budget. A
// non-positive rpm disables limiting.
type RateLimitMiddleware struct {
	rpm     int
	exempt  map[string]struct{}
	mu      sync.Mutex
	clients map[string]*clientLimiter
}

func NewRateLimitMiddleware(rpm int, exemptPaths ...string) *RateLimitMiddleware {
	exempt := make(map[string]struct{}, len(exemptPaths))
	for _, path := range exemptPaths {
		exempt[path] = struct{}{}
	}

	return &RateLimitMiddleware{
		rpm:     rpm,
		exempt:  exempt,
		clients: map[string]*clientLimiter{},
	}
}

func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.rpm <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		if _, skip := m.exempt[r.URL.Path]; skip {
			next.ServeHTTP(w, r)
			return
		}

		limiter := m.limiterFor(clientIP(r))
		if reservation := limiter.Reserve(); !reservation.OK() || reservation.Delay() > 0 {
			delay := reservation.Delay()
			reservation.Cancel()

			retryAfter := int(delay.Round(time.Second) / time.Second)
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			writeJSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *RateLimitMiddleware) limiterFor(ip string) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if client, exists := m.clients[ip]; exists {
		client.lastSeen = now
		return client.limiter
	}

	if len(m.clients) >= limiterGCThresh {
		cutoff := now.Add(-limiterIdleTTL)
		for key, client := range m.clients {
			if client.lastSeen.Before(cutoff) {
				delete(m.clients, key)
			}
		}
	}

	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(m.rpm)), m.rpm)
	m.clients[ip] = &clientLimiter{limiter: limiter, lastSeen: now}
	return limiter
}

func clientIP(r *http.Request) string {
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}

	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	if strings.TrimSpace(r.RemoteAddr) == "" {
		return "unknown"
	}
	return r.RemoteAddr
}
