// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/olegiv/userdesk/internal/i18n"
)

// Defaults for NewSubmitRateLimiter.
const (
	DefaultSubmitRPS   = 0.5
	DefaultSubmitBurst = 5

	// idleTTL is how long a client keeps its limiter without submitting.
	idleTTL = 10 * time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// SubmitRateLimiter limits login and sign-up submissions per client IP.
// It guards the remote user service against password guessing through this front end.
type SubmitRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	now      func() time.Time

	// retryAfter is the Retry-After value in seconds: the time to refill one token.
	retryAfter string

	done chan struct{}
	once sync.Once
}

// NewSubmitRateLimiter allows rps submissions per second per client IP with
// the given burst. Non-positive values select the defaults.
func NewSubmitRateLimiter(rps float64, burst int) *SubmitRateLimiter {
	if rps <= 0 {
		rps = DefaultSubmitRPS
	}
	if burst <= 0 {
		burst = DefaultSubmitBurst
	}

	rl := &SubmitRateLimiter{
		visitors:   make(map[string]*visitor),
		limit:      rate.Limit(rps),
		burst:      burst,
		now:        time.Now,
		retryAfter: strconv.Itoa(refillSeconds(rps)),
		done:       make(chan struct{}),
	}
	go rl.evictEvery(idleTTL / 2)
	return rl
}

// refillSeconds is the whole number of seconds needed to earn one token at rps.
func refillSeconds(rps float64) int {
	return max(1, int(math.Ceil(1/rps)))
}

// Allow consumes one submission token for ip.
func (rl *SubmitRateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// Stop ends background eviction. It is safe to call more than once.
func (rl *SubmitRateLimiter) Stop() {
	rl.once.Do(func() { close(rl.done) })
}

// evictIdle drops clients idle for longer than idleTTL and returns how many went.
func (rl *SubmitRateLimiter) evictIdle() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-idleTTL)
	n := 0
	for ip, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, ip)
			n++
		}
	}
	return n
}

func (rl *SubmitRateLimiter) evictEvery(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			if n := rl.evictIdle(); n > 0 {
				slog.Debug("evicted idle submit limiters", "count", n)
			}
		case <-rl.done:
			return
		}
	}
}

// Middleware rate limits POST requests. Other methods pass through.
func (rl *SubmitRateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			ip := getClientIP(r)
			if !rl.Allow(ip) {
				slog.Warn("submit rate limit exceeded", "category", "security", "ip", ip, "path", r.URL.Path)
				w.Header().Set("Retry-After", rl.retryAfter)
				http.Error(w, i18n.T(GetLanguage(r), "error.rate_limited"), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
