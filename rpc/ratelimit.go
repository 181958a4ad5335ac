package rpc

import (
	"net"
	"net/http"
	"sync"
	"time"

	"cosmossdk.io/log"
	"golang.org/x/time/rate"
)

const (
	maxLimiters     = 10_000
	limiterIdleTime = 10 * time.Minute
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles requests per client IP.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*clientLimiter
	maxKeys  int
	rate     rate.Limit
	burst    int
	logger   log.Logger
}

// NewRateLimiter allows each client requestsPerSecond with the given burst.
func NewRateLimiter(requestsPerSecond float64, burst int, logger log.Logger) *RateLimiter {
	if burst <= 0 {
		burst = max(1, int(requestsPerSecond))
	}
	return &RateLimiter{
		limiters: make(map[string]*clientLimiter),
		maxKeys:  maxLimiters,
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
		logger:   logger,
	}
}

func (rl *RateLimiter) getLimiter(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cl, ok := rl.limiters[key]
	if !ok {
		if len(rl.limiters) >= rl.maxKeys {
			rl.evict(now)
		}
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[key] = cl
	}
	cl.lastSeen = now
	return cl.limiter
}

// evict drops limiters unused for limiterIdleTime. If none is idle it drops
// the least recently seen one, so the map never exceeds maxKeys. Callers
// hold mu.
func (rl *RateLimiter) evict(now time.Time) {
	var (
		oldestKey  string
		oldestSeen time.Time
		found      bool
	)
	for key, cl := range rl.limiters {
		if now.Sub(cl.lastSeen) > limiterIdleTime {
			delete(rl.limiters, key)
			continue
		}
		if !found || cl.lastSeen.Before(oldestSeen) {
			oldestKey, oldestSeen, found = key, cl.lastSeen, true
		}
	}
	if len(rl.limiters) >= rl.maxKeys && found {
		delete(rl.limiters, oldestKey)
	}
}

// Middleware rejects requests over the client's budget with a JSON-RPC error.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientIP(r)
		if !rl.getLimiter(key, time.Now()).Allow() {
			rl.logger.Debug("rate limit exceeded", "client", key, "path", r.URL.Path)
			w.Header().Set("Retry-After", "1")
			writeJSONStatus(w, http.StatusTooManyRequests, errResponse(nil, CodeRateLimited, "rate limit exceeded"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
