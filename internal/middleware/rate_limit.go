package api_middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Lutefd/currency-dashboard/internal/logger"
	"golang.org/x/time/rate"
)

const clientIdleTTL = 3 * time.Minute

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands every client IP its own token bucket of rps tokens per
// second with a burst of rps.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	rps     int
	log     *logger.Logger
	now     func() time.Time
}

func NewRateLimiter(rps int, log *logger.Logger) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*client),
		rps:     rps,
		log:     log,
		now:     time.Now,
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (rl *RateLimiter) limiterFor(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, c := range rl.clients {
		if now.Sub(c.lastSeen) > clientIdleTTL {
			delete(rl.clients, key)
		}
	}

	c, ok := rl.clients[ip]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rate.Limit(rl.rps), rl.rps)}
		rl.clients[ip] = c
	}
	c.lastSeen = now
	return c.limiter
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !rl.limiterFor(ip).Allow() {
			rl.log.Warnf("rate limit exceeded for IP: %s", ip)
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
