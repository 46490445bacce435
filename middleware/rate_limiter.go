// middleware/rate_limiter.go
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

type endpointLimit struct {
	limit rate.Limit
	burst int
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter limits requests per client IP and route. An IP that exceeds its
// limit is blocked for blockDuration. Limiters idle for idleTimeout are dropped.
type RateLimiter struct {
	ips            map[string]*visitor
	blockedIPs     map[string]time.Time
	mu             *sync.RWMutex
	defaultLimit   rate.Limit
	defaultBurst   int
	blockDuration  time.Duration
	idleTimeout    time.Duration
	endpointLimits map[string]endpointLimit
}

func NewRateLimiter() *RateLimiter {
	limiter := &RateLimiter{
		ips:            make(map[string]*visitor),
		blockedIPs:     make(map[string]time.Time),
		mu:             &sync.RWMutex{},
		defaultLimit:   rate.Every(100 * time.Millisecond), // 10 requests per second
		defaultBurst:   20,
		blockDuration:  time.Minute,
		idleTimeout:    10 * time.Minute,
		endpointLimits: make(map[string]endpointLimit),
	}

	// Transitions hit two downstream services each; one every 2 seconds
	limiter.SetEndpointLimit("/api/admin/partners/:id/approve", rate.Every(2*time.Second), 5)
	limiter.SetEndpointLimit("/api/admin/partners/:id/reject", rate.Every(2*time.Second), 5)
	limiter.SetEndpointLimit("/api/update-partner-status", rate.Every(time.Second), 5)

	go limiter.cleanupLoop()

	return limiter
}

// SetEndpointLimit overrides the default limit for a route pattern
func (r *RateLimiter) SetEndpointLimit(path string, limit rate.Limit, burst int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endpointLimits[path] = endpointLimit{limit: limit, burst: burst}
}

func (r *RateLimiter) cleanupLoop() {
	for {
		time.Sleep(r.idleTimeout)
		r.cleanup(time.Now())
	}
}

// cleanup drops expired blocks and limiters not used since idleTimeout
func (r *RateLimiter) cleanup(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, blockUntil := range r.blockedIPs {
		if now.After(blockUntil) {
			delete(r.blockedIPs, key)
			delete(r.ips, key)
		}
	}
	for key, v := range r.ips {
		if _, blocked := r.blockedIPs[key]; !blocked && now.Sub(v.lastSeen) > r.idleTimeout {
			delete(r.ips, key)
		}
	}
}

func (r *RateLimiter) RateLimit() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			path := c.Path()
			key := ip + "|" + path

			r.mu.Lock()
			if blockUntil, blocked := r.blockedIPs[key]; blocked {
				if time.Now().Before(blockUntil) {
					r.mu.Unlock()
					return c.JSON(http.StatusTooManyRequests, map[string]string{
						"message":    "Too many requests",
						"retryAfter": blockUntil.Format(time.RFC3339),
					})
				}
				delete(r.blockedIPs, key)
				delete(r.ips, key)
			}
			limit, burst := r.defaultLimit, r.defaultBurst
			if l, ok := r.endpointLimits[path]; ok {
				limit, burst = l.limit, l.burst
			}
			r.mu.Unlock()

			if !r.getLimiter(key, limit, burst).Allow() {
				blockUntil := time.Now().Add(r.blockDuration)
				r.mu.Lock()
				r.blockedIPs[key] = blockUntil
				r.mu.Unlock()

				return c.JSON(http.StatusTooManyRequests, map[string]string{
					"message":    "Too many requests",
					"retryAfter": blockUntil.Format(time.RFC3339),
				})
			}

			return next(c)
		}
	}
}

func (r *RateLimiter) getLimiter(key string, limit rate.Limit, burst int) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, exists := r.ips[key]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(limit, burst)}
		r.ips[key] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}
