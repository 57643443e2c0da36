package middleware

import (
	"log/slog"
	"math"
	"strconv"
	"sync"
	"time"

	"timetracker/internal/common"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter applies a token bucket per client address.
type RateLimiter struct {
	rate  rate.Limit
	burst int
	idle  time.Duration

	mu       sync.Mutex
	limiters map[string]*clientLimiter

	stopCh chan struct{}
}

// NewRateLimiter starts a limiter allowing rps requests per second with the
// given burst. Clients idle for longer than idle are forgotten.
func NewRateLimiter(rps float64, burst int, idle time.Duration) *RateLimiter {
	rl := &RateLimiter{
		rate:     rate.Limit(rps),
		burst:    burst,
		idle:     idle,
		limiters: make(map[string]*clientLimiter),
		stopCh:   make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Stop ends the background cleanup.
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, ok := rl.limiters[key]
	if !ok {
		entry = &clientLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[key] = entry
	}
	entry.lastAccess = time.Now()
	return entry.limiter
}

// Middleware rejects requests over the limit with 429 and a Retry-After header.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			if !rl.limiterFor(ip).Allow() {
				retryAfter := 1
				if rl.rate > 0 {
					retryAfter = int(math.Ceil(1 / float64(rl.rate)))
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
				slog.Warn("rate limit exceeded", "ip", ip, "path", c.Path())
				return common.ErrTooManyRequests
			}
			return next(c)
		}
	}
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.idle)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-rl.idle)
	for key, entry := range rl.limiters {
		if entry.lastAccess.Before(cutoff) {
			delete(rl.limiters, key)
		}
	}
}
