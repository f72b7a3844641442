package echoapi

import (
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const clientTTL = 3 * time.Minute

type client struct {
	lim  *rate.Limiter
	seen time.Time
}

// rateLimiter throttles requests per client IP.
type rateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*client
	lastSweep time.Time
	r         rate.Limit
	burst     int
	now       func() time.Time
}

func newRateLimiter(rps float64, burst int) *rateLimiter {
	if rps <= 0 {
		rps = float64(rate.Inf)
	}
	if burst <= 0 {
		burst = 1
	}
	return &rateLimiter{
		clients: make(map[string]*client),
		r:       rate.Limit(rps),
		burst:   burst,
		now:     time.Now,
	}
}

func (rl *rateLimiter) get(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.sweep(now)

	if c, ok := rl.clients[ip]; ok {
		c.seen = now
		return c.lim
	}
	l := rate.NewLimiter(rl.r, rl.burst)
	rl.clients[ip] = &client{lim: l, seen: now}
	return l
}

// sweep drops stale clients, at most once per clientTTL. rl.mu must be held.
func (rl *rateLimiter) sweep(now time.Time) {
	if rl.lastSweep.IsZero() {
		rl.lastSweep = now
		return
	}
	if now.Sub(rl.lastSweep) <= clientTTL {
		return
	}
	for k, c := range rl.clients {
		if now.Sub(c.seen) > clientTTL {
			delete(rl.clients, k)
		}
	}
	rl.lastSweep = now
}

func (rl *rateLimiter) middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if !rl.get(ctx.RealIP()).AllowN(rl.now(), 1) {
				return errTooManyRequests
			}
			return next(ctx)
		}
	}
}
