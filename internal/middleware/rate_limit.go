// internal/middleware/rate_limit.go
package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/javajoker/ustock-backend/internal/config"
	"github.com/javajoker/ustock-backend/internal/utils"
)

const defaultVisitorTTL = 3 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP. Buckets idle for longer
// than the visitor TTL are dropped by a background sweep until Stop is called.
type RateLimiter struct {
	visitors map[string]*visitor
	mtx      sync.Mutex
	rate     rate.Limit
	burst    int
	ttl      time.Duration

	stop     chan struct{}
	stopOnce sync.Once
}

func NewRateLimiter(r rate.Limit, b int, ttl time.Duration) *RateLimiter {
	if ttl <= 0 {
		ttl = defaultVisitorTTL
	}

	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     r,
		burst:    b,
		ttl:      ttl,
		stop:     make(chan struct{}),
	}

	go rl.cleanupVisitors()

	return rl
}

// Stop ends the background sweep. The limiter keeps working afterwards but
// no longer forgets idle clients.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) cleanupVisitors() {
	interval := rl.ttl / 3
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case now := <-ticker.C:
			rl.sweep(now)
		}
	}
}

// sweep drops every visitor last seen more than ttl before now and returns
// how many are left.
func (rl *RateLimiter) sweep(now time.Time) int {
	rl.mtx.Lock()
	defer rl.mtx.Unlock()

	for ip, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.ttl {
			delete(rl.visitors, ip)
		}
	}
	return len(rl.visitors)
}

func (rl *RateLimiter) getVisitor(ip string) *rate.Limiter {
	rl.mtx.Lock()
	defer rl.mtx.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		limiter := rate.NewLimiter(rl.rate, rl.burst)
		rl.visitors[ip] = &visitor{limiter, time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter := rl.getVisitor(c.ClientIP())

		if !limiter.Allow() {
			utils.TooManyRequestsResponse(c)
			c.Abort()
			return
		}

		c.Next()
	}
}

// RateLimits groups the limiters one router needs.
type RateLimits struct {
	// General applies to every request.
	General *RateLimiter
	// Auth guards register, login and refresh.
	Auth *RateLimiter
	// Scan guards the routes that may call the external product catalog.
	Scan *RateLimiter
}

// Fallbacks for rules left at their zero value.
var (
	defaultGeneralRule = config.RateLimitRule{Interval: 100 * time.Millisecond, Burst: 20} // 10 requests per second
	defaultAuthRule    = config.RateLimitRule{Interval: 12 * time.Second, Burst: 5}        // 5 auth requests per minute
	defaultScanRule    = config.RateLimitRule{Interval: time.Second, Burst: 10}
)

func NewRateLimits(cfg config.RateLimitConfig) *RateLimits {
	return &RateLimits{
		General: newRuleLimiter(cfg.General, defaultGeneralRule, cfg.VisitorTTL),
		Auth:    newRuleLimiter(cfg.Auth, defaultAuthRule, cfg.VisitorTTL),
		Scan:    newRuleLimiter(cfg.Scan, defaultScanRule, cfg.VisitorTTL),
	}
}

func newRuleLimiter(rule, fallback config.RateLimitRule, ttl time.Duration) *RateLimiter {
	if rule.Interval <= 0 {
		rule.Interval = fallback.Interval
	}
	if rule.Burst <= 0 {
		rule.Burst = fallback.Burst
	}
	return NewRateLimiter(rate.Every(rule.Interval), rule.Burst, ttl)
}

// Stop ends the sweep of every limiter in the group.
func (l *RateLimits) Stop() {
	l.General.Stop()
	l.Auth.Stop()
	l.Scan.Stop()
}
