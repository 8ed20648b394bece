package httpapi

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/MrEthical07/goGuard/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const limiterCleanupEvery = 5 * time.Minute

// RateLimitConfig is a token bucket refilled at RequestsPerWindow per
// Window, holding at most Burst tokens.
type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
	Burst             int
}

// DefaultAuthLimit allows 20 token, register or login calls per minute per IP.
var DefaultAuthLimit = RateLimitConfig{
	RequestsPerWindow: 20,
	Window:            time.Minute,
	Burst:             20,
}

func (c RateLimitConfig) enabled() bool {
	return c.RequestsPerWindow > 0 && c.Window > 0
}

type ipLimiter struct {
	limiters    sync.Map // map[string]*rate.Limiter
	rate        rate.Limit
	burst       int
	mu          sync.Mutex
	lastCleanup time.Time
}

func newIPLimiter(cfg RateLimitConfig) *ipLimiter {
	burst := cfg.Burst
	if burst <= 0 {
		burst = cfg.RequestsPerWindow
	}
	return &ipLimiter{
		rate:        rate.Limit(float64(cfg.RequestsPerWindow) / cfg.Window.Seconds()),
		burst:       burst,
		lastCleanup: time.Now(),
	}
}

func (l *ipLimiter) get(key string) *rate.Limiter {
	if v, ok := l.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}
	v, _ := l.limiters.LoadOrStore(key, rate.NewLimiter(l.rate, l.burst))
	l.maybeCleanup()
	return v.(*rate.Limiter)
}

// maybeCleanup drops limiters whose bucket is full again, meaning the key
// has been idle for at least one refill period.
func (l *ipLimiter) maybeCleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if time.Since(l.lastCleanup) < limiterCleanupEvery {
		return
	}
	l.lastCleanup = time.Now()

	l.limiters.Range(func(key, value any) bool {
		if value.(*rate.Limiter).Tokens() >= float64(l.burst) {
			l.limiters.Delete(key)
		}
		return true
	})
}

// RateLimitByIP limits requests per client IP. A disabled cfg returns a
// pass-through middleware.
func RateLimitByIP(cfg RateLimitConfig, clientIP func(*http.Request) string, logger *zap.Logger) func(http.Handler) http.Handler {
	if !cfg.enabled() {
		return func(next http.Handler) http.Handler { return next }
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	l := newIPLimiter(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			lim := l.get(key)
			if !lim.Allow() {
				res := lim.Reserve()
				retryAfter := max(int(res.Delay().Seconds()), 1)
				res.Cancel()

				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				logger.Warn("ip rate limit exceeded",
					zap.String("ip", key),
					zap.String("path", r.URL.Path),
					zap.Int("retry_after", retryAfter),
				)
				middleware.WriteError(w, http.StatusTooManyRequests, "too many requests, try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
