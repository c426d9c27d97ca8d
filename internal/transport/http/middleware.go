package http

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// LoggerMiddleware logs every HTTP request after it completes, including
// the room id on catalog/room lookups so a slow or failing request can be
// traced back to the room that caused it.
func LoggerMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("clientIp", c.ClientIP()).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Str("roomId", c.Param("roomId")).
			Msg("http request")
	}
}

// corsMiddleware allows only the configured client origins, mirroring the
// allow-list matching of a same-origin-by-default CORS layer: an exact,
// case-insensitive match against allowedOrigins, or "*" to allow everything
// when the list is empty.
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowAll := len(allowedOrigins) == 0
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		matched := matchOrigin(origin, allowedOrigins, allowAll)

		if origin != "" && matched != "" {
			c.Header("Access-Control-Allow-Origin", matched)
			if matched != "*" {
				c.Header("Vary", "Origin")
				c.Header("Access-Control-Allow-Credentials", "true")
			}
			c.Header("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type,Authorization")
		}

		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func matchOrigin(origin string, allowed []string, allowAll bool) string {
	if origin == "" {
		if allowAll {
			return "*"
		}
		return ""
	}
	for _, a := range allowed {
		if strings.EqualFold(a, origin) {
			return a
		}
	}
	if allowAll {
		return "*"
	}
	return ""
}

// ipRateLimiter caps requests per source IP, evicting limiters that have
// gone idle so the map doesn't grow unbounded under a churn of distinct
// clients. 100 req / 15 min is the public surface's budget; a burst of 20
// tolerates a browser firing its catalog poll plus a page reload.
type ipRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	rate     rate.Limit
	burst    int
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const rateLimiterIdleEvict = 30 * time.Minute

func newIPRateLimiter(requestsPerWindow int, window time.Duration, burst int) *ipRateLimiter {
	return &ipRateLimiter{
		limiters: make(map[string]*limiterEntry),
		rate:     rate.Limit(float64(requestsPerWindow) / window.Seconds()),
		burst:    burst,
	}
}

func (l *ipRateLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	entry, ok := l.limiters[ip]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[ip] = entry
	}
	entry.lastSeen = now

	for k, e := range l.limiters {
		if now.Sub(e.lastSeen) > rateLimiterIdleEvict {
			delete(l.limiters, k)
		}
	}

	return entry.limiter.Allow()
}

// rateLimitMiddleware enforces 100 req / 15 min per source IP on the public
// REST surface.
func rateLimitMiddleware() gin.HandlerFunc {
	limiter := newIPRateLimiter(100, 15*time.Minute, 20)
	return func(c *gin.Context) {
		if !limiter.allow(c.ClientIP()) {
			c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "rate limit exceeded"})
			c.Abort()
			return
		}
		c.Next()
	}
}
