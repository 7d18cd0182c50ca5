package utility

import (
	"fmt"
	"net/http"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// GetSessionIDFromContext safely retrieves the planner session id set by the auth middleware.
func GetSessionIDFromContext(c echo.Context) (string, error) {
	sessionID, ok := c.Get("session_id").(string)
	if !ok || sessionID == "" {
		return "", fmt.Errorf("session ID not found in context")
	}
	return sessionID, nil
}

// LoggerFromContext returns the request logger set by LoggerMiddleware, or the
// global logger outside a request.
func LoggerFromContext(c echo.Context) *zerolog.Logger {
	if l, ok := c.Get("logger").(*zerolog.Logger); ok && l != nil {
		return l
	}
	return &log.Logger
}

// IPRateLimiter hands out one token bucket per client address. The least
// recently seen addresses are evicted once size is reached.
type IPRateLimiter struct {
	limiters *lru.Cache[string, *rate.Limiter]
	limit    rate.Limit
	burst    int
}

func NewIPRateLimiter(rps float64, burst, size int) (*IPRateLimiter, error) {
	cache, err := lru.New[string, *rate.Limiter](size)
	if err != nil {
		return nil, fmt.Errorf("create limiter cache: %w", err)
	}
	return &IPRateLimiter{limiters: cache, limit: rate.Limit(rps), burst: burst}, nil
}

// Allow reports whether a request from ip may proceed now.
func (l *IPRateLimiter) Allow(ip string) bool {
	limiter, ok := l.limiters.Get(ip)
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		if prev, found, _ := l.limiters.PeekOrAdd(ip, limiter); found {
			limiter = prev
		}
	}
	return limiter.Allow()
}

// Middleware rejects requests over the per-IP rate with 429. The address comes
// from c.RealIP, so proxy headers only count when the echo instance's
// IPExtractor trusts the peer that sent them.
func (l *IPRateLimiter) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ip := c.RealIP()
		if !l.Allow(ip) {
			LoggerFromContext(c).Warn().Str("ip", ip).Msg("Rate limit exceeded")
			return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "Too many requests, please try again later"})
		}
		return next(c)
	}
}
