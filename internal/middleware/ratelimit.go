package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/httprate"
	"github.com/liamwears/cinematch/internal/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RateLimiter provides rate limiting functionality
type RateLimiter struct {
	redis        *redis.Client
	maxRequests  int
	window       time.Duration
	isProduction bool
	logger       zerolog.Logger
}

// NewRateLimiter creates a new Redis-backed sliding window rate limiter
func NewRateLimiter(redis *redis.Client, maxRequests int, window time.Duration, isProduction bool, logger zerolog.Logger) *RateLimiter {
	return &RateLimiter{
		redis:        redis,
		maxRequests:  maxRequests,
		window:       window,
		isProduction: isProduction,
		logger:       logger,
	}
}

// Limit returns a middleware that rate limits requests
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identifier := clientIP(r)

		allowed, err := rl.checkRateLimit(r.Context(), identifier)
		if err != nil {
			// Fail open
			rl.logger.Warn().Err(err).Str("client", identifier).Msg("Rate limit check failed")
			next.ServeHTTP(w, r)
			return
		}

		if !allowed {
			metrics.APIRateLimitHits.WithLabelValues("redis").Inc()
			tooManyRequests(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// checkRateLimit checks if the request should be allowed
func (rl *RateLimiter) checkRateLimit(ctx context.Context, identifier string) (bool, error) {
	// Skip rate limiting in local/dev mode for easier testing
	if !rl.isProduction || rl.redis == nil {
		return true, nil
	}

	key := fmt.Sprintf("ratelimit:ip:%s", identifier)
	now := time.Now()
	windowStart := now.Add(-rl.window).UnixNano()

	// Use Redis sorted set for sliding window
	pipe := rl.redis.Pipeline()

	// Remove old entries outside the window
	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", windowStart))

	// Count requests in current window
	countCmd := pipe.ZCard(ctx, key)

	// Add current request. Nanosecond members keep bursts within one second distinct.
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: fmt.Sprintf("%d", now.UnixNano()),
	})

	// Set expiry on the key
	pipe.Expire(ctx, key, rl.window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	return countCmd.Val() < int64(rl.maxRequests), nil
}

// LocalLimit limits by client IP in process memory. Used when Redis is not configured.
func LocalLimit(maxRequests int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		maxRequests,
		window,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return clientIP(r), nil
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.APIRateLimitHits.WithLabelValues("local").Inc()
			tooManyRequests(w, r)
		}),
	)
}

func tooManyRequests(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	fmt.Fprint(w, `{"error":"Too many requests. Please try again later."}`)
}

// clientIP prefers the first X-Forwarded-For hop and falls back to the socket address
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
