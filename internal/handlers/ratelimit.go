package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateCounter is the subset of the redis client the limiter needs.
type RateCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
}

// RateLimiter counts requests per client IP in fixed redis windows.
type RateLimiter struct {
	client RateCounter
	logger *slog.Logger
}

func NewRateLimiter(client RateCounter, logger *slog.Logger) *RateLimiter {
	return &RateLimiter{client: client, logger: logger}
}

// Limit allows limit requests per window for each client under keySuffix.
// Redis errors let the request through.
func (rl *RateLimiter) Limit(keySuffix string, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			key := fmt.Sprintf("rate_limit:%s:%s", keySuffix, clientIP(r))

			count, err := rl.client.Incr(ctx, key).Result()
			if err != nil {
				rl.logger.Warn("rate limiter unavailable", "key", key, "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if count == 1 {
				if err := rl.client.Expire(ctx, key, window).Err(); err != nil {
					rl.logger.Warn("failed to set rate limit window", "key", key, "error", err)
				}
			}

			if count > int64(limit) {
				ttl, err := rl.client.TTL(ctx, key).Result()
				if err != nil || ttl <= 0 {
					ttl = window
				}
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(ttl.Seconds()))))
				writeError(w, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP relies on middleware.RealIP having rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
