// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// Counter increments a fixed-window counter and returns the new value.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisCounter keeps rate limit windows in Redis so that every instance
// behind the load balancer shares them.
type RedisCounter struct {
	client *redis.Client
}

func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

func (r *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	n, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, err
		}
	}
	return n, nil
}

// RateLimit allows limit requests per client IP and window under the given
// key prefix. The IP comes from c.RealIP, so the echo instance needs an
// IPExtractor that does not trust arbitrary forwarding headers. A limit of zero or less disables the check. When the counter
// is unavailable requests are let through, the database lockout still
// applies to logins.
func RateLimit(counter Counter, prefix string, limit int64, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if limit <= 0 || counter == nil {
			return next
		}
		return func(c echo.Context) error {
			r := c.Request()
			key := fmt.Sprintf("ratelimit:%s:%s", prefix, c.RealIP())

			n, err := counter.Incr(r.Context(), key, window)
			if err != nil {
				slog.WarnContext(r.Context(), "rate_limit_unavailable", "key", key, "error", err)
				return next(c)
			}
			if n > limit {
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
			}
			return next(c)
		}
	}
}
