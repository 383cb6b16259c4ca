// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"codeberg.org/oliverandrich/bitsybay/internal/metrics"
	"github.com/labstack/echo/v4"
)

// IPExtractor decides how c.RealIP finds the client address. Without
// trusted proxies it is the peer address and forwarding headers are
// ignored. Otherwise X-Forwarded-For is walked from the right and the
// first hop outside the trusted ranges wins.
func IPExtractor(trustedProxies []string) (echo.IPExtractor, error) {
	if len(trustedProxies) == 0 {
		return echo.ExtractIPDirect(), nil
	}
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, cidr := range trustedProxies {
		_, ipNet, err := net.ParseCIDR(strings.TrimSpace(cidr))
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", cidr, err)
		}
		opts = append(opts, echo.TrustIPRange(ipNet))
	}
	return echo.ExtractIPFromXFFHeader(opts...), nil
}

// RequestMetrics counts requests per route template and status. The
// metrics endpoint itself is not counted.
func RequestMetrics(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			route := c.Path()
			if route == "/metrics" {
				return err
			}
			if route == "" {
				route = "unmatched"
			}

			m.Request(c.Request().Method, route, statusOf(c, err), time.Since(start))
			return err
		}
	}
}

// statusOf returns the status the error handler will write for err.
func statusOf(c echo.Context, err error) int {
	if err == nil {
		return c.Response().Status
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}
