package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/99minutos/identity-service/internal/pkg/metrics"
)

// WindowAllower is a shared request counter, e.g. the Redis fixed window.
type WindowAllower interface {
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}

func tooManyRequests() error {
	return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
}

// WindowLimit throttles each client IP to limit requests per window using an
// in-process token bucket.
func WindowLimit(name string, limit int, window time.Duration) echo.MiddlewareFunc {
	store := echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(limit) / window.Seconds()),
		Burst:     limit,
		ExpiresIn: 3 * time.Minute,
	})

	return echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			metrics.RateLimitedTotal.WithLabelValues(name).Inc()
			c.Response().Header().Set("Retry-After", strconv.Itoa(int(window.Seconds()+0.5)))
			return tooManyRequests()
		},
	})
}

// SharedWindowLimit throttles each client IP through l. When l fails the
// request is let through and the failure logged.
func SharedWindowLimit(name string, l WindowAllower, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ok, retryAfter, err := l.Allow(c.Request().Context(), c.RealIP())
			if err != nil {
				log.Warn().Err(err).Str("window", name).Msg("rate limiter unavailable, allowing request")
				return next(c)
			}
			if !ok {
				metrics.RateLimitedTotal.WithLabelValues(name).Inc()
				secs := int(retryAfter.Round(time.Second) / time.Second)
				if secs < 1 {
					secs = 1
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
				return tooManyRequests()
			}
			return next(c)
		}
	}
}
