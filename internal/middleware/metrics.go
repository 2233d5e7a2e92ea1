package middleware

import (
	"strconv"
	"time"

	"storefront/internal/metrics"

	"github.com/labstack/echo/v4"
)

func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// let echo write the error response so the status is final
				c.Error(err)
			}

			duration := float64(time.Since(start).Milliseconds())
			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}

			metrics.HTTPRequests.WithLabelValues(c.Request().Method, path,
				strconv.Itoa(c.Response().Status)).Inc()
			metrics.HTTPDuration.WithLabelValues(c.Request().Method, path).Observe(duration)
			return nil
		}
	}
}
