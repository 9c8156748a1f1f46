package middleware

import (
	"strconv"
	"time"

	"github.com/deppfellow/attestation-plugin/internal/metrics"
	"github.com/labstack/echo/v4"
)

// MetricsMiddleware records request counts and latency per route template,
// so path parameters do not blow up label cardinality.
type MetricsMiddleware struct{}

func NewMetricsMiddleware() *MetricsMiddleware {
	return &MetricsMiddleware{}
}

func (m *MetricsMiddleware) Record() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}

			metrics.HTTPRequestsTotal.WithLabelValues(c.Request().Method, path, strconv.Itoa(statusOf(c, err))).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(c.Request().Method, path).Observe(time.Since(start).Seconds())

			return err
		}
	}
}

// statusOf derives the final status of a request whose error has not been
// written by the global error handler yet.
func statusOf(c echo.Context, err error) int {
	if err == nil {
		return c.Response().Status
	}
	return normalizeError(err).Status
}
