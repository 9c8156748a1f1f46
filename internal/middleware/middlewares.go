package middleware

import (
	"github.com/deppfellow/attestation-plugin/internal/server"
	"github.com/newrelic/go-agent/v3/newrelic"
)

// Middlewares groups all middleware components used by the HTTP server,
// built once from the application container.
type Middlewares struct {
	// Global holds CORS, request logging, recovery, secure headers, body
	// limits and the global error handler.
	Global *GlobalMiddlewares

	// Auth guards the admin API with Clerk sessions.
	Auth *AuthMiddleware

	// ContextEnhancer attaches a request-scoped logger.
	ContextEnhancer *ContextEnhancer

	// Tracing installs New Relic and adds custom attributes.
	Tracing *TracingMiddleware

	// RateLimit throttles the admin API per client.
	RateLimit *RateLimitMiddleware

	// Metrics records prometheus request metrics.
	Metrics *MetricsMiddleware
}

// NewMiddlewares constructs all middleware components. Without New Relic
// the tracing middleware degrades into a no-op.
func NewMiddlewares(s *server.Server) *Middlewares {
	var nrApp *newrelic.Application
	if s.LoggerService != nil {
		nrApp = s.LoggerService.GetApplication()
	}

	return &Middlewares{
		Global:          NewGlobalMiddlewares(s),
		Auth:            NewAuthMiddleware(s),
		ContextEnhancer: NewContextEnhancer(s),
		Tracing:         NewTracingMiddleware(s, nrApp),
		RateLimit:       NewRateLimitMiddleware(s),
		Metrics:         NewMetricsMiddleware(),
	}
}
