// Package router builds the Echo instance: global middleware, the system
// routes and the /api/v1 admin routes.
package router

import (
	"github.com/deppfellow/attestation-plugin/internal/handler"
	"github.com/deppfellow/attestation-plugin/internal/middleware"
	"github.com/deppfellow/attestation-plugin/internal/server"
	"github.com/labstack/echo/v4"
)

// NewRouter wires middleware in request order: identification and tracing
// first so that logging, metrics and the error handler see request IDs,
// transactions and the request-scoped logger.
func NewRouter(s *server.Server, h *handler.Handlers, middlewares *middleware.Middlewares) *echo.Echo {
	router := echo.New()
	router.HideBanner = true
	router.HidePort = true

	router.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler

	router.Use(
		middlewares.Global.Recover(),
		middlewares.Global.BodyLimit(),
		middlewares.Global.CORS(),
		middlewares.Global.Secure(),
		middleware.RequestID(),
		middlewares.Tracing.NewRelicMiddleware(),
		middlewares.Tracing.EnhanceTracing(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Metrics.Record(),
		middlewares.Global.RequestLogger(),
	)

	registerSystemRoutes(router, h)

	v1 := router.Group("/api/v1", middlewares.RateLimit.Limit(), middlewares.Auth.RequireAuth)
	registerAttestationRoutes(v1, h)

	return router
}
