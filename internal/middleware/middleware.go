// Package middleware holds the global and route-specific Echo middleware of
// the admin API: request IDs, request-scoped logging, Clerk authentication,
// New Relic tracing, prometheus metrics, rate limiting and the global error
// handler.
package middleware
