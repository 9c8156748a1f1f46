package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/deppfellow/attestation-plugin/internal/middleware"
	"github.com/deppfellow/attestation-plugin/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const healthCheckTimeout = 5 * time.Second

// StorageChecker reports whether key files can be stored.
type StorageChecker interface {
	CheckStorage() error
}

type HealthHandler struct {
	Handler
	storage StorageChecker
}

func NewHealthHandler(s *server.Server, storage StorageChecker) *HealthHandler {
	return &HealthHandler{
		Handler: NewHandler(s),
		storage: storage,
	}
}

// CheckHealth reports the database, redis and key file storage. It answers
// 503 when any of them fails; links cannot be generated without all three.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()
	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	checks := map[string]interface{}{}
	isHealthy := true

	run := func(name string, check func(ctx context.Context) error) {
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
		defer cancel()

		checkStart := time.Now()
		err := check(ctx)
		result := map[string]interface{}{
			"status":        "healthy",
			"response_time": time.Since(checkStart).String(),
		}
		if err != nil {
			isHealthy = false
			result["status"] = "unhealthy"
			result["error"] = err.Error()
			h.recordFailure(&logger, name, err, time.Since(checkStart))
		}
		checks[name] = result
	}

	if h.server.DB != nil {
		run("database", func(ctx context.Context) error {
			return h.server.DB.Pool.Ping(ctx)
		})
	}
	if h.server.Redis != nil {
		run("redis", func(ctx context.Context) error {
			return h.server.Redis.Ping(ctx).Err()
		})
	}
	if h.storage != nil {
		run("storage", func(ctx context.Context) error {
			return h.storage.CheckStorage()
		})
	}

	response := map[string]interface{}{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"environment": h.server.Config.Primary.Env,
		"checks":      checks,
	}

	if !isHealthy {
		response["status"] = "unhealthy"
		logger.Warn().Dur("total_duration", time.Since(start)).Msg("health check failed")
		return c.JSON(http.StatusServiceUnavailable, response)
	}

	logger.Debug().Dur("total_duration", time.Since(start)).Msg("health check passed")
	return c.JSON(http.StatusOK, response)
}

func (h *HealthHandler) recordFailure(logger *zerolog.Logger, check string, err error, elapsed time.Duration) {
	logger.Error().
		Err(err).
		Str("check", check).
		Dur("response_time", elapsed).
		Msg("health check failed")

	if h.server.LoggerService != nil && h.server.LoggerService.GetApplication() != nil {
		h.server.LoggerService.GetApplication().RecordCustomEvent("HealthCheckError", map[string]interface{}{
			"check_type":       check,
			"operation":        "health_check",
			"error_type":       check + "_unhealthy",
			"response_time_ms": elapsed.Milliseconds(),
			"error_message":    err.Error(),
		})
	}
}
