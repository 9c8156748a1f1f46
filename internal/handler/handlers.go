// Package handler is the HTTP layer of the admin API. Handlers bind and
// validate requests through the validation package and delegate to the
// service layer; errors flow to the global error handler.
package handler

import (
	"github.com/deppfellow/attestation-plugin/internal/server"
	"github.com/deppfellow/attestation-plugin/internal/service"
)

type Handlers struct {
	Health      *HealthHandler
	OpenAPI     *OpenAPIHandler
	Settings    *SettingsHandler
	Attestation *AttestationHandler
}

func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Health:      NewHealthHandler(s, services.Settings),
		OpenAPI:     NewOpenAPIHandler(s),
		Settings:    NewSettingsHandler(s, services.Settings),
		Attestation: NewAttestationHandler(s, services.Attestation),
	}
}
